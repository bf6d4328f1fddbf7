// Package cli implements the outline command line tool.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dgallion1/docoutline/internal/version"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Build a table of contents for a document",
		Long: `outline renders a document (HTML, Markdown, DOCX, PDF, text or CSV) into an
HTML page, inserts anchors before its headers and writes a nested, clickable
contents list into the page.`,
		SilenceUsage: true,
	}
	cmd.Version = version.Version
	cmd.SetVersionTemplate(fmt.Sprintf("outline %s\n", version.String()))
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newTreeCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "outline %s\n", version.String())
		},
	}
}

// logger returns a stderr text logger when --verbose is set.
func logger(cmd *cobra.Command) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
