package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for anchors and metadata
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the outline of FILE as an indented tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer in.Close()

			cfg := config.Load()
			doc, opts, err := pipeline.Parse(in, filepath.Base(args[0]), pipeline.RenderOptions{
				Outline:           cfg.OutlineOptions(),
				FallbackPdftotext: cfg.PDFFallbackPdftotext,
			})
			if err != nil {
				return err
			}
			// The tree only needs the content area; a contents list is optional.
			root := doctree.ElementByID(doc.Root, opts.ContentID)
			if root == nil {
				return fmt.Errorf("%w: no element with id %q", outline.ErrNoContentRoot, opts.ContentID)
			}
			printTree(cmd.OutOrStdout(), doc.Title, outline.Walk(root, opts))
			return nil
		},
	}
}

// printTree renders one line per entry, indented by its depth below the
// start level, followed by a summary box.
func printTree(w io.Writer, title string, res *outline.Result) {
	fmt.Fprintln(w, titleStyle.Render(title))
	for _, e := range res.Entries {
		indent := strings.Repeat("  ", max(e.Level-res.StartLevel, 0))
		fmt.Fprintf(w, "%s- %s %s\n", indent, e.Title, dimStyle.Render("#"+e.Anchor))
	}

	summary := fmt.Sprintf("%s %d  %s %d  %s h%d",
		dimStyle.Render("Headers:"), res.Headers,
		dimStyle.Render("Entries:"), len(res.Entries),
		dimStyle.Render("Start:"), res.StartLevel,
	)
	if res.Truncated {
		summary += "\n" + warnStyle.Render(fmt.Sprintf("truncated after %d nodes", res.Visited))
	}
	fmt.Fprintln(w, boxStyle.Render(summary))
}
