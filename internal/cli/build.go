package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/spf13/cobra"
)

type buildFlags struct {
	output    string
	asJSON    bool
	contentID string
	listID    string
	prefix    string
	maxVisits int
	noPDFTool bool
}

func newBuildCmd() *cobra.Command {
	var f buildFlags

	cmd := &cobra.Command{
		Use:   "build FILE",
		Short: "Render FILE with anchors and a contents list",
		Long: `Render FILE into an HTML page with anchors before its headers and the nested
contents list written into the page. Use --json to print the outline instead.

Element ids and the anchor prefix default to CONTENT_ID, CONTENTS_LIST_ID and
ANCHOR_PREFIX from the environment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args[0], f)
		},
	}

	cfg := config.Load()
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the outline as JSON instead of the page")
	cmd.Flags().StringVar(&f.contentID, "content-id", cfg.ContentID, "Id of the content element (HTML input)")
	cmd.Flags().StringVar(&f.listID, "list-id", cfg.ContentsListID, "Id of the contents list element (HTML input)")
	cmd.Flags().StringVar(&f.prefix, "prefix", cfg.AnchorPrefix, "Anchor id prefix")
	cmd.Flags().IntVar(&f.maxVisits, "max-visits", cfg.MaxVisits, "Stop the traversal after this many nodes")
	cmd.Flags().BoolVar(&f.noPDFTool, "no-pdftotext", !cfg.PDFFallbackPdftotext, "Do not fall back to pdftotext for PDFs")
	return cmd
}

func runBuild(cmd *cobra.Command, path string, f buildFlags) error {
	log := logger(cmd)

	if f.contentID == f.listID {
		return fmt.Errorf("--content-id and --list-id must differ")
	}

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	cfg := config.Config{
		ContentID:            f.contentID,
		ContentsListID:       f.listID,
		AnchorPrefix:         f.prefix,
		MaxVisits:            f.maxVisits,
		PDFFallbackPdftotext: !f.noPDFTool,
	}
	opts := pipeline.RenderOptions{
		Outline:           cfg.OutlineOptions(),
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
	}

	out, err := pipeline.Render(in, filepath.Base(path), opts)
	if err != nil {
		return err
	}
	res := out.Outline
	switch {
	case res.Skipped:
		log.Warn("no contents list found, document left unchanged", "list_id", f.listID)
	case res.Truncated:
		log.Warn("outline truncated", "visited", res.Visited)
	}
	log.Info("outline built",
		"file", path,
		"headers", res.Headers,
		"entries", len(res.Entries),
		"start_level", res.StartLevel,
		"duration_ms", out.Duration.Milliseconds(),
	)

	var w io.Writer = cmd.OutOrStdout()
	if f.output != "" {
		file, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		w = file
	}

	if f.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
		return nil
	}
	if _, err := io.WriteString(w, out.HTML); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}
