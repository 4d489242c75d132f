package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var (
	docsDir    string
	docsFormat string
)

var docsCmd = &cobra.Command{
	Use:    "gen-docs",
	Short:  "Generate man or markdown pages for ferry",
	Hidden: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := os.MkdirAll(docsDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}

		// Generate from the root so every subcommand gets a page.
		root := cmd.Root()
		switch docsFormat {
		case "man":
			header := &doc.GenManHeader{
				Title:   "FERRY",
				Section: "1",
				Source:  "ferry " + version,
			}
			return doc.GenManTree(root, header, docsDir)
		case "markdown":
			return doc.GenMarkdownTree(root, docsDir)
		default:
			return fmt.Errorf("unknown format %q (use man or markdown)", docsFormat)
		}
	},
}

func init() {
	docsCmd.Flags().StringVar(&docsDir, "dir", "docs", "output directory")
	docsCmd.Flags().StringVar(&docsFormat, "format", "man", "output format (man or markdown)")
}
