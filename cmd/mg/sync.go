package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/yukimura/marginalia/internal/syncer"
	"github.com/yukimura/marginalia/internal/template"
	"github.com/yukimura/marginalia/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push flagged books' annotations to Logseq",
	Long: `Sync refreshes the book list from Apple Books, then for every book
flagged with "sync": true renders its highlights through the page
template and replaces the matching Logseq page.

Each book is one unit of work: a failing page is reported and counted,
and the run continues with the remaining books. Only a missing Apple
Books database aborts the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := newClient(cfg)
		if !client.Connected(cmd.Context()) {
			fmt.Fprintln(os.Stderr, ui.RenderError("Cannot reach the Logseq API."))
			fmt.Fprintln(os.Stderr, "Check that:")
			fmt.Fprintln(os.Stderr, "  1. Logseq is running")
			fmt.Fprintln(os.Stderr, "  2. the HTTP API server is enabled (Settings → Features)")
			fmt.Fprintf(os.Stderr, "  3. %s is set\n", "LOGSEQ_TOKEN")
			return fmt.Errorf("logseq API unreachable at %s", cfg.APIURL)
		}

		if err := template.WriteDefault(cfg.TemplateFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not write default template: %v\n", err)
		}

		s := syncer.New(newSource(cfg), client, cfg.BooksFile,
			template.Load(cfg.TemplateFile),
			log.New(os.Stderr, "[sync] ", log.LstdFlags))

		res, err := s.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println(ui.RenderHeader("Sync complete"))
		fmt.Printf("  %s %d synced\n", ui.RenderSuccess("✓"), res.Synced)
		fmt.Printf("  %s %d failed\n", ui.RenderError("✗"), res.Failed)
		fmt.Printf("  %s %d skipped (no annotations)\n", ui.RenderDim("-"), res.Skipped)

		if res.Synced == 0 && res.Failed == 0 && res.Skipped == 0 {
			fmt.Println()
			fmt.Println(ui.RenderDim(`No books are flagged. Run "mg books select" to choose some.`))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
