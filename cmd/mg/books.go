package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/yukimura/marginalia/internal/config"
	"github.com/yukimura/marginalia/internal/library"
	"github.com/yukimura/marginalia/internal/ui"
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Manage the book list",
	Long: `List the Apple Books catalog and manage which books get synced.

The book list is a JSON file merging the catalog with two per-book user
fields: "sync" flags a book for pushing, "alias" overrides its Logseq
page name. The file survives catalog refreshes; edit it by hand or use
"mg books select".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		entries, err := refreshBookList(cmd, cfg)
		if err != nil {
			return err
		}

		for i, e := range entries {
			marker := ui.RenderDim("·")
			if e.Sync {
				marker = ui.RenderSuccess("✓")
			}
			fmt.Printf("%s [%d] %s\n", marker, i+1, ui.RenderHeader(e.Title))
			fmt.Printf("    %s\n", ui.RenderDim("by "+e.Author))
			if e.Alias != "" {
				fmt.Printf("    %s\n", ui.RenderDim("alias: "+e.Alias))
			}
			fmt.Printf("    %s\n", ui.RenderDim("asset: "+e.AssetID))
		}
		fmt.Printf("\n%d books, %d flagged for sync\n", len(entries), len(library.ToSync(entries)))
		return nil
	},
}

var booksInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the book list file for hand-editing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		entries, err := refreshBookList(cmd, cfg)
		if err != nil {
			return err
		}

		fmt.Printf("%s Wrote %d books to %s\n", ui.RenderSuccess("✓"), len(entries), cfg.BooksFile)
		fmt.Println(ui.RenderDim(`Set "sync": true on the books you want pushed, or run "mg books select".`))
		return nil
	},
}

var booksSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Interactively choose which books to sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		entries, err := refreshBookList(cmd, cfg)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("no books found in the Apple Books library")
		}

		options := make([]huh.Option[string], 0, len(entries))
		for _, e := range entries {
			label := fmt.Sprintf("%s by %s", e.Title, e.Author)
			options = append(options, huh.NewOption(label, e.AssetID).Selected(e.Sync))
		}

		var selected []string
		form := huh.NewForm(huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Books to sync").
				Description("Space toggles, enter confirms.").
				Options(options...).
				Value(&selected),
		))
		if err := form.Run(); err != nil {
			return fmt.Errorf("selection aborted: %w", err)
		}

		chosen := make(map[string]bool, len(selected))
		for _, id := range selected {
			chosen[id] = true
		}
		for i := range entries {
			entries[i].Sync = chosen[entries[i].AssetID]
		}

		if err := library.Save(cfg.BooksFile, entries); err != nil {
			return err
		}
		fmt.Printf("%s %d books flagged for sync\n", ui.RenderSuccess("✓"), len(selected))
		return nil
	},
}

// refreshBookList merges a fresh catalog read into the persisted list
// and saves it.
func refreshBookList(cmd *cobra.Command, cfg config.Config) ([]library.Entry, error) {
	fresh, err := newSource(cfg).Books(cmd.Context())
	if err != nil {
		return nil, err
	}

	existing, err := library.Load(cfg.BooksFile)
	if err != nil {
		return nil, err
	}

	merged := library.Merge(fresh, existing)
	if err := library.Save(cfg.BooksFile, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func init() {
	booksCmd.AddCommand(booksInitCmd)
	booksCmd.AddCommand(booksSelectCmd)
	rootCmd.AddCommand(booksCmd)
}
