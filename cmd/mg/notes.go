package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yukimura/marginalia/internal/applebooks"
	"github.com/yukimura/marginalia/internal/ui"
)

var notesCmd = &cobra.Command{
	Use:   "notes [asset-id]",
	Short: "Print highlights and notes from Apple Books",
	Long: `Print every highlight and note in the Apple Books annotation
database, grouped by book. Pass an asset id to limit the output to one
book (ids are shown by "mg books").`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		byBook, err := newSource(cfg).Annotations(cmd.Context())
		if err != nil {
			return err
		}

		if len(args) == 1 {
			anns, ok := byBook[args[0]]
			if !ok {
				fmt.Println("No annotations for that book")
				return nil
			}
			byBook = map[string][]applebooks.Annotation{args[0]: anns}
		}

		if len(byBook) == 0 {
			fmt.Println("No annotations found")
			return nil
		}

		total := 0
		for _, anns := range byBook {
			total += len(anns)
		}
		fmt.Printf("%d annotations from %d books\n", total, len(byBook))

		for assetID, anns := range byBook {
			if len(anns) == 0 {
				continue
			}
			fmt.Println()
			fmt.Println(ui.RenderHeader(title(anns[0])))
			fmt.Println(ui.RenderDim("  by " + author(anns[0])))
			fmt.Println(ui.RenderDim("  asset: " + assetID))

			for i, a := range anns {
				fmt.Printf("\n  [%d] %s\n", i+1, ui.RenderDim(a.CreatedAt))
				if a.Text != "" {
					for _, line := range strings.Split(a.Text, "\n") {
						fmt.Printf("      %s\n", line)
					}
				}
				if a.Note != "" {
					fmt.Printf("      %s\n", ui.RenderAccent("Note: "+a.Note))
				}
			}
		}
		return nil
	},
}

func title(a applebooks.Annotation) string {
	if a.Title == "" {
		return "Unknown Book"
	}
	return a.Title
}

func author(a applebooks.Annotation) string {
	if a.Author == "" {
		return "Unknown Author"
	}
	return a.Author
}

func init() {
	rootCmd.AddCommand(notesCmd)
}
