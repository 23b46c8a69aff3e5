package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yukimura/marginalia/internal/template"
	"github.com/yukimura/marginalia/internal/ui"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage the page template",
}

var templateInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the built-in template for customization",
	Long: `Write the built-in page template to the template file so it can be
edited. An existing file is left untouched.

The template language supports {{ author }}, {{ title }} and
{{ sync_date }} variables, one {% for highlight in highlights %} loop,
and {% if highlight.page %} / {% if highlight.note %} conditionals
inside the loop body.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := template.WriteDefault(cfg.TemplateFile); err != nil {
			return fmt.Errorf("failed to write template: %w", err)
		}
		fmt.Printf("%s Template at %s\n", ui.RenderSuccess("✓"), cfg.TemplateFile)
		return nil
	},
}

func init() {
	templateCmd.AddCommand(templateInitCmd)
	rootCmd.AddCommand(templateCmd)
}
