package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yukimura/marginalia/internal/applebooks"
	"github.com/yukimura/marginalia/internal/config"
	"github.com/yukimura/marginalia/internal/logseq"
)

var (
	flagConfig    string
	flagURL       string
	flagToken     string
	flagBooksFile string
	flagTemplate  string
)

var rootCmd = &cobra.Command{
	Use:   "mg",
	Short: "Sync Apple Books highlights into Logseq",
	Long: `marginalia reads highlights and notes out of the local Apple Books
databases, renders them through a page template, and pushes the result
to a running Logseq instance over its HTTP API.

Getting started:
  1. Enable the HTTP API server in Logseq (Settings → Features) and
     create an API token.
  2. Run "mg books init" to write the book list, then flag books with
     "mg books select" (or edit the file by hand and set "sync": true).
  3. Run "mg sync".

Configuration is read from ` + "`config.yaml`" + ` in the config directory,
a .env file beside it, LOGSEQ_URL / LOGSEQ_TOKEN environment variables,
and finally these flags.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "Logseq API endpoint")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Logseq API token")
	rootCmd.PersistentFlags().StringVar(&flagBooksFile, "books-file", "", "book list path")
	rootCmd.PersistentFlags().StringVar(&flagTemplate, "template-file", "", "page template path")
}

// loadConfig resolves configuration and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, err
	}
	if flagURL != "" {
		cfg.APIURL = flagURL
	}
	if flagToken != "" {
		cfg.APIToken = flagToken
	}
	if flagBooksFile != "" {
		cfg.BooksFile = flagBooksFile
	}
	if flagTemplate != "" {
		cfg.TemplateFile = flagTemplate
	}

	if err := os.MkdirAll(filepath.Dir(cfg.BooksFile), 0755); err != nil {
		return config.Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}
	return cfg, nil
}

// newSource builds the Apple Books source, honoring directory
// overrides from the config.
func newSource(cfg config.Config) *applebooks.Source {
	src := applebooks.NewSource()
	if cfg.LibraryDir != "" {
		src.LibraryDir = cfg.LibraryDir
	}
	if cfg.AnnotationDir != "" {
		src.AnnotationDir = cfg.AnnotationDir
	}
	return src
}

// newClient builds the Logseq client from the config.
func newClient(cfg config.Config) *logseq.Client {
	return logseq.New(cfg.APIURL, cfg.APIToken)
}
