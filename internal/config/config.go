// Package config resolves the tool's configuration from its YAML file,
// the environment, and built-in defaults.
//
// Precedence, lowest to highest: defaults, the config file, environment
// variables (a .env file next to the config is loaded first), then any
// command-line flags applied by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variable names, kept compatible with the common Logseq
// API plugin conventions.
const (
	EnvURL   = "LOGSEQ_URL"
	EnvToken = "LOGSEQ_TOKEN"
)

// Config holds everything a sync run needs to know about its
// surroundings.
type Config struct {
	// APIURL is the Logseq HTTP API endpoint.
	APIURL string `yaml:"api_url"`

	// APIToken authorizes API calls.
	APIToken string `yaml:"api_token"`

	// BooksFile is the persisted book list path.
	BooksFile string `yaml:"books_file"`

	// TemplateFile is the page template path. The built-in template
	// is used when the file does not exist.
	TemplateFile string `yaml:"template_file"`

	// LibraryDir overrides the BKLibrary database directory.
	LibraryDir string `yaml:"library_dir"`

	// AnnotationDir overrides the AEAnnotation database directory.
	AnnotationDir string `yaml:"annotation_dir"`

	// LogFile, when set, routes watch-mode logging to a rotating
	// file instead of stderr.
	LogFile string `yaml:"log_file"`
}

// Dir returns the tool's config directory (~/.config/marginalia on
// most systems).
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "marginalia")
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	dir := Dir()
	return Config{
		APIURL:       "http://127.0.0.1:12315/api",
		BooksFile:    filepath.Join(dir, "books.json"),
		TemplateFile: filepath.Join(dir, "template.md"),
	}
}

// Load resolves the configuration. path names the YAML config file; an
// empty path means <config dir>/config.yaml. A missing file is fine,
// a malformed one is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(Dir(), "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No config file; defaults plus environment.
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// A .env beside the config file mirrors the plugin setup docs;
	// absence is not an error.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	if v := os.Getenv(EnvURL); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		cfg.APIToken = v
	}

	return cfg, nil
}
