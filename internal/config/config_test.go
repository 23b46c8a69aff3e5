package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvURL, "")
	t.Setenv(EnvToken, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:12315/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.BooksFile == "" || cfg.TemplateFile == "" {
		t.Errorf("default paths unset: %+v", cfg)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := "api_url: http://example.test/api\napi_token: from-file\nbooks_file: /tmp/books.json\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	// Environment outranks the file.
	t.Setenv(EnvURL, "")
	t.Setenv(EnvToken, "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://example.test/api" {
		t.Errorf("APIURL = %q, want file value", cfg.APIURL)
	}
	if cfg.APIToken != "from-env" {
		t.Errorf("APIToken = %q, want env value", cfg.APIToken)
	}
	if cfg.BooksFile != "/tmp/books.json" {
		t.Errorf("BooksFile = %q", cfg.BooksFile)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LOGSEQ_TOKEN=dotenv-token\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvURL, "")
	t.Setenv(EnvToken, "")
	os.Unsetenv(EnvToken)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIToken != "dotenv-token" {
		t.Errorf("APIToken = %q, want value from .env", cfg.APIToken)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_url: [unterminated\n\tbad: indent"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("expected parse error")
	}
}
