// Package library manages the persisted book list that drives a sync
// run.
//
// The list is a JSON array merging the Apple Books catalog with two
// user-controlled fields per book: a sync flag and an optional page-name
// alias. Users flip the flag (by hand or through the interactive
// picker) to choose which books get pushed. Merging is keyed by asset
// id: user fields survive catalog refreshes, everything else is taken
// from the fresh catalog read.
package library

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yukimura/marginalia/internal/applebooks"
)

// Entry is one book in the persisted list: the catalog row plus the
// user-controlled Sync and Alias fields.
type Entry struct {
	applebooks.Book

	// Sync marks the book for pushing on the next run.
	Sync bool `json:"sync"`

	// Alias overrides the page name used in the knowledge base.
	Alias string `json:"alias"`
}

// PageName returns the page the book syncs to: the alias if set,
// otherwise the title, otherwise "Unknown".
func (e Entry) PageName() string {
	if alias := strings.TrimSpace(e.Alias); alias != "" {
		return alias
	}
	if e.Title != "" {
		return e.Title
	}
	return "Unknown"
}

// Load reads the book list at path. A missing file is an empty list,
// not an error; the first run starts from nothing.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read book list: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse book list: %w", err)
	}
	return entries, nil
}

// Save writes the book list to path, pretty-printed so users can edit
// it by hand.
func Save(path string, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode book list: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write book list: %w", err)
	}
	return nil
}

// Merge combines a fresh catalog read with the existing list. For books
// present in both, Sync and Alias come from the existing entry and all
// other fields from the fresh catalog. Books new to the catalog start
// with Sync off and no alias. Books that left the catalog drop out.
func Merge(fresh []applebooks.Book, existing []Entry) []Entry {
	byID := make(map[string]Entry, len(existing))
	for _, e := range existing {
		byID[e.AssetID] = e
	}

	merged := make([]Entry, 0, len(fresh))
	for _, book := range fresh {
		entry := Entry{Book: book}
		if prev, ok := byID[book.AssetID]; ok {
			entry.Sync = prev.Sync
			entry.Alias = prev.Alias
		}
		merged = append(merged, entry)
	}
	return merged
}

// ToSync filters the list down to the entries flagged for syncing.
func ToSync(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Sync {
			out = append(out, e)
		}
	}
	return out
}
