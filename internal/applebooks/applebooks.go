// Package applebooks reads books and annotations out of the local Apple
// Books databases.
//
// Apple Books keeps its data in two SQLite files under the iBooksX
// container: BKLibrary*.sqlite holds the book catalog and
// AEAnnotation*.sqlite holds highlights and notes. Both are opened
// read-only; this package never writes to them. The annotation database
// attaches the library database so a single query can join annotations
// to their book titles.
package applebooks

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Sentinel errors for the fatal source-unavailable class. The CLI
// matches on these to print recovery guidance before aborting the run.
var (
	// ErrNoLibrary indicates the BKLibrary database could not be found.
	ErrNoLibrary = errors.New("BKLibrary database not found; make sure Apple Books has finished syncing")

	// ErrNoAnnotations indicates the AEAnnotation database could not be found.
	ErrNoAnnotations = errors.New("AEAnnotation database not found; make sure Apple Books has finished syncing")
)

const containerPath = "Library/Containers/com.apple.iBooksX/Data/Documents"

// Source locates and reads the Apple Books databases. The zero value is
// not usable; construct with NewSource, which points at the standard
// container under the user's home directory. Override the directories
// for tests or non-standard installs.
type Source struct {
	// LibraryDir holds BKLibrary*.sqlite.
	LibraryDir string

	// AnnotationDir holds AEAnnotation*.sqlite.
	AnnotationDir string
}

// NewSource returns a Source pointing at the standard Apple Books
// container under the current user's home directory.
func NewSource() *Source {
	home, _ := os.UserHomeDir()
	return &Source{
		LibraryDir:    filepath.Join(home, containerPath, "BKLibrary"),
		AnnotationDir: filepath.Join(home, containerPath, "AEAnnotation"),
	}
}

// LibraryDB returns the path of the BKLibrary sqlite file, or
// ErrNoLibrary when none exists.
func (s *Source) LibraryDB() (string, error) {
	return findDB(s.LibraryDir, "BKLibrary*.sqlite", ErrNoLibrary)
}

// AnnotationDB returns the path of the AEAnnotation sqlite file, or
// ErrNoAnnotations when none exists.
func (s *Source) AnnotationDB() (string, error) {
	return findDB(s.AnnotationDir, "AEAnnotation*.sqlite", ErrNoAnnotations)
}

func findDB(dir, pattern string, missing error) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return "", missing
	}
	return matches[0], nil
}

// openReadOnly opens a sqlite database without taking write locks, so a
// running Books.app is never disturbed.
func openReadOnly(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}
