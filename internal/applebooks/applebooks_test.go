package applebooks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
)

// createLibraryDB writes a BKLibrary fixture with the columns the
// catalog query touches.
func createLibraryDB(t *testing.T, dir string, books []Book) string {
	t.Helper()

	path := filepath.Join(dir, "BKLibrary-1-091020131601.sqlite")
	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer conn.Close()

	_, err = conn.Exec(`CREATE TABLE ZBKLIBRARYASSET (
		ZTITLE TEXT,
		ZAUTHOR TEXT,
		ZKIND TEXT,
		ZLANGUAGE TEXT,
		ZPAGECOUNT INTEGER,
		ZREADINGPROGRESS REAL,
		ZLASTOPENDATE REAL,
		ZCREATIONDATE REAL,
		ZISFINISHED INTEGER,
		ZASSETID TEXT,
		ZGENRE TEXT,
		ZYEAR INTEGER
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	for i, b := range books {
		_, err := conn.Exec(
			`INSERT INTO ZBKLIBRARYASSET
			 (ZTITLE, ZAUTHOR, ZKIND, ZLANGUAGE, ZPAGECOUNT, ZREADINGPROGRESS,
			  ZLASTOPENDATE, ZCREATIONDATE, ZISFINISHED, ZASSETID, ZGENRE, ZYEAR)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.Title, nullable(b.Author), nullable(b.Kind), nullable(b.Language),
			b.PageCount, b.ReadingProgress,
			// Later rows get older open dates so insertion order is
			// also the expected query order.
			float64(1000-i), float64(500-i),
			b.IsFinished, b.AssetID, nullable(b.Genre), b.Year,
		)
		if err != nil {
			t.Fatalf("insert book: %v", err)
		}
	}
	return path
}

// createAnnotationDB writes an AEAnnotation fixture keyed by asset id.
func createAnnotationDB(t *testing.T, dir string, anns map[string][]Annotation) string {
	t.Helper()

	path := filepath.Join(dir, "AEAnnotation_v10312011_1727_local.sqlite")
	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer conn.Close()

	_, err = conn.Exec(`CREATE TABLE ZAEANNOTATION (
		ZANNOTATIONSELECTEDTEXT TEXT,
		ZANNOTATIONNOTE TEXT,
		ZANNOTATIONCREATIONDATE REAL,
		ZANNOTATIONASSETID TEXT
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	seq := 0.0
	for assetID, list := range anns {
		for _, a := range list {
			seq++
			_, err := conn.Exec(
				`INSERT INTO ZAEANNOTATION
				 (ZANNOTATIONSELECTEDTEXT, ZANNOTATIONNOTE, ZANNOTATIONCREATIONDATE, ZANNOTATIONASSETID)
				 VALUES (?, ?, ?, ?)`,
				nullable(a.Text), nullable(a.Note), seq, assetID,
			)
			if err != nil {
				t.Fatalf("insert annotation: %v", err)
			}
		}
	}
	return path
}

// nullable maps "" to NULL so fixtures exercise the null scans.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func TestSource_Books(t *testing.T) {
	dir := t.TempDir()
	createLibraryDB(t, dir, []Book{
		{AssetID: "A1", Title: "Walden", Author: "Thoreau", PageCount: 312, IsFinished: true, Year: 1854},
		{AssetID: "A2", Title: "Untitled Draft"},
	})

	src := &Source{LibraryDir: dir, AnnotationDir: dir}
	books, err := src.Books(context.Background())
	if err != nil {
		t.Fatalf("Books: %v", err)
	}

	if len(books) != 2 {
		t.Fatalf("got %d books, want 2", len(books))
	}
	if books[0].Title != "Walden" || books[0].AssetID != "A1" {
		t.Errorf("first book = %+v", books[0])
	}
	if books[0].PageCount != 312 || !books[0].IsFinished || books[0].Year != 1854 {
		t.Errorf("book fields lost: %+v", books[0])
	}
	if books[0].LastOpen == "" {
		t.Errorf("expected formatted last-open time")
	}
	if books[1].Author != "Unknown" {
		t.Errorf("authorless book should default to Unknown, got %q", books[1].Author)
	}
}

func TestSource_Annotations(t *testing.T) {
	dir := t.TempDir()
	createLibraryDB(t, dir, []Book{
		{AssetID: "A1", Title: "Walden", Author: "Thoreau"},
	})
	createAnnotationDB(t, dir, map[string][]Annotation{
		"A1": {
			{Text: "First highlight"},
			{Text: "Second highlight", Note: "a thought"},
		},
		"": {
			{Text: "orphan row without asset id"},
		},
	})

	src := &Source{LibraryDir: dir, AnnotationDir: dir}
	byBook, err := src.Annotations(context.Background())
	if err != nil {
		t.Fatalf("Annotations: %v", err)
	}

	if len(byBook) != 1 {
		t.Fatalf("got %d books with annotations, want 1: %v", len(byBook), byBook)
	}
	anns := byBook["A1"]
	if len(anns) != 2 {
		t.Fatalf("got %d annotations, want 2", len(anns))
	}
	if anns[0].Text != "First highlight" || anns[1].Note != "a thought" {
		t.Errorf("annotations = %+v", anns)
	}
	if anns[0].Title != "Walden" || anns[0].Author != "Thoreau" {
		t.Errorf("library join failed: %+v", anns[0])
	}
	if anns[0].CreatedAt == "" {
		t.Errorf("expected formatted creation time")
	}
}

func TestSource_MissingDatabases(t *testing.T) {
	src := &Source{LibraryDir: t.TempDir(), AnnotationDir: t.TempDir()}

	if _, err := src.Books(context.Background()); !errors.Is(err, ErrNoLibrary) {
		t.Errorf("Books err = %v, want ErrNoLibrary", err)
	}
	if _, err := src.Annotations(context.Background()); !errors.Is(err, ErrNoAnnotations) {
		t.Errorf("Annotations err = %v, want ErrNoAnnotations", err)
	}
}

func TestFormatAppleTime(t *testing.T) {
	if got := formatAppleTime(0); got != "" {
		t.Errorf("zero timestamp = %q, want empty", got)
	}
	// Apple epoch itself is 2001-01-01 00:00:00 UTC.
	got := formatAppleTime(1)
	if got == "" {
		t.Errorf("expected non-empty formatted time")
	}
	if _, err := fmt.Sscanf(got, "%d-%d-%d %d:%d:%d", new(int), new(int), new(int), new(int), new(int), new(int)); err != nil {
		t.Errorf("unexpected format %q: %v", got, err)
	}
}
