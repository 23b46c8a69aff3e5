// Package syncer orchestrates one sync run: refresh the book list from
// Apple Books, render each flagged book's annotations through the
// template, and push the result to Logseq.
//
// Failures are isolated per book. A book whose page cannot be replaced
// is counted and reported in the end-of-run summary without stopping
// the remaining books. Only the source-unavailable class (Apple Books
// databases missing) aborts a run, since no partial sync is possible
// without the source.
package syncer

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/yukimura/marginalia/internal/applebooks"
	"github.com/yukimura/marginalia/internal/library"
	"github.com/yukimura/marginalia/internal/template"
)

// BookSource yields the catalog and the annotations grouped by asset
// id. *applebooks.Source is the production implementation.
type BookSource interface {
	Books(ctx context.Context) ([]applebooks.Book, error)
	Annotations(ctx context.Context) (map[string][]applebooks.Annotation, error)
}

// PageWriter replaces a named page's content in the knowledge base.
// *logseq.Client is the production implementation.
type PageWriter interface {
	ReplacePage(ctx context.Context, name, content string) error
}

// Result summarizes one run.
type Result struct {
	// Synced counts books whose page was replaced.
	Synced int

	// Failed counts books whose page replacement errored.
	Failed int

	// Skipped counts flagged books that had no annotations.
	Skipped int
}

// Syncer wires the source, the persisted book list, the template, and
// the page writer into a run.
type Syncer struct {
	source   BookSource
	writer   PageWriter
	booksOn  string // path of the persisted book list
	tmpl     string // template text
	logger   *log.Logger
	syncDate string // override for tests; empty means today
}

// New creates a Syncer. The template text is rendered per book; pass
// template.Load's result or a custom string. If logger is nil, a
// default stderr logger is used.
func New(source BookSource, writer PageWriter, booksFile, tmpl string, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Syncer{
		source:  source,
		writer:  writer,
		booksOn: booksFile,
		tmpl:    tmpl,
		logger:  logger,
	}
}

// RefreshBooks reads the catalog, merges it with the persisted book
// list, saves the merged list, and returns it. User sync flags and
// aliases survive the refresh.
func (s *Syncer) RefreshBooks(ctx context.Context) ([]library.Entry, error) {
	fresh, err := s.source.Books(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read book catalog: %w", err)
	}

	existing, err := library.Load(s.booksOn)
	if err != nil {
		return nil, err
	}

	merged := library.Merge(fresh, existing)
	if err := library.Save(s.booksOn, merged); err != nil {
		return nil, err
	}

	s.logger.Printf("Refreshed book list: %d books (%d flagged)", len(merged), len(library.ToSync(merged)))
	return merged, nil
}

// Run performs a full sync and returns the per-book summary. The error
// is non-nil only for the fatal class: source databases missing, or the
// book list unreadable.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	entries, err := s.RefreshBooks(ctx)
	if err != nil {
		return Result{}, err
	}

	toSync := library.ToSync(entries)
	if len(toSync) == 0 {
		s.logger.Printf("No books flagged for sync")
		return Result{}, nil
	}

	byBook, err := s.source.Annotations(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read annotations: %w", err)
	}

	var res Result
	for _, entry := range toSync {
		anns := byBook[entry.AssetID]
		if len(anns) == 0 {
			s.logger.Printf("Skipping %s: no annotations", entry.PageName())
			res.Skipped++
			continue
		}

		if err := s.syncBook(ctx, entry, anns); err != nil {
			s.logger.Printf("Failed to sync %s: %v", entry.PageName(), err)
			res.Failed++
			continue
		}

		s.logger.Printf("Synced %s (%d annotations)", entry.PageName(), len(anns))
		res.Synced++
	}

	return res, nil
}

// syncBook renders one book's annotations and replaces its page.
func (s *Syncer) syncBook(ctx context.Context, entry library.Entry, anns []applebooks.Annotation) error {
	highlights := make([]template.Highlight, 0, len(anns))
	for _, a := range anns {
		highlights = append(highlights, template.Highlight{
			Text:      a.Text,
			Note:      a.Note,
			CreatedAt: a.CreatedAt,
		})
	}

	title := entry.Title
	author := entry.Author
	content := template.Render(s.tmpl, title, author, highlights, s.syncDate)

	return s.writer.ReplacePage(ctx, entry.PageName(), content)
}
