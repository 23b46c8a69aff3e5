package applebooks

import (
	"context"
	"database/sql"
	"fmt"
)

// Book is one catalog row from the BKLibrary database. AssetID is the
// stable key used to merge preference data across runs.
type Book struct {
	AssetID         string  `json:"asset_id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Kind            string  `json:"kind,omitempty"`
	Language        string  `json:"language,omitempty"`
	PageCount       int     `json:"page_count,omitempty"`
	ReadingProgress float64 `json:"reading_progress,omitempty"`
	LastOpen        string  `json:"last_open,omitempty"`
	Created         string  `json:"created,omitempty"`
	IsFinished      bool    `json:"is_finished"`
	Genre           string  `json:"genre,omitempty"`
	Year            int     `json:"year,omitempty"`
}

const booksQuery = `
	SELECT
		ZTITLE,
		ZAUTHOR,
		ZKIND,
		ZLANGUAGE,
		ZPAGECOUNT,
		ZREADINGPROGRESS,
		ZLASTOPENDATE,
		ZCREATIONDATE,
		ZISFINISHED,
		ZASSETID,
		ZGENRE,
		ZYEAR
	FROM ZBKLIBRARYASSET
	WHERE ZTITLE IS NOT NULL
	ORDER BY ZLASTOPENDATE DESC NULLS LAST`

// Books reads the full catalog, most recently opened first. Authorless
// rows get "Unknown" so downstream templates always have a value.
func (s *Source) Books(ctx context.Context) ([]Book, error) {
	path, err := s.LibraryDB()
	if err != nil {
		return nil, err
	}

	conn, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, booksQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query library: %w", err)
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		var (
			title, author, kind, language, genre sql.NullString
			pageCount, year                      sql.NullInt64
			progress, lastOpen, created          sql.NullFloat64
			isFinished                           sql.NullBool
			assetID                              sql.NullString
		)
		if err := rows.Scan(&title, &author, &kind, &language, &pageCount,
			&progress, &lastOpen, &created, &isFinished, &assetID, &genre, &year); err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}

		book := Book{
			AssetID:         assetID.String,
			Title:           title.String,
			Author:          author.String,
			Kind:            kind.String,
			Language:        language.String,
			PageCount:       int(pageCount.Int64),
			ReadingProgress: progress.Float64,
			LastOpen:        formatAppleTime(lastOpen.Float64),
			Created:         formatAppleTime(created.Float64),
			IsFinished:      isFinished.Bool,
			Genre:           genre.String,
			Year:            int(year.Int64),
		}
		if book.Author == "" {
			book.Author = "Unknown"
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read library rows: %w", err)
	}

	return books, nil
}
