package applebooks

import (
	"context"
	"database/sql"
	"fmt"
)

// Annotation is one highlight or note row from the AEAnnotation
// database, joined to its book for title and author.
type Annotation struct {
	Text      string `json:"text"`
	Note      string `json:"note"`
	CreatedAt string `json:"created_at,omitempty"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
}

const annotationsQuery = `
	SELECT
		a.ZANNOTATIONSELECTEDTEXT,
		a.ZANNOTATIONNOTE,
		a.ZANNOTATIONCREATIONDATE,
		a.ZANNOTATIONASSETID,
		b.ZTITLE,
		b.ZAUTHOR
	FROM ZAEANNOTATION a
	LEFT JOIN library.ZBKLIBRARYASSET b
		ON a.ZANNOTATIONASSETID = b.ZASSETID
	WHERE a.ZANNOTATIONSELECTEDTEXT IS NOT NULL
	   OR a.ZANNOTATIONNOTE IS NOT NULL
	ORDER BY a.ZANNOTATIONCREATIONDATE ASC`

// Annotations reads every highlight and note, grouped by book asset id
// and ordered by creation date within each book. Rows without an asset
// id are dropped; they cannot be attached to any page.
func (s *Source) Annotations(ctx context.Context) (map[string][]Annotation, error) {
	annPath, err := s.AnnotationDB()
	if err != nil {
		return nil, err
	}
	libPath, err := s.LibraryDB()
	if err != nil {
		return nil, err
	}

	conn, err := openReadOnly(annPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	// The join needs both databases on one connection.
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("ATTACH DATABASE 'file:%s?mode=ro' AS library", libPath)); err != nil {
		return nil, fmt.Errorf("failed to attach library database: %w", err)
	}

	rows, err := conn.QueryContext(ctx, annotationsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	byBook := make(map[string][]Annotation)
	for rows.Next() {
		var (
			text, note, assetID, title, author sql.NullString
			createdAt                          sql.NullFloat64
		)
		if err := rows.Scan(&text, &note, &createdAt, &assetID, &title, &author); err != nil {
			return nil, fmt.Errorf("failed to scan annotation row: %w", err)
		}
		if assetID.String == "" {
			continue
		}

		byBook[assetID.String] = append(byBook[assetID.String], Annotation{
			Text:      text.String,
			Note:      note.String,
			CreatedAt: formatAppleTime(createdAt.Float64),
			Title:     title.String,
			Author:    author.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotation rows: %w", err)
	}

	return byBook, nil
}
