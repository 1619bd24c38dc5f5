// Package store persists imported OSIS corpora to SQLite.
//
// Build modes follow the repo-wide SQLite convention:
//   - Default (CGO_ENABLED=0): pure Go modernc.org/sqlite
//   - CGO mode (-tags cgo_sqlite): mattn/go-sqlite3
//
// Use Open instead of sql.Open so the correct driver name is used for the
// selected build mode.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/preacherhelper/osisdb/core/osis"
)

// maxBindVars stays below SQLite's default 999 host-parameter limit.
const maxBindVars = 999

// DriverType identifies the underlying SQLite implementation:
// "purego" for modernc.org/sqlite, "cgo" for mattn/go-sqlite3.
func DriverType() string {
	return driverType
}

// Open opens a SQLite database using the build-selected driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// SQL implements osis.Store on one SQLite transaction. Ensure operations
// are check-then-create with an in-run cache, so re-encountering a book or
// chapter identifier is a cheap no-op and never trips the uniqueness
// constraints.
type SQL struct {
	tx       *sql.Tx
	books    map[string]osis.BookRef
	chapters map[string]osis.ChapterRef
}

// NewSQL wraps an open transaction. The caller owns commit and rollback.
func NewSQL(tx *sql.Tx) *SQL {
	return &SQL{
		tx:       tx,
		books:    make(map[string]osis.BookRef),
		chapters: make(map[string]osis.ChapterRef),
	}
}

// EnsureBook creates the book if this run has not created it yet.
func (s *SQL) EnsureBook(ctx context.Context, osisID, name string, order int) (osis.BookRef, error) {
	if ref, ok := s.books[osisID]; ok {
		return ref, nil
	}

	var id int64
	err := s.tx.QueryRowContext(ctx, `SELECT id FROM books WHERE osis_id = ?`, osisID).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := s.tx.ExecContext(ctx,
			`INSERT INTO books (osis_id, name, book_order) VALUES (?, ?, ?)`,
			osisID, name, order)
		if err != nil {
			return 0, fmt.Errorf("insert book: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("book id: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("select book: %w", err)
	}

	s.books[osisID] = osis.BookRef(id)
	return osis.BookRef(id), nil
}

// EnsureChapter creates the chapter if this run has not created it yet.
func (s *SQL) EnsureChapter(ctx context.Context, book osis.BookRef, number int, osisID string) (osis.ChapterRef, error) {
	if ref, ok := s.chapters[osisID]; ok {
		return ref, nil
	}

	var id int64
	err := s.tx.QueryRowContext(ctx, `SELECT id FROM chapters WHERE osis_id = ?`, osisID).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		res, err := s.tx.ExecContext(ctx,
			`INSERT INTO chapters (book_id, number, osis_id) VALUES (?, ?, ?)`,
			int64(book), number, osisID)
		if err != nil {
			return 0, fmt.Errorf("insert chapter: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("chapter id: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("select chapter: %w", err)
	}

	s.chapters[osisID] = osis.ChapterRef(id)
	return osis.ChapterRef(id), nil
}

// CreateVerse inserts one verse. Verses are exactly-once; any constraint
// violation here is fatal for the run.
func (s *SQL) CreateVerse(ctx context.Context, chapter osis.ChapterRef, number int, osisID, text string) (osis.VerseRef, error) {
	res, err := s.tx.ExecContext(ctx,
		`INSERT INTO verses (chapter_id, number, osis_id, text) VALUES (?, ?, ?, ?)`,
		int64(chapter), number, osisID, text)
	if err != nil {
		return 0, fmt.Errorf("insert verse: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("verse id: %w", err)
	}
	return osis.VerseRef(id), nil
}

// BulkCreateTokens inserts a verse's tokens as multi-row INSERTs, chunked
// below the SQLite bind-variable limit.
func (s *SQL) BulkCreateTokens(ctx context.Context, verse osis.VerseRef, tokens []osis.Token) error {
	const cols = 4
	chunk := maxBindVars / cols

	for len(tokens) > 0 {
		n := len(tokens)
		if n > chunk {
			n = chunk
		}

		var b strings.Builder
		b.WriteString(`INSERT INTO tokens (verse_id, position, text, lexemes) VALUES `)
		args := make([]any, 0, n*cols)
		for i, t := range tokens[:n] {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(?, ?, ?, ?)")
			var lexemes any
			if len(t.Lexemes) > 0 {
				lexemes = strings.Join(t.Lexemes, ",")
			}
			args = append(args, int64(verse), t.Position, t.Text, lexemes)
		}

		if _, err := s.tx.ExecContext(ctx, b.String(), args...); err != nil {
			return fmt.Errorf("insert tokens: %w", err)
		}
		tokens = tokens[n:]
	}
	return nil
}

// PutMeta upserts one metadata key for the current run.
func (s *SQL) PutMeta(ctx context.Context, key, value string) error {
	_, err := s.tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("put meta %q: %w", key, err)
	}
	return nil
}
