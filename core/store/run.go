package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/preacherhelper/osisdb/core/osis"
)

// Result describes one completed import run.
type Result struct {
	RunID      string
	SourceHash string // BLAKE3 of the decompressed source bytes
	Work       *osis.WorkInfo
	Summary    *osis.Summary
	Elapsed    time.Duration
}

// Run imports the OSIS document at sourcePath into the SQLite database at
// dbPath with full-replace semantics: prior corpus rows are deleted and the
// new corpus written inside one transaction, so a failed run leaves the
// database exactly as it was and a successful run fully replaces it. The
// import engine performs no retries and no partial commits; the first error
// of any kind rolls everything back.
func Run(ctx context.Context, dbPath, sourcePath string) (*Result, error) {
	log := slog.Default()
	runID := uuid.NewString()
	started := time.Now()

	work, err := readWork(sourcePath)
	if err != nil {
		return nil, err
	}

	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	// Clean slate inside the transaction: the engine assumes no prior
	// entities and must not see leftovers from an earlier run.
	if _, err := tx.ExecContext(ctx, resetSQL); err != nil {
		return nil, fmt.Errorf("clear prior corpus: %w", err)
	}

	src, err := osis.OpenSource(sourcePath)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	log.Info("import started", "run_id", runID, "source", sourcePath, "db", dbPath)

	st := NewSQL(tx)
	summary, err := osis.NewImporter(st).Run(ctx, src)
	if err != nil {
		log.Error("import failed, rolling back", "run_id", runID, "error", err)
		return nil, err
	}

	res := &Result{
		RunID:      runID,
		SourceHash: src.Digest(),
		Work:       work,
		Summary:    summary,
		Elapsed:    time.Since(started),
	}
	if err := writeMeta(ctx, st, sourcePath, res); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true

	log.Info("import finished",
		"run_id", runID,
		"books", summary.Books,
		"chapters", summary.Chapters,
		"verses", summary.Verses,
		"tokens", summary.Tokens,
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)
	return res, nil
}

// readWork extracts header metadata in a separate bounded pass over the
// source. A missing header is fine; unreadable bytes are not.
func readWork(sourcePath string) (*osis.WorkInfo, error) {
	src, err := osis.OpenSource(sourcePath)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return osis.ReadWorkInfo(src)
}

func writeMeta(ctx context.Context, st *SQL, sourcePath string, res *Result) error {
	meta := map[string]string{
		"run_id":        res.RunID,
		"imported_at":   time.Now().UTC().Format(time.RFC3339),
		"source_path":   sourcePath,
		"source_blake3": res.SourceHash,
	}
	if w := res.Work; w != nil {
		meta["work_id"] = w.Identifier
		meta["work_title"] = w.Title
		meta["work_language"] = w.Language
		meta["work_description"] = w.Description
		meta["work_ref_system"] = w.RefSystem
	}
	for k, v := range meta {
		if v == "" {
			continue
		}
		if err := st.PutMeta(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// Counts holds the record counts of an imported corpus.
type Counts struct {
	Books    int64
	Chapters int64
	Verses   int64
	Tokens   int64
}

// Stats reports record counts and run metadata from an existing database.
func Stats(ctx context.Context, dbPath string) (*Counts, map[string]string, error) {
	db, err := Open(dbPath + "?mode=ro")
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var c Counts
	for _, q := range []struct {
		table string
		dst   *int64
	}{
		{"books", &c.Books},
		{"chapters", &c.Chapters},
		{"verses", &c.Verses},
		{"tokens", &c.Tokens},
	} {
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+q.table).Scan(q.dst); err != nil {
			return nil, nil, fmt.Errorf("count %s: %w", q.table, err)
		}
	}

	meta := make(map[string]string)
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, nil, fmt.Errorf("read meta: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, nil, fmt.Errorf("scan meta: %w", err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("read meta: %w", err)
	}
	return &c, meta, nil
}

var _ osis.Store = (*SQL)(nil)
