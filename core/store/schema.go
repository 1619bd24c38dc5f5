package store

// schemaSQL is the corpus schema. Integer row ids double as the opaque
// references the import engine threads between calls. Canonical OSIS
// identifiers are unique corpus-wide for books, chapters, and verses.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS books (
	id         INTEGER PRIMARY KEY,
	osis_id    TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	book_order INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS chapters (
	id      INTEGER PRIMARY KEY,
	book_id INTEGER NOT NULL REFERENCES books(id),
	number  INTEGER NOT NULL,
	osis_id TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS verses (
	id         INTEGER PRIMARY KEY,
	chapter_id INTEGER NOT NULL REFERENCES chapters(id),
	number     INTEGER NOT NULL,
	osis_id    TEXT NOT NULL UNIQUE,
	text       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tokens (
	id       INTEGER PRIMARY KEY,
	verse_id INTEGER NOT NULL REFERENCES verses(id),
	position INTEGER NOT NULL,
	text     TEXT NOT NULL,
	lexemes  TEXT,
	UNIQUE (verse_id, position)
);
CREATE INDEX IF NOT EXISTS idx_chapters_book ON chapters(book_id);
CREATE INDEX IF NOT EXISTS idx_verses_chapter ON verses(chapter_id);
CREATE INDEX IF NOT EXISTS idx_tokens_verse ON tokens(verse_id);
`

// resetSQL clears all corpus rows, children first. Runs inside the import
// transaction so a failed run leaves prior data in place.
const resetSQL = `
DELETE FROM tokens;
DELETE FROM verses;
DELETE FROM chapters;
DELETE FROM books;
DELETE FROM meta;
`
