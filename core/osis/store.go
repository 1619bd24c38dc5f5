package osis

import "context"

// Opaque references handed back by the persistence layer and threaded
// through subsequent calls. The importer never interprets them.
type (
	// BookRef identifies a created book.
	BookRef int64
	// ChapterRef identifies a created chapter.
	ChapterRef int64
	// VerseRef identifies a created verse.
	VerseRef int64
)

// Store is the persistence sink the importer emits into. Implementations
// are expected to run inside one enclosing transaction owned by the caller:
// on any error returned from an import run, every effect performed so far
// must be discardable as a unit.
//
// Ensure methods are idempotent by identifier within a run; Create methods
// are exactly-once. Tokens for a verse arrive in one call, position order
// preserved, never one-by-one.
type Store interface {
	EnsureBook(ctx context.Context, osisID, name string, order int) (BookRef, error)
	EnsureChapter(ctx context.Context, book BookRef, number int, osisID string) (ChapterRef, error)
	CreateVerse(ctx context.Context, chapter ChapterRef, number int, osisID, text string) (VerseRef, error)
	BulkCreateTokens(ctx context.Context, verse VerseRef, tokens []Token) error
}
