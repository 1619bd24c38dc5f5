package osis

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Summary reports what one import run produced.
type Summary struct {
	Books       int
	Chapters    int
	Verses      int
	Tokens      int
	TaggedWords int // tokens from <w> elements
	PlainTokens int // tokens from untagged text runs
}

// Importer drives one pass over an OSIS event stream and emits the
// recovered books, chapters, verses, and word tokens into a Store.
type Importer struct {
	store Store
	log   *slog.Logger
}

// NewImporter returns an importer emitting into store.
func NewImporter(store Store) *Importer {
	return &Importer{store: store, log: slog.Default()}
}

// SetLogger replaces the importer's logger.
func (imp *Importer) SetLogger(l *slog.Logger) {
	if l != nil {
		imp.log = l
	}
}

// verseScope is the payload of the INSIDE_VERSE state. Scope identity and
// its accumulator travel together so they cannot desynchronize; a nil scope
// pointer is the OUTSIDE_VERSE state.
type verseScope struct {
	osisID string
	number int
	acc    accumulator
}

// bookState stages a book between its div boundary and the first chapter
// boundary that persists it. The display name arrives separately, in a
// title child, so creation has to wait.
type bookState struct {
	osisID    string
	name      string
	order     int
	ref       BookRef
	persisted bool
}

type chapterState struct {
	osisID string
	ref    ChapterRef
}

type runState struct {
	book     *bookState
	books    map[string]*bookState
	chapter  *chapterState
	chapters map[string]ChapterRef
	verses   map[string]bool
	scope    *verseScope
	sum      Summary
}

// Run consumes the OSIS document from r in one forward pass and returns the
// run summary. Any returned error is fatal: the caller is expected to roll
// back the enclosing transaction. A stream that ends inside an open verse
// scope is a structural error.
func (imp *Importer) Run(ctx context.Context, r io.Reader) (*Summary, error) {
	rd := NewReader(r)
	st := &runState{
		books:    make(map[string]*bookState),
		chapters: make(map[string]ChapterRef),
		verses:   make(map[string]bool),
	}

	for {
		ev, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := imp.handle(ctx, st, ev); err != nil {
			return nil, err
		}
	}

	if st.scope != nil {
		return nil, &StructuralError{
			Ref:     st.scope.osisID,
			Message: "stream ended inside open verse scope",
		}
	}
	return &st.sum, nil
}

func (imp *Importer) handle(ctx context.Context, st *runState, ev Event) error {
	if ev.Kind == EndEvent {
		imp.collectTail(st, ev)
		return nil
	}

	switch ev.Name {
	case "verse":
		switch {
		case ev.HasAttr("sID"):
			return imp.openVerse(st, ev)
		case ev.HasAttr("eID"):
			return imp.closeVerse(ctx, st, ev)
		}
		return nil
	case "chapter":
		// Chapter boundaries are handled independently of verse scope;
		// end-boundary milestones carry no new context.
		if ev.HasAttr("eID") {
			return nil
		}
		return imp.ensureChapter(ctx, st, ev)
	case "div":
		if ev.Attr["type"] == "book" {
			imp.stageBook(st, ev)
		}
		return nil
	}

	if st.scope == nil {
		if ev.Name == "title" && st.book != nil && !st.book.persisted && st.book.name == "" {
			st.book.name = strings.TrimSpace(ev.Text)
		}
		return nil
	}
	return imp.collectContent(st, ev)
}

// collectContent feeds a content element's direct text into the open verse
// scope. Word elements produce one token each; anything else is tokenized
// as an untagged text run.
func (imp *Importer) collectContent(st *runState, ev Event) error {
	acc := &st.scope.acc
	acc.addFragment(ev.Text)

	if ev.Name == "w" {
		var refs []string
		if lemma, ok := ev.Attr["lemma"]; ok {
			parsed, err := ParseLemma(lemma)
			if err != nil {
				return err
			}
			refs = parsed
		}
		acc.addWord(ev.Text, refs)
		return nil
	}
	acc.addPlain(ev.Text)
	return nil
}

// collectTail feeds an element's trailing text into the open verse scope.
// This includes the tail of the start-boundary verse milestone itself,
// which is the opening run of the verse text. End events outside a scope
// carry no verse content.
func (imp *Importer) collectTail(st *runState, ev Event) {
	if st.scope == nil {
		return
	}
	st.scope.acc.addFragment(ev.Tail)
	st.scope.acc.addPlain(ev.Tail)
}

func (imp *Importer) openVerse(st *runState, ev Event) error {
	id := verseID(ev)
	if st.scope != nil {
		return &StructuralError{
			Ref:     id,
			Message: "verse start while scope " + st.scope.osisID + " is still open",
		}
	}
	if st.chapter == nil {
		return &StructuralError{Ref: id, Message: "verse start outside any chapter"}
	}
	n, err := strconv.Atoi(strings.TrimSpace(ev.Attr["n"]))
	if err != nil {
		return &StructuralError{Ref: id, Message: "verse milestone without numeric n attribute"}
	}
	if st.verses[id] {
		return &DuplicateError{Kind: "verse", ID: id}
	}
	st.verses[id] = true
	st.scope = &verseScope{osisID: id, number: n}
	return nil
}

func (imp *Importer) closeVerse(ctx context.Context, st *runState, ev Event) error {
	if st.scope == nil {
		return &StructuralError{
			Ref:     strings.TrimSpace(ev.Attr["eID"]),
			Message: "verse end without open scope",
		}
	}
	sc := st.scope
	st.scope = nil

	if err := ctx.Err(); err != nil {
		return err
	}

	text, tokens := sc.acc.finalize()
	vref, err := imp.store.CreateVerse(ctx, st.chapter.ref, sc.number, sc.osisID, text)
	if err != nil {
		return &StoreError{Op: "create verse", Ref: sc.osisID, Err: err}
	}
	if len(tokens) > 0 {
		if err := imp.store.BulkCreateTokens(ctx, vref, tokens); err != nil {
			return &StoreError{Op: "create tokens", Ref: sc.osisID, Err: err}
		}
	}

	st.sum.Verses++
	st.sum.Tokens += len(tokens)
	st.sum.TaggedWords += sc.acc.tagged
	st.sum.PlainTokens += sc.acc.plain
	return nil
}

// stageBook records a book boundary. The record is not persisted until the
// first chapter boundary under it, by which point the title child has
// supplied the display name. Re-encountering a staged identifier is a
// benign no-op continuation.
func (imp *Importer) stageBook(st *runState, ev Event) {
	id := strings.TrimSpace(ev.Attr["osisID"])
	if id == "" {
		return
	}
	if b, ok := st.books[id]; ok {
		st.book = b
		return
	}
	order, canonical := BookOrder(id)
	if !canonical {
		imp.log.Warn("book not in canonical order", "osis_id", id, "order", order)
	}
	b := &bookState{osisID: id, order: order}
	st.books[id] = b
	st.book = b
}

func (imp *Importer) ensureChapter(ctx context.Context, st *runState, ev Event) error {
	id := strings.TrimSpace(ev.Attr["osisID"])
	if id == "" {
		id = strings.TrimSpace(ev.Attr["sID"])
	}
	if id == "" {
		return nil
	}
	if st.book == nil {
		imp.log.Warn("chapter boundary outside any book, skipped", "osis_id", id)
		return nil
	}
	if ref, ok := st.chapters[id]; ok {
		// Benign duplicate: some encodings repeat the chapter boundary
		// per verse.
		st.chapter = &chapterState{osisID: id, ref: ref}
		return nil
	}

	n, err := strconv.Atoi(id[strings.LastIndex(id, ".")+1:])
	if err != nil {
		imp.log.Warn("chapter identifier without numeric number, skipped", "osis_id", id)
		return nil
	}

	bref, err := imp.persistBook(ctx, st)
	if err != nil {
		return err
	}
	cref, err := imp.store.EnsureChapter(ctx, bref, n, id)
	if err != nil {
		return &StoreError{Op: "ensure chapter", Ref: id, Err: err}
	}
	st.chapters[id] = cref
	st.chapter = &chapterState{osisID: id, ref: cref}
	st.sum.Chapters++
	return nil
}

func (imp *Importer) persistBook(ctx context.Context, st *runState) (BookRef, error) {
	b := st.book
	if b.persisted {
		return b.ref, nil
	}
	name := b.name
	if name == "" {
		name = b.osisID
	}
	ref, err := imp.store.EnsureBook(ctx, b.osisID, name, b.order)
	if err != nil {
		return 0, &StoreError{Op: "ensure book", Ref: b.osisID, Err: err}
	}
	b.ref = ref
	b.persisted = true
	st.sum.Books++
	imp.log.Debug("book created", "osis_id", b.osisID, "name", name, "order", b.order)
	return ref, nil
}

func verseID(ev Event) string {
	if id := strings.TrimSpace(ev.Attr["osisID"]); id != "" {
		return id
	}
	return strings.TrimSpace(ev.Attr["sID"])
}
