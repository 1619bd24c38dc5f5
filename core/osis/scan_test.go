package osis

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// memStore is an in-memory Store for exercising the import engine without
// a database.
type memStore struct {
	books    []memBook
	chapters []memChapter
	verses   []memVerse
	tokens   map[VerseRef][]Token

	failVerse string // osisID whose CreateVerse fails, for propagation tests
}

type memBook struct {
	osisID string
	name   string
	order  int
}

type memChapter struct {
	book   BookRef
	number int
	osisID string
}

type memVerse struct {
	chapter ChapterRef
	number  int
	osisID  string
	text    string
}

func newMemStore() *memStore {
	return &memStore{tokens: make(map[VerseRef][]Token)}
}

func (m *memStore) EnsureBook(_ context.Context, osisID, name string, order int) (BookRef, error) {
	for i, b := range m.books {
		if b.osisID == osisID {
			return BookRef(i + 1), nil
		}
	}
	m.books = append(m.books, memBook{osisID: osisID, name: name, order: order})
	return BookRef(len(m.books)), nil
}

func (m *memStore) EnsureChapter(_ context.Context, book BookRef, number int, osisID string) (ChapterRef, error) {
	for i, c := range m.chapters {
		if c.osisID == osisID {
			return ChapterRef(i + 1), nil
		}
	}
	m.chapters = append(m.chapters, memChapter{book: book, number: number, osisID: osisID})
	return ChapterRef(len(m.chapters)), nil
}

func (m *memStore) CreateVerse(_ context.Context, chapter ChapterRef, number int, osisID, text string) (VerseRef, error) {
	if osisID == m.failVerse {
		return 0, fmt.Errorf("disk full")
	}
	m.verses = append(m.verses, memVerse{chapter: chapter, number: number, osisID: osisID, text: text})
	return VerseRef(len(m.verses)), nil
}

func (m *memStore) BulkCreateTokens(_ context.Context, verse VerseRef, tokens []Token) error {
	m.tokens[verse] = tokens
	return nil
}

func importDoc(t *testing.T, st Store, doc string) (*Summary, error) {
	t.Helper()
	return NewImporter(st).Run(context.Background(), strings.NewReader(doc))
}

func wrapDoc(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<osis xmlns="http://www.bibletechnologies.net/2003/OSIS/namespace"><osisText osisIDWork="Test">` +
		body + `</osisText></osis>`
}

// TestImportScenario checks the reference scenario: one verse whose text
// mixes a milestone tail, a tagged word, and trailing punctuation.
func TestImportScenario(t *testing.T) {
	doc := wrapDoc(`<div type="book" osisID="Gen"><title>Genesis</title>` +
		`<chapter osisID="Gen.1">` +
		`<verse sID="x" n="1"/>Hello <w lemma="strong:H1">world</w>!<verse eID="x" n="1"/>` +
		`</chapter></div>`)

	st := newMemStore()
	sum, err := importDoc(t, st, doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.Books != 1 || sum.Chapters != 1 || sum.Verses != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if len(st.verses) != 1 {
		t.Fatalf("got %d verses, want 1", len(st.verses))
	}
	v := st.verses[0]
	if v.text != "Hello world!" {
		t.Errorf("verse text = %q, want %q", v.text, "Hello world!")
	}
	if v.osisID != "x" || v.number != 1 {
		t.Errorf("verse identity = %+v", v)
	}

	tokens := st.tokens[VerseRef(1)]
	want := []Token{
		{Position: 0, Text: "Hello"},
		{Position: 1, Text: "world", Lexemes: []string{"H1"}},
		{Position: 2, Text: "!"},
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("tokens = %+v, want %+v", tokens, want)
	}
}

// TestImportMultipleVerses verifies one Verse record per milestone pair and
// contiguous token positions per verse.
func TestImportMultipleVerses(t *testing.T) {
	var body strings.Builder
	body.WriteString(`<div type="book" osisID="Gen"><chapter osisID="Gen.1">`)
	const n = 7
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&body, `<verse sID="Gen.1.%d" osisID="Gen.1.%d" n="%d"/>Verse number %d here.<verse eID="Gen.1.%d" n="%d"/>`,
			i, i, i, i, i, i)
	}
	body.WriteString(`</chapter></div>`)

	st := newMemStore()
	sum, err := importDoc(t, st, wrapDoc(body.String()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Verses != n || len(st.verses) != n {
		t.Fatalf("got %d verses, want %d", len(st.verses), n)
	}
	for ref, tokens := range st.tokens {
		for i, tok := range tokens {
			if tok.Position != i {
				t.Errorf("verse %d token %q: position %d, want %d", ref, tok.Text, tok.Position, i)
			}
		}
	}
}

// TestChapterBoundaryRepeats verifies repeated chapter boundaries for the
// same identifier create exactly one chapter.
func TestChapterBoundaryRepeats(t *testing.T) {
	doc := wrapDoc(`<div type="book" osisID="Gen">` +
		`<chapter osisID="Gen.1" sID="Gen.1"/>` +
		`<verse sID="Gen.1.1" n="1"/>One.<verse eID="Gen.1.1" n="1"/>` +
		`<chapter osisID="Gen.1" sID="Gen.1"/>` +
		`<verse sID="Gen.1.2" n="2"/>Two.<verse eID="Gen.1.2" n="2"/>` +
		`<chapter eID="Gen.1"/>` +
		`</div>`)

	st := newMemStore()
	sum, err := importDoc(t, st, doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Chapters != 1 || len(st.chapters) != 1 {
		t.Errorf("got %d chapters (summary %d), want 1", len(st.chapters), sum.Chapters)
	}
	if sum.Verses != 2 {
		t.Errorf("got %d verses, want 2", sum.Verses)
	}
}

// TestBookTitleAndOrder verifies the staged book picks up its display name
// from the title child and its canonical position, and that books outside
// the canon sort last.
func TestBookTitleAndOrder(t *testing.T) {
	doc := wrapDoc(`<div type="book" osisID="Exod"><title>L'Exode</title>` +
		`<chapter osisID="Exod.1">` +
		`<verse sID="Exod.1.1" n="1"/>A.<verse eID="Exod.1.1" n="1"/>` +
		`</chapter></div>` +
		`<div type="book" osisID="Tob">` +
		`<chapter osisID="Tob.1">` +
		`<verse sID="Tob.1.1" n="1"/>B.<verse eID="Tob.1.1" n="1"/>` +
		`</chapter></div>`)

	st := newMemStore()
	if _, err := importDoc(t, st, doc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(st.books) != 2 {
		t.Fatalf("got %d books, want 2", len(st.books))
	}
	if st.books[0].name != "L'Exode" || st.books[0].order != 2 {
		t.Errorf("Exod = %+v", st.books[0])
	}
	// No title child: the identifier stands in; order falls past the canon.
	if st.books[1].name != "Tob" || st.books[1].order != UnknownBookOrder {
		t.Errorf("Tob = %+v", st.books[1])
	}
}

// TestMultiRefLemma verifies a lemma with two references yields one token
// carrying both, not two tokens.
func TestMultiRefLemma(t *testing.T) {
	doc := wrapDoc(`<div type="book" osisID="Gen"><chapter osisID="Gen.1">` +
		`<verse sID="v" n="1"/><w lemma="strong:H853 strong:H430">Dieu</w>.<verse eID="v" n="1"/>` +
		`</chapter></div>`)

	st := newMemStore()
	if _, err := importDoc(t, st, doc); err != nil {
		t.Fatalf("Run: %v", err)
	}
	tokens := st.tokens[VerseRef(1)]
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2 (word and period): %+v", len(tokens), tokens)
	}
	if !reflect.DeepEqual(tokens[0].Lexemes, []string{"H430", "H853"}) {
		t.Errorf("lexemes = %v, want both references on one token", tokens[0].Lexemes)
	}
}

// TestStructuralViolations verifies milestone sequence violations fail the
// run instead of resynchronizing.
func TestStructuralViolations(t *testing.T) {
	const prefix = `<div type="book" osisID="Gen"><chapter osisID="Gen.1">`
	tests := []struct {
		name string
		body string
	}{
		{
			"nested starts",
			prefix + `<verse sID="a" n="1"/>x<verse sID="b" n="2"/></chapter></div>`,
		},
		{
			"end without start",
			prefix + `<verse eID="a" n="1"/></chapter></div>`,
		},
		{
			"stream ends mid-scope",
			prefix + `<verse sID="a" n="1"/>unclosed</chapter></div>`,
		},
		{
			"verse outside chapter",
			`<div type="book" osisID="Gen"><verse sID="a" n="1"/>x<verse eID="a" n="1"/></div>`,
		},
		{
			"non-numeric verse number",
			prefix + `<verse sID="a" n="one"/>x<verse eID="a" n="one"/></chapter></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newMemStore()
			_, err := importDoc(t, st, wrapDoc(tt.body))
			if err == nil {
				t.Fatal("run accepted out-of-sequence milestones")
			}
			if !errors.Is(err, ErrStructure) {
				t.Errorf("error %v does not wrap ErrStructure", err)
			}
			if len(st.verses) != 0 {
				t.Errorf("%d verses created despite structural error", len(st.verses))
			}
		})
	}
}

// TestDuplicateVerse verifies verse identifier collisions are fatal, unlike
// book and chapter repeats.
func TestDuplicateVerse(t *testing.T) {
	doc := wrapDoc(`<div type="book" osisID="Gen"><chapter osisID="Gen.1">` +
		`<verse sID="v" n="1"/>a<verse eID="v" n="1"/>` +
		`<verse sID="v" n="1"/>b<verse eID="v" n="1"/>` +
		`</chapter></div>`)

	_, err := importDoc(t, newMemStore(), doc)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("error %v does not wrap ErrDuplicate", err)
	}
}

// TestBadLemmaFailsRun verifies an invalid lemma aborts the run.
func TestBadLemmaFailsRun(t *testing.T) {
	doc := wrapDoc(`<div type="book" osisID="Gen"><chapter osisID="Gen.1">` +
		`<verse sID="v" n="1"/><w lemma="">x</w><verse eID="v" n="1"/>` +
		`</chapter></div>`)

	_, err := importDoc(t, newMemStore(), doc)
	if !errors.Is(err, ErrInvalidLemma) {
		t.Errorf("error %v does not wrap ErrInvalidLemma", err)
	}
}

// TestStoreErrorPropagates verifies persistence failures surface as
// ErrStore and halt the pass.
func TestStoreErrorPropagates(t *testing.T) {
	doc := wrapDoc(`<div type="book" osisID="Gen"><chapter osisID="Gen.1">` +
		`<verse sID="Gen.1.1" osisID="Gen.1.1" n="1"/>a<verse eID="Gen.1.1" n="1"/>` +
		`<verse sID="Gen.1.2" osisID="Gen.1.2" n="2"/>b<verse eID="Gen.1.2" n="2"/>` +
		`</chapter></div>`)

	st := newMemStore()
	st.failVerse = "Gen.1.2"
	_, err := importDoc(t, st, doc)
	if !errors.Is(err, ErrStore) {
		t.Errorf("error %v does not wrap ErrStore", err)
	}
	var serr *StoreError
	if !errors.As(err, &serr) || serr.Ref != "Gen.1.2" {
		t.Errorf("store error lacks verse reference: %v", err)
	}
}

// TestCancelledContext verifies cancellation is honored at verse
// boundaries.
func TestCancelledContext(t *testing.T) {
	doc := wrapDoc(`<div type="book" osisID="Gen"><chapter osisID="Gen.1">` +
		`<verse sID="v" n="1"/>a<verse eID="v" n="1"/>` +
		`</chapter></div>`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewImporter(newMemStore()).Run(ctx, strings.NewReader(doc))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error %v is not context.Canceled", err)
	}
}

// TestWordWithoutLemma verifies a <w> element with no lemma attribute still
// produces an untagged token.
func TestWordWithoutLemma(t *testing.T) {
	doc := wrapDoc(`<div type="book" osisID="Gen"><chapter osisID="Gen.1">` +
		`<verse sID="v" n="1"/><w>mot</w><verse eID="v" n="1"/>` +
		`</chapter></div>`)

	st := newMemStore()
	sum, err := importDoc(t, st, doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tokens := st.tokens[VerseRef(1)]
	if len(tokens) != 1 || tokens[0].Text != "mot" || tokens[0].Lexemes != nil {
		t.Errorf("tokens = %+v", tokens)
	}
	if sum.TaggedWords != 1 {
		t.Errorf("tagged words = %d, want 1", sum.TaggedWords)
	}
}
