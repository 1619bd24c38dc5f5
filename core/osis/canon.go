package osis

// UnknownBookOrder sorts books outside the canonical list after every
// canonical book.
const UnknownBookOrder = 999

// canonicalBooks lists OSIS book identifiers in canonical order. Books must
// sort in this order in the application, not alphabetically.
var canonicalBooks = []string{
	"Gen", "Exod", "Lev", "Num", "Deut", "Josh", "Judg", "Ruth", "1Sam", "2Sam",
	"1Kgs", "2Kgs", "1Chr", "2Chr", "Ezra", "Neh", "Esth", "Job", "Ps", "Prov",
	"Eccl", "Song", "Isa", "Jer", "Lam", "Ezek", "Dan", "Hos", "Joel", "Amos",
	"Obad", "Jonah", "Mic", "Nah", "Hab", "Zeph", "Hag", "Zech", "Mal", "Matt",
	"Mark", "Luke", "John", "Acts", "Rom", "1Cor", "2Cor", "Gal", "Eph", "Phil",
	"Col", "1Thess", "2Thess", "1Tim", "2Tim", "Titus", "Phlm", "Heb", "Jas",
	"1Pet", "2Pet", "1John", "2John", "3John", "Jude", "Rev",
}

var canonicalOrder = func() map[string]int {
	m := make(map[string]int, len(canonicalBooks))
	for i, id := range canonicalBooks {
		m[id] = i + 1
	}
	return m
}()

// BookOrder returns the 1-based canonical position of an OSIS book
// identifier. Unknown identifiers report UnknownBookOrder and false.
func BookOrder(osisID string) (int, bool) {
	if n, ok := canonicalOrder[osisID]; ok {
		return n, true
	}
	return UnknownBookOrder, false
}
