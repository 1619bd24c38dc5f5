package osis

import (
	"fmt"
	"sort"
	"strings"
)

// lemmaScheme is the reference scheme prefix this importer understands.
// OSIS lemma attributes tag words with Strong's numbers as
// "strong:H430" or, for compound words, "strong:H430 strong:H853".
const lemmaScheme = "strong"

// ParseLemma parses a lemma attribute into the set of Strong's reference
// identifiers it carries, sorted and deduplicated. The attribute may hold
// several whitespace-separated references; bare references without a scheme
// prefix are accepted as-is.
//
// A lemma that is present but yields no reference, contains an empty
// reference, or uses an unrecognized scheme fails with a LemmaError rather
// than being guessed at.
func ParseLemma(lemma string) ([]string, error) {
	fields := strings.Fields(lemma)
	if len(fields) == 0 {
		return nil, &LemmaError{Lemma: lemma, Message: "no references"}
	}

	seen := make(map[string]bool, len(fields))
	refs := make([]string, 0, len(fields))
	for _, f := range fields {
		ref := f
		if scheme, rest, ok := strings.Cut(f, ":"); ok {
			if scheme != lemmaScheme {
				return nil, &LemmaError{Lemma: lemma, Message: fmt.Sprintf("unrecognized scheme %q", scheme)}
			}
			ref = rest
		}
		if ref == "" {
			return nil, &LemmaError{Lemma: lemma, Message: "empty reference"}
		}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	sort.Strings(refs)
	return refs, nil
}
