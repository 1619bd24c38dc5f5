package osis

import (
	"errors"
	"fmt"
)

// Sentinel errors for the import error taxonomy. Every fatal condition the
// importer can raise unwraps to exactly one of these.
var (
	// ErrMalformedSource indicates the input bytes are not well-formed XML.
	ErrMalformedSource = errors.New("malformed source")
	// ErrStructure indicates verse milestones out of sequence.
	ErrStructure = errors.New("milestone sequence violation")
	// ErrDuplicate indicates a verse identifier collision within one run.
	ErrDuplicate = errors.New("duplicate identifier")
	// ErrInvalidLemma indicates an unparseable lexical-reference attribute.
	ErrInvalidLemma = errors.New("invalid lemma")
	// ErrStore indicates the persistence layer rejected a write.
	ErrStore = errors.New("store error")
)

// ParseError reports unparseable source bytes.
type ParseError struct {
	Err error // underlying decoder error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed OSIS source: %v", e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedSource, e.Err}
}

// StructuralError reports verse milestones appearing out of order: an end
// boundary without a matching start, a nested start, or the stream ending
// inside an open verse scope. These are never silently repaired, since
// resynchronizing would risk assembling a corrupted verse.
type StructuralError struct {
	Ref     string // verse identifier involved, if known
	Message string
}

func (e *StructuralError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s at %q: %s", ErrStructure, e.Ref, e.Message)
	}
	return fmt.Sprintf("%s: %s", ErrStructure, e.Message)
}

func (e *StructuralError) Unwrap() error { return ErrStructure }

// DuplicateError reports a verse identifier already created in this run.
// Books and chapters are idempotent by identifier; verses are not.
type DuplicateError struct {
	Kind string // entity kind, e.g. "verse"
	ID   string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s identifier %q", e.Kind, e.ID)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// LemmaError reports a lexical-reference attribute that is present but
// cannot be parsed into at least one reference.
type LemmaError struct {
	Lemma   string
	Message string
}

func (e *LemmaError) Error() string {
	return fmt.Sprintf("invalid lemma %q: %s", e.Lemma, e.Message)
}

func (e *LemmaError) Unwrap() error { return ErrInvalidLemma }

// StoreError wraps a persistence failure with the operation that raised it.
type StoreError struct {
	Op  string // store operation, e.g. "create verse"
	Ref string // identifier being written
	Err error
}

func (e *StoreError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Ref, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStore, e.Err}
}
