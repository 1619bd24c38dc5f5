package osis

import (
	"encoding/xml"
	"io"
)

// EventKind distinguishes element start and end events.
type EventKind int

const (
	// StartEvent marks an element opening. The event carries the element's
	// attributes and its direct text (character data between the opening tag
	// and the first child element or the closing tag).
	StartEvent EventKind = iota
	// EndEvent marks an element closing. The event additionally carries the
	// element's tail text (character data between the closing tag and the
	// next sibling element or the parent's closing tag).
	EndEvent
)

func (k EventKind) String() string {
	if k == StartEvent {
		return "start"
	}
	return "end"
}

// Event is one structural event in the document.
//
// A start event is emitted once the element's direct text is complete, so
// appending Text at element start and Tail at element end reproduces every
// character-data fragment in document order regardless of nesting.
type Event struct {
	Kind EventKind
	Name string            // local element name, namespace stripped
	Attr map[string]string // attributes by local name
	Text string            // direct text
	Tail string            // trailing text; end events only
}

// HasAttr reports whether the event carries a non-empty attribute.
func (e Event) HasAttr(name string) bool {
	return e.Attr[name] != ""
}

// Reader produces a lazy, ordered sequence of structural events from an XML
// byte stream. It retains one frame per open element, so memory use is
// bounded by the maximum nesting depth of the document.
type Reader struct {
	dec     *xml.Decoder
	stack   []frame
	pending *Event // end event waiting for its tail text to complete
	queue   []Event
	err     error
}

type frame struct {
	name    string
	attr    map[string]string
	text    string
	started bool // start event already emitted
}

// NewReader wraps an XML source in an event reader. Entity expansion is
// disabled; OSIS documents do not use custom entities and expanding them
// would open the decoder to entity-amplification input.
func NewReader(r io.Reader) *Reader {
	dec := xml.NewDecoder(r)
	dec.Entity = map[string]string{}
	return &Reader{dec: dec}
}

// Next returns the next structural event. It returns io.EOF when the
// document is exhausted and a ParseError wrapping ErrMalformedSource when
// the input is not well-formed XML.
func (r *Reader) Next() (Event, error) {
	for {
		if len(r.queue) > 0 {
			ev := r.queue[0]
			r.queue = r.queue[1:]
			return ev, nil
		}
		if r.err != nil {
			return Event{}, r.err
		}

		tok, err := r.dec.Token()
		if err != nil {
			if err == io.EOF {
				r.flushPending()
				r.err = io.EOF
			} else {
				r.err = &ParseError{Err: err}
			}
			continue
		}

		switch t := tok.(type) {
		case xml.StartElement:
			r.flushPending()
			r.emitDeferredStart()
			attr := make(map[string]string, len(t.Attr))
			for _, a := range t.Attr {
				attr[a.Name.Local] = a.Value
			}
			r.stack = append(r.stack, frame{name: t.Name.Local, attr: attr})

		case xml.EndElement:
			r.flushPending()
			r.emitDeferredStart()
			top := r.stack[len(r.stack)-1]
			r.stack = r.stack[:len(r.stack)-1]
			r.pending = &Event{
				Kind: EndEvent,
				Name: top.name,
				Attr: top.attr,
				Text: top.text,
			}

		case xml.CharData:
			// Token data is only valid until the next Token call; the
			// string conversion copies it.
			if r.pending != nil {
				r.pending.Tail += string(t)
			} else if n := len(r.stack); n > 0 && !r.stack[n-1].started {
				r.stack[n-1].text += string(t)
			}
			// Comments, processing instructions, and directives fall
			// through without disturbing pending tail accumulation.
		}
	}
}

// emitDeferredStart queues the start event for the innermost open element
// once its direct text can no longer grow.
func (r *Reader) emitDeferredStart() {
	n := len(r.stack)
	if n == 0 || r.stack[n-1].started {
		return
	}
	r.stack[n-1].started = true
	r.queue = append(r.queue, Event{
		Kind: StartEvent,
		Name: r.stack[n-1].name,
		Attr: r.stack[n-1].attr,
		Text: r.stack[n-1].text,
	})
}

func (r *Reader) flushPending() {
	if r.pending != nil {
		r.queue = append(r.queue, *r.pending)
		r.pending = nil
	}
}
