// Package osis implements a streaming importer for OSIS XML Bible texts.
//
// OSIS encodes verses as empty milestone elements (<verse sID=".."/> ...
// <verse eID=".."/>) rather than as containers, so verse text and word
// tokens have to be reassembled from the character data scattered between
// milestones. The package does this in a single forward pass over the
// document with memory proportional to element nesting depth, not document
// size:
//
//	Reader -> verse-scope state machine -> accumulator -> Store
//
// The Reader turns the XML byte stream into a pull-based sequence of
// start/end events carrying each element's attributes, direct text, and
// trailing (tail) text. The Importer consumes that sequence, tracks the
// current book/chapter context, opens and closes verse scopes on milestone
// events, and hands each completed verse to a Store as one batch of text
// plus ordered word tokens.
//
// The package performs no transaction management of its own; callers own
// the enclosing transaction (see core/store) and every error returned here
// is fatal for the run.
package osis
