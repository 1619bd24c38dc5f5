package osis

import (
	"io"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// WorkInfo is the descriptive metadata carried by the OSIS work header.
type WorkInfo struct {
	Identifier  string // osisIDWork / osisWork
	Title       string
	Language    string
	Description string
	RefSystem   string // versification scheme
}

// Precompiled header queries, relative to the header element.
var (
	workPath        = xpath.MustCompile("work")
	titlePath       = xpath.MustCompile("work/title")
	languagePath    = xpath.MustCompile("work/language")
	descriptionPath = xpath.MustCompile("work/description")
	refSystemPath   = xpath.MustCompile("work/refSystem")
)

// ReadWorkInfo extracts the work header from an OSIS document without
// reading past it. Only the header subtree is materialized; the verse body
// is never touched, so the call is safe on arbitrarily large documents.
//
// A document without a header yields a nil WorkInfo and no error; header
// metadata is descriptive, not required for import.
func ReadWorkInfo(r io.Reader) (*WorkInfo, error) {
	sp, err := xmlquery.CreateStreamParser(r, "/osis/osisText/header")
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	header, err := sp.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	info := &WorkInfo{
		Title:       innerText(xmlquery.QuerySelector(header, titlePath)),
		Language:    innerText(xmlquery.QuerySelector(header, languagePath)),
		Description: innerText(xmlquery.QuerySelector(header, descriptionPath)),
		RefSystem:   innerText(xmlquery.QuerySelector(header, refSystemPath)),
	}

	if work := xmlquery.QuerySelector(header, workPath); work != nil {
		info.Identifier = work.SelectAttr("osisWork")
	}
	if osisText := header.Parent; osisText != nil {
		if id := osisText.SelectAttr("osisIDWork"); id != "" {
			info.Identifier = id
		}
		if info.Language == "" {
			info.Language = osisText.SelectAttr("lang")
		}
	}
	return info, nil
}

func innerText(n *xmlquery.Node) string {
	if n == nil {
		return ""
	}
	return n.InnerText()
}
