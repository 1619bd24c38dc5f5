package osis

import (
	"bufio"
	"compress/gzip"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

// Source is an OSIS input stream. Compressed sources (.xz, .gz) are
// decompressed transparently, and the decompressed bytes are BLAKE3-hashed
// as they are read so a run can record what it actually imported.
type Source struct {
	r    io.Reader
	f    *os.File
	hash *blake3.Hasher
}

// OpenSource opens an OSIS document at path. The compression scheme is
// chosen by file extension; everything else is read as plain XML.
func OpenSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	var r io.Reader = bufio.NewReader(f)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		xr, err := xz.NewReader(r)
		if err != nil {
			f.Close()
			return nil, &ParseError{Err: fmt.Errorf("xz: %w", err)}
		}
		r = xr
	case ".gz":
		gr, err := gzip.NewReader(r)
		if err != nil {
			f.Close()
			return nil, &ParseError{Err: fmt.Errorf("gzip: %w", err)}
		}
		r = gr
	}

	h := blake3.New()
	return &Source{r: io.TeeReader(r, h), f: f, hash: h}, nil
}

// Read implements io.Reader over the decompressed document bytes.
func (s *Source) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// Digest returns the hex BLAKE3 hash of the decompressed bytes read so far.
// Call it after the stream is exhausted to get the whole-document digest.
func (s *Source) Digest() string {
	return hex.EncodeToString(s.hash.Sum(nil))
}

// Close closes the underlying file.
func (s *Source) Close() error {
	return s.f.Close()
}
