// Package entkit is an editing core for brace-delimited, semicolon-
// terminated map-entity definition files: a parser, a mutable document
// model, a round-tripping writer, a filtered query index, and an
// array-repair utility, plus the compressed-container codec used on disk.
package entkit

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/entforge/entkit/internal/codec"
	"github.com/entforge/entkit/internal/editor"
	"github.com/entforge/entkit/internal/entity"
	"github.com/entforge/entkit/internal/index"
	"github.com/entforge/entkit/internal/parser"
	"github.com/entforge/entkit/internal/repair"
	"github.com/entforge/entkit/internal/writer"
)

// Core model types.
type (
	Document   = entity.Document
	Entity     = entity.Entity
	Property   = entity.Property
	Value      = entity.Value
	ArrayEntry = entity.ArrayEntry
	Kind       = entity.Kind
	Vec3       = entity.Vec3

	Index = index.Index
	Query = index.Query

	Editor = editor.Editor
	Writer = writer.Writer

	ParseError         = parser.Error
	DuplicateNameError = entity.DuplicateNameError
	QueryError         = index.QueryError
)

// ErrNotFound is returned by mutations that name a missing entity.
var ErrNotFound = entity.ErrNotFound

// EncodingError reports input that is not valid UTF-8 text. It is raised
// before lexing begins.
type EncodingError struct {
	Offset int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("input is not valid UTF-8 text (first invalid byte at offset %d)", e.Offset)
}

// Parse builds a document from raw text. Non-UTF-8 input fails with
// *EncodingError before lexing begins.
func Parse(src []byte) (*Document, error) {
	if !utf8.Valid(src) {
		return nil, &EncodingError{Offset: invalidOffset(src)}
	}
	return parser.Parse(string(src))
}

// ParseString builds a document from source text.
func ParseString(src string) (*Document, error) {
	return Parse([]byte(src))
}

// Serialize renders the document back to format text. Output re-parses to
// a document structurally equal to the input.
func Serialize(doc *Document) []byte {
	return []byte(writer.Serialize(doc))
}

// SerializeString renders the document back to format text.
func SerializeString(doc *Document) string {
	return writer.Serialize(doc)
}

// NewDocument returns an empty document.
func NewDocument() *Document { return entity.NewDocument() }

// NewEditor wraps a document in an owning edit session with a live index.
func NewEditor(doc *Document) *Editor { return editor.New(doc) }

// NewIndex builds a standalone index over a document snapshot.
func NewIndex(doc *Document) *Index { return index.Build(doc) }

// RepairArrays renumbers sparse or duplicated array indices in a value
// subtree into a dense zero-based sequence, preserving positional order.
func RepairArrays(src string) (string, error) {
	return repair.Arrays(src)
}

// RepairDocument repairs every array of every entity in place.
func RepairDocument(doc *Document) {
	repair.Document(doc)
}

// IsCompressed reports whether raw file bytes carry the compressed
// container header.
func IsCompressed(data []byte) bool {
	return codec.IsCompressed(data)
}

// Decompress unpacks a compressed entities container into raw text bytes.
func Decompress(data []byte) ([]byte, error) {
	return codec.Decompress(data)
}

// Compress packs raw text bytes into the compressed entities container.
func Compress(data []byte) ([]byte, error) {
	return codec.Compress(data)
}

// LoadFile reads an entities file, transparently unpacking the compressed
// container when present, and parses it.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if codec.IsCompressed(data) {
		data, err = codec.Decompress(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return Parse(data)
}

// SaveFile serializes the document to path, packing it into the compressed
// container when compress is set.
func SaveFile(path string, doc *Document, compress bool) error {
	data := Serialize(doc)
	if compress {
		packed, err := codec.Compress(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		data = packed
	}
	return os.WriteFile(path, data, 0o644)
}

func invalidOffset(src []byte) int {
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRune(src[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return 0
}
