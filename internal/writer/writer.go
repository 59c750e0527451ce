package writer

import (
	"math"
	"strconv"
	"strings"

	"github.com/entforge/entkit/internal/entity"
)

// Writer serializes a document back to entities-format text with a fixed,
// stable indentation scheme. Output always re-parses to a structurally
// equal document; original comments and whitespace are not preserved.
type Writer struct {
	// Indent is the string emitted once per nesting level.
	Indent string
}

// New returns a Writer with tab indentation.
func New() *Writer {
	return &Writer{Indent: "\t"}
}

// Serialize writes the document with the default writer.
func Serialize(d *entity.Document) string {
	return New().Document(d)
}

// Document emits the header, followed by one entityDef block per entity in
// document order.
func (w *Writer) Document(d *entity.Document) string {
	var sb strings.Builder
	if d.Version >= 0 {
		sb.WriteString("Version ")
		sb.WriteString(strconv.FormatInt(d.Version, 10))
		sb.WriteByte('\n')
	}
	if d.HierarchyVersion >= 0 {
		sb.WriteString("HierarchyVersion ")
		sb.WriteString(strconv.FormatInt(d.HierarchyVersion, 10))
		sb.WriteByte('\n')
	}
	if len(d.HeaderProps) > 0 {
		sb.WriteString("properties {\n")
		for i := range d.HeaderProps {
			w.writeProperty(&sb, d.HeaderProps[i], 1)
		}
		sb.WriteString("}\n")
	}
	for _, e := range d.Entities() {
		w.writeEntity(&sb, e)
	}
	return sb.String()
}

// Properties emits a bare property list at zero indentation, as used for
// repaired fragments.
func (w *Writer) Properties(props []entity.Property) string {
	var sb strings.Builder
	for i := range props {
		w.writeProperty(&sb, props[i], 0)
	}
	return sb.String()
}

// Value emits a single value at zero indentation.
func (w *Writer) Value(v entity.Value) string {
	var sb strings.Builder
	w.writeValue(&sb, v, 0)
	if v.IsScalar() {
		sb.WriteByte(';')
	}
	sb.WriteByte('\n')
	return sb.String()
}

func (w *Writer) writeEntity(sb *strings.Builder, e *entity.Entity) {
	sb.WriteString("entityDef ")
	sb.WriteString(w.name(e.Name))
	sb.WriteString(" {\n")
	for i := range e.Props {
		w.writeProperty(sb, e.Props[i], 1)
	}
	sb.WriteString("}\n")
}

func (w *Writer) writeProperty(sb *strings.Builder, p entity.Property, depth int) {
	w.indent(sb, depth)
	sb.WriteString(w.name(p.Key))
	sb.WriteString(" = ")
	w.writeValue(sb, p.Value, depth)
	if p.Value.IsScalar() {
		sb.WriteByte(';')
	}
	sb.WriteByte('\n')
}

func (w *Writer) writeValue(sb *strings.Builder, v entity.Value, depth int) {
	switch v.Kind {
	case entity.KindNumber:
		sb.WriteString(formatNumber(v))
	case entity.KindString:
		sb.WriteString(quote(v.Str))
	case entity.KindBool:
		if v.Bool {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case entity.KindNull:
		sb.WriteString("NULL")
	case entity.KindReference:
		sb.WriteString(v.Str)
	case entity.KindStruct:
		if len(v.Props) == 0 {
			sb.WriteString("{\n")
			w.indent(sb, depth)
			sb.WriteByte('}')
			return
		}
		sb.WriteString("{\n")
		for i := range v.Props {
			w.writeProperty(sb, v.Props[i], depth+1)
		}
		w.indent(sb, depth)
		sb.WriteByte('}')
	case entity.KindArray:
		sb.WriteString("{\n")
		for _, el := range v.Elems {
			w.indent(sb, depth+1)
			if el.HasIndex {
				sb.WriteByte('[')
				sb.WriteString(strconv.FormatInt(el.Index, 10))
				sb.WriteString("] = ")
			}
			w.writeValue(sb, el.Value, depth+1)
			if el.Value.IsScalar() {
				sb.WriteByte(';')
			}
			sb.WriteByte('\n')
		}
		w.indent(sb, depth)
		sb.WriteByte('}')
	}
}

func (w *Writer) indent(sb *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		sb.WriteString(w.Indent)
	}
}

// name emits an entity name or property key bare when it is a valid
// identifier (including the item[3] key form), quoted otherwise.
func (w *Writer) name(s string) string {
	if isBareName(s) {
		return s
	}
	return quote(s)
}

// formatNumber emits integer-origin numbers without a fraction and all
// others with the shortest representation that round-trips exactly to the
// same 64-bit float.
func formatNumber(v entity.Value) string {
	if v.IsInt {
		// int64 conversion is only defined inside the int64 range; larger
		// integer literals keep their exact digits via 'f' formatting.
		if v.Num >= -(1<<63) && v.Num < 1<<63 {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	if v.Num == math.Trunc(v.Num) && !math.IsInf(v.Num, 0) {
		// Keep a fraction so the literal stays float-origin on reparse.
		s := strconv.FormatFloat(v.Num, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(v.Num, 'g', -1, 64)
}

// quote emits a string literal, escaping embedded quotes, backslashes and
// control characters.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func isBareName(s string) bool {
	if s == "" || s == "true" || s == "false" || s == "NULL" {
		return false
	}
	// Optional [n] suffix folds back into key position.
	base := s
	if i := strings.IndexByte(s, '['); i >= 0 {
		if !strings.HasSuffix(s, "]") || i == 0 {
			return false
		}
		idx := s[i+1 : len(s)-1]
		if idx == "" {
			return false
		}
		for j := 0; j < len(idx); j++ {
			if idx[j] < '0' || idx[j] > '9' {
				return false
			}
		}
		base = s[:i]
	}
	for i := 0; i < len(base); i++ {
		c := base[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
