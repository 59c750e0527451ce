// Package repair renumbers sparse or duplicated array indices into a dense,
// zero-based sequence. The positional order of entries is authoritative;
// the authored index labels are discarded.
package repair

import (
	"fmt"
	"regexp"

	"github.com/entforge/entkit/internal/entity"
	"github.com/entforge/entkit/internal/parser"
	"github.com/entforge/entkit/internal/writer"
)

var indexedKey = regexp.MustCompile(`^(.+)\[(\d+)\]$`)

// Arrays reparses a value subtree (a bare struct/array value or a sequence
// of key = value properties), repairs every array in it and serializes the
// result. Input that does not parse fails with the same error taxonomy as
// the main parser. The operation is idempotent.
func Arrays(src string) (string, error) {
	frag, err := parser.ParseFragment(src)
	if err != nil {
		return "", err
	}

	w := writer.New()
	if frag.Value != nil {
		v := *frag.Value
		repairValue(&v)
		return w.Value(v), nil
	}
	repairProps(frag.Props)
	return w.Properties(frag.Props), nil
}

// Document repairs every array of every entity in place.
func Document(d *entity.Document) {
	for _, e := range d.Entities() {
		Entity(e)
	}
}

// Entity repairs every array in the entity's property tree in place.
func Entity(e *entity.Entity) {
	repairProps(e.Props)
	e.Refresh()
}

func repairValue(v *entity.Value) {
	switch v.Kind {
	case entity.KindStruct:
		repairProps(v.Props)
	case entity.KindArray:
		indexed := false
		for i := range v.Elems {
			if v.Elems[i].HasIndex {
				indexed = true
				break
			}
		}
		for i := range v.Elems {
			if indexed {
				v.Elems[i].Index = int64(i)
				v.Elems[i].HasIndex = true
			}
			repairValue(&v.Elems[i].Value)
		}
	}
}

// repairProps renumbers item[3] style keys per base name in positional
// order, updates a sibling num property to the item entry count, and
// recurses into nested values.
func repairProps(props []entity.Property) {
	counters := make(map[string]int64)
	for i := range props {
		if m := indexedKey.FindStringSubmatch(props[i].Key); m != nil {
			base := m[1]
			props[i].Key = fmt.Sprintf("%s[%d]", base, counters[base])
			counters[base]++
		}
		repairValue(&props[i].Value)
	}
	if n, ok := counters["item"]; ok {
		for i := range props {
			if props[i].Key == "num" && props[i].Value.Kind == entity.KindNumber {
				props[i].Value = entity.Int(n)
			}
		}
	}
}
