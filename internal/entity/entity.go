package entity

// Vec3 is a spawn position in world units.
type Vec3 struct {
	X, Y, Z float64
}

// Entity is a named record: an ordered sequence of properties plus cached
// fields derived from them. Declaration order is preserved exactly because
// later properties may override earlier ones.
type Entity struct {
	Name  string
	Props []Property

	// Derived fields, recomputed on every mutation. The index reads these
	// instead of re-walking the property tree.
	Class   string
	Inherit string
	Layers  []string
	Spawn   *Vec3
}

// NewEntity returns an entity with its derived fields populated.
func NewEntity(name string, props []Property) *Entity {
	e := &Entity{Name: name, Props: props}
	e.refreshDerived()
	return e
}

// FindProperty returns the top-level property value for key.
func (e *Entity) FindProperty(key string) (Value, bool) {
	for i := range e.Props {
		if e.Props[i].Key == key {
			return e.Props[i].Value, true
		}
	}
	return Value{}, false
}

// SetProperty updates an existing top-level key in place, or appends a new
// one, preserving declaration order.
func (e *Entity) SetProperty(key string, v Value) {
	for i := range e.Props {
		if e.Props[i].Key == key {
			e.Props[i].Value = v
			e.refreshDerived()
			return
		}
	}
	e.Props = append(e.Props, Property{Key: key, Value: v})
	e.refreshDerived()
}

// DeleteProperty removes the first top-level property with the given key.
func (e *Entity) DeleteProperty(key string) bool {
	for i := range e.Props {
		if e.Props[i].Key == key {
			e.Props = append(e.Props[:i], e.Props[i+1:]...)
			e.refreshDerived()
			return true
		}
	}
	return false
}

// Equal reports structural equality of name and property tree.
func (e *Entity) Equal(o *Entity) bool {
	if e.Name != o.Name || len(e.Props) != len(o.Props) {
		return false
	}
	for i := range e.Props {
		if e.Props[i].Key != o.Props[i].Key || !e.Props[i].Value.Equal(o.Props[i].Value) {
			return false
		}
	}
	return true
}

// Refresh recomputes the derived fields after in-place edits to Props made
// outside the mutation API.
func (e *Entity) Refresh() { e.refreshDerived() }

// refreshDerived recomputes the cached class, inherit, layers and spawn
// position. The search is depth-first over the whole property tree: real
// files keep spawnPosition nested inside an edit block while class and
// inherit sit at the top of the entityDef.
func (e *Entity) refreshDerived() {
	e.Class = ""
	e.Inherit = ""
	e.Layers = nil
	e.Spawn = nil
	e.walkDerived(e.Props)
}

func (e *Entity) walkDerived(props []Property) {
	for i := range props {
		key := props[i].Key
		v := props[i].Value
		switch v.Kind {
		case KindString:
			if e.Class == "" && (key == "class" || key == "classname") {
				e.Class = v.Str
			}
			if e.Inherit == "" && key == "inherit" {
				e.Inherit = v.Str
			}
		case KindStruct:
			if e.Spawn == nil && key == "spawnPosition" {
				if pos, ok := spawnFromStruct(v); ok {
					e.Spawn = pos
				}
			}
			e.walkDerived(v.Props)
		case KindArray:
			if e.Layers == nil && key == "layers" {
				for _, el := range v.Elems {
					if s, ok := el.Value.AsString(); ok {
						e.Layers = append(e.Layers, s)
					}
				}
			}
			for _, el := range v.Elems {
				if el.Value.Kind == KindStruct {
					e.walkDerived(el.Value.Props)
				}
			}
		}
	}
}

// spawnFromStruct accepts only a struct holding exactly the numeric fields
// x, y and z.
func spawnFromStruct(v Value) (*Vec3, bool) {
	if len(v.Props) != 3 {
		return nil, false
	}
	var pos Vec3
	var sx, sy, sz bool
	for _, p := range v.Props {
		n, ok := p.Value.AsNumber()
		if !ok {
			return nil, false
		}
		switch p.Key {
		case "x":
			pos.X, sx = n, true
		case "y":
			pos.Y, sy = n, true
		case "z":
			pos.Z, sz = n, true
		default:
			return nil, false
		}
	}
	if !sx || !sy || !sz {
		return nil, false
	}
	return &pos, true
}
