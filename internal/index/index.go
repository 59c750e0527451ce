package index

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/entforge/entkit/internal/entity"
)

// cellSize is the edge length of one spatial bucket in world units.
const cellSize = 64.0

// QueryError is a malformed filter request. Unknown classes, layers or keys
// are not errors; they resolve to an empty result set.
type QueryError struct {
	Msg string
}

func (e *QueryError) Error() string { return "query: " + e.Msg }

// Query is a set of simultaneously active filters. Zero-valued fields are
// inactive; active filters combine with AND semantics over one result set.
type Query struct {
	Class   string
	Layer   string
	Inherit string

	// Key matches a property key exactly (case-insensitive); Value matches
	// a scalar value by substring. When both are set they must match on the
	// same property.
	Key   string
	Value string

	// Center and Radius select entities whose spawn position lies strictly
	// closer than Radius to Center.
	Center *entity.Vec3
	Radius float64

	NamePrefix string
}

type set map[string]struct{}

func (s set) add(name string)      { s[name] = struct{}{} }
func (s set) has(name string) bool { _, ok := s[name]; return ok }

type cell struct {
	x, y, z int32
}

func cellOf(p entity.Vec3) cell {
	return cell{
		x: cellCoord(p.X),
		y: cellCoord(p.Y),
		z: cellCoord(p.Z),
	}
}

// cellCoord clamps to the int32 cell range so extreme coordinates and
// search radii stay inside defined conversion behavior.
func cellCoord(v float64) int32 {
	f := math.Floor(v / cellSize)
	switch {
	case f < math.MinInt32:
		return math.MinInt32
	case f > math.MaxInt32:
		return math.MaxInt32
	}
	return int32(f)
}

// Index is a rebuildable read-cache over a Document; it is never the source
// of truth and stores entity names rather than entity pointers, so deleting
// or renaming an entity cannot leave dangling references.
//
// Tokens are stored lowercased and lookups are lowercased, so all matching
// is case-insensitive. The mutex makes every query a consistent snapshot:
// a query answers against the state as of the last completed Add/Remove/
// Rebuild, never a half-applied one.
type Index struct {
	mu sync.RWMutex

	names     set
	classes   map[string]set
	layers    map[string]set
	inherits  map[string]set
	keys      map[string]set
	values    map[string]set
	pairs     map[string]map[string]set
	spatial   map[cell]set
	positions map[string]entity.Vec3
	noLayers  set
	trie      *nameTrie
}

// New returns an empty index.
func New() *Index {
	ix := &Index{}
	ix.reset()
	return ix
}

// Build indexes every entity of the document.
func Build(d *entity.Document) *Index {
	ix := New()
	for _, e := range d.Entities() {
		ix.Add(e)
	}
	return ix
}

// Rebuild discards all lookup structures and re-derives them from the
// document. Rebuild and any sequence of incremental Add/Remove calls are
// observably equivalent.
func (ix *Index) Rebuild(d *entity.Document) {
	ix.mu.Lock()
	ix.reset()
	for _, e := range d.Entities() {
		ix.addLocked(e)
	}
	ix.mu.Unlock()
}

func (ix *Index) reset() {
	ix.names = make(set)
	ix.classes = make(map[string]set)
	ix.layers = make(map[string]set)
	ix.inherits = make(map[string]set)
	ix.keys = make(map[string]set)
	ix.values = make(map[string]set)
	ix.pairs = make(map[string]map[string]set)
	ix.spatial = make(map[cell]set)
	ix.positions = make(map[string]entity.Vec3)
	ix.noLayers = make(set)
	ix.trie = newNameTrie()
}

// Add indexes one entity. The caller must Remove a previously indexed
// version of the same name first.
func (ix *Index) Add(e *entity.Entity) {
	ix.mu.Lock()
	ix.addLocked(e)
	ix.mu.Unlock()
}

func (ix *Index) addLocked(e *entity.Entity) {
	name := e.Name
	ix.names.add(name)
	ix.trie.insert(name)

	if e.Class != "" {
		addTo(ix.classes, lower(e.Class), name)
	}
	if e.Inherit != "" {
		addTo(ix.inherits, lower(e.Inherit), name)
	}
	if len(e.Layers) == 0 {
		ix.noLayers.add(name)
	}
	for _, layer := range e.Layers {
		addTo(ix.layers, lower(layer), name)
	}
	if e.Spawn != nil {
		ix.positions[name] = *e.Spawn
		addTo(ix.spatial, cellOf(*e.Spawn), name)
	}
	ix.addProps(name, e.Props)
}

func (ix *Index) addProps(name string, props []entity.Property) {
	for i := range props {
		key := lower(props[i].Key)
		addTo(ix.keys, key, name)
		ix.addValue(name, key, props[i].Value)
	}
}

func (ix *Index) addValue(name, key string, v entity.Value) {
	switch v.Kind {
	case entity.KindStruct:
		ix.addProps(name, v.Props)
	case entity.KindArray:
		for _, el := range v.Elems {
			ix.addValue(name, key, el.Value)
		}
	default:
		tok, ok := v.Scalar()
		if !ok {
			return
		}
		tok = lower(tok)
		addTo(ix.values, tok, name)
		byVal, ok := ix.pairs[key]
		if !ok {
			byVal = make(map[string]set)
			ix.pairs[key] = byVal
		}
		addTo(byVal, tok, name)
	}
}

// Remove discards every index entry referring to the named entity.
func (ix *Index) Remove(name string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	delete(ix.names, name)
	delete(ix.noLayers, name)
	delete(ix.positions, name)
	ix.trie.remove(name)

	discard(ix.classes, name)
	discard(ix.layers, name)
	discard(ix.inherits, name)
	discard(ix.keys, name)
	discard(ix.values, name)
	discard(ix.spatial, name)
	for key, byVal := range ix.pairs {
		discard(byVal, name)
		if len(byVal) == 0 {
			delete(ix.pairs, key)
		}
	}
}

// ByClass returns the names of entities with the given class.
func (ix *Index) ByClass(class string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sorted(ix.classes[lower(class)])
}

// ByLayer returns the names of entities on the given layer.
func (ix *Index) ByLayer(layer string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sorted(ix.layers[lower(layer)])
}

// ByInherit returns the names of entities inheriting the given def.
func (ix *Index) ByInherit(inherit string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sorted(ix.inherits[lower(inherit)])
}

// ByKey returns the names of entities carrying the given property key
// anywhere in their tree.
func (ix *Index) ByKey(key string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sorted(ix.keys[lower(key)])
}

// ByValue returns the names of entities holding any scalar value that
// contains the given substring. Substring scans are slower than the exact
// lookups; prefer those when the full token is known.
func (ix *Index) ByValue(substring string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sorted(ix.valueSubstringLocked(substring))
}

func (ix *Index) valueSubstringLocked(substring string) set {
	substring = lower(substring)
	out := make(set)
	for tok, names := range ix.values {
		if strings.Contains(tok, substring) {
			for name := range names {
				out.add(name)
			}
		}
	}
	return out
}

// ByKeyValue returns the names of entities where a property with exactly
// the given key holds a scalar value containing the given substring.
func (ix *Index) ByKeyValue(key, substring string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sorted(ix.keyValueLocked(key, substring))
}

func (ix *Index) keyValueLocked(key, substring string) set {
	substring = lower(substring)
	out := make(set)
	for tok, names := range ix.pairs[lower(key)] {
		if strings.Contains(tok, substring) {
			for name := range names {
				out.add(name)
			}
		}
	}
	return out
}

// WithinRadius returns the names of entities whose spawn position lies
// strictly closer than radius to center. Buckets covering the search cube
// are scanned first, then candidates are refined by exact distance.
func (ix *Index) WithinRadius(center entity.Vec3, radius float64) ([]string, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	s, err := ix.withinRadiusLocked(center, radius)
	if err != nil {
		return nil, err
	}
	return sorted(s), nil
}

func (ix *Index) withinRadiusLocked(center entity.Vec3, radius float64) (set, error) {
	if radius < 0 || math.IsNaN(radius) {
		return nil, &QueryError{Msg: fmt.Sprintf("radius must be non-negative, got %v", radius)}
	}

	lo := cellOf(entity.Vec3{X: center.X - radius, Y: center.Y - radius, Z: center.Z - radius})
	hi := cellOf(entity.Vec3{X: center.X + radius, Y: center.Y + radius, Z: center.Z + radius})

	candidates := make(set)
	// Span arithmetic in int64 and the product in float64: a huge radius
	// must fall through to the map scan instead of wrapping around.
	cube := float64(int64(hi.x)-int64(lo.x)+1) *
		float64(int64(hi.y)-int64(lo.y)+1) *
		float64(int64(hi.z)-int64(lo.z)+1)
	if cube <= float64(len(ix.spatial)) {
		for x := lo.x; x <= hi.x; x++ {
			for y := lo.y; y <= hi.y; y++ {
				for z := lo.z; z <= hi.z; z++ {
					for name := range ix.spatial[cell{x, y, z}] {
						candidates.add(name)
					}
				}
			}
		}
	} else {
		for c, names := range ix.spatial {
			if c.x >= lo.x && c.x <= hi.x && c.y >= lo.y && c.y <= hi.y && c.z >= lo.z && c.z <= hi.z {
				for name := range names {
					candidates.add(name)
				}
			}
		}
	}

	out := make(set)
	for name := range candidates {
		if distance(ix.positions[name], center) < radius {
			out.add(name)
		}
	}
	return out, nil
}

// NamesWithPrefix returns names starting with the given prefix,
// case-insensitively; used for filter autocompletion.
func (ix *Index) NamesWithPrefix(prefix string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.trie.withPrefix(prefix)
}

// Names returns every indexed entity name, sorted.
func (ix *Index) Names() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sorted(ix.names)
}

// Classes returns every distinct class token, sorted.
func (ix *Index) Classes() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sortedKeys(ix.classes)
}

// Layers returns every distinct layer token, sorted.
func (ix *Index) Layers() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sortedKeys(ix.layers)
}

// Inherits returns every distinct inherit token, sorted.
func (ix *Index) Inherits() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sortedKeys(ix.inherits)
}

// WithoutLayers returns the names of entities declaring no layers.
func (ix *Index) WithoutLayers() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sorted(ix.noLayers)
}

// Run evaluates a combined query: the intersection of every active filter.
// A query with no active filters returns all entity names.
func (ix *Index) Run(q Query) ([]string, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if q.Center == nil && q.Radius != 0 {
		return nil, &QueryError{Msg: "radius filter requires a center position"}
	}

	var result set
	applied := false
	constrain := func(s set) {
		if !applied {
			applied = true
			if s == nil {
				s = make(set)
			}
			result = s
			return
		}
		next := make(set)
		for name := range result {
			if s.has(name) {
				next.add(name)
			}
		}
		result = next
	}

	if q.Class != "" {
		constrain(ix.classes[lower(q.Class)])
	}
	if q.Layer != "" {
		constrain(ix.layers[lower(q.Layer)])
	}
	if q.Inherit != "" {
		constrain(ix.inherits[lower(q.Inherit)])
	}
	switch {
	case q.Key != "" && q.Value != "":
		constrain(ix.keyValueLocked(q.Key, q.Value))
	case q.Key != "":
		constrain(ix.keys[lower(q.Key)])
	case q.Value != "":
		constrain(ix.valueSubstringLocked(q.Value))
	}
	if q.Center != nil {
		near, err := ix.withinRadiusLocked(*q.Center, q.Radius)
		if err != nil {
			return nil, err
		}
		constrain(near)
	}
	if q.NamePrefix != "" {
		s := make(set)
		for _, name := range ix.trie.withPrefix(q.NamePrefix) {
			s.add(name)
		}
		constrain(s)
	}

	if !applied {
		result = ix.names
	}
	return sorted(result), nil
}

func distance(a, b entity.Vec3) float64 {
	dx, dy, dz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func addTo[K comparable](m map[K]set, key K, name string) {
	s, ok := m[key]
	if !ok {
		s = make(set)
		m[key] = s
	}
	s.add(name)
}

func discard[K comparable](m map[K]set, name string) {
	for key, names := range m {
		delete(names, name)
		if len(names) == 0 {
			delete(m, key)
		}
	}
}

func sorted(s set) []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]set) []string {
	out := make([]string, 0, len(m))
	for key := range m {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func lower(s string) string {
	return strings.ToLower(s)
}
