package index

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entforge/entkit/internal/entity"
	"github.com/entforge/entkit/internal/parser"
)

const mapSrc = `entityDef "light1" {
	"classname" = "light";
	spawnPosition = {
		x = 250.5;
		y = -740.750061;
		z = -188.250015;
	}
}
entityDef light2 {
	class = "light";
	inherit = "light/base";
	layers = { "lights"; }
	spawnPosition = { x = 500; y = 0; z = 0; }
}
entityDef trigger_exit {
	class = "trigger";
	layers = { "Lights"; "triggers"; }
	edit = {
		targets = { num = 1; item[0] = "light2"; }
	}
}`

func buildTestIndex(t *testing.T) (*entity.Document, *Index) {
	t.Helper()
	doc, err := parser.Parse(mapSrc)
	require.NoError(t, err)
	return doc, Build(doc)
}

func TestByClass(t *testing.T) {
	t.Parallel()

	_, ix := buildTestIndex(t)
	assert.Equal(t, []string{"light1", "light2"}, ix.ByClass("light"))
	assert.Equal(t, []string{"trigger_exit"}, ix.ByClass("trigger"))
	assert.Empty(t, ix.ByClass("unknown"))
}

func TestCaseInsensitiveLookups(t *testing.T) {
	t.Parallel()

	_, ix := buildTestIndex(t)
	assert.Equal(t, []string{"light1", "light2"}, ix.ByClass("LIGHT"))
	assert.Equal(t, []string{"light2", "trigger_exit"}, ix.ByLayer("LIGHTS"))
	assert.Equal(t, []string{"light2"}, ix.ByInherit("Light/Base"))
	assert.Equal(t, []string{"light1", "light2"}, ix.ByKey("SPAWNPOSITION"))
}

func TestByLayerAndWithoutLayers(t *testing.T) {
	t.Parallel()

	_, ix := buildTestIndex(t)
	assert.Equal(t, []string{"light2", "trigger_exit"}, ix.ByLayer("lights"))
	assert.Equal(t, []string{"trigger_exit"}, ix.ByLayer("triggers"))
	assert.Equal(t, []string{"light1"}, ix.WithoutLayers())
}

func TestByKeyAndValue(t *testing.T) {
	t.Parallel()

	_, ix := buildTestIndex(t)

	// Keys are found at any depth of the property tree.
	assert.Equal(t, []string{"light1", "light2"}, ix.ByKey("spawnPosition"))
	assert.Equal(t, []string{"trigger_exit"}, ix.ByKey("item[0]"))

	// Value lookups are substring matches over scalar tokens.
	assert.Equal(t, []string{"light2"}, ix.ByValue("light/base"))
	assert.Equal(t, []string{"light1"}, ix.ByValue("-740.75"))
	assert.Equal(t, []string{"trigger_exit"}, ix.ByKeyValue("item[0]", "light2"))
	assert.Empty(t, ix.ByKeyValue("classname", "trigger"))
}

func TestWithinRadius(t *testing.T) {
	t.Parallel()

	_, ix := buildTestIndex(t)

	names, err := ix.WithinRadius(entity.Vec3{X: 250, Y: -740, Z: -188}, 1.0)
	require.NoError(t, err)
	assert.Equal(t, []string{"light1"}, names)

	// Boundary is exclusive: an entity exactly radius away is not a match.
	names, err = ix.WithinRadius(entity.Vec3{X: 400, Y: 0, Z: 0}, 100.0)
	require.NoError(t, err)
	assert.Empty(t, names)

	names, err = ix.WithinRadius(entity.Vec3{X: 400, Y: 0, Z: 0}, 100.001)
	require.NoError(t, err)
	assert.Equal(t, []string{"light2"}, names)

	// A large radius crosses many buckets and falls back to the map scan.
	names, err = ix.WithinRadius(entity.Vec3{}, 1e6)
	require.NoError(t, err)
	assert.Equal(t, []string{"light1", "light2"}, names)

	// A radius past the cell grid range must still answer, via the map scan.
	names, err = ix.WithinRadius(entity.Vec3{}, math.MaxFloat64)
	require.NoError(t, err)
	assert.Equal(t, []string{"light1", "light2"}, names)

	_, err = ix.WithinRadius(entity.Vec3{}, -1)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
}

func TestNamesWithPrefix(t *testing.T) {
	t.Parallel()

	_, ix := buildTestIndex(t)
	assert.Equal(t, []string{"light1", "light2"}, ix.NamesWithPrefix("light"))
	assert.Equal(t, []string{"light1", "light2"}, ix.NamesWithPrefix("LiGh"))
	assert.Equal(t, []string{"trigger_exit"}, ix.NamesWithPrefix("trigger_"))
	assert.Empty(t, ix.NamesWithPrefix("nothing"))
	assert.Equal(t, []string{"light1", "light2", "trigger_exit"}, ix.NamesWithPrefix(""))
}

func TestVocabularies(t *testing.T) {
	t.Parallel()

	_, ix := buildTestIndex(t)
	assert.Equal(t, []string{"light", "trigger"}, ix.Classes())
	assert.Equal(t, []string{"lights", "triggers"}, ix.Layers())
	assert.Equal(t, []string{"light/base"}, ix.Inherits())
	assert.Equal(t, []string{"light1", "light2", "trigger_exit"}, ix.Names())
}

func TestRemove(t *testing.T) {
	t.Parallel()

	_, ix := buildTestIndex(t)
	ix.Remove("light2")

	assert.Equal(t, []string{"light1"}, ix.ByClass("light"))
	assert.Equal(t, []string{"trigger_exit"}, ix.ByLayer("lights"))
	assert.Empty(t, ix.ByInherit("light/base"))
	assert.Equal(t, []string{"light1"}, ix.NamesWithPrefix("light"))

	names, err := ix.WithinRadius(entity.Vec3{X: 500, Y: 0, Z: 0}, 1.0)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRebuildMatchesIncremental(t *testing.T) {
	t.Parallel()

	doc, ix := buildTestIndex(t)

	// Mutate through Remove/Add, then compare against a cold rebuild.
	ix.Remove("light1")
	doc.DeleteEntity("light1")
	e := doc.InsertOrReplaceEntity("light3", []entity.Property{
		{Key: "class", Value: entity.String("light")},
		{Key: "spawnPosition", Value: entity.Struct(
			entity.Property{Key: "x", Value: entity.Number(10)},
			entity.Property{Key: "y", Value: entity.Number(20)},
			entity.Property{Key: "z", Value: entity.Number(30)},
		)},
	})
	ix.Add(e)

	fresh := Build(doc)
	assert.Equal(t, fresh.Names(), ix.Names())
	assert.Equal(t, fresh.ByClass("light"), ix.ByClass("light"))
	assert.Equal(t, fresh.ByKey("spawnPosition"), ix.ByKey("spawnPosition"))
	assert.Equal(t, fresh.WithoutLayers(), ix.WithoutLayers())
	assert.Equal(t, fresh.NamesWithPrefix("light"), ix.NamesWithPrefix("light"))
}

func TestIndexMatchesLinearScan(t *testing.T) {
	t.Parallel()

	doc, ix := buildTestIndex(t)

	var wantLight []string
	for _, e := range doc.Entities() {
		if strings.EqualFold(e.Class, "light") {
			wantLight = append(wantLight, e.Name)
		}
	}
	assert.Equal(t, wantLight, ix.ByClass("light"))

	var wantNear []string
	center := entity.Vec3{X: 250, Y: -740, Z: -188}
	for _, e := range doc.Entities() {
		if e.Spawn != nil && distance(*e.Spawn, center) < 1.0 {
			wantNear = append(wantNear, e.Name)
		}
	}
	got, err := ix.WithinRadius(center, 1.0)
	require.NoError(t, err)
	assert.Equal(t, wantNear, got)
}

func TestRun(t *testing.T) {
	t.Parallel()

	_, ix := buildTestIndex(t)

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "no_filters_returns_all",
			query: Query{},
			want:  []string{"light1", "light2", "trigger_exit"},
		},
		{
			name:  "class_only",
			query: Query{Class: "light"},
			want:  []string{"light1", "light2"},
		},
		{
			name:  "class_and_layer",
			query: Query{Class: "light", Layer: "lights"},
			want:  []string{"light2"},
		},
		{
			name:  "class_and_radius",
			query: Query{Class: "light", Center: &entity.Vec3{X: 250, Y: -740, Z: -188}, Radius: 1.0},
			want:  []string{"light1"},
		},
		{
			name:  "key_value_pair",
			query: Query{Key: "item[0]", Value: "light2"},
			want:  []string{"trigger_exit"},
		},
		{
			name:  "prefix_and_class",
			query: Query{NamePrefix: "light", Class: "light"},
			want:  []string{"light1", "light2"},
		},
		{
			name:  "unknown_class_is_empty",
			query: Query{Class: "missing"},
			want:  []string{},
		},
		{
			name:  "contradictory_filters",
			query: Query{Class: "trigger", Layer: "lights", Inherit: "light/base"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ix.Run(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	_, ix := buildTestIndex(t)

	var qerr *QueryError
	_, err := ix.Run(Query{Radius: 5})
	require.ErrorAs(t, err, &qerr, "radius without center")

	_, err = ix.Run(Query{Center: &entity.Vec3{}, Radius: -1})
	require.ErrorAs(t, err, &qerr, "negative radius")
}

func TestNameTrie(t *testing.T) {
	t.Parallel()

	trie := newNameTrie()
	trie.insert("Light1")
	trie.insert("light2")
	trie.insert("trigger")

	assert.Equal(t, []string{"Light1", "light2"}, trie.withPrefix("light"))
	assert.Equal(t, []string{"Light1"}, trie.withPrefix("LIGHT1"))
	assert.Nil(t, trie.withPrefix("lz"))

	trie.remove("Light1")
	assert.Equal(t, []string{"light2"}, trie.withPrefix("light"))

	// Removing an unknown name is a no-op.
	trie.remove("ghost")
	assert.Equal(t, []string{"light2", "trigger"}, trie.withPrefix(""))
}
