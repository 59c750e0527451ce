package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entforge/entkit/internal/entity"
	"github.com/entforge/entkit/internal/index"
	"github.com/entforge/entkit/internal/parser"
)

func newTestEditor(t *testing.T) *Editor {
	t.Helper()
	doc, err := parser.Parse(`entityDef light1 {
	classname = "light";
	spawnPosition = { x = 250.5; y = -740.750061; z = -188.250015; }
}
entityDef trigger1 {
	class = "trigger";
	layers = { "triggers"; }
}`)
	require.NoError(t, err)
	return New(doc)
}

// assertFresh compares the live index against a cold rebuild across every
// query dimension mutations can touch.
func assertFresh(t *testing.T, ed *Editor) {
	t.Helper()
	fresh := index.Build(ed.Document())
	assert.Equal(t, fresh.Names(), ed.Index().Names())
	assert.Equal(t, fresh.Classes(), ed.Index().Classes())
	assert.Equal(t, fresh.Layers(), ed.Index().Layers())
	assert.Equal(t, fresh.WithoutLayers(), ed.Index().WithoutLayers())
	assert.Equal(t, fresh.NamesWithPrefix(""), ed.Index().NamesWithPrefix(""))
	for _, class := range fresh.Classes() {
		assert.Equal(t, fresh.ByClass(class), ed.Index().ByClass(class))
	}
}

func TestInsertPatchesIndex(t *testing.T) {
	t.Parallel()

	ed := newTestEditor(t)
	ed.InsertOrReplaceEntity("light2", []entity.Property{
		{Key: "classname", Value: entity.String("light")},
	})

	assert.Equal(t, []string{"light1", "light2"}, ed.Index().ByClass("light"))
	assertFresh(t, ed)
}

func TestReplacePatchesIndex(t *testing.T) {
	t.Parallel()

	ed := newTestEditor(t)
	ed.InsertOrReplaceEntity("light1", []entity.Property{
		{Key: "classname", Value: entity.String("func_static")},
	})

	assert.Empty(t, ed.Index().ByClass("light"))
	assert.Equal(t, []string{"light1"}, ed.Index().ByClass("func_static"))

	// Stale spatial entries must be gone.
	names, err := ed.Index().WithinRadius(entity.Vec3{X: 250, Y: -740, Z: -188}, 1.0)
	require.NoError(t, err)
	assert.Empty(t, names)
	assertFresh(t, ed)
}

func TestDeletePatchesIndex(t *testing.T) {
	t.Parallel()

	ed := newTestEditor(t)
	require.True(t, ed.DeleteEntity("light1"))
	assert.False(t, ed.DeleteEntity("light1"))

	assert.Empty(t, ed.Index().ByClass("light"))
	assert.Equal(t, []string{"trigger1"}, ed.Index().Names())
	assertFresh(t, ed)
}

func TestRenamePatchesIndex(t *testing.T) {
	t.Parallel()

	ed := newTestEditor(t)
	require.NoError(t, ed.RenameEntity("light1", "light_main"))

	assert.Equal(t, []string{"light_main"}, ed.Index().ByClass("light"))
	assert.Equal(t, []string{"light_main"}, ed.Index().NamesWithPrefix("light"))
	assertFresh(t, ed)
}

func TestRenameOverwritePatchesIndex(t *testing.T) {
	t.Parallel()

	ed := newTestEditor(t)
	require.NoError(t, ed.RenameEntity("light1", "trigger1"))

	// The old trigger1 is gone entirely; light1's data rides under its name.
	assert.Equal(t, []string{"trigger1"}, ed.Index().Names())
	assert.Equal(t, []string{"trigger1"}, ed.Index().ByClass("light"))
	assert.Empty(t, ed.Index().ByClass("trigger"))
	assert.Empty(t, ed.Index().ByLayer("triggers"))
	assertFresh(t, ed)
}

func TestRenameStrictLeavesIndexIntact(t *testing.T) {
	t.Parallel()

	ed := newTestEditor(t)
	err := ed.RenameEntityStrict("light1", "trigger1")
	var dup *entity.DuplicateNameError
	require.ErrorAs(t, err, &dup)

	assert.Equal(t, []string{"light1"}, ed.Index().ByClass("light"))
	assert.Equal(t, []string{"trigger1"}, ed.Index().ByClass("trigger"))
	assertFresh(t, ed)
}

func TestSetPropertyPatchesIndex(t *testing.T) {
	t.Parallel()

	ed := newTestEditor(t)
	require.NoError(t, ed.SetProperty("trigger1", "inherit", entity.String("trigger/base")))
	assert.Equal(t, []string{"trigger1"}, ed.Index().ByInherit("trigger/base"))

	require.NoError(t, ed.DeleteProperty("trigger1", "inherit"))
	assert.Empty(t, ed.Index().ByInherit("trigger/base"))

	require.ErrorIs(t, ed.SetProperty("ghost", "x", entity.Int(1)), entity.ErrNotFound)
	assertFresh(t, ed)
}

func TestRebuildAfterDirectMutation(t *testing.T) {
	t.Parallel()

	ed := newTestEditor(t)

	// Bypassing the editor leaves the index stale until Rebuild.
	ed.Document().DeleteEntity("light1")
	assert.Equal(t, []string{"light1"}, ed.Index().ByClass("light"))

	ed.Rebuild()
	assert.Empty(t, ed.Index().ByClass("light"))
	assertFresh(t, ed)
}
