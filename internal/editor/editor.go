// Package editor ties one document to its index. Every mutation goes
// through the Editor, which patches the index before returning: after any
// mutation method returns, a query against Index() reflects it.
package editor

import (
	"github.com/entforge/entkit/internal/entity"
	"github.com/entforge/entkit/internal/index"
)

// Editor is the owning context for one open document. It is single-writer:
// the caller serializes mutations, matching one edit session per open file.
// Queries may run concurrently with mutations; the index serializes them
// internally.
type Editor struct {
	doc *entity.Document
	idx *index.Index
}

// New builds an editor, indexing the document.
func New(doc *entity.Document) *Editor {
	return &Editor{doc: doc, idx: index.Build(doc)}
}

// Document returns the owned document. Mutating it directly bypasses index
// maintenance; use the Editor methods instead.
func (ed *Editor) Document() *entity.Document { return ed.doc }

// Index returns the live index over the document.
func (ed *Editor) Index() *index.Index { return ed.idx }

// Rebuild re-derives the whole index from the document. Incremental
// maintenance keeps the index exact, so this is only needed after direct
// document mutations.
func (ed *Editor) Rebuild() {
	ed.idx.Rebuild(ed.doc)
}

// InsertOrReplaceEntity adds or overwrites an entity and reindexes it.
func (ed *Editor) InsertOrReplaceEntity(name string, props []entity.Property) *entity.Entity {
	ed.idx.Remove(name)
	e := ed.doc.InsertOrReplaceEntity(name, props)
	ed.idx.Add(e)
	return e
}

// DeleteEntity removes an entity and its index entries.
func (ed *Editor) DeleteEntity(name string) bool {
	if !ed.doc.DeleteEntity(name) {
		return false
	}
	ed.idx.Remove(name)
	return true
}

// RenameEntity renames an entity, overwriting any existing holder of the
// new name.
func (ed *Editor) RenameEntity(oldName, newName string) error {
	return ed.rename(oldName, newName, ed.doc.RenameEntity)
}

// RenameEntityStrict renames an entity, failing when the new name is taken.
func (ed *Editor) RenameEntityStrict(oldName, newName string) error {
	return ed.rename(oldName, newName, ed.doc.RenameEntityStrict)
}

func (ed *Editor) rename(oldName, newName string, op func(string, string) error) error {
	if err := op(oldName, newName); err != nil {
		return err
	}
	ed.idx.Remove(oldName)
	ed.idx.Remove(newName)
	if e := ed.doc.FindEntity(newName); e != nil {
		ed.idx.Add(e)
	}
	return nil
}

// SetProperty updates or appends a top-level property and reindexes the
// entity.
func (ed *Editor) SetProperty(entityName, key string, v entity.Value) error {
	if err := ed.doc.SetProperty(entityName, key, v); err != nil {
		return err
	}
	ed.reindex(entityName)
	return nil
}

// DeleteProperty removes a top-level property and reindexes the entity.
func (ed *Editor) DeleteProperty(entityName, key string) error {
	if err := ed.doc.DeleteProperty(entityName, key); err != nil {
		return err
	}
	ed.reindex(entityName)
	return nil
}

func (ed *Editor) reindex(name string) {
	ed.idx.Remove(name)
	if e := ed.doc.FindEntity(name); e != nil {
		ed.idx.Add(e)
	}
}
