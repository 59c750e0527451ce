package entity

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by mutations that name a missing entity.
var ErrNotFound = errors.New("entity not found")

// DuplicateNameError is returned by strict operations when the target name
// is already taken. Non-strict operations overwrite instead.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("entity name %q already exists", e.Name)
}

// Document is the root container: an ordered sequence of entities plus a
// name lookup map. Entity names are unique; inserting a duplicate name
// replaces the earlier entity (last write wins).
//
// A Document is single-writer: the caller serializes mutations. Parsing and
// serialization never share state between documents.
type Document struct {
	// Version and HierarchyVersion come from the optional file header and
	// are -1 when the header was absent.
	Version          int64
	HierarchyVersion int64

	// HeaderProps holds the optional top-level properties block.
	HeaderProps []Property

	ents   []*Entity
	byName map[string]int
}

// NewDocument returns an empty document with no header.
func NewDocument() *Document {
	return &Document{
		Version:          -1,
		HierarchyVersion: -1,
		byName:           make(map[string]int),
	}
}

// Len returns the number of entities.
func (d *Document) Len() int { return len(d.ents) }

// Entities returns the entities in document order. The slice is shared;
// callers must not reorder it.
func (d *Document) Entities() []*Entity { return d.ents }

// FindEntity returns the entity with the given name, or nil.
func (d *Document) FindEntity(name string) *Entity {
	if i, ok := d.byName[name]; ok {
		return d.ents[i]
	}
	return nil
}

// InsertOrReplaceEntity adds an entity. An existing entity with the same
// name is replaced in place, keeping its position in document order.
func (d *Document) InsertOrReplaceEntity(name string, props []Property) *Entity {
	e := NewEntity(name, props)
	if i, ok := d.byName[name]; ok {
		d.ents[i] = e
		return e
	}
	d.byName[name] = len(d.ents)
	d.ents = append(d.ents, e)
	return e
}

// DeleteEntity removes the named entity, reporting whether it existed.
func (d *Document) DeleteEntity(name string) bool {
	i, ok := d.byName[name]
	if !ok {
		return false
	}
	d.ents = append(d.ents[:i], d.ents[i+1:]...)
	delete(d.byName, name)
	for j := i; j < len(d.ents); j++ {
		d.byName[d.ents[j].Name] = j
	}
	return true
}

// RenameEntity renames an entity. If the new name is already taken the
// existing holder is removed first (overwrite semantics).
func (d *Document) RenameEntity(oldName, newName string) error {
	return d.rename(oldName, newName, false)
}

// RenameEntityStrict renames an entity, failing with DuplicateNameError
// when the new name is already taken.
func (d *Document) RenameEntityStrict(oldName, newName string) error {
	return d.rename(oldName, newName, true)
}

func (d *Document) rename(oldName, newName string, strict bool) error {
	i, ok := d.byName[oldName]
	if !ok {
		return fmt.Errorf("rename %q: %w", oldName, ErrNotFound)
	}
	if oldName == newName {
		return nil
	}
	if _, taken := d.byName[newName]; taken {
		if strict {
			return &DuplicateNameError{Name: newName}
		}
		d.DeleteEntity(newName)
		i = d.byName[oldName]
	}
	d.ents[i].Name = newName
	delete(d.byName, oldName)
	d.byName[newName] = i
	return nil
}

// SetProperty updates or appends a top-level property of the named entity.
func (d *Document) SetProperty(entityName, key string, v Value) error {
	e := d.FindEntity(entityName)
	if e == nil {
		return fmt.Errorf("set property on %q: %w", entityName, ErrNotFound)
	}
	e.SetProperty(key, v)
	return nil
}

// DeleteProperty removes a top-level property of the named entity. Removing
// a key that is not present is a no-op.
func (d *Document) DeleteProperty(entityName, key string) error {
	e := d.FindEntity(entityName)
	if e == nil {
		return fmt.Errorf("delete property on %q: %w", entityName, ErrNotFound)
	}
	e.DeleteProperty(key)
	return nil
}

// Equal reports structural equality: header, entity order, names and
// property trees.
func (d *Document) Equal(o *Document) bool {
	if d.Version != o.Version || d.HierarchyVersion != o.HierarchyVersion {
		return false
	}
	if len(d.HeaderProps) != len(o.HeaderProps) || len(d.ents) != len(o.ents) {
		return false
	}
	for i := range d.HeaderProps {
		if d.HeaderProps[i].Key != o.HeaderProps[i].Key ||
			!d.HeaderProps[i].Value.Equal(o.HeaderProps[i].Value) {
			return false
		}
	}
	for i := range d.ents {
		if !d.ents[i].Equal(o.ents[i]) {
			return false
		}
	}
	return true
}
