// Package taxonomy holds the static two-level category tree. It is loaded
// once at startup from an embedded JSON definition and is read-only at
// runtime; the dialog and report layers look categories up by id.
package taxonomy

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"kopilka/internal/core"
)

//go:embed categories.json
var defaultData []byte

type categoryRecord struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Kind     core.Kind `json:"kind"`
	ParentID int64     `json:"parent_id"`
	Quick    bool      `json:"quick"`
}

// Directory answers category lookups. Immutable after Load.
type Directory struct {
	byID     map[int64]core.Category
	children map[int64][]core.Category
	roots    map[core.Kind][]core.Category
	quick    map[core.Kind][]core.Category
}

// Default loads the embedded category definition.
func Default() (*Directory, error) {
	return Load(defaultData)
}

// Load parses and validates a category definition. Order of the definition is
// preserved in every listing. Invariants checked: unique ids, valid kinds, a
// parent must be an existing root of the same kind (max depth 2), and a
// quick-pick must be a childless root since it jumps straight to the comment
// step.
func Load(data []byte) (*Directory, error) {
	var records []categoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("category definition is empty")
	}

	d := &Directory{
		byID:     make(map[int64]core.Category, len(records)),
		children: make(map[int64][]core.Category),
		roots:    make(map[core.Kind][]core.Category),
		quick:    make(map[core.Kind][]core.Category),
	}

	for _, r := range records {
		if r.ID == 0 {
			return nil, fmt.Errorf("category %q: id is required", r.Name)
		}
		if !r.Kind.Valid() {
			return nil, fmt.Errorf("category %d: %w: %q", r.ID, core.ErrUnknownKind, r.Kind)
		}
		if _, dup := d.byID[r.ID]; dup {
			return nil, fmt.Errorf("category %d: duplicate id", r.ID)
		}
		c := core.Category{ID: r.ID, Name: r.Name, Kind: r.Kind, ParentID: r.ParentID, Quick: r.Quick}
		d.byID[c.ID] = c
	}

	for _, r := range records {
		c := d.byID[r.ID]
		if c.IsRoot() {
			d.roots[c.Kind] = append(d.roots[c.Kind], c)
			if c.Quick {
				d.quick[c.Kind] = append(d.quick[c.Kind], c)
			}
			continue
		}
		parent, ok := d.byID[c.ParentID]
		if !ok {
			return nil, fmt.Errorf("category %d: parent %d does not exist", c.ID, c.ParentID)
		}
		if !parent.IsRoot() {
			return nil, fmt.Errorf("category %d: parent %d is not a root (max depth is 2)", c.ID, c.ParentID)
		}
		if parent.Kind != c.Kind {
			return nil, fmt.Errorf("category %d: kind %q differs from parent kind %q", c.ID, c.Kind, parent.Kind)
		}
		d.children[c.ParentID] = append(d.children[c.ParentID], c)
	}

	for kind, picks := range d.quick {
		for _, c := range picks {
			if len(d.children[c.ID]) > 0 {
				return nil, fmt.Errorf("category %d (%s): quick-pick cannot have subcategories", c.ID, kind)
			}
		}
	}

	return d, nil
}

// ByID returns the category with the given id.
func (d *Directory) ByID(id int64) (core.Category, bool) {
	c, ok := d.byID[id]
	return c, ok
}

// RootsByKind lists the root categories of a kind in definition order.
func (d *Directory) RootsByKind(kind core.Kind) []core.Category {
	return d.roots[kind]
}

// ChildrenOf lists the subcategories of a root, empty for leaves.
func (d *Directory) ChildrenOf(id int64) []core.Category {
	return d.children[id]
}

// HasChildren reports whether the category has subcategories.
func (d *Directory) HasChildren(id int64) bool {
	return len(d.children[id]) > 0
}

// QuickPicks lists the quick-pick shortcuts of a kind.
func (d *Directory) QuickPicks(kind core.Kind) []core.Category {
	return d.quick[kind]
}

// Name resolves a category id to its display name, falling back to the
// numeric id for records deleted from the definition after transactions were
// written against them.
func (d *Directory) Name(id int64) string {
	if c, ok := d.byID[id]; ok {
		return c.Name
	}
	return fmt.Sprintf("#%d", id)
}
