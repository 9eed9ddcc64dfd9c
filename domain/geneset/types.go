package geneset

import (
	"sort"
	"strings"

	"gogsea/domain/core"
)

// GeneSet is a named pathway with its member gene symbols.
// ID is the catalog-stable identifier, Name the display name.
type GeneSet struct {
	ID      string
	Name    string
	Members map[string]struct{}
}

// New builds a gene set; duplicate and blank members collapse.
func New(id, name string, members []string) GeneSet {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		if m = strings.TrimSpace(m); m != "" {
			set[m] = struct{}{}
		}
	}
	return GeneSet{ID: id, Name: name, Members: set}
}

// Size returns the number of distinct members.
func (g GeneSet) Size() int {
	return len(g.Members)
}

// Has reports membership of symbol.
func (g GeneSet) Has(symbol string) bool {
	_, ok := g.Members[symbol]
	return ok
}

// SortedMembers returns members in lexical order.
func (g GeneSet) SortedMembers() []string {
	out := make([]string, 0, len(g.Members))
	for m := range g.Members {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Catalog is an ordered, read-only collection of gene sets for one species.
// It is never mutated after construction and is safe for concurrent reads.
type Catalog struct {
	species core.Species
	sets    []GeneSet
	byID    map[string]int
	byName  map[string]int
	byFold  map[string]int
	skipped []string
}

// NewCatalog indexes sets by stable ID, exact name and case-folded name.
// Later duplicates of an ID are ignored so the first declaration wins.
func NewCatalog(species core.Species, sets []GeneSet) *Catalog {
	c := &Catalog{
		species: species,
		sets:    make([]GeneSet, 0, len(sets)),
		byID:    make(map[string]int, len(sets)),
		byName:  make(map[string]int, len(sets)),
		byFold:  make(map[string]int, len(sets)),
	}
	for _, gs := range sets {
		key := gs.ID
		if key == "" {
			key = gs.Name
		}
		if _, dup := c.byID[key]; dup {
			c.skipped = append(c.skipped, key)
			continue
		}
		idx := len(c.sets)
		c.sets = append(c.sets, gs)
		c.byID[key] = idx
		if _, ok := c.byName[gs.Name]; !ok {
			c.byName[gs.Name] = idx
		}
		fold := strings.ToUpper(gs.Name)
		if _, ok := c.byFold[fold]; !ok {
			c.byFold[fold] = idx
		}
	}
	return c
}

// Duplicates lists the IDs of later declarations that NewCatalog dropped,
// in input order.
func (c *Catalog) Duplicates() []string {
	out := make([]string, len(c.skipped))
	copy(out, c.skipped)
	return out
}

// Species returns the catalog namespace.
func (c *Catalog) Species() core.Species {
	return c.species
}

// Len returns the number of gene sets.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.sets)
}

// Sets returns the gene sets in declaration order. The slice is shared;
// callers must not modify it.
func (c *Catalog) Sets() []GeneSet {
	if c == nil {
		return nil
	}
	return c.sets
}

// ByID looks up a gene set by its stable identifier.
func (c *Catalog) ByID(id string) (GeneSet, bool) {
	if idx, ok := c.byID[id]; ok {
		return c.sets[idx], true
	}
	return GeneSet{}, false
}

// Resolve maps a possibly case-mangled reference back to the declared gene
// set: by stable ID, then exact name, then case-folded name.
func (c *Catalog) Resolve(id, name string) (GeneSet, bool) {
	if id != "" {
		if gs, ok := c.ByID(id); ok {
			return gs, true
		}
	}
	if idx, ok := c.byName[name]; ok {
		return c.sets[idx], true
	}
	if idx, ok := c.byFold[strings.ToUpper(name)]; ok {
		return c.sets[idx], true
	}
	return GeneSet{}, false
}
