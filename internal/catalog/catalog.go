// Package catalog holds the immutable subject-area table: the bijection
// between external area names and the canonical category tags used inside
// bank records. It is built once at startup and shared by handle; no other
// component keeps its own copy of the mapping.
package catalog

import (
	"fmt"
	"sort"
)

// Area is one subject-area entry. Years is nil for the year-less basic
// partition and a closed set of exam years for specialist areas.
type Area struct {
	Key     string   `yaml:"key"`
	Tag     string   `yaml:"tag"`
	Name    string   `yaml:"name"`
	Years   []int    `yaml:"years,omitempty"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// HasYear reports whether the area covers the given exam year.
// The basic area covers only the year-less sentinel (0).
func (a *Area) HasYear(year int) bool {
	if len(a.Years) == 0 {
		return year == 0
	}
	for _, y := range a.Years {
		if y == year {
			return true
		}
	}
	return false
}

// UnknownSubjectError means a name resolved to no catalog entry.
// There is deliberately no fuzzy fallback: serving a "close enough"
// subject is the contamination defect this system exists to prevent.
type UnknownSubjectError struct {
	Name string
}

func (e *UnknownSubjectError) Error() string {
	return fmt.Sprintf("unknown subject %q", e.Name)
}

// Catalog is the immutable name↔tag mapping. Safe for concurrent use.
type Catalog struct {
	areas  []Area
	byName map[string]*Area // keys, aliases, and tags
	byTag  map[string]*Area
}

// New validates the area set and builds a catalog. The mapping must be a
// bijection: no duplicate keys, tags, or aliases across areas.
func New(areas []Area) (*Catalog, error) {
	if len(areas) == 0 {
		return nil, fmt.Errorf("catalog: no areas")
	}

	c := &Catalog{
		areas:  make([]Area, len(areas)),
		byName: make(map[string]*Area),
		byTag:  make(map[string]*Area),
	}
	copy(c.areas, areas)

	for i := range c.areas {
		a := &c.areas[i]
		if a.Key == "" || a.Tag == "" || a.Name == "" {
			return nil, fmt.Errorf("catalog: area %d missing key, tag, or name", i)
		}
		if _, dup := c.byTag[a.Tag]; dup {
			return nil, fmt.Errorf("catalog: duplicate tag %q", a.Tag)
		}
		c.byTag[a.Tag] = a

		for _, name := range append([]string{a.Key, a.Tag}, a.Aliases...) {
			if prev, dup := c.byName[name]; dup && prev != a {
				return nil, fmt.Errorf("catalog: name %q maps to both %q and %q", name, prev.Tag, a.Tag)
			}
			c.byName[name] = a
		}
	}
	return c, nil
}

// Resolve maps an external area name (key, declared alias, or the exact
// canonical tag) to the canonical tag. Exact match only.
func (c *Catalog) Resolve(name string) (string, error) {
	a, ok := c.byName[name]
	if !ok {
		return "", &UnknownSubjectError{Name: name}
	}
	return a.Tag, nil
}

// Area returns the entry for a canonical tag.
func (c *Catalog) Area(tag string) (*Area, bool) {
	a, ok := c.byTag[tag]
	return a, ok
}

// DisplayName returns the external display label for a canonical tag.
func (c *Catalog) DisplayName(tag string) (string, bool) {
	a, ok := c.byTag[tag]
	if !ok {
		return "", false
	}
	return a.Name, true
}

// Areas returns all entries ordered by key.
func (c *Catalog) Areas() []Area {
	out := make([]Area, len(c.areas))
	copy(out, c.areas)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Tags returns every canonical tag.
func (c *Catalog) Tags() []string {
	tags := make([]string, 0, len(c.areas))
	for i := range c.areas {
		tags = append(tags, c.areas[i].Tag)
	}
	sort.Strings(tags)
	return tags
}
