package body

import (
	"errors"
	"fmt"
	"sort"
	"time"

	astromath "github.com/oxygene76/orrery/pkg/astronomy/math"
)

// ErrUnknownBody is returned when an id is not part of the catalog
var ErrUnknownBody = errors.New("unknown body")

// Ring describes a planetary ring system. Radii are ratios of the body radius.
type Ring struct {
	Inner float64 `json:"inner"`
	Outer float64 `json:"outer"`
	Color Color   `json:"color"`
}

// Window is an optional active-date window for transient objects.
// Zero times leave that side open.
type Window struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// Contains reports whether t falls inside the window, both ends inclusive
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// Body is the static description of a rendered object. Per-frame state
// lives in the scene and trail packages, not here.
type Body struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Color          Color   `json:"color"`
	Parent         string  `json:"parent,omitempty"`
	Linear         bool    `json:"linear,omitempty"`
	RotationPeriod float64 `json:"rotation_period,omitempty"` // days
	AxialTilt      float64 `json:"axial_tilt,omitempty"`      // degrees
	Ring           *Ring   `json:"ring,omitempty"`
	Active         Window  `json:"active"`
	Texture        string  `json:"texture,omitempty"`
}

// RotationAngle returns the surface rotation in degrees at elapsed days,
// wrapped to [0,360). Bodies without a period do not spin.
func (b Body) RotationAngle(elapsedDays float64) float64 {
	if b.RotationPeriod == 0 {
		return 0
	}
	return astromath.WrapDegrees(elapsedDays / b.RotationPeriod * 360)
}

// Group is a named set of bodies sharing a local shadow frame
type Group struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Catalog holds the configured bodies in display order plus their groups
type Catalog struct {
	bodies  []Body
	index   map[string]int
	groups  []Group
	groupOf map[string]int
}

// NewCatalog validates bodies and groups and builds lookup tables.
// Bodies not listed in any group become singleton groups.
func NewCatalog(bodies []Body, groups []Group) (*Catalog, error) {
	c := &Catalog{
		bodies:  make([]Body, 0, len(bodies)),
		index:   make(map[string]int, len(bodies)),
		groupOf: make(map[string]int, len(bodies)),
	}

	for _, b := range bodies {
		if b.ID == "" {
			return nil, fmt.Errorf("body %q has no id", b.Name)
		}
		if _, dup := c.index[b.ID]; dup {
			return nil, fmt.Errorf("duplicate body id %s", b.ID)
		}
		c.index[b.ID] = len(c.bodies)
		c.bodies = append(c.bodies, b)
	}

	for _, g := range groups {
		members := make([]string, 0, len(g.Members))
		for _, id := range g.Members {
			if _, ok := c.index[id]; !ok {
				return nil, fmt.Errorf("group %s: %w: %s", g.Name, ErrUnknownBody, id)
			}
			if prev, taken := c.groupOf[id]; taken {
				return nil, fmt.Errorf("body %s is in both %s and %s", id, c.groups[prev].Name, g.Name)
			}
			c.groupOf[id] = len(c.groups)
			members = append(members, id)
		}
		c.groups = append(c.groups, Group{Name: g.Name, Members: members})
	}

	for _, b := range c.bodies {
		if _, ok := c.groupOf[b.ID]; ok {
			continue
		}
		c.groupOf[b.ID] = len(c.groups)
		c.groups = append(c.groups, Group{Name: b.ID, Members: []string{b.ID}})
	}

	for _, b := range c.bodies {
		if b.Parent != "" {
			if _, ok := c.index[b.Parent]; !ok {
				return nil, fmt.Errorf("body %s: parent %w: %s", b.ID, ErrUnknownBody, b.Parent)
			}
		}
	}

	return c, nil
}

// Bodies returns the bodies in display order
func (c *Catalog) Bodies() []Body {
	return c.bodies
}

// IDs returns the body ids in display order
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.bodies))
	for i, b := range c.bodies {
		ids[i] = b.ID
	}
	return ids
}

// Get looks up a body by id
func (c *Catalog) Get(id string) (Body, bool) {
	i, ok := c.index[id]
	if !ok {
		return Body{}, false
	}
	return c.bodies[i], true
}

// Groups returns all groups, including implicit singletons
func (c *Catalog) Groups() []Group {
	return c.groups
}

// Siblings returns the other members of id's group
func (c *Catalog) Siblings(id string) []string {
	gi, ok := c.groupOf[id]
	if !ok {
		return nil
	}
	var out []string
	for _, m := range c.groups[gi].Members {
		if m != id {
			out = append(out, m)
		}
	}
	return out
}

// Next returns the id after current in display order, wrapping around.
// An empty id stands for the sun and sits before the first body.
func (c *Catalog) Next(current string) string {
	if len(c.bodies) == 0 {
		return ""
	}
	i, ok := c.index[current]
	if !ok {
		return c.bodies[0].ID
	}
	if i+1 >= len(c.bodies) {
		return ""
	}
	return c.bodies[i+1].ID
}

// Children returns ids of bodies whose parent is id, sorted
func (c *Catalog) Children(id string) []string {
	var out []string
	for _, b := range c.bodies {
		if b.Parent == id {
			out = append(out, b.ID)
		}
	}
	sort.Strings(out)
	return out
}
