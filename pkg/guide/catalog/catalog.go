// Package catalog holds the projects a session can choose from.
package catalog

import (
	"ai-buildguide-be/pkg/store"
)

// Catalog maps project id to project for one session. It holds at most one
// project per source: a newer project from the same source replaces the older one.
// Not safe for concurrent use; the owning session serializes access.
type Catalog struct {
	byID  map[string]*store.Project
	order []string
}

func New() *Catalog {
	return &Catalog{byID: make(map[string]*store.Project)}
}

// Add stores p and reports whether it was new.
func (c *Catalog) Add(p *store.Project) bool {
	if p == nil {
		return false
	}
	if _, exists := c.byID[p.ID]; exists {
		c.byID[p.ID] = p
		return false
	}
	if prev := c.bySource(p.Source); prev != nil {
		c.remove(prev.ID)
	}
	c.byID[p.ID] = p
	c.order = append(c.order, p.ID)
	return true
}

func (c *Catalog) Get(id string) (*store.Project, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Pipeline returns the barcode-resolved project, if any.
func (c *Catalog) Pipeline() *store.Project {
	return c.bySource(store.SourceBarcodePipeline)
}

// Hosted returns the project loaded from the hosted dataset, if any.
func (c *Catalog) Hosted() *store.Project {
	return c.bySource(store.SourceHostedDataset)
}

// Preferred picks the project to build when the user does not choose:
// the pipeline result, then a vision-identified one, then the hosted one.
func (c *Catalog) Preferred() *store.Project {
	for _, src := range []store.Source{
		store.SourceBarcodePipeline,
		store.SourceVisionIdentification,
		store.SourceHostedDataset,
	} {
		if p := c.bySource(src); p != nil {
			return p
		}
	}
	return nil
}

func (c *Catalog) Len() int {
	return len(c.order)
}

// Projects lists projects in insertion order.
func (c *Catalog) Projects() []*store.Project {
	out := make([]*store.Project, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) bySource(src store.Source) *store.Project {
	for _, id := range c.order {
		if p := c.byID[id]; p.Source == src {
			return p
		}
	}
	return nil
}

func (c *Catalog) remove(id string) {
	delete(c.byID, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
