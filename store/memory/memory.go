// Package memory provides an in-memory Gateway implementation for tests
// and local development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sabaispa/backoffice/store"
)

// Gateway keeps every collection in process memory. Safe for concurrent use.
type Gateway struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

func New() *Gateway {
	return &Gateway{collections: make(map[string]*collection)}
}

func (g *Gateway) Collection(name string) store.Collection {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.collections[name]
	if !ok {
		c = &collection{}
		g.collections[name] = c
	}
	return c
}

func (g *Gateway) Ready(context.Context) error { return nil }

func (g *Gateway) Close(context.Context) error { return nil }

// =============================================================================
// COLLECTION
// =============================================================================

type collection struct {
	mu      sync.RWMutex
	docs    []store.Document // insertion order preserved
	uniques [][]string       // field-path sets with a unique constraint
}

func (c *collection) EnsureUniqueIndex(_ context.Context, fields ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.uniques {
		if equalPaths(u, fields) {
			return nil
		}
	}
	c.uniques = append(c.uniques, fields)
	return nil
}

func (c *collection) FindOne(_ context.Context, filter store.Filter) (store.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.docs {
		if matches(d, filter) {
			return clone(d), nil
		}
	}
	return nil, store.ErrNotFound
}

func (c *collection) Find(_ context.Context, filter store.Filter) ([]store.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []store.Document
	for _, d := range c.docs {
		if matches(d, filter) {
			out = append(out, clone(d))
		}
	}
	return out, nil
}

func (c *collection) Insert(_ context.Context, doc store.Document) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertLocked(doc)
}

func (c *collection) insertLocked(doc store.Document) (string, error) {
	doc = clone(doc)
	id, _ := doc[store.IDField].(string)
	if id == "" {
		id = uuid.NewString()
		doc[store.IDField] = id
	}
	if err := c.checkUniqueLocked(doc, -1); err != nil {
		return "", err
	}
	c.docs = append(c.docs, doc)
	return id, nil
}

func (c *collection) Update(_ context.Context, filter store.Filter, set store.Document) (store.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range c.docs {
		if !matches(d, filter) {
			continue
		}
		updated := clone(d)
		applySet(updated, set)
		if err := c.checkUniqueLocked(updated, i); err != nil {
			return nil, err
		}
		c.docs[i] = updated
		return clone(updated), nil
	}
	return nil, store.ErrNotFound
}

func (c *collection) Upsert(_ context.Context, filter store.Filter, set, setOnInsert store.Document) (store.Document, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range c.docs {
		if !matches(d, filter) {
			continue
		}
		updated := clone(d)
		applySet(updated, set)
		if err := c.checkUniqueLocked(updated, i); err != nil {
			return nil, false, err
		}
		c.docs[i] = updated
		return clone(updated), false, nil
	}

	// Create path: the filter's equality conditions become document fields,
	// mirroring Mongo upsert semantics.
	doc := store.Document{}
	for _, cond := range filter {
		if cond.Op == store.OpEq {
			doc[cond.Field] = cond.Value
		}
	}
	applySet(doc, set)
	applySet(doc, setOnInsert)
	if _, err := c.insertLocked(doc); err != nil {
		return nil, false, err
	}
	return clone(doc), true, nil
}

func (c *collection) Delete(_ context.Context, filter store.Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range c.docs {
		if matches(d, filter) {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (c *collection) checkUniqueLocked(doc store.Document, skip int) error {
	for _, fields := range c.uniques {
		for i, other := range c.docs {
			if i == skip {
				continue
			}
			same := true
			for _, f := range fields {
				a, aok := store.Lookup(doc, f)
				b, bok := store.Lookup(other, f)
				if !aok || !bok || compare(a, b) != 0 {
					same = false
					break
				}
			}
			if same {
				return fmt.Errorf("%w: %v", store.ErrConflict, fields)
			}
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func matches(doc store.Document, filter store.Filter) bool {
	for _, cond := range filter {
		v, ok := store.Lookup(doc, cond.Field)
		if !ok {
			return false
		}
		cmp := compare(v, cond.Value)
		switch cond.Op {
		case store.OpEq:
			if cmp != 0 {
				return false
			}
		case store.OpGte:
			if cmp < 0 {
				return false
			}
		case store.OpLte:
			if cmp > 0 {
				return false
			}
		}
	}
	return true
}

// compare orders two document values. Numbers are coerced to float64 so an
// int filter value matches a float64 stored by JSON decoding.
func compare(a, b any) int {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	as := fmt.Sprintf("%v", a)
	bs := fmt.Sprintf("%v", b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func applySet(doc store.Document, set store.Document) {
	for k, v := range set {
		doc[k] = v
	}
}

func clone(doc store.Document) store.Document {
	out := make(store.Document, len(doc))
	for k, v := range doc {
		if m, ok := v.(map[string]any); ok {
			out[k] = clone(m)
			continue
		}
		out[k] = v
	}
	return out
}

func equalPaths(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
