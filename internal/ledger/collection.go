package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"itledger/internal/document"
	"itledger/internal/store"
)

// Collection is one persisted list of documents of a single kind.
// Every mutation writes the whole list back under the collection's key;
// the in-memory list only changes once that write succeeds.
type Collection[D document.Document] struct {
	key   string
	kv    store.KV
	items []D
	log   zerolog.Logger
}

func newCollection[D document.Document](ctx context.Context, kv store.KV, key string, log zerolog.Logger) *Collection[D] {
	c := &Collection[D]{key: key, kv: kv, log: log.With().Str("collection", key).Logger()}
	var items []D
	if store.LoadJSON(ctx, kv, key, &items) {
		c.items = items
	}
	return c
}

// Key is the store key the collection persists under.
func (c *Collection[D]) Key() string { return c.key }

// Len returns the number of documents.
func (c *Collection[D]) Len() int { return len(c.items) }

// List returns the documents in insertion order.
func (c *Collection[D]) List() []D {
	return append([]D(nil), c.items...)
}

// Get looks a document up by id.
func (c *Collection[D]) Get(id string) (D, bool) {
	for _, item := range c.items {
		if item.Base().ID == id {
			return item, true
		}
	}
	var zero D
	return zero, false
}

// Create assigns doc a fresh id when it has none, appends it and persists the collection.
func (c *Collection[D]) Create(ctx context.Context, doc D) (D, error) {
	base := doc.Base()
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if _, exists := c.Get(base.ID); exists {
		var zero D
		return zero, fmt.Errorf("%s: duplicate id %s", c.key, base.ID)
	}

	next := append(c.List(), doc)
	if err := c.save(ctx, next); err != nil {
		var zero D
		return zero, err
	}

	c.log.Info().Str("id", base.ID).Str("title", base.Title).Float64("amount", base.Amount).Msg("Document created")
	return doc, nil
}

// Update replaces every field of the document with the given id except the id itself.
// It reports false, without touching the store, when no such document exists.
func (c *Collection[D]) Update(ctx context.Context, id string, doc D) (bool, error) {
	idx := c.index(id)
	if idx < 0 {
		c.log.Debug().Str("id", id).Msg("Update of unknown document ignored")
		return false, nil
	}
	doc.Base().ID = id

	next := c.List()
	next[idx] = doc
	if err := c.save(ctx, next); err != nil {
		return false, err
	}

	c.log.Info().Str("id", id).Msg("Document updated")
	return true, nil
}

// Delete removes the document with the given id. Unknown ids are a no-op.
func (c *Collection[D]) Delete(ctx context.Context, id string) error {
	idx := c.index(id)
	if idx < 0 {
		return nil
	}

	next := make([]D, 0, len(c.items)-1)
	next = append(next, c.items[:idx]...)
	next = append(next, c.items[idx+1:]...)
	if err := c.save(ctx, next); err != nil {
		return err
	}

	c.log.Info().Str("id", id).Msg("Document deleted")
	return nil
}

// Append adds documents exactly as given, without assigning ids or recomputing taxes.
func (c *Collection[D]) Append(ctx context.Context, docs ...D) error {
	if len(docs) == 0 {
		return nil
	}
	next := append(c.List(), docs...)
	if err := c.save(ctx, next); err != nil {
		return err
	}
	c.log.Info().Int("count", len(docs)).Msg("Documents appended")
	return nil
}

func (c *Collection[D]) index(id string) int {
	for i, item := range c.items {
		if item.Base().ID == id {
			return i
		}
	}
	return -1
}

func (c *Collection[D]) save(ctx context.Context, items []D) error {
	if items == nil {
		items = []D{}
	}
	if err := store.SaveJSON(ctx, c.kv, c.key, items); err != nil {
		return fmt.Errorf("persist %s: %w", c.key, err)
	}
	c.items = items
	return nil
}
