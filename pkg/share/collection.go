package share

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/dittoshare/pkg/metrics"
)

// entry is the collection-internal pairing of a record with its transient
// mutation lock. The busy flag never survives a restart and is not part of
// the document's identity.
type entry struct {
	rec  Record
	busy bool
}

// Collection is the stateful manager of all live share documents.
//
// It holds the in-memory index of share ID to current record, serializes
// mutation per document ID, builds new document values through the pure
// factory functions, persists results through the Store and notifies
// subscribers of lifecycle events.
//
// Concurrency model: the mutex guards only the index map, the busy flags and
// the subscriber list, so it is held for map-operation-sized windows.
// Mutations on different IDs proceed independently. A second mutation on the
// same ID while one is in flight is rejected with ErrBusy, never queued. The
// Store call, the only operation expected to block, runs outside the mutex
// with the document's busy flag held, and the flag is cleared on every exit
// path, including Store failures.
type Collection struct {
	store   Store
	metrics *metrics.ShareMetrics

	mu      sync.RWMutex
	entries map[string]*entry
	subs    []Subscriber
}

// NewCollection creates a collection backed by store. Pass nil metrics to
// disable instrumentation. Call Load once before serving traffic.
func NewCollection(store Store, m *metrics.ShareMetrics) *Collection {
	return &Collection{
		store:   store,
		metrics: m,
		entries: make(map[string]*entry),
	}
}

// Subscribe registers fn for lifecycle events. All registration must happen
// before Load; there is no unsubscribe.
func (c *Collection) Subscribe(fn Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Load rebuilds the index from the Store's full listing and emits a create
// event per record. Called once at startup.
func (c *Collection) Load(ctx context.Context) error {
	recs, err := c.store.RetrieveAll(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	for _, rec := range recs {
		c.entries[rec.Doc.ID] = &entry{rec: rec}
	}
	subs := c.subscribers()
	c.mu.Unlock()

	for _, rec := range recs {
		notify(subs, Event{Type: EventCreate, Record: rec})
	}
	return nil
}

// Create builds a new share document from req, persists it, indexes it and
// emits a create event.
func (c *Collection) Create(ctx context.Context, actorID string, req CreateRequest) (Record, error) {
	if !IsUUID(actorID) {
		return Record{}, invalidArgumentf("invalid actor id %q", actorID)
	}

	doc, err := CreateDoc(actorID, req)
	if err != nil {
		return Record{}, err
	}

	digest, err := c.storeDoc(ctx, doc)
	if err != nil {
		return Record{}, err
	}
	rec := Record{Digest: digest, Doc: doc}

	c.mu.Lock()
	c.entries[doc.ID] = &entry{rec: rec}
	subs := c.subscribers()
	c.mu.Unlock()

	notify(subs, Event{Type: EventCreate, Record: rec})
	c.metrics.RecordCreate()
	return rec, nil
}

// Update applies ops to the share identified by shareID on behalf of actorID.
//
// The error ladder is evaluated in order: invalid identifiers or a nil ops
// list, unknown share, actor with no author/maintainer role, mutation already
// in flight. A patch that changes nothing returns the current record without
// a store write or an event.
func (c *Collection) Update(ctx context.Context, actorID, shareID string, ops []Operation) (Record, error) {
	if !IsUUID(actorID) {
		return Record{}, invalidArgumentf("invalid actor id %q", actorID)
	}
	if !IsUUID(shareID) {
		return Record{}, invalidArgumentf("invalid share id %q", shareID)
	}
	if ops == nil {
		return Record{}, invalidArgumentf("ops must be a list")
	}

	c.mu.Lock()
	e, ok := c.entries[shareID]
	if !ok {
		c.mu.Unlock()
		return Record{}, notFoundf("share %s does not exist", shareID)
	}
	doc := e.rec.Doc
	if role := RoleOf(actorID, doc); role != RoleAuthor && role != RoleMaintainer {
		c.mu.Unlock()
		return Record{}, permissionDeniedf("actor %s cannot modify share %s", actorID, shareID)
	}
	if e.busy {
		c.mu.Unlock()
		c.metrics.RecordBusy()
		return Record{}, busyf("share %s has a mutation in flight", shareID)
	}
	e.busy = true
	c.mu.Unlock()

	newDoc := UpdateDoc(actorID, doc, ops)
	if newDoc == doc {
		// Nothing changed: no write, no event, modifiedAt untouched.
		c.mu.Lock()
		e.busy = false
		rec := e.rec
		c.mu.Unlock()
		return rec, nil
	}

	digest, err := c.storeDoc(ctx, newDoc)
	if err != nil {
		// The index stays exactly as it was before the call.
		c.mu.Lock()
		e.busy = false
		c.mu.Unlock()
		return Record{}, err
	}
	newRec := Record{Digest: digest, Doc: newDoc}

	c.mu.Lock()
	old := e.rec
	e.rec = newRec
	e.busy = false
	subs := c.subscribers()
	c.mu.Unlock()

	notify(subs, Event{Type: EventUpdate, Record: newRec, Old: old})
	c.metrics.RecordUpdate()
	return newRec, nil
}

// Delete archives the share in the Store, removes it from the index and
// emits a delete event. Author only.
func (c *Collection) Delete(ctx context.Context, actorID, shareID string) error {
	if !IsUUID(actorID) {
		return invalidArgumentf("invalid actor id %q", actorID)
	}
	if !IsUUID(shareID) {
		return invalidArgumentf("invalid share id %q", shareID)
	}

	c.mu.Lock()
	e, ok := c.entries[shareID]
	if !ok {
		c.mu.Unlock()
		return notFoundf("share %s does not exist", shareID)
	}
	if actorID != e.rec.Doc.Author {
		c.mu.Unlock()
		return permissionDeniedf("actor %s cannot delete share %s", actorID, shareID)
	}
	if e.busy {
		c.mu.Unlock()
		c.metrics.RecordBusy()
		return busyf("share %s has a mutation in flight", shareID)
	}
	e.busy = true
	c.mu.Unlock()

	start := time.Now()
	err := c.store.Archive(ctx, shareID)
	c.metrics.ObserveStore("archive", time.Since(start), err)
	if err != nil {
		c.mu.Lock()
		e.busy = false
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	rec := e.rec
	e.busy = false
	delete(c.entries, shareID)
	subs := c.subscribers()
	c.mu.Unlock()

	notify(subs, Event{Type: EventDelete, Record: rec})
	c.metrics.RecordDelete()
	return nil
}

// Get returns the current record for shareID. The actor must hold some role
// on the document; viewers may read but not modify.
func (c *Collection) Get(actorID, shareID string) (Record, error) {
	if !IsUUID(actorID) {
		return Record{}, invalidArgumentf("invalid actor id %q", actorID)
	}
	if !IsUUID(shareID) {
		return Record{}, invalidArgumentf("invalid share id %q", shareID)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[shareID]
	if !ok {
		return Record{}, notFoundf("share %s does not exist", shareID)
	}
	if RoleOf(actorID, e.rec.Doc) == RoleNone {
		return Record{}, permissionDeniedf("actor %s cannot read share %s", actorID, shareID)
	}
	return e.rec, nil
}

// List returns the records of every share the actor holds a role on.
// Order is unspecified.
func (c *Collection) List(actorID string) ([]Record, error) {
	if !IsUUID(actorID) {
		return nil, invalidArgumentf("invalid actor id %q", actorID)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var recs []Record
	for _, e := range c.entries {
		if RoleOf(actorID, e.rec.Doc) != RoleNone {
			recs = append(recs, e.rec)
		}
	}
	return recs, nil
}

// Len returns the number of indexed shares.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// storeDoc persists doc, recording the write latency.
func (c *Collection) storeDoc(ctx context.Context, doc *Doc) (string, error) {
	start := time.Now()
	digest, err := c.store.Store(ctx, doc)
	c.metrics.ObserveStore("store", time.Since(start), err)
	return digest, err
}

// subscribers snapshots the subscriber list. Callers must hold c.mu.
func (c *Collection) subscribers() []Subscriber {
	if len(c.subs) == 0 {
		return nil
	}
	subs := make([]Subscriber, len(c.subs))
	copy(subs, c.subs)
	return subs
}

func notify(subs []Subscriber, ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
