// Package store is the identity-mapped object store shared by every request.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hbnb_api/internal/adapters/observability"
	"hbnb_api/internal/domain"
)

var ErrClosed = errors.New("store: closed")

type key struct {
	kind domain.Kind
	id   string
}

// Store holds the authoritative in-process instance of every entity and
// flushes them to an Engine on Save. All methods are safe for concurrent use.
type Store struct {
	engine domain.Engine
	now    func() time.Time
	newID  func() string

	mu      sync.RWMutex
	objects map[key]domain.Entity
	dirty   map[key]struct{}

	commitMu  sync.Mutex // one mutate-and-save at a time
	saveMu    sync.Mutex // orders snapshots handed to the engine
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func New(engine domain.Engine, opts ...Option) *Store {
	s := &Store{
		engine:  engine,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		objects: make(map[key]domain.Entity),
		dirty:   make(map[key]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// All returns clones of every live entity of kind, keyed by id. An empty kind
// returns every entity keyed by "<Kind>.<id>".
func (s *Store) All(kind domain.Kind) map[string]domain.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Entity)
	for k, e := range s.objects {
		switch {
		case kind == "":
			out[string(k.kind)+"."+k.id] = e.Clone()
		case k.kind == kind:
			out[k.id] = e.Clone()
		}
	}
	return out
}

// List returns clones of every live entity of kind ordered by creation.
func (s *Store) List(kind domain.Kind) []domain.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterLocked(kind, func(domain.Entity) bool { return true })
}

// Get looks up one entity; ok is false when it does not exist.
func (s *Store) Get(kind domain.Kind, id string) (domain.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.objects[key{kind, id}]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

func (s *Store) Count(kind domain.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.objects {
		if kind == "" || k.kind == kind {
			n++
		}
	}
	return n
}

// New registers e, assigning an id and timestamps when unset. Every foreign
// key must point at a live parent. Nothing is persisted until Save.
func (s *Store) New(e domain.Entity) (err error) {
	defer func() { observability.ObserveStoreOp("new", string(e.Kind()), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	m := e.Meta()
	if m.ID == "" {
		m.ID = s.newID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	k := key{e.Kind(), m.ID}
	if _, exists := s.objects[k]; exists {
		return fmt.Errorf("%s %s already exists: %w", k.kind, k.id, domain.ErrConflict)
	}
	if err := s.checkRefsLocked(e); err != nil {
		return err
	}
	if err := s.checkUniqueLocked(e); err != nil {
		return err
	}
	s.objects[k] = e.Clone()
	return nil
}

// Update runs fn against a copy of the live entity and swaps it in when fn
// succeeds, marking it for an updated_at stamp on the next Save.
func (s *Store) Update(kind domain.Kind, id string, fn func(domain.Entity) error) (err error) {
	defer func() { observability.ObserveStoreOp("update", string(kind), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{kind, id}
	cur, ok := s.objects[k]
	if !ok {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if next.Meta().ID != id || !sameRefs(cur.Refs(), next.Refs()) {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrImmutableField)
	}
	if err := s.checkUniqueLocked(next); err != nil {
		return err
	}
	s.objects[k] = next
	s.dirty[k] = struct{}{}
	return nil
}

// Delete removes the entity and everything that depends on it. It reports
// whether the entity existed.
func (s *Store) Delete(kind domain.Kind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.deleteLocked(key{kind, id})
	observability.ObserveStoreOp("delete", string(kind), nil)
	return ok
}

func (s *Store) deleteLocked(k key) bool {
	if _, ok := s.objects[k]; !ok {
		return false
	}
	delete(s.objects, k)
	delete(s.dirty, k)

	parent := domain.Ref{Kind: k.kind, ID: k.id}
	var children []key
	for ck, e := range s.objects {
		for _, r := range e.Refs() {
			if r == parent {
				children = append(children, ck)
				break
			}
		}
	}
	for _, ck := range children {
		s.deleteLocked(ck)
	}

	if k.kind == domain.KindAmenity {
		for pk, e := range s.objects {
			if p, ok := e.(*domain.Place); ok && p.UnlinkAmenity(k.id) {
				s.dirty[pk] = struct{}{}
			}
		}
	}
	return true
}

// Link adds amenityID to the place's amenity set. created is false when the
// pair was already linked.
func (s *Store) Link(placeID, amenityID string) (created bool, err error) {
	defer func() { observability.ObserveStoreOp("link", string(domain.KindPlace), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.placeLocked(placeID)
	if err != nil {
		return false, err
	}
	if _, ok := s.objects[key{domain.KindAmenity, amenityID}]; !ok {
		return false, fmt.Errorf("%s %s: %w", domain.KindAmenity, amenityID, domain.ErrNotFound)
	}
	if !p.LinkAmenity(amenityID) {
		return false, nil
	}
	s.dirty[key{domain.KindPlace, placeID}] = struct{}{}
	return true, nil
}

// Unlink removes amenityID from the place's amenity set.
func (s *Store) Unlink(placeID, amenityID string) (err error) {
	defer func() { observability.ObserveStoreOp("unlink", string(domain.KindPlace), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.placeLocked(placeID)
	if err != nil {
		return err
	}
	if !p.UnlinkAmenity(amenityID) {
		return fmt.Errorf("%s %s not linked to %s: %w", domain.KindAmenity, amenityID, placeID, domain.ErrNotFound)
	}
	s.dirty[key{domain.KindPlace, placeID}] = struct{}{}
	return nil
}

func (s *Store) placeLocked(id string) (*domain.Place, error) {
	e, ok := s.objects[key{domain.KindPlace, id}]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", domain.KindPlace, id, domain.ErrNotFound)
	}
	return e.(*domain.Place), nil
}

// Save stamps updated_at on entities mutated since the last save and writes
// the full identity map to the engine.
func (s *Store) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	now := s.now()
	for k := range s.dirty {
		if e, ok := s.objects[k]; ok {
			e.Meta().UpdatedAt = now
		}
	}
	snap := s.snapshotLocked()
	dirty := s.dirty
	s.dirty = make(map[key]struct{})
	s.mu.Unlock()

	start := time.Now()
	err := s.engine.Store(ctx, snap)
	observability.ObserveSave(time.Since(start), err)
	if err != nil {
		s.mu.Lock()
		for k := range dirty {
			s.dirty[k] = struct{}{}
		}
		s.mu.Unlock()
		return &domain.StorageError{Op: "save", Err: err}
	}
	observability.SetObjectCounts(countByKind(snap))
	return nil
}

// Commit runs mutate and then Save. When either fails the identity map is
// put back the way it was before mutate ran, so a request that cannot be
// persisted leaves no trace.
func (s *Store) Commit(ctx context.Context, mutate func() error) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	cp := s.checkpoint()
	if err := mutate(); err != nil {
		if errors.Is(err, domain.ErrUnchanged) {
			return nil
		}
		s.rollback(cp)
		return err
	}
	if err := s.Save(ctx); err != nil {
		s.rollback(cp)
		log.Warn().Err(err).Msg("save failed, changes rolled back")
		return err
	}
	return nil
}

type checkpoint struct {
	objects map[key]domain.Entity
	dirty   map[key]struct{}
}

func (s *Store) checkpoint() checkpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := checkpoint{
		objects: make(map[key]domain.Entity, len(s.objects)),
		dirty:   make(map[key]struct{}, len(s.dirty)),
	}
	for k, e := range s.objects {
		cp.objects[k] = e.Clone()
	}
	for k := range s.dirty {
		cp.dirty[k] = struct{}{}
	}
	return cp
}

func (s *Store) rollback(cp checkpoint) {
	s.mu.Lock()
	s.objects = cp.objects
	s.dirty = cp.dirty
	s.mu.Unlock()
}

// Reload replaces the identity map with what the engine holds.
func (s *Store) Reload(ctx context.Context) error {
	snap, err := s.engine.Load(ctx)
	if err != nil {
		return &domain.StorageError{Op: "reload", Err: err}
	}
	objects := make(map[key]domain.Entity, snap.Len())
	for _, e := range snap.Entities() {
		if p, ok := e.(*domain.Place); ok && p.AmenityIDs == nil {
			p.AmenityIDs = []string{}
		}
		objects[key{e.Kind(), e.Meta().ID}] = e
	}

	s.mu.Lock()
	s.objects = objects
	s.dirty = make(map[key]struct{})
	s.mu.Unlock()

	observability.SetObjectCounts(countByKind(snap))
	log.Info().Int("objects", len(objects)).Msg("store reloaded")
	return nil
}

// Close releases the engine. Calls after the first return the same result.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.saveMu.Lock()
		defer s.saveMu.Unlock()
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.closeErr = s.engine.Close()
	})
	return s.closeErr
}

func (s *Store) snapshotLocked() *domain.Snapshot {
	snap := &domain.Snapshot{}
	for _, kind := range domain.Kinds {
		for _, e := range s.filterLocked(kind, func(domain.Entity) bool { return true }) {
			snap.Add(e)
		}
	}
	return snap
}

func (s *Store) checkRefsLocked(e domain.Entity) error {
	for _, r := range e.Refs() {
		if _, ok := s.objects[key{r.Kind, r.ID}]; !ok {
			return fmt.Errorf("%s %q: %w", r.Kind, r.ID, domain.ErrNotFound)
		}
	}
	if p, ok := e.(*domain.Place); ok {
		for _, id := range p.AmenityIDs {
			if _, ok := s.objects[key{domain.KindAmenity, id}]; !ok {
				return fmt.Errorf("%s %q: %w", domain.KindAmenity, id, domain.ErrNotFound)
			}
		}
	}
	return nil
}

func (s *Store) checkUniqueLocked(e domain.Entity) error {
	u, ok := e.(*domain.User)
	if !ok || u.Email == "" {
		return nil
	}
	for k, o := range s.objects {
		if k.kind == domain.KindUser && k.id != u.ID && o.(*domain.User).Email == u.Email {
			return fmt.Errorf("email %q already registered: %w", u.Email, domain.ErrConflict)
		}
	}
	return nil
}

// filterLocked returns clones of matching entities ordered by created_at,
// then id.
func (s *Store) filterLocked(kind domain.Kind, match func(domain.Entity) bool) []domain.Entity {
	var out []domain.Entity
	for k, e := range s.objects {
		if k.kind == kind && match(e) {
			out = append(out, e.Clone())
		}
	}
	sortEntities(out)
	return out
}

func sortEntities(es []domain.Entity) {
	sort.Slice(es, func(i, j int) bool {
		a, b := es[i].Meta(), es[j].Meta()
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func sameRefs(a, b []domain.Ref) bool {
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

func countByKind(snap *domain.Snapshot) map[string]int {
	return map[string]int{
		string(domain.KindState):   len(snap.States),
		string(domain.KindCity):    len(snap.Cities),
		string(domain.KindPlace):   len(snap.Places),
		string(domain.KindUser):    len(snap.Users),
		string(domain.KindReview):  len(snap.Reviews),
		string(domain.KindAmenity): len(snap.Amenities),
	}
}
