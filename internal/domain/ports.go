package domain

import "context"

// Engine is a durable backend for the object store.
type Engine interface {
	// Load returns everything stored; an empty or missing store yields an
	// empty snapshot.
	Load(ctx context.Context) (*Snapshot, error)
	// Store replaces all durable state with s. A failed Store must leave the
	// previous state readable.
	Store(ctx context.Context, s *Snapshot) error
	Close() error
}

// Snapshot is the persisted form of the identity map.
type Snapshot struct {
	States    []*State   `json:"states"`
	Users     []*User    `json:"users"`
	Amenities []*Amenity `json:"amenities"`
	Cities    []*City    `json:"cities"`
	Places    []*Place   `json:"places"`
	Reviews   []*Review  `json:"reviews"`
}

// Add appends e to the slice of its kind.
func (s *Snapshot) Add(e Entity) {
	switch v := e.(type) {
	case *State:
		s.States = append(s.States, v)
	case *User:
		s.Users = append(s.Users, v)
	case *Amenity:
		s.Amenities = append(s.Amenities, v)
	case *City:
		s.Cities = append(s.Cities, v)
	case *Place:
		s.Places = append(s.Places, v)
	case *Review:
		s.Reviews = append(s.Reviews, v)
	}
}

// Entities returns every entity, parents before children.
func (s *Snapshot) Entities() []Entity {
	out := make([]Entity, 0, s.Len())
	for _, v := range s.States {
		out = append(out, v)
	}
	for _, v := range s.Users {
		out = append(out, v)
	}
	for _, v := range s.Amenities {
		out = append(out, v)
	}
	for _, v := range s.Cities {
		out = append(out, v)
	}
	for _, v := range s.Places {
		out = append(out, v)
	}
	for _, v := range s.Reviews {
		out = append(out, v)
	}
	return out
}

func (s *Snapshot) Len() int {
	return len(s.States) + len(s.Users) + len(s.Amenities) + len(s.Cities) + len(s.Places) + len(s.Reviews)
}

// ObjectStore is the identity-mapped store the application services work
// against. Returned entities are copies.
type ObjectStore interface {
	List(kind Kind) []Entity
	Get(kind Kind, id string) (Entity, bool)
	Count(kind Kind) int

	New(e Entity) error
	Update(kind Kind, id string, fn func(Entity) error) error
	Delete(kind Kind, id string) bool
	Link(placeID, amenityID string) (created bool, err error)
	Unlink(placeID, amenityID string) error
	Save(ctx context.Context) error
	// Commit runs mutate and saves; a failure of either undoes mutate.
	Commit(ctx context.Context, mutate func() error) error

	Cities(stateID string) []*City
	Places(cityID string) []*Place
	Reviews(placeID string) []*Review
	Amenities(placeID string) ([]*Amenity, bool)
	PlacesByUser(userID string) []*Place
	ReviewsByUser(userID string) []*Review
	PlacesWithAmenity(amenityID string) []*Place
}
