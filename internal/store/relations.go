package store

import "hbnb_api/internal/domain"

// Children are always derived from the live entity set by foreign key, so
// they cannot drift from it.

func (s *Store) Cities(stateID string) []*domain.City {
	return children[*domain.City](s, domain.KindCity, domain.Ref{Kind: domain.KindState, ID: stateID})
}

func (s *Store) Places(cityID string) []*domain.Place {
	return children[*domain.Place](s, domain.KindPlace, domain.Ref{Kind: domain.KindCity, ID: cityID})
}

func (s *Store) Reviews(placeID string) []*domain.Review {
	return children[*domain.Review](s, domain.KindReview, domain.Ref{Kind: domain.KindPlace, ID: placeID})
}

func (s *Store) PlacesByUser(userID string) []*domain.Place {
	return children[*domain.Place](s, domain.KindPlace, domain.Ref{Kind: domain.KindUser, ID: userID})
}

func (s *Store) ReviewsByUser(userID string) []*domain.Review {
	return children[*domain.Review](s, domain.KindReview, domain.Ref{Kind: domain.KindUser, ID: userID})
}

// Amenities returns the amenities linked to a place in link order; ok is
// false when the place does not exist.
func (s *Store) Amenities(placeID string) (out []*domain.Amenity, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.placeLocked(placeID)
	if err != nil {
		return nil, false
	}
	out = []*domain.Amenity{}
	for _, id := range p.AmenityIDs {
		if e, ok := s.objects[key{domain.KindAmenity, id}]; ok {
			out = append(out, e.Clone().(*domain.Amenity))
		}
	}
	return out, true
}

// PlacesWithAmenity is the reverse side of the place/amenity link.
func (s *Store) PlacesWithAmenity(amenityID string) []*domain.Place {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := s.filterLocked(domain.KindPlace, func(e domain.Entity) bool {
		return e.(*domain.Place).HasAmenity(amenityID)
	})
	return typed[*domain.Place](matches)
}

func children[T domain.Entity](s *Store, kind domain.Kind, parent domain.Ref) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := s.filterLocked(kind, func(e domain.Entity) bool {
		for _, r := range e.Refs() {
			if r == parent {
				return true
			}
		}
		return false
	})
	return typed[T](matches)
}

func typed[T domain.Entity](es []domain.Entity) []T {
	out := make([]T, 0, len(es))
	for _, e := range es {
		out = append(out, e.(T))
	}
	return out
}
