package app

import (
	"bytes"

	"hbnb_api/internal/domain"
)

type QueryService struct {
	store domain.ObjectStore
}

func NewQueryService(s domain.ObjectStore) *QueryService {
	return &QueryService{store: s}
}

func (s *QueryService) List(kind domain.Kind) []domain.Entity {
	return s.store.List(kind)
}

func (s *QueryService) Get(kind domain.Kind, id string) (domain.Entity, error) {
	e, ok := s.store.Get(kind, id)
	if !ok {
		return nil, notFound(kind, id)
	}
	return e, nil
}

// Children lists the dependents of a parent; the parent must exist.
func (s *QueryService) Children(parent domain.Kind, id string, child domain.Kind) ([]domain.Entity, error) {
	if _, err := s.Get(parent, id); err != nil {
		return nil, err
	}
	switch {
	case parent == domain.KindState && child == domain.KindCity:
		return entities(s.store.Cities(id)), nil
	case parent == domain.KindCity && child == domain.KindPlace:
		return entities(s.store.Places(id)), nil
	case parent == domain.KindPlace && child == domain.KindReview:
		return entities(s.store.Reviews(id)), nil
	case parent == domain.KindPlace && child == domain.KindAmenity:
		as, err := s.PlaceAmenities(id)
		return entities(as), err
	case parent == domain.KindUser && child == domain.KindPlace:
		return entities(s.store.PlacesByUser(id)), nil
	case parent == domain.KindUser && child == domain.KindReview:
		return entities(s.store.ReviewsByUser(id)), nil
	case parent == domain.KindAmenity && child == domain.KindPlace:
		return entities(s.store.PlacesWithAmenity(id)), nil
	}
	return nil, domain.Invalid("%s has no %s children", parent, child)
}

// PlaceAmenities lists the amenities linked to a place, in link order.
func (s *QueryService) PlaceAmenities(placeID string) ([]*domain.Amenity, error) {
	as, ok := s.store.Amenities(placeID)
	if !ok {
		return nil, notFound(domain.KindPlace, placeID)
	}
	return as, nil
}

// Stats counts live objects per kind, keyed by collection name.
func (s *QueryService) Stats() map[string]int {
	return map[string]int{
		"amenities": s.store.Count(domain.KindAmenity),
		"cities":    s.store.Count(domain.KindCity),
		"places":    s.store.Count(domain.KindPlace),
		"reviews":   s.store.Count(domain.KindReview),
		"states":    s.store.Count(domain.KindState),
		"users":     s.store.Count(domain.KindUser),
	}
}

// SearchPlaces returns places in the listed cities and in every city of the
// listed states, or every place when the body is absent or both lists are
// empty. A non-empty amenities list keeps only places linked to all of them.
func (s *QueryService) SearchPlaces(body []byte) ([]*domain.Place, error) {
	// no body (or null) searches everything
	if t := bytes.TrimSpace(body); len(t) == 0 || bytes.Equal(t, []byte("null")) {
		body = []byte("{}")
	}
	if _, err := parseObject(body); err != nil {
		return nil, err
	}
	var in searchInput
	if err := decodeInput(body, &in); err != nil {
		return nil, err
	}

	var places []*domain.Place
	if len(in.States) == 0 && len(in.Cities) == 0 {
		for _, e := range s.store.List(domain.KindPlace) {
			places = append(places, e.(*domain.Place))
		}
	} else {
		var cityIDs []string
		for _, sid := range in.States {
			for _, c := range s.store.Cities(sid) {
				cityIDs = append(cityIDs, c.ID)
			}
		}
		cityIDs = append(cityIDs, in.Cities...)

		seenCity := make(map[string]bool, len(cityIDs))
		seenPlace := map[string]bool{}
		for _, cid := range cityIDs {
			if seenCity[cid] {
				continue
			}
			seenCity[cid] = true
			for _, p := range s.store.Places(cid) {
				if !seenPlace[p.ID] {
					seenPlace[p.ID] = true
					places = append(places, p)
				}
			}
		}
	}

	if len(in.Amenities) == 0 {
		return nonNil(places), nil
	}
	filtered := make([]*domain.Place, 0, len(places))
	for _, p := range places {
		if hasAll(p, in.Amenities) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func hasAll(p *domain.Place, amenityIDs []string) bool {
	for _, id := range amenityIDs {
		if !p.HasAmenity(id) {
			return false
		}
	}
	return true
}

func entities[T domain.Entity](in []T) []domain.Entity {
	out := make([]domain.Entity, 0, len(in))
	for _, e := range in {
		out = append(out, e)
	}
	return out
}

func nonNil(ps []*domain.Place) []*domain.Place {
	if ps == nil {
		return []*domain.Place{}
	}
	return ps
}
