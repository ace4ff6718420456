package app

import (
	"context"

	"github.com/go-playground/validator/v10"

	"hbnb_api/internal/domain"
)

// CommandService runs every mutation as a store Commit, so a 2xx response
// means the change reached the engine and a failed save leaves nothing
// behind in memory.
type CommandService struct {
	store    domain.ObjectStore
	validate *validator.Validate
}

func NewCommandService(s domain.ObjectStore) *CommandService {
	return &CommandService{store: s, validate: newValidator()}
}

// Create builds a new object of kind from a JSON body. parentID names the
// owning State, City or Place for kinds created under a parent route.
func (c *CommandService) Create(ctx context.Context, kind domain.Kind, parentID string, body []byte) (domain.Entity, error) {
	var (
		e   domain.Entity
		err error
	)
	switch kind {
	case domain.KindState, domain.KindAmenity:
		e, err = c.newNamed(kind, body)
	case domain.KindCity:
		e, err = c.newCity(parentID, body)
	case domain.KindUser:
		e, err = c.newUser(body)
	case domain.KindPlace:
		e, err = c.newPlace(parentID, body)
	case domain.KindReview:
		e, err = c.newReview(parentID, body)
	default:
		return nil, domain.Invalid("unknown kind %q", kind)
	}
	if err != nil {
		return nil, err
	}

	err = c.store.Commit(ctx, func() error { return c.store.New(e) })
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (c *CommandService) newNamed(kind domain.Kind, body []byte) (domain.Entity, error) {
	attrs, err := parseObject(body)
	if err != nil {
		return nil, err
	}
	var in nameInput
	if err := c.require(body, &in); err != nil {
		return nil, err
	}
	e := domain.New(kind)
	return e, applyAttrs(e, attrs)
}

func (c *CommandService) newCity(stateID string, body []byte) (domain.Entity, error) {
	if _, ok := c.store.Get(domain.KindState, stateID); !ok {
		return nil, notFound(domain.KindState, stateID)
	}
	attrs, err := parseObject(body)
	if err != nil {
		return nil, err
	}
	var in nameInput
	if err := c.require(body, &in); err != nil {
		return nil, err
	}
	city := &domain.City{StateID: stateID}
	return city, applyAttrs(city, attrs)
}

func (c *CommandService) newUser(body []byte) (domain.Entity, error) {
	attrs, err := parseObject(body)
	if err != nil {
		return nil, err
	}
	var in userInput
	if err := c.require(body, &in); err != nil {
		return nil, err
	}
	u := &domain.User{Email: *in.Email}
	return u, applyAttrs(u, attrs)
}

func (c *CommandService) newPlace(cityID string, body []byte) (domain.Entity, error) {
	// 1) Parent first: an unknown city wins over a bad body.
	if _, ok := c.store.Get(domain.KindCity, cityID); !ok {
		return nil, notFound(domain.KindCity, cityID)
	}
	attrs, err := parseObject(body)
	if err != nil {
		return nil, err
	}
	var in placeInput
	if err := decodeInput(body, &in); err != nil {
		return nil, err
	}
	// 2) Owner id, then owner lookup, then the remaining fields.
	missingList := c.missingFields(&in)
	if missing(missingList, "user_id") {
		return nil, domain.Invalid("Missing user_id")
	}
	if _, ok := c.store.Get(domain.KindUser, *in.UserID); !ok {
		return nil, notFound(domain.KindUser, *in.UserID)
	}
	if missing(missingList, "name") {
		return nil, domain.Invalid("Missing name")
	}
	p := &domain.Place{CityID: cityID, UserID: *in.UserID, AmenityIDs: []string{}}
	return p, applyAttrs(p, attrs)
}

func (c *CommandService) newReview(placeID string, body []byte) (domain.Entity, error) {
	if _, ok := c.store.Get(domain.KindPlace, placeID); !ok {
		return nil, notFound(domain.KindPlace, placeID)
	}
	attrs, err := parseObject(body)
	if err != nil {
		return nil, err
	}
	var in reviewInput
	if err := decodeInput(body, &in); err != nil {
		return nil, err
	}
	missingList := c.missingFields(&in)
	if missing(missingList, "user_id") {
		return nil, domain.Invalid("Missing user_id")
	}
	if _, ok := c.store.Get(domain.KindUser, *in.UserID); !ok {
		return nil, notFound(domain.KindUser, *in.UserID)
	}
	if missing(missingList, "text") {
		return nil, domain.Invalid("Missing text")
	}
	r := &domain.Review{PlaceID: placeID, UserID: *in.UserID}
	return r, applyAttrs(r, attrs)
}

// require decodes body into in and reports the first missing field.
func (c *CommandService) require(body []byte, in any) error {
	if err := decodeInput(body, in); err != nil {
		return err
	}
	if m := c.missingFields(in); len(m) > 0 {
		return domain.Invalid("Missing %s", m[0])
	}
	return nil
}

// Update applies the body's allowed fields to an existing object. Immutable
// and unknown keys are ignored.
func (c *CommandService) Update(ctx context.Context, kind domain.Kind, id string, body []byte) (domain.Entity, error) {
	if _, ok := c.store.Get(kind, id); !ok {
		return nil, notFound(kind, id)
	}
	attrs, err := parseObject(body)
	if err != nil {
		return nil, err
	}
	err = c.store.Commit(ctx, func() error {
		return c.store.Update(kind, id, func(e domain.Entity) error {
			return applyAttrs(e, attrs)
		})
	})
	if err != nil {
		return nil, err
	}
	e, ok := c.store.Get(kind, id)
	if !ok {
		// deleted between update and read-back
		return nil, notFound(kind, id)
	}
	return e, nil
}

// Delete removes an object and everything that depends on it.
func (c *CommandService) Delete(ctx context.Context, kind domain.Kind, id string) error {
	return c.store.Commit(ctx, func() error {
		if !c.store.Delete(kind, id) {
			return notFound(kind, id)
		}
		return nil
	})
}

// LinkAmenity links an amenity to a place. created is false when the link
// already existed; nothing is saved in that case.
func (c *CommandService) LinkAmenity(ctx context.Context, placeID, amenityID string) (*domain.Amenity, bool, error) {
	var created bool
	err := c.store.Commit(ctx, func() (err error) {
		created, err = c.store.Link(placeID, amenityID)
		if err == nil && !created {
			return domain.ErrUnchanged
		}
		return err
	})
	if err != nil {
		return nil, false, err
	}
	e, ok := c.store.Get(domain.KindAmenity, amenityID)
	if !ok {
		return nil, false, notFound(domain.KindAmenity, amenityID)
	}
	return e.(*domain.Amenity), created, nil
}

// UnlinkAmenity removes the link only; the amenity itself survives.
func (c *CommandService) UnlinkAmenity(ctx context.Context, placeID, amenityID string) error {
	return c.store.Commit(ctx, func() error {
		return c.store.Unlink(placeID, amenityID)
	})
}
