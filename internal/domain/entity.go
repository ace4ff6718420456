package domain

import (
	"encoding/json"
	"time"
)

// Kind names an entity type. Values match the class names used by the
// console and the persisted documents.
type Kind string

const (
	KindState   Kind = "State"
	KindCity    Kind = "City"
	KindPlace   Kind = "Place"
	KindUser    Kind = "User"
	KindReview  Kind = "Review"
	KindAmenity Kind = "Amenity"
)

// Kinds lists every entity kind, parents before children.
var Kinds = []Kind{KindState, KindUser, KindAmenity, KindCity, KindPlace, KindReview}

// ParseKind resolves a class name ("State", "Place", ...).
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Ref points at another entity by kind and id.
type Ref struct {
	Kind Kind
	ID   string
}

// Base carries the system-managed fields shared by every entity.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) Meta() *Base { return b }

// Entity is implemented by every stored kind.
type Entity interface {
	Kind() Kind
	Meta() *Base
	// Refs returns the parents this entity holds a foreign key to.
	Refs() []Ref
	// Apply sets one caller-supplied field through the kind's allow-list.
	Apply(field string, raw json.RawMessage) error
	Clone() Entity
}

// New returns an empty entity of kind k.
func New(k Kind) Entity {
	switch k {
	case KindState:
		return &State{}
	case KindCity:
		return &City{}
	case KindPlace:
		return &Place{AmenityIDs: []string{}}
	case KindUser:
		return &User{}
	case KindReview:
		return &Review{}
	case KindAmenity:
		return &Amenity{}
	}
	return nil
}

// ApplyAll applies every field of attrs, skipping immutable and unknown
// fields. The first invalid value is returned.
func ApplyAll(e Entity, attrs map[string]json.RawMessage) error {
	for field, raw := range attrs {
		if err := e.Apply(field, raw); err != nil {
			if IsIgnorable(err) {
				continue
			}
			return err
		}
	}
	return nil
}

func decodeField[T any](field string, raw json.RawMessage, dst *T) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return &FieldError{Field: field, Err: ErrInvalidValue}
	}
	*dst = v
	return nil
}

// rejectField classifies a field the kind's allow-list did not accept.
func rejectField(field string, immutable ...string) error {
	switch field {
	case "id", "created_at", "updated_at", "__class__":
		return &FieldError{Field: field, Err: ErrImmutableField}
	}
	for _, f := range immutable {
		if f == field {
			return &FieldError{Field: field, Err: ErrImmutableField}
		}
	}
	return &FieldError{Field: field, Err: ErrUnknownField}
}
