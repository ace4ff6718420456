package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"hbnb_api/internal/domain"
)

func TestApply_AllowList(t *testing.T) {
	cases := []struct {
		kind    domain.Kind
		field   string
		raw     string
		wantErr error
	}{
		{domain.KindState, "name", `"Nevada"`, nil},
		{domain.KindState, "id", `"other"`, domain.ErrImmutableField},
		{domain.KindState, "created_at", `"2020-01-01"`, domain.ErrImmutableField},
		{domain.KindState, "color", `"red"`, domain.ErrUnknownField},
		{domain.KindCity, "state_id", `"s2"`, domain.ErrImmutableField},
		{domain.KindPlace, "city_id", `"c2"`, domain.ErrImmutableField},
		{domain.KindPlace, "user_id", `"u2"`, domain.ErrImmutableField},
		{domain.KindPlace, "amenity_ids", `["a"]`, domain.ErrImmutableField},
		{domain.KindPlace, "max_guest", `4`, nil},
		{domain.KindPlace, "max_guest", `"four"`, domain.ErrInvalidValue},
		{domain.KindPlace, "latitude", `12.5`, nil},
		{domain.KindReview, "place_id", `"p2"`, domain.ErrImmutableField},
		{domain.KindReview, "text", `"nice"`, nil},
		{domain.KindUser, "email", `"x@y.z"`, domain.ErrImmutableField},
		{domain.KindUser, "first_name", `"Ada"`, nil},
		{domain.KindAmenity, "name", `7`, domain.ErrInvalidValue},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind)+"/"+tc.field, func(t *testing.T) {
			err := domain.New(tc.kind).Apply(tc.field, json.RawMessage(tc.raw))
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
			var fe *domain.FieldError
			if tc.wantErr != nil && (!errors.As(err, &fe) || fe.Field != tc.field) {
				t.Fatalf("expected FieldError for %s, got %#v", tc.field, err)
			}
		})
	}
}

func TestApplyAll_IgnoresSystemFields(t *testing.T) {
	s := &domain.State{Base: domain.Base{ID: "s1"}, Name: "Old"}
	err := domain.ApplyAll(s, map[string]json.RawMessage{
		"id":         json.RawMessage(`"other"`),
		"name":       json.RawMessage(`"X"`),
		"updated_at": json.RawMessage(`"2020"`),
		"bogus":      json.RawMessage(`true`),
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.ID != "s1" || s.Name != "X" {
		t.Fatalf("unexpected state: %+v", s)
	}
}

func TestUser_PasswordIsDigested(t *testing.T) {
	u := &domain.User{}
	if err := u.Apply("password", json.RawMessage(`"password"`)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if u.Password != "5f4dcc3b5aa765d61d8327deb882cf99" {
		t.Fatalf("unexpected digest %q", u.Password)
	}
}

func TestPlace_LinkSetIsDeduplicated(t *testing.T) {
	p := &domain.Place{}
	if !p.LinkAmenity("a1") || p.LinkAmenity("a1") {
		t.Fatalf("second link of the same amenity must be a no-op")
	}
	if !p.LinkAmenity("a2") || len(p.AmenityIDs) != 2 {
		t.Fatalf("unexpected links %v", p.AmenityIDs)
	}
	if !p.UnlinkAmenity("a1") || p.UnlinkAmenity("a1") {
		t.Fatalf("unlink must report presence")
	}
	if len(p.AmenityIDs) != 1 || p.AmenityIDs[0] != "a2" {
		t.Fatalf("unexpected links %v", p.AmenityIDs)
	}
}

func TestPlace_CloneDoesNotShareLinks(t *testing.T) {
	p := &domain.Place{AmenityIDs: []string{"a1"}}
	c := p.Clone().(*domain.Place)
	c.LinkAmenity("a2")
	if len(p.AmenityIDs) != 1 {
		t.Fatalf("clone aliased the link slice: %v", p.AmenityIDs)
	}
}

func TestSnapshot_EntitiesParentsFirst(t *testing.T) {
	s := &domain.Snapshot{}
	s.Add(&domain.Review{Base: domain.Base{ID: "r"}})
	s.Add(&domain.City{Base: domain.Base{ID: "c"}})
	s.Add(&domain.State{Base: domain.Base{ID: "s"}})
	got := s.Entities()
	if len(got) != 3 || got[0].Kind() != domain.KindState || got[2].Kind() != domain.KindReview {
		t.Fatalf("unexpected order: %v", got)
	}
	if k, ok := domain.ParseKind("Place"); !ok || k != domain.KindPlace {
		t.Fatalf("ParseKind failed")
	}
	if _, ok := domain.ParseKind("BaseModel"); ok {
		t.Fatalf("ParseKind accepted an unknown class")
	}
}
