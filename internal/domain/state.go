package domain

import "encoding/json"

type State struct {
	Base
	Name string `json:"name"`
}

func (s *State) Kind() Kind  { return KindState }
func (s *State) Refs() []Ref { return nil }

func (s *State) Apply(field string, raw json.RawMessage) error {
	switch field {
	case "name":
		return decodeField(field, raw, &s.Name)
	}
	return rejectField(field)
}

func (s *State) Clone() Entity { c := *s; return &c }

type City struct {
	Base
	StateID string `json:"state_id"`
	Name    string `json:"name"`
}

func (c *City) Kind() Kind  { return KindCity }
func (c *City) Refs() []Ref { return []Ref{{Kind: KindState, ID: c.StateID}} }

func (c *City) Apply(field string, raw json.RawMessage) error {
	switch field {
	case "name":
		return decodeField(field, raw, &c.Name)
	}
	return rejectField(field, "state_id")
}

func (c *City) Clone() Entity { cp := *c; return &cp }

type Amenity struct {
	Base
	Name string `json:"name"`
}

func (a *Amenity) Kind() Kind  { return KindAmenity }
func (a *Amenity) Refs() []Ref { return nil }

func (a *Amenity) Apply(field string, raw json.RawMessage) error {
	switch field {
	case "name":
		return decodeField(field, raw, &a.Name)
	}
	return rejectField(field)
}

func (a *Amenity) Clone() Entity { c := *a; return &c }
