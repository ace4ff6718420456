package domain

import "encoding/json"

type Review struct {
	Base
	PlaceID string `json:"place_id"`
	UserID  string `json:"user_id"`
	Text    string `json:"text"`
}

func (r *Review) Kind() Kind { return KindReview }

func (r *Review) Refs() []Ref {
	return []Ref{{Kind: KindPlace, ID: r.PlaceID}, {Kind: KindUser, ID: r.UserID}}
}

func (r *Review) Apply(field string, raw json.RawMessage) error {
	switch field {
	case "text":
		return decodeField(field, raw, &r.Text)
	}
	return rejectField(field, "place_id", "user_id")
}

func (r *Review) Clone() Entity { c := *r; return &c }
