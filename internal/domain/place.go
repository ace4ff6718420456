package domain

import (
	"encoding/json"
	"slices"
)

type Place struct {
	Base
	CityID          string   `json:"city_id"`
	UserID          string   `json:"user_id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	NumberRooms     int      `json:"number_rooms"`
	NumberBathrooms int      `json:"number_bathrooms"`
	MaxGuest        int      `json:"max_guest"`
	PriceByNight    int      `json:"price_by_night"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	AmenityIDs      []string `json:"amenity_ids"`
}

func (p *Place) Kind() Kind { return KindPlace }

func (p *Place) Refs() []Ref {
	return []Ref{{Kind: KindCity, ID: p.CityID}, {Kind: KindUser, ID: p.UserID}}
}

func (p *Place) Apply(field string, raw json.RawMessage) error {
	switch field {
	case "name":
		return decodeField(field, raw, &p.Name)
	case "description":
		return decodeField(field, raw, &p.Description)
	case "number_rooms":
		return decodeField(field, raw, &p.NumberRooms)
	case "number_bathrooms":
		return decodeField(field, raw, &p.NumberBathrooms)
	case "max_guest":
		return decodeField(field, raw, &p.MaxGuest)
	case "price_by_night":
		return decodeField(field, raw, &p.PriceByNight)
	case "latitude":
		return decodeField(field, raw, &p.Latitude)
	case "longitude":
		return decodeField(field, raw, &p.Longitude)
	}
	// links are managed through the amenity endpoints only
	return rejectField(field, "city_id", "user_id", "amenity_ids")
}

func (p *Place) Clone() Entity {
	c := *p
	c.AmenityIDs = slices.Clone(p.AmenityIDs)
	if c.AmenityIDs == nil {
		c.AmenityIDs = []string{}
	}
	return &c
}

// HasAmenity reports whether the place is linked to amenity id.
func (p *Place) HasAmenity(id string) bool { return slices.Contains(p.AmenityIDs, id) }

// LinkAmenity adds id to the link set; it returns false if already present.
func (p *Place) LinkAmenity(id string) bool {
	if p.HasAmenity(id) {
		return false
	}
	p.AmenityIDs = append(p.AmenityIDs, id)
	return true
}

// UnlinkAmenity removes id from the link set; it returns false if absent.
func (p *Place) UnlinkAmenity(id string) bool {
	i := slices.Index(p.AmenityIDs, id)
	if i < 0 {
		return false
	}
	p.AmenityIDs = slices.Delete(p.AmenityIDs, i, i+1)
	return true
}
