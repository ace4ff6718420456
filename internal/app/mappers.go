package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"hbnb_api/internal/domain"
)

/********** request payloads **********/

// Pointer fields distinguish an absent key from an empty value: "required"
// only fails when the key is missing (or null).

type nameInput struct {
	Name *string `json:"name" validate:"required"`
}

type userInput struct {
	Email    *string `json:"email" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

// Field order matters: user_id is reported before the owner lookup, the
// rest after it.
type placeInput struct {
	UserID *string `json:"user_id" validate:"required"`
	Name   *string `json:"name" validate:"required"`
}

type reviewInput struct {
	UserID *string `json:"user_id" validate:"required"`
	Text   *string `json:"text" validate:"required"`
}

type searchInput struct {
	States    []string `json:"states"`
	Cities    []string `json:"cities"`
	Amenities []string `json:"amenities"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

/********** tiny helpers **********/

// parseObject accepts only a JSON object body.
func parseObject(body []byte) (map[string]json.RawMessage, error) {
	var attrs map[string]json.RawMessage
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &attrs) != nil || attrs == nil {
		return nil, domain.Invalid("Not a JSON")
	}
	return attrs, nil
}

// decodeInput fills dst from an already validated object body.
func decodeInput(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) && te.Field != "" {
			return domain.Invalid("Invalid %s", te.Field)
		}
		return domain.Invalid("Not a JSON")
	}
	return nil
}

// missingFields lists required fields absent from in, in declaration order.
func (c *CommandService) missingFields(in any) []string {
	err := c.validate.Struct(in)
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil
	}
	out := make([]string, 0, len(ves))
	for _, fe := range ves {
		if fe.Tag() == "required" {
			out = append(out, fe.Field())
		}
	}
	return out
}

func missing(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

// applyAttrs copies caller-supplied fields onto e through its allow-list.
func applyAttrs(e domain.Entity, attrs map[string]json.RawMessage) error {
	err := domain.ApplyAll(e, attrs)
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return domain.Invalid("Invalid %s", fe.Field)
	}
	return err
}

func notFound(kind domain.Kind, id string) error {
	return &lookupError{kind: kind, id: id}
}

type lookupError struct {
	kind domain.Kind
	id   string
}

func (e *lookupError) Error() string { return string(e.kind) + " " + e.id + " not found" }
func (e *lookupError) Unwrap() error { return domain.ErrNotFound }
