package domain

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
)

type User struct {
	Base
	Email     string `json:"email"`
	Password  string `json:"password"` // md5 hex digest
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (u *User) Kind() Kind  { return KindUser }
func (u *User) Refs() []Ref { return nil }

func (u *User) Apply(field string, raw json.RawMessage) error {
	switch field {
	case "first_name":
		return decodeField(field, raw, &u.FirstName)
	case "last_name":
		return decodeField(field, raw, &u.LastName)
	case "password":
		var p string
		if err := decodeField(field, raw, &p); err != nil {
			return err
		}
		u.SetPassword(p)
		return nil
	}
	return rejectField(field, "email")
}

func (u *User) Clone() Entity { c := *u; return &c }

// SetPassword stores the digest of a clear-text password.
func (u *User) SetPassword(clear string) {
	sum := md5.Sum([]byte(clear))
	u.Password = hex.EncodeToString(sum[:])
}
