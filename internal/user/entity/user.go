package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// User is a directory entry in the `users` table.
type User struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"user" db:"name"`
	Email     string    `json:"email" db:"email"`
	Age       int       `json:"age" db:"age"`
	Mobile    int64     `json:"mobile" db:"mobile"`
	Interest  Interests `json:"interest" db:"interest"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Interests is stored as a JSON array so the same column works for every
// supported SQL dialect.
type Interests []string

// MarshalJSON never emits null.
func (in Interests) MarshalJSON() ([]byte, error) {
	if in == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(in))
}

func (in Interests) Value() (driver.Value, error) {
	b, err := in.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (in *Interests) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*in = Interests{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("interests: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("interests: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*in = out
	return nil
}

// Candidate is an inbound user record before validation. Numbers are decoded
// as float64 so fractional input can be reported instead of rejected by the
// decoder. Pointer fields distinguish absent from zero.
type Candidate struct {
	User     *string  `json:"user" validate:"required,notblank"`
	Age      *float64 `json:"age" validate:"required,integral,min=0,max=120"`
	Mobile   *float64 `json:"mobile" validate:"required,integral,safeint"`
	Email    *string  `json:"email" validate:"required,email"`
	Interest []string `json:"interest"`
}

// ToUser converts a validated candidate. Callers must validate first.
func (c Candidate) ToUser() *User {
	u := &User{Interest: Interests{}}
	if c.User != nil {
		u.Name = strings.TrimSpace(*c.User)
	}
	if c.Email != nil {
		u.Email = *c.Email
	}
	if c.Age != nil {
		u.Age = int(*c.Age)
	}
	if c.Mobile != nil {
		u.Mobile = int64(*c.Mobile)
	}
	if c.Interest != nil {
		u.Interest = Interests(c.Interest)
	}
	return u
}

// Patch is a partial update: nil fields are left unchanged.
type Patch struct {
	User     *string   `json:"user"`
	Age      *float64  `json:"age"`
	Mobile   *float64  `json:"mobile"`
	Email    *string   `json:"email"`
	Interest *[]string `json:"interest"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.User == nil && p.Age == nil && p.Mobile == nil && p.Email == nil && p.Interest == nil
}

// Merge overlays the patch on an existing user and returns the result as a
// candidate, ready to be validated as a whole.
func (p Patch) Merge(u *User) Candidate {
	name := u.Name
	email := u.Email
	age := float64(u.Age)
	mobile := float64(u.Mobile)
	c := Candidate{User: &name, Email: &email, Age: &age, Mobile: &mobile, Interest: []string(u.Interest)}
	if p.User != nil {
		c.User = p.User
	}
	if p.Email != nil {
		c.Email = p.Email
	}
	if p.Age != nil {
		c.Age = p.Age
	}
	if p.Mobile != nil {
		c.Mobile = p.Mobile
	}
	if p.Interest != nil {
		c.Interest = *p.Interest
	}
	return c
}

// Normalize trims the display name the same way Candidate.ToUser does.
func (p Patch) Normalize() Patch {
	if p.User != nil {
		name := strings.TrimSpace(*p.User)
		p.User = &name
	}
	if p.Interest != nil && *p.Interest == nil {
		empty := []string{}
		p.Interest = &empty
	}
	return p
}
