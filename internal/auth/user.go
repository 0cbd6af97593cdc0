package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// User is the profile returned by the user-info endpoint.
//
// ID and Name are required. The service sends ids as numbers or strings;
// both decode to the decimal string form. Any other fields are kept in
// Attributes.
type User struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	Attributes map[string]any `yaml:"attributes,omitempty"`
}

// Valid reports whether the required fields are present.
func (u User) Valid() bool {
	return u.ID != "" && u.Name != ""
}

// Email returns the "email" attribute when it is a string.
func (u User) Email() string {
	s, _ := u.Attributes["email"].(string)
	return s
}

func (u User) clone() User {
	u.Attributes = maps.Clone(u.Attributes)
	return u
}

// UnmarshalJSON accepts a JSON object with a string or numeric id.
func (u *User) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode user: %w", err)
	}

	*u = User{}
	if raw == nil {
		return nil
	}

	switch id := raw["id"].(type) {
	case string:
		u.ID = id
	case json.Number:
		u.ID = id.String()
	case nil:
	default:
		return fmt.Errorf("decode user: unsupported id type %T", id)
	}
	if name, ok := raw["name"].(string); ok {
		u.Name = name
	}

	delete(raw, "id")
	delete(raw, "name")
	if len(raw) > 0 {
		u.Attributes = raw
	}
	return nil
}

// MarshalJSON writes the attributes alongside id and name.
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Attributes)+2)
	maps.Copy(out, u.Attributes)
	out["id"] = u.ID
	out["name"] = u.Name
	return json.Marshal(out)
}

// ParseUser decodes a user-info payload and checks the required fields.
func ParseUser(raw []byte) (User, error) {
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}
	if !u.Valid() {
		return User{}, ErrInvalidUser
	}
	return u, nil
}
