package domain

import (
	"encoding/json"
	"fmt"
)

// Role is a tag attached to a user within the scope of one trip.
// The legacy client wrote roles in two wire shapes: a bare name string
// ("Chauffeur") or an object carrying a role id and name. Both decode into
// this one type; a bare-name role simply has an empty ID. Normalization
// happens exactly once, at decode time — nothing downstream branches on
// the wire shape.
type Role struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Role name vocabulary. Business rules expect at least one group leader
// and one driver per crew; the remaining names are escort variants.
const (
	RoleGroupLeader    = "Group Leader"
	RoleDriver         = "Chauffeur"
	RoleSecurityEscort = "Security Escort"
	RoleArmedEscort    = "Armed Escort"
)

// UnmarshalJSON accepts both wire shapes for a role.
func (r *Role) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		if name == "" {
			return fmt.Errorf("role: empty role name")
		}
		*r = Role{Name: name}
		return nil
	}

	var obj struct {
		ID     string `json:"id"`
		RoleID string `json:"roleId"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("role: decode: %w", err)
	}
	if obj.Name == "" {
		return fmt.Errorf("role: object form missing name")
	}
	id := obj.ID
	if id == "" {
		id = obj.RoleID
	}
	*r = Role{ID: id, Name: obj.Name}
	return nil
}
