package enums

import (
	"fmt"
	"strings"
)

// PartyRole maps to the party_role enum in Postgres.
type PartyRole string

const (
	PartyRoleClient   PartyRole = "client"
	PartyRoleSupplier PartyRole = "supplier"
)

var validPartyRoles = []PartyRole{
	PartyRoleClient,
	PartyRoleSupplier,
}

// String implements fmt.Stringer.
func (r PartyRole) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r PartyRole) IsValid() bool {
	for _, candidate := range validPartyRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParsePartyRole converts raw input into a PartyRole.
func ParsePartyRole(value string) (PartyRole, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPartyRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid party role %q", value)
}
