package enums

import (
	"fmt"
	"strings"
)

// Direction maps to the ledger_direction enum in Postgres. A sale moves
// stock out, a purchase moves stock in; quantity is always a magnitude.
type Direction string

const (
	DirectionPurchase Direction = "purchase"
	DirectionSale     Direction = "sale"
)

var validDirections = []Direction{
	DirectionPurchase,
	DirectionSale,
}

// String implements fmt.Stringer.
func (d Direction) String() string {
	return string(d)
}

// IsValid reports whether the value is known.
func (d Direction) IsValid() bool {
	for _, candidate := range validDirections {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDirection converts raw input into a Direction.
func ParseDirection(value string) (Direction, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid direction %q", value)
}
