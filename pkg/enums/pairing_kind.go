package enums

import "fmt"

// PairingKind selects whether a pairing image is a plated meal or a menu.
type PairingKind string

const (
	PairingKindMeal PairingKind = "meal"
	PairingKindMenu PairingKind = "menu"
)

func (k PairingKind) String() string {
	return string(k)
}

func (k PairingKind) IsValid() bool {
	return k == PairingKindMeal || k == PairingKindMenu
}

// ParsePairingKind defaults an empty value to meal.
func ParsePairingKind(value string) (PairingKind, error) {
	if value == "" {
		return PairingKindMeal, nil
	}
	kind := PairingKind(value)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid analysis type %q", value)
	}
	return kind, nil
}
