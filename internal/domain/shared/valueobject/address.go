package valueobject

import (
	"fmt"
	"regexp"
	"strings"
)

// pscPattern matches a Czech postal code, optionally written as "110 00"
var pscPattern = regexp.MustCompile(`^\d{3} ?\d{2}$`)

// Address is a value object representing a postal address used on invoices
// and delivery sheets. It is immutable - all operations return new Address instances.
type Address struct {
	recipient    string
	street       string
	streetNumber string
	city         string
	psc          string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithRecipient sets the recipient line (company department, addressee)
func WithRecipient(recipient string) AddressOption {
	return func(a *Address) {
		a.recipient = strings.TrimSpace(recipient)
	}
}

// NewAddress creates a new Address. Street, number, city and PSC are required.
func NewAddress(street, streetNumber, city, psc string, opts ...AddressOption) (Address, error) {
	street = strings.TrimSpace(street)
	streetNumber = strings.TrimSpace(streetNumber)
	city = strings.TrimSpace(city)
	psc = strings.TrimSpace(psc)

	if street == "" {
		return Address{}, fmt.Errorf("street cannot be empty")
	}
	if len(street) > 50 {
		return Address{}, fmt.Errorf("street cannot exceed 50 characters")
	}
	if streetNumber == "" {
		return Address{}, fmt.Errorf("street number cannot be empty")
	}
	if city == "" {
		return Address{}, fmt.Errorf("city cannot be empty")
	}
	if !pscPattern.MatchString(psc) {
		return Address{}, fmt.Errorf("invalid PSC %q: expected 5 digits", psc)
	}

	addr := Address{
		street:       street,
		streetNumber: streetNumber,
		city:         city,
		psc:          strings.ReplaceAll(psc, " ", ""),
	}
	for _, opt := range opts {
		opt(&addr)
	}
	return addr, nil
}

// MustNewAddress creates a new Address, panics on error
func MustNewAddress(street, streetNumber, city, psc string, opts ...AddressOption) Address {
	addr, err := NewAddress(street, streetNumber, city, psc, opts...)
	if err != nil {
		panic(err)
	}
	return addr
}

// RestoreAddress rebuilds an address from persisted columns without validation
func RestoreAddress(recipient, street, streetNumber, city, psc string) Address {
	return Address{
		recipient:    recipient,
		street:       street,
		streetNumber: streetNumber,
		city:         city,
		psc:          psc,
	}
}

// Recipient returns the recipient line
func (a Address) Recipient() string { return a.recipient }

// Street returns the street name
func (a Address) Street() string { return a.street }

// StreetNumber returns the house number
func (a Address) StreetNumber() string { return a.streetNumber }

// City returns the city
func (a Address) City() string { return a.city }

// PSC returns the postal code without spaces
func (a Address) PSC() string { return a.psc }

// IsEmpty returns true if the address has no street and city
func (a Address) IsEmpty() bool {
	return a.street == "" && a.city == ""
}

// StreetLine returns "Street Number"
func (a Address) StreetLine() string {
	return strings.TrimSpace(a.street + " " + a.streetNumber)
}

// FormattedPSC returns the postal code as "110 00"
func (a Address) FormattedPSC() string {
	if len(a.psc) != 5 {
		return a.psc
	}
	return a.psc[:3] + " " + a.psc[3:]
}

// String returns the address on a single line
func (a Address) String() string {
	if a.IsEmpty() {
		return ""
	}
	parts := make([]string, 0, 3)
	if a.recipient != "" {
		parts = append(parts, a.recipient)
	}
	parts = append(parts, a.StreetLine(), a.FormattedPSC()+" "+a.city)
	return strings.Join(parts, ", ")
}

// Equals returns true if both addresses are equal
func (a Address) Equals(other Address) bool {
	return a == other
}
