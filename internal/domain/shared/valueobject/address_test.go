package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	tests := []struct {
		name        string
		street      string
		number      string
		city        string
		psc         string
		wantErr     bool
		errContains string
	}{
		{name: "valid address", street: "Vinohradská", number: "12", city: "Praha", psc: "12000"},
		{name: "psc with space", street: "Údolní", number: "33", city: "Brno", psc: "602 00"},
		{name: "empty street", street: "", number: "1", city: "Praha", psc: "11000", wantErr: true, errContains: "street"},
		{name: "empty number", street: "Dlouhá", number: "", city: "Praha", psc: "11000", wantErr: true, errContains: "number"},
		{name: "empty city", street: "Dlouhá", number: "1", city: " ", psc: "11000", wantErr: true, errContains: "city"},
		{name: "short psc", street: "Dlouhá", number: "1", city: "Praha", psc: "1100", wantErr: true, errContains: "PSC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := NewAddress(tt.street, tt.number, tt.city, tt.psc)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.city, addr.City())
			assert.Len(t, addr.PSC(), 5)
		})
	}
}

func TestAddress_Formatting(t *testing.T) {
	addr := MustNewAddress("Vinohradská", "12", "Praha", "120 00", WithRecipient("Auto*Mat z.s."))

	assert.Equal(t, "12000", addr.PSC())
	assert.Equal(t, "120 00", addr.FormattedPSC())
	assert.Equal(t, "Vinohradská 12", addr.StreetLine())
	assert.Equal(t, "Auto*Mat z.s., Vinohradská 12, 120 00 Praha", addr.String())
	assert.True(t, addr.Equals(RestoreAddress("Auto*Mat z.s.", "Vinohradská", "12", "Praha", "12000")))
	assert.True(t, Address{}.IsEmpty())
	assert.Equal(t, "", Address{}.String())
}
