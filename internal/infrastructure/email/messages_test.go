package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposer(t *testing.T) {
	c := NewComposer("Do práce na kole 2026", "https://brno.dopracenakole.cz/")
	to := Address{Name: "Jana <J>", Email: "jana@example.com"}

	tests := []struct {
		name     string
		build    func() (*Message, error)
		subject  string
		contains string
		category string
	}{
		{
			name:     "welcome",
			build:    func() (*Message, error) { return c.Welcome(to) },
			subject:  "[Do práce na kole 2026] Vítejte v soutěži Do práce na kole 2026",
			contains: "https://brno.dopracenakole.cz/",
			category: "welcome",
		},
		{
			name:     "team invitation",
			build:    func() (*Message, error) { return c.TeamInvitation(to, "Petr", "Kola", "tok123") },
			subject:  "[Do práce na kole 2026] Petr vás zve do týmu Kola",
			contains: "https://brno.dopracenakole.cz/tym/pozvanka/tok123",
			category: "team_invitation",
		},
		{
			name:     "payment",
			build:    func() (*Message, error) { return c.PaymentConfirmation(to, "390,00 Kč") },
			subject:  "[Do práce na kole 2026] Platba přijata",
			contains: "390,00 Kč",
			category: "payment",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.subject, msg.Subject)
			assert.Equal(t, []Address{to}, msg.To)
			assert.Contains(t, msg.HTMLContent, tt.contains)
			assert.Contains(t, msg.HTMLContent, "Jana &lt;J&gt;")
			assert.Contains(t, msg.TextContent, "Dobrý den Jana <J>,")
			assert.NotContains(t, msg.TextContent, "<p>")
			assert.Equal(t, []string{tt.category}, msg.Categories)
		})
	}
}

func TestComposer_InvoiceSent(t *testing.T) {
	c := NewComposer("DPNK", "https://dopracenakole.cz")

	msg, err := c.InvoiceSent(Address{Name: "Firma", Email: "ucetni@firma.cz"}, "20260007", []byte("%PDF"))
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "faktura-20260007.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.Contains(t, msg.TextContent, "fakturu č. 20260007")
}
