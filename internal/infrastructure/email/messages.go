package email

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Composer builds the transactional messages of one campaign
type Composer struct {
	campaign string
	baseURL  string
}

// NewComposer creates a composer. baseURL is the campaign web address used in links.
func NewComposer(campaign, baseURL string) *Composer {
	return &Composer{campaign: campaign, baseURL: strings.TrimRight(baseURL, "/")}
}

// Welcome is sent after registration
func (c *Composer) Welcome(to Address) (*Message, error) {
	return c.compose("welcome.html", to, "Vítejte v soutěži "+c.campaign, "welcome", map[string]any{
		"Name": to.Name,
		"Link": c.baseURL + "/",
	})
}

// TeamInvitation invites to to join a team
func (c *Composer) TeamInvitation(to Address, inviter, team, token string) (*Message, error) {
	return c.compose("team_invitation.html", to, inviter+" vás zve do týmu "+team, "team_invitation", map[string]any{
		"Name":    to.Name,
		"Inviter": inviter,
		"Team":    team,
		"Link":    c.baseURL + "/tym/pozvanka/" + token,
	})
}

// PaymentConfirmation confirms an accepted entry fee
func (c *Composer) PaymentConfirmation(to Address, amount string) (*Message, error) {
	return c.compose("payment_confirmation.html", to, "Platba přijata", "payment", map[string]any{
		"Name":   to.Name,
		"Amount": amount,
	})
}

// InvoiceSent delivers an invoice PDF to the company admin
func (c *Composer) InvoiceSent(to Address, number string, pdf []byte) (*Message, error) {
	msg, err := c.compose("invoice_sent.html", to, "Faktura "+number, "invoice", map[string]any{
		"Name":   to.Name,
		"Number": number,
	})
	if err != nil {
		return nil, err
	}
	msg.Attachments = []Attachment{{
		Filename:    fmt.Sprintf("faktura-%s.pdf", number),
		ContentType: "application/pdf",
		Content:     pdf,
	}}
	return msg, nil
}

func (c *Composer) compose(name string, to Address, subject, category string, data map[string]any) (*Message, error) {
	data["Campaign"] = c.campaign

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("email: render %s: %w", name, err)
	}
	return &Message{
		To:          []Address{to},
		Subject:     "[" + c.campaign + "] " + subject,
		HTMLContent: buf.String(),
		TextContent: textContent(buf.String()),
		Categories:  []string{category},
	}, nil
}

// textContent strips the markup of the rendered HTML body
func textContent(body string) string {
	var out strings.Builder
	inTag := false
	for _, r := range body {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			out.WriteRune(r)
		}
	}
	lines := strings.Split(out.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, html.UnescapeString(line))
		}
	}
	return strings.Join(kept, "\n")
}
