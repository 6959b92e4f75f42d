package mailing

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"
)

// Subscriber is the data kept about a participant on a mailing list
type Subscriber struct {
	Email     string
	FirstName string
	LastName  string
	// Fields are the list's custom fields: campaign, team, city, payment
	// status, language
	Fields map[string]string
}

// Hash fingerprints the subscriber data. A sync is skipped when the hash
// equals the one stored after the previous sync.
func (s Subscriber) Hash() string {
	h := sha256.New()
	write := func(v string) {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	write(s.Email)
	write(s.FirstName)
	write(s.LastName)
	for _, key := range slices.Sorted(maps.Keys(s.Fields)) {
		write(key)
		write(s.Fields[key])
	}
	return hex.EncodeToString(h.Sum(nil))
}

type subscriberData struct {
	Email        string            `json:"email"`
	Name         string            `json:"name,omitempty"`
	Surname      string            `json:"surname,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

type subscribeRequest struct {
	SubscriberData  subscriberData `json:"subscriber_data"`
	UpdateExisting  bool           `json:"update_existing"`
	Resubscribe     bool           `json:"resubscribe"`
	TriggerAutoresp bool           `json:"trigger_autoresponders"`
}

type subscribeResponse struct {
	ID json.Number `json:"id"`
}

type unsubscribeRequest struct {
	Email string `json:"email"`
}
