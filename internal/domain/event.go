package domain

import (
	"strings"
	"time"
)

// Event is a single digest entry: a standalone calendar event, or one session
// of a multi-session event flattened onto its parent's metadata.
type Event struct {
	Name            string
	Start           time.Time
	SourceEventID   int64
	Location        string
	DescriptionHTML string
	Tags            []string
}

// HasTag reports whether the event carries the given tag, case-insensitively.
func (e Event) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// RecipientTypeIndividual is the only recipient type the blast uses.
const RecipientTypeIndividual = "IndividualContactRecipient"

// Recipient is one addressee of the blast, in the shape the SendEmail RPC
// expects.
type Recipient struct {
	ID    int64  `json:"Id"`
	Type  string `json:"Type"`
	Name  string `json:"Name"`
	Email string `json:"Email"`
}

// Email is a composed transactional email ready for dispatch.
type Email struct {
	Subject        string
	Body           string
	ReplyToAddress string
	ReplyToName    string
	Recipients     []Recipient
}
