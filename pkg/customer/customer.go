// Package customer defines the domain types for the memline customer memory
// layer: profiles keyed by phone number, the observations recorded about
// them, and the recall result shape handed to prompt builders.
//
// A profile exists before any observation referencing it may be created; the
// backing store enforces this with a referential constraint. Observations are
// append-only facts tagged with the channel they were observed on.
package customer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source is the communication channel an observation originated from.
type Source string

const (
	SourceVoice    Source = "voice"
	SourceSMS      Source = "sms"
	SourceWhatsApp Source = "whatsapp"
)

// ParseSource validates a raw channel string. The set is closed; the backing
// store carries a matching CHECK constraint.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceVoice:
		return SourceVoice, nil
	case SourceSMS:
		return SourceSMS, nil
	case SourceWhatsApp:
		return SourceWhatsApp, nil
	}
	return "", fmt.Errorf("unknown source %q (want voice, sms, or whatsapp)", s)
}

// Profile is the customer record. The phone number is the identity - there is
// no surrogate id.
type Profile struct {
	Phone     string    `json:"phone"`
	Name      *string   `json:"name,omitempty"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Traits carries optional profile attributes for create-or-update calls.
// A nil field means "leave unchanged" - existing values are never overwritten
// with empties.
type Traits struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Empty reports whether the traits carry nothing to write.
func (t *Traits) Empty() bool {
	return t == nil || (t.Name == nil && t.Email == nil)
}

// Observation is a single atomic fact recorded about a customer. Observations
// are immutable once created; there is no update or delete.
type Observation struct {
	ID         uuid.UUID `json:"id"`
	Phone      string    `json:"phone"`
	Content    string    `json:"content"`
	Source     Source    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewObservation builds a validated observation with a fresh id. OccurredAt
// defaults to now; the store may override CreatedAt with its own clock.
func NewObservation(phone, content string, source Source) (*Observation, error) {
	if phone == "" {
		return nil, fmt.Errorf("observation requires a profile phone")
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("observation content must be non-empty")
	}
	if _, err := ParseSource(string(source)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Observation{
		ID:         uuid.New(),
		Phone:      phone,
		Content:    content,
		Source:     source,
		OccurredAt: now,
		CreatedAt:  now,
	}, nil
}

// Message is one turn of a conversation transcript as delivered by the
// conversation-management system.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Summary is the trimmed observation shape returned by recall.
type Summary struct {
	Content    string    `json:"content"`
	OccurredAt time.Time `json:"occurred_at"`
	Source     Source    `json:"source"`
}

// RecallResult is the transient aggregate a recall call produces. It is
// constructed per call and typically formatted straight into prompt text.
//
// Observations are ordered most-recent-first. Summaries is reserved for
// derived-fact summarization and is always empty today.
type RecallResult struct {
	Observations []Summary `json:"observations"`
	Summaries    []string  `json:"summaries"`
}
