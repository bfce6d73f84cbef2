// Package meeting holds online-meeting domain types.
package meeting

import (
	"fmt"
	"time"

	"github.com/mblcrm/lendgate/internal/domain/call"
)

// Request describes the meeting a loan officer wants scheduled.
type Request struct {
	Subject        string    `json:"subject"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	OrganizerEmail string    `json:"organizer_email"`
	AttendeeEmails []string  `json:"attendee_emails,omitempty"`
}

// Validate rejects requests that no scheduling backend could accept.
func (r Request) Validate() error {
	if r.Subject == "" {
		return fmt.Errorf("%w: subject is required", call.ErrValidation)
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", call.ErrValidation)
	}
	if !r.End.After(r.Start) {
		return fmt.Errorf("%w: end must be after start", call.ErrValidation)
	}
	return nil
}

// Meeting is a scheduled online meeting with a join link.
type Meeting struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	JoinURL string    `json:"join_url"`
}

// ChannelMessage is a notification posted to a staff channel.
type ChannelMessage struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// Validate rejects empty notifications.
func (m ChannelMessage) Validate() error {
	if m.Channel == "" {
		return fmt.Errorf("%w: channel is required", call.ErrValidation)
	}
	if m.Text == "" {
		return fmt.Errorf("%w: text is required", call.ErrValidation)
	}
	return nil
}
