package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mblcrm/lendgate/internal/domain/meeting"
)

// Meetings simulates the Graph/Teams scheduling dependency.
type Meetings struct{}

// NewMeetings creates the meeting simulator.
func NewMeetings() *Meetings {
	return &Meetings{}
}

// CreateMeeting returns a Teams-shaped meeting. The ID is a name-based UUID
// over the request fields, so rescheduling the same meeting in demo mode
// yields the same join link.
func (s *Meetings) CreateMeeting(ctx context.Context, req meeting.Request) (meeting.Meeting, error) {
	h := seed("graph_meeting", req.Subject, req.Start.Format(time.RFC3339), req.OrganizerEmail)

	wait(ctx, latency{base: 250 * time.Millisecond, jitter: 200 * time.Millisecond}.duration(h))

	id := uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "lendgate/meeting/%s/%s", req.Subject, req.Start.Format(time.RFC3339)))
	return meeting.Meeting{
		ID:      id.String(),
		Subject: req.Subject,
		Start:   req.Start,
		End:     req.End,
		JoinURL: fmt.Sprintf("https://teams.microsoft.com/l/meetup-join/19%%3ameeting_%s%%40thread.v2/0", id),
	}, nil
}

// SendChannelMessage accepts the notification without delivering anywhere.
// The simulated delay matches a Graph channel post.
func (s *Meetings) SendChannelMessage(ctx context.Context, msg meeting.ChannelMessage) (struct{}, error) {
	h := seed("graph_channel", msg.Channel, msg.Text)
	wait(ctx, latency{base: 150 * time.Millisecond, jitter: 150 * time.Millisecond}.duration(h))
	return struct{}{}, nil
}
