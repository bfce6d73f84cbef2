package service

import (
	"context"

	"github.com/mblcrm/lendgate/internal/config"
	"github.com/mblcrm/lendgate/internal/domain/call"
	"github.com/mblcrm/lendgate/internal/domain/meeting"
	"github.com/mblcrm/lendgate/internal/resilience"
)

// GraphClient is implemented by the Microsoft Graph client and its
// simulator.
type GraphClient interface {
	CreateMeeting(ctx context.Context, req meeting.Request) (meeting.Meeting, error)
	SendChannelMessage(ctx context.Context, msg meeting.ChannelMessage) (struct{}, error)
}

// MeetingService schedules Teams meetings and posts channel notifications.
// Both operations share the ms_graph breaker: they hit the same backend.
type MeetingService struct {
	dep  *resilience.Dependency
	real GraphClient
	sim  GraphClient
}

// NewMeetingService creates a new MeetingService.
func NewMeetingService(m *resilience.Manager, rcfg config.Resilience, cfg config.GraphConfig, real, sim GraphClient) *MeetingService {
	return &MeetingService{
		dep:  m.Dependency(DepGraph, breakerConfig(rcfg, cfg.Timeout, cfg.Mock)),
		real: real,
		sim:  sim,
	}
}

// Create schedules an online meeting for a loan officer.
func (s *MeetingService) Create(ctx context.Context, req meeting.Request) (call.Outcome[meeting.Meeting], error) {
	if err := req.Validate(); err != nil {
		return call.Outcome[meeting.Meeting]{ErrorKind: call.ErrorKindClient, BreakerState: s.dep.State()}, err
	}
	return resilience.Execute(ctx, s.dep, "create_meeting",
		func(ctx context.Context) (meeting.Meeting, error) {
			return s.real.CreateMeeting(ctx, req)
		},
		func(ctx context.Context) (meeting.Meeting, error) {
			return s.sim.CreateMeeting(ctx, req)
		},
	)
}

// Notify posts a message to a staff channel.
func (s *MeetingService) Notify(ctx context.Context, msg meeting.ChannelMessage) (call.Outcome[struct{}], error) {
	if err := msg.Validate(); err != nil {
		return call.Outcome[struct{}]{ErrorKind: call.ErrorKindClient, BreakerState: s.dep.State()}, err
	}
	return resilience.Execute(ctx, s.dep, "send_channel_message",
		func(ctx context.Context) (struct{}, error) {
			return s.real.SendChannelMessage(ctx, msg)
		},
		func(ctx context.Context) (struct{}, error) {
			return s.sim.SendChannelMessage(ctx, msg)
		},
	)
}
