package services

import (
	"context"

	"github.com/abrezinsky/irlsus/internal/engine"
	"github.com/abrezinsky/irlsus/internal/logger"
	"github.com/abrezinsky/irlsus/internal/models"
	"github.com/abrezinsky/irlsus/internal/store"
)

// MeetingService handles emergency meetings, body reports and voting
type MeetingService struct {
	log logger.Logger
	rt  *Runtime
}

// NewMeetingService creates a new MeetingService
func NewMeetingService(log logger.Logger, rt *Runtime) *MeetingService {
	return &MeetingService{log: log, rt: rt}
}

// VoteOutcome reports whether a call revealed the vote, and the result if so
type VoteOutcome struct {
	engine.VoteProgress
	Result *models.VoteResult `json:"result,omitempty"`
}

// CallMeeting starts an emergency meeting or body report
func (s *MeetingService) CallMeeting(ctx context.Context, code, token, meetingType string) error {
	typ, err := engine.ParseMeetingType(meetingType)
	if err != nil {
		return err
	}
	return s.rt.act(ctx, code, token, "call_meeting", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		return engine.CallMeeting(t, tx.Game(), p, typ)
	})
}

// StartVoting ends the gathering phase. It reports false if voting was
// already open.
func (s *MeetingService) StartVoting(ctx context.Context, code, token string) (bool, error) {
	var started bool
	err := s.rt.act(ctx, code, token, "start_voting", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		var err error
		started, err = engine.StartVoting(t, tx.Game(), p)
		return err
	})
	return started, err
}

// CastVote records the caller's ballot. An empty targetID is a skip.
func (s *MeetingService) CastVote(ctx context.Context, code, token, targetID string) (*VoteOutcome, error) {
	var out VoteOutcome
	err := s.rt.act(ctx, code, token, "cast_vote", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		progress, err := engine.CastVote(t, tx.Game(), p, targetID)
		if err != nil {
			return err
		}
		out.VoteProgress = progress
		out.Result = revealed(&t.Out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// TimerExpired reveals the vote once the voting deadline has passed
func (s *MeetingService) TimerExpired(ctx context.Context, code, token string) (*VoteOutcome, error) {
	var out VoteOutcome
	err := s.rt.act(ctx, code, token, "timer_expired", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		g := tx.Game()
		ok, err := engine.TimerExpired(t, g)
		if err != nil {
			return err
		}
		out.Revealed = ok
		out.Result = revealed(&t.Out)
		if out.Result == nil && g.ActiveMeeting != nil {
			out.Result = g.ActiveMeeting.Result
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EndMeeting closes the meeting and resumes play
func (s *MeetingService) EndMeeting(ctx context.Context, code, token string) error {
	return s.rt.act(ctx, code, token, "end_meeting", func(t *engine.Turn, tx *store.Tx, p *models.Player) error {
		return engine.EndMeeting(t, tx.Game(), p)
	})
}

// revealed returns the vote result queued during this turn, if any
func revealed(out *engine.Outbox) *models.VoteResult {
	env, ok := out.Last(models.EventVoteResults)
	if !ok {
		return nil
	}
	res, _ := env.Message.Payload.(*models.VoteResult)
	return res
}
