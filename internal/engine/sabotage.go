package engine

import (
	"math"
	"time"

	"github.com/abrezinsky/irlsus/internal/errors"
	"github.com/abrezinsky/irlsus/internal/models"
)

// Fix actions
const (
	FixTap       = "tap"
	FixHoldStart = "hold_start"
	FixHoldEnd   = "hold_end"
)

// SabotageStatus is the polled view of a game's sabotage state
type SabotageStatus struct {
	Active            bool                `json:"active"`
	Index             int                 `json:"index,omitempty"`
	Type              models.SabotageType `json:"type,omitempty"`
	Name              string              `json:"name,omitempty"`
	Timer             int                 `json:"timer,omitempty"`
	Remaining         int                 `json:"remaining,omitempty"`
	ReactorHolders    []string            `json:"reactor_holders,omitempty"`
	O2Switches        int                 `json:"o2_switches,omitempty"`
	CooldownRemaining int                 `json:"cooldown_remaining"`
}

// FixResult reports what a fix action did
type FixResult struct {
	Resolved   bool     `json:"resolved"`
	Holders    []string `json:"reactor_holders,omitempty"`
	O2Switches int      `json:"o2_switches,omitempty"`
}

// StartSabotage begins the sabotage in slot index (1-based). Dead impostors
// may still sabotage.
func StartSabotage(t *Turn, g *models.Game, p *models.Player, index int) error {
	if !p.Role.Info().CanSabotage {
		return errors.Forbidden("only impostors can sabotage")
	}
	if g.State != models.StatePlaying {
		return errors.InvalidState("sabotage is only possible while playing")
	}
	if !g.Settings.EnableSabotage {
		return errors.InvalidState("sabotage is disabled in this game")
	}
	if g.ActiveSabotage != nil {
		return errors.InvalidState("a sabotage is already active")
	}
	if t.Now.Before(g.SabotageCooldownEnd) {
		return errors.InvalidStatef("sabotage is on cooldown for %d more seconds", secondsUntil(t.Now, g.SabotageCooldownEnd))
	}
	slot, ok := g.Settings.Slot(index)
	if !ok {
		return errors.Validationf("sabotage index must be between 1 and %d", models.SabotageSlotCount)
	}
	if !slot.Enabled {
		return errors.InvalidStatef("%s is disabled in this game", slot.Name)
	}

	g.ActiveSabotage = &models.ActiveSabotage{
		Index:          index,
		Type:           slot.Type,
		Name:           slot.Name,
		Timer:          slot.Timer,
		StartedAt:      t.Now,
		StartedBy:      p.ID,
		ReactorHolders: make(map[string]bool),
	}
	t.Out.Broadcast(models.EventSabotageStarted, map[string]interface{}{
		"index":      index,
		"type":       slot.Type,
		"name":       slot.Name,
		"timer":      slot.Timer,
		"started_at": t.Now,
	})
	return nil
}

// FixSabotage applies one fix action from an alive player
func FixSabotage(t *Turn, g *models.Game, p *models.Player, action string) (FixResult, error) {
	if g.State != models.StatePlaying {
		return FixResult{}, errors.InvalidState("sabotages can only be fixed while playing")
	}
	s := g.ActiveSabotage
	if s == nil {
		return FixResult{}, errors.InvalidState("no active sabotage")
	}
	if s.Expired(t.Now) {
		return FixResult{}, errors.InvalidState("the sabotage has already run out")
	}
	if !p.Alive() {
		return FixResult{}, errors.Forbidden("dead players cannot fix sabotages")
	}

	switch s.Type {
	case models.SabotageLights, models.SabotageComms:
		if action != FixTap {
			return FixResult{}, errors.Validationf("%s is fixed with a tap", s.Name)
		}
		resolveSabotage(t, g, p.Name)
		return FixResult{Resolved: true}, nil

	case models.SabotageReactor:
		switch action {
		case FixHoldStart:
			s.ReactorHolders[p.ID] = true
		case FixHoldEnd:
			delete(s.ReactorHolders, p.ID)
		default:
			return FixResult{}, errors.Validation("reactor is fixed with hold_start and hold_end")
		}
		if len(s.ReactorHolders) >= 2 {
			resolveSabotage(t, g, "Reactor holders")
			return FixResult{Resolved: true}, nil
		}
		holders := s.HolderIDs()
		t.Out.Broadcast(models.EventSabotageUpdate, map[string]interface{}{
			"type":            s.Type,
			"reactor_holders": holders,
			"holders_needed":  2,
		})
		return FixResult{Holders: holders}, nil

	case models.SabotageO2:
		if action != FixTap {
			return FixResult{}, errors.Validation("o2 is fixed by tapping both switches")
		}
		s.O2Switches++
		if s.O2Switches >= 2 {
			resolveSabotage(t, g, "O2 switches")
			return FixResult{Resolved: true}, nil
		}
		t.Out.Broadcast(models.EventSabotageUpdate, map[string]interface{}{
			"type":            s.Type,
			"o2_switches":     s.O2Switches,
			"switches_needed": 2,
		})
		return FixResult{O2Switches: s.O2Switches}, nil
	}

	return FixResult{}, errors.Internalf("unknown sabotage type %q", s.Type)
}

// CheckSabotageTimeout ends the game in the impostors' favour if the active
// sabotage's countdown has run out. It reports whether that happened.
func CheckSabotageTimeout(t *Turn, g *models.Game) bool {
	s := g.ActiveSabotage
	if s == nil || g.State != models.StatePlaying || !s.Expired(t.Now) {
		return false
	}
	g.ActiveSabotage = nil
	finish(t, g, models.WinnerImpostor, s.Name+" was not fixed in time!")
	return true
}

// Status reports the sabotage state after applying the lazy timeout check
func Status(t *Turn, g *models.Game) SabotageStatus {
	CheckSabotageTimeout(t, g)
	return SabotageSnapshot(g, t.Now)
}

// SabotageSnapshot describes the sabotage state at now without mutating g
func SabotageSnapshot(g *models.Game, now time.Time) SabotageStatus {
	s := g.ActiveSabotage
	if s == nil {
		return SabotageStatus{CooldownRemaining: secondsUntil(now, g.SabotageCooldownEnd)}
	}
	st := SabotageStatus{
		Active:         true,
		Index:          s.Index,
		Type:           s.Type,
		Name:           s.Name,
		Timer:          s.Timer,
		ReactorHolders: s.HolderIDs(),
		O2Switches:     s.O2Switches,
	}
	if d := s.Deadline(); !d.IsZero() {
		st.Remaining = secondsUntil(now, d)
	}
	return st
}

// resolveSabotage clears the active sabotage and starts the cooldown
func resolveSabotage(t *Turn, g *models.Game, resolvedBy string) {
	s := g.ActiveSabotage
	if s == nil {
		return
	}
	g.ActiveSabotage = nil
	g.SabotageCooldownEnd = t.Now.Add(time.Duration(g.Settings.SabotageCooldown) * time.Second)

	t.Out.Broadcast(models.EventSabotageResolved, map[string]interface{}{
		"index":        s.Index,
		"type":         s.Type,
		"name":         s.Name,
		"resolved_by":  resolvedBy,
		"cooldown_end": g.SabotageCooldownEnd,
	})
}

// secondsUntil rounds up the time left before end, never negative
func secondsUntil(now, end time.Time) int {
	if end.IsZero() || !now.Before(end) {
		return 0
	}
	return int(math.Ceil(end.Sub(now).Seconds()))
}
