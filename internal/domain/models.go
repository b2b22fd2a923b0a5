package domain

import (
	"fmt"
	"time"
)

// Winner encodes a match outcome as stored in the matches table.
type Winner int

const (
	WinnerPending   Winner = 0
	WinnerTeam1     Winner = 1
	WinnerTeam2     Winner = 2
	WinnerCancelled Winner = -1
)

func (w Winner) String() string {
	switch w {
	case WinnerTeam1:
		return "team1"
	case WinnerTeam2:
		return "team2"
	case WinnerCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// ParseWinner accepts the wire form used by the API.
func ParseWinner(s string) (Winner, error) {
	switch s {
	case "team1":
		return WinnerTeam1, nil
	case "team2":
		return WinnerTeam2, nil
	case "cancelled":
		return WinnerCancelled, nil
	default:
		return WinnerPending, fmt.Errorf("invalid winner %q", s)
	}
}

type Player struct {
	ID               string
	Rating           int
	Wins             int
	Losses           int
	PlacementMatches int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Ranked reports whether the player has finished their placement window.
func (p *Player) Ranked(window int) bool {
	return p.PlacementMatches >= window
}

type Match struct {
	ID            int64
	Name          string // display name, e.g. HSM17
	Team1         [2]string
	Team2         [2]string
	Winner        Winner
	Completed     bool
	AdminModified bool
	Cancelled     bool
	CreatedAt     time.Time
}

// Participants returns all four player ids, team1 first.
func (m *Match) Participants() []string {
	return []string{m.Team1[0], m.Team1[1], m.Team2[0], m.Team2[1]}
}

func (m *Match) HasParticipant(playerID string) bool {
	for _, id := range m.Participants() {
		if id == playerID {
			return true
		}
	}
	return false
}

// WinnersLosers splits participants for a decided outcome.
func (m *Match) WinnersLosers(w Winner) (winners, losers [2]string) {
	if w == WinnerTeam1 {
		return m.Team1, m.Team2
	}
	return m.Team2, m.Team1
}

// RatingChange is the audit record of one rating application: the delta that
// was actually written (after the zero floor) and the placement flag in effect
// at apply time. Reverts read these back instead of recomputing.
type RatingChange struct {
	ID           string
	MatchID      int64
	PlayerID     string
	Delta        int // signed, as applied
	Placement    bool
	RatingBefore int
	RatingAfter  int
	Won          bool
	CreatedAt    time.Time
}

// QueueEntry is one waiting player.
type QueueEntry struct {
	PlayerID     string
	JoinedAt     time.Time
	LastActivity time.Time
}

// TeamAssignment is the output of the balanced 2v2 split.
type TeamAssignment struct {
	Team1    [2]string
	Team2    [2]string
	Team1Avg int
	Team2Avg int
}

// Tier is a named, contiguous rating band.
type Tier struct {
	Name string
	Min  int
	Max  int // inclusive; the top tier is unbounded above
}

// AvailabilityMode gates queue entry while the service is being serviced.
type AvailabilityMode string

const (
	ModeAvailable   AvailabilityMode = "available"
	ModeMaintenance AvailabilityMode = "maintenance"
	ModeOffline     AvailabilityMode = "offline"
)

func ParseAvailabilityMode(s string) (AvailabilityMode, error) {
	switch AvailabilityMode(s) {
	case ModeAvailable, ModeMaintenance, ModeOffline:
		return AvailabilityMode(s), nil
	default:
		return "", fmt.Errorf("invalid availability mode %q", s)
	}
}
