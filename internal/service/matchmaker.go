package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/l8smu/hsmrankedbot/internal/constants"
	"github.com/l8smu/hsmrankedbot/internal/domain"
	"github.com/l8smu/hsmrankedbot/internal/notify"
	"github.com/l8smu/hsmrankedbot/internal/queue"
	"github.com/l8smu/hsmrankedbot/internal/rank"
	"github.com/l8smu/hsmrankedbot/internal/rating"
	"github.com/l8smu/hsmrankedbot/internal/team"
	"github.com/l8smu/hsmrankedbot/internal/venue"

	"github.com/rs/zerolog"
)

// Options are the matchmaking tunables; tests shrink the timeouts.
type Options struct {
	Capacity        int
	ActivityTimeout time.Duration
	ClaimTTL        time.Duration
	TeardownDelay   time.Duration
}

func DefaultOptions() Options {
	return Options{
		Capacity:        constants.QueueCapacity,
		ActivityTimeout: constants.QueueActivityTimeout,
		ClaimTTL:        constants.ClaimTTL,
		TeardownDelay:   constants.VenueTeardownDelay,
	}
}

// claim is the transient exclusive right of one participant to submit the
// match result. Placement flags are captured when the claim is granted.
type claim struct {
	matchID        int64
	playerID       string
	expiresAt      time.Time
	placementFlags map[string]bool
}

// Matchmaker owns the waiting queue, the active matches and the reporting
// claims. Every mutating operation runs under one mutex: the queue can never
// overflow past a concurrent snapshot and two participants can never both win
// a reporting claim.
type Matchmaker struct {
	mu     sync.Mutex
	queue  *queue.Queue
	active map[int64]*domain.Match
	claims map[int64]*claim
	venues map[int64]*venue.Handles
	mode   domain.AvailabilityMode

	opts        Options
	store       Store
	engine      *rating.Engine
	assigner    *rank.Assigner
	provisioner venue.Provisioner
	notifier    notify.Notifier
	logger      zerolog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewMatchmaker(
	store Store,
	engine *rating.Engine,
	assigner *rank.Assigner,
	provisioner venue.Provisioner,
	notifier notify.Notifier,
	logger zerolog.Logger,
) *Matchmaker {
	return NewMatchmakerWithOptions(store, engine, assigner, provisioner, notifier, logger, DefaultOptions())
}

func NewMatchmakerWithOptions(
	store Store,
	engine *rating.Engine,
	assigner *rank.Assigner,
	provisioner venue.Provisioner,
	notifier notify.Notifier,
	logger zerolog.Logger,
	opts Options,
) *Matchmaker {
	return &Matchmaker{
		queue:       queue.New(opts.Capacity),
		active:      make(map[int64]*domain.Match),
		claims:      make(map[int64]*claim),
		venues:      make(map[int64]*venue.Handles),
		mode:        domain.ModeAvailable,
		opts:        opts,
		store:       store,
		engine:      engine,
		assigner:    assigner,
		provisioner: provisioner,
		notifier:    notifier,
		logger:      logger,
		stop:        make(chan struct{}),
	}
}

// JoinResult reports the queue position taken, and the match if this join
// filled the queue.
type JoinResult struct {
	Position int
	Match    *domain.Match
}

// Join appends the player to the queue. Filling the queue snapshots the
// ordered membership, clears it and creates a match, all inside the same
// critical section.
func (s *Matchmaker) Join(ctx context.Context, playerID string) (JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != domain.ModeAvailable {
		return JoinResult{}, domain.ErrUnavailable
	}
	for _, m := range s.active {
		if m.HasParticipant(playerID) {
			return JoinResult{}, fmt.Errorf("%w: %s", domain.ErrAlreadyInMatch, m.Name)
		}
	}

	pos, err := s.queue.Join(playerID, time.Now())
	if err != nil {
		return JoinResult{}, err
	}

	s.logger.Info().Str("player_id", playerID).Int("position", pos).Msg("player joined queue")

	if !s.queue.Full() {
		return JoinResult{Position: pos}, nil
	}

	snapshot := s.queue.Snapshot()
	match, err := s.createMatchLocked(ctx, snapshot)
	if err != nil {
		// Abort the join entirely: the other three players stay queued.
		_ = s.queue.Leave(playerID)
		return JoinResult{}, fmt.Errorf("failed to create match: %w", err)
	}
	s.queue.Clear()

	return JoinResult{Position: pos, Match: match}, nil
}

func (s *Matchmaker) Leave(ctx context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.queue.Leave(playerID); err != nil {
		return err
	}
	s.logger.Info().Str("player_id", playerID).Msg("player left queue")
	return nil
}

// Touch refreshes the player's queue activity stamp.
func (s *Matchmaker) Touch(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.Touch(playerID, time.Now())
}

// QueueMember is one waiting player with their 1-based position.
type QueueMember struct {
	Position int       `json:"position"`
	PlayerID string    `json:"player_id"`
	JoinedAt time.Time `json:"joined_at"`
}

type QueueStatus struct {
	Size     int           `json:"size"`
	Capacity int           `json:"capacity"`
	Members  []QueueMember `json:"members"`
}

func (s *Matchmaker) QueueStatus() QueueStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.queue.Snapshot()
	status := QueueStatus{
		Size:     len(entries),
		Capacity: s.queue.Capacity(),
		Members:  make([]QueueMember, 0, len(entries)),
	}
	for i, e := range entries {
		status.Members = append(status.Members, QueueMember{
			Position: i + 1,
			PlayerID: e.PlayerID,
			JoinedAt: e.JoinedAt,
		})
	}
	return status
}

// PopFront removes the head of the queue (admin bypass) and pings them.
func (s *Matchmaker) PopFront(ctx context.Context) (string, error) {
	s.mu.Lock()
	playerID, err := s.queue.PopFront()
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	s.logger.Info().Str("player_id", playerID).Msg("player popped from queue head")
	s.notifyAsync(playerID, "You have been called up from the queue.")
	return playerID, nil
}

// ClearQueue empties the queue (admin bypass) and returns the removed count.
func (s *Matchmaker) ClearQueue(ctx context.Context) int {
	s.mu.Lock()
	n := s.queue.Clear()
	s.mu.Unlock()

	if n > 0 {
		s.logger.Info().Int("removed", n).Msg("queue cleared")
	}
	return n
}

func (s *Matchmaker) SetAvailability(mode domain.AvailabilityMode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	s.logger.Info().Str("mode", string(mode)).Msg("availability mode changed")
}

func (s *Matchmaker) Availability() domain.AvailabilityMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Match returns an active or stored match.
func (s *Matchmaker) Match(ctx context.Context, matchID int64) (*domain.Match, error) {
	s.mu.Lock()
	if m, ok := s.active[matchID]; ok {
		copied := *m
		s.mu.Unlock()
		return &copied, nil
	}
	s.mu.Unlock()
	return s.store.GetMatch(ctx, matchID)
}

// RecentMatches lists the latest completed matches for admin correction.
func (s *Matchmaker) RecentMatches(ctx context.Context, limit int) ([]domain.Match, error) {
	return s.store.ListRecentCompleted(ctx, limit)
}

// createMatchLocked forms teams from the snapshot and persists the pending
// match. Venue provisioning and player notification run asynchronously; a
// provisioning failure downgrades to fallback handles.
func (s *Matchmaker) createMatchLocked(ctx context.Context, snapshot []domain.QueueEntry) (*domain.Match, error) {
	var members [4]team.Member
	for i, e := range snapshot {
		p, err := s.store.GetPlayer(ctx, e.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load player %s: %w", e.PlayerID, err)
		}
		members[i] = team.Member{PlayerID: p.ID, Rating: p.Rating}
	}

	assignment := team.Assign(members)
	match := &domain.Match{
		Team1:     assignment.Team1,
		Team2:     assignment.Team2,
		Winner:    domain.WinnerPending,
		CreatedAt: time.Now(),
	}
	if err := s.store.InsertMatch(ctx, match); err != nil {
		return nil, err
	}

	s.active[match.ID] = match
	s.logger.Info().
		Int64("match_id", match.ID).
		Str("name", match.Name).
		Strs("team1", match.Team1[:]).
		Strs("team2", match.Team2[:]).
		Int("team1_avg", assignment.Team1Avg).
		Int("team2_avg", assignment.Team2Avg).
		Msg("match created")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.provisionVenue(*match)
	}()

	return match, nil
}

func (s *Matchmaker) provisionVenue(match domain.Match) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout)
	defer cancel()

	handles, err := s.provisioner.CreateMatchChannels(ctx, &match)
	if err != nil {
		s.logger.Warn().Err(err).Int64("match_id", match.ID).Msg("venue provisioning failed, using fallback")
		handles = venue.FallbackHandles(match.ID)
	}

	s.mu.Lock()
	// The match may have completed while provisioning was in flight.
	_, stillActive := s.active[match.ID]
	if stillActive {
		s.venues[match.ID] = handles
	}
	s.mu.Unlock()

	if !stillActive {
		if err := s.provisioner.DeleteChannels(ctx, handles); err != nil {
			s.logger.Warn().Err(err).Int64("match_id", match.ID).Msg("venue teardown failed")
		}
		return
	}

	for _, id := range match.Participants() {
		s.notifyAsync(id, fmt.Sprintf("Match %s is ready, head to channel %s.", match.Name, handles.TextID))
	}
}

// scheduleTeardownLocked deletes the match channels after the grace delay.
// The caller holds s.mu; the match is already terminal, so no cancellation
// path is needed.
func (s *Matchmaker) scheduleTeardownLocked(matchID int64) {
	handles, ok := s.venues[matchID]
	delete(s.venues, matchID)
	if !ok {
		return
	}

	delay := s.opts.TeardownDelay
	s.wg.Add(1)
	time.AfterFunc(delay, func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout)
		defer cancel()
		if err := s.provisioner.DeleteChannels(ctx, handles); err != nil {
			s.logger.Warn().Err(err).Int64("match_id", matchID).Msg("venue teardown failed")
		}
	})
}

func (s *Matchmaker) notifyAsync(playerID, text string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), constants.NotifyTimeout)
		defer cancel()
		if err := s.notifier.SendDirectMessage(ctx, playerID, text); err != nil {
			s.logger.Warn().Err(err).Str("player_id", playerID).Msg("direct message failed")
		}
	}()
}
