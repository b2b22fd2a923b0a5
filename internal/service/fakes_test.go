package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/l8smu/hsmrankedbot/internal/constants"
	"github.com/l8smu/hsmrankedbot/internal/domain"
	"github.com/l8smu/hsmrankedbot/internal/rank"
	"github.com/l8smu/hsmrankedbot/internal/rating"
	"github.com/l8smu/hsmrankedbot/internal/venue"

	"github.com/rs/zerolog"
)

type storedChange struct {
	change   domain.RatingChange
	reverted bool
}

// fakeStore is an in-memory Store. It hands out copies so service-side
// mutations only land through Upsert, like the real database.
type fakeStore struct {
	mu          sync.Mutex
	players     map[string]*domain.Player
	matches     map[int64]*domain.Match
	changes     []storedChange
	nextMatchID int64

	insertMatchErr error
	transactErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players: make(map[string]*domain.Player),
		matches: make(map[int64]*domain.Match),
	}
}

func (f *fakeStore) seed(players ...domain.Player) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range players {
		p := players[i]
		f.players[p.ID] = &p
	}
}

func (f *fakeStore) GetPlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[playerID]
	if !ok {
		p = &domain.Player{ID: playerID, Rating: constants.DefaultRating, CreatedAt: time.Now()}
		f.players[playerID] = p
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) UpsertPlayer(ctx context.Context, p *domain.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *p
	f.players[p.ID] = &copied
	return nil
}

func (f *fakeStore) ListRankedPlayers(ctx context.Context, limit, offset int) ([]domain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ranked []domain.Player
	for _, p := range f.players {
		if p.PlacementMatches >= constants.PlacementMatches {
			ranked = append(ranked, *p)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Rating != ranked[j].Rating {
			return ranked[i].Rating > ranked[j].Rating
		}
		return ranked[i].ID < ranked[j].ID
	})

	if offset >= len(ranked) {
		return nil, nil
	}
	end := min(offset+limit, len(ranked))
	return ranked[offset:end], nil
}

func (f *fakeStore) CountPlayers(ctx context.Context) (PlayerCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var c PlayerCounts
	for _, p := range f.players {
		c.Total++
		switch {
		case p.PlacementMatches >= constants.PlacementMatches:
			c.Ranked++
		case p.PlacementMatches > 0:
			c.InPlacement++
		}
	}
	return c, nil
}

func (f *fakeStore) ResetAllPlayers(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		p.Rating = constants.DefaultRating
		p.Wins = 0
		p.Losses = 0
		p.PlacementMatches = 0
	}
	return nil
}

func (f *fakeStore) InsertMatch(ctx context.Context, m *domain.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertMatchErr != nil {
		return f.insertMatchErr
	}
	f.nextMatchID++
	m.ID = f.nextMatchID
	m.Name = fmt.Sprintf("HSM%d", m.ID)
	copied := *m
	f.matches[m.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateMatch(ctx context.Context, m *domain.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.matches[m.ID]; !ok {
		return domain.ErrMatchNotFound
	}
	copied := *m
	f.matches[m.ID] = &copied
	return nil
}

func (f *fakeStore) GetMatch(ctx context.Context, matchID int64) (*domain.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[matchID]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (f *fakeStore) ListRecentCompleted(ctx context.Context, limit int) ([]domain.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Match
	for _, m := range f.matches {
		if m.Completed {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) InsertRatingChanges(ctx context.Context, changes []domain.RatingChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range changes {
		f.changes = append(f.changes, storedChange{change: c})
	}
	return nil
}

func (f *fakeStore) ActiveRatingChanges(ctx context.Context, matchID int64) ([]domain.RatingChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.RatingChange
	for _, sc := range f.changes {
		if sc.change.MatchID == matchID && !sc.reverted {
			out = append(out, sc.change)
		}
	}
	return out, nil
}

func (f *fakeStore) ListRatingChanges(ctx context.Context, matchID int64) ([]domain.RatingChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.RatingChange
	for _, sc := range f.changes {
		if sc.change.MatchID == matchID {
			out = append(out, sc.change)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkRatingChangesReverted(ctx context.Context, matchID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.changes {
		if f.changes[i].change.MatchID == matchID {
			f.changes[i].reverted = true
		}
	}
	return nil
}

func (f *fakeStore) Transact(ctx context.Context, fn func(Store) error) error {
	if f.transactErr != nil {
		return f.transactErr
	}
	return fn(f)
}

func (f *fakeStore) mustPlayer(id string) domain.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.players[id]
}

type sentMessage struct {
	playerID string
	text     string
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []sentMessage
}

func (n *fakeNotifier) SendDirectMessage(ctx context.Context, playerID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, sentMessage{playerID: playerID, text: text})
	return nil
}

func (n *fakeNotifier) sentTo(playerID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.messages {
		if m.playerID == playerID {
			out = append(out, m.text)
		}
	}
	return out
}

type fakeProvisioner struct {
	mu         sync.Mutex
	created    []int64
	deleted    []int64
	failCreate bool
}

func (p *fakeProvisioner) CreateMatchChannels(ctx context.Context, m *domain.Match) (*venue.Handles, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failCreate {
		return nil, fmt.Errorf("provisioning unavailable")
	}
	p.created = append(p.created, m.ID)
	return &venue.Handles{MatchID: m.ID, TextID: fmt.Sprintf("text-%d", m.ID)}, nil
}

func (p *fakeProvisioner) DeleteChannels(ctx context.Context, h *venue.Handles) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, h.MatchID)
	return nil
}

func (p *fakeProvisioner) deletedIDs() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int64(nil), p.deleted...)
}

type fakeApplier struct {
	mu    sync.Mutex
	tiers map[string]string
}

func (a *fakeApplier) SetPlayerTier(ctx context.Context, playerID, tierName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tiers == nil {
		a.tiers = make(map[string]string)
	}
	a.tiers[playerID] = tierName
	return nil
}

func (a *fakeApplier) tierOf(playerID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tiers[playerID]
}

func (a *fakeApplier) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.tiers)
}

type testEnv struct {
	mm          *Matchmaker
	store       *fakeStore
	notifier    *fakeNotifier
	provisioner *fakeProvisioner
	applier     *fakeApplier
}

func newTestEnv(opts Options) *testEnv {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	provisioner := &fakeProvisioner{}
	applier := &fakeApplier{}

	logger := zerolog.Nop()
	engine := rating.NewEngine(logger)
	assigner := rank.NewAssigner(applier, logger)

	return &testEnv{
		mm:          NewMatchmakerWithOptions(store, engine, assigner, provisioner, notifier, logger, opts),
		store:       store,
		notifier:    notifier,
		provisioner: provisioner,
		applier:     applier,
	}
}

func testOptions() Options {
	return Options{
		Capacity:        4,
		ActivityTimeout: 5 * time.Minute,
		ClaimTTL:        2 * time.Minute,
		TeardownDelay:   0,
	}
}

// drain waits for all in-flight best-effort goroutines before assertions on
// notifications or venue teardown.
func (e *testEnv) drain() {
	_ = e.mm.Stop(context.Background())
}
