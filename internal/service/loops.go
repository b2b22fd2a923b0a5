package service

import (
	"context"
	"fmt"
	"time"

	"github.com/l8smu/hsmrankedbot/internal/constants"

	"golang.org/x/sync/errgroup"
)

// Start launches the background loops: stale-member eviction and the periodic
// tier-marker broadcast.
func (s *Matchmaker) Start(ctx context.Context) error {
	s.wg.Add(2)
	go s.evictLoop()
	go s.broadcastLoop()
	s.logger.Info().
		Dur("evict_interval", constants.EvictInterval).
		Dur("broadcast_interval", constants.TierBroadcastInterval).
		Msg("background loops started")
	return nil
}

// Stop halts the loops and waits for in-flight best-effort work to drain.
func (s *Matchmaker) Stop(ctx context.Context) error {
	close(s.stop)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out draining background work: %w", ctx.Err())
	}
}

func (s *Matchmaker) evictLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(constants.EvictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.EvictStale(now, s.opts.ActivityTimeout)
		}
	}
}

// EvictStale removes queue members idle past the timeout and pings them.
func (s *Matchmaker) EvictStale(now time.Time, timeout time.Duration) []string {
	s.mu.Lock()
	evicted := s.queue.EvictStale(now, timeout)
	s.mu.Unlock()

	for _, id := range evicted {
		s.logger.Info().Str("player_id", id).Msg("player evicted from queue for inactivity")
		s.notifyAsync(id, "You were removed from the queue after a period of inactivity.")
	}
	return evicted
}

// broadcastLoop periodically reasserts tier markers for all ranked players.
// This is read-mostly work and runs outside the core critical section.
func (s *Matchmaker) broadcastLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(constants.TierBroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.BroadcastTiers(context.Background()); err != nil {
				s.logger.Warn().Err(err).Msg("tier broadcast failed")
			}
		}
	}
}

// BroadcastTiers pushes every ranked player's current tier marker, paging
// through the whole ladder.
func (s *Matchmaker) BroadcastTiers(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	pageSize := constants.TierBroadcastPageSize
	for offset := 0; ; offset += pageSize {
		players, err := s.store.ListRankedPlayers(ctx, pageSize, offset)
		if err != nil {
			return fmt.Errorf("failed to list ranked players: %w", err)
		}
		if len(players) == 0 {
			return nil
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i := range players {
			p := players[i]
			g.Go(func() error {
				s.assigner.Reassert(gctx, &p)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if len(players) < pageSize {
			return nil
		}
	}
}
