package service

import (
	"context"
	"fmt"
	"puntoazul/internal/repository"
	"time"

	"go.uber.org/zap"
)

type JobService struct {
	Creds     repository.CredentialProvider
	Venues    *VenueService
	History   HistoryStore
	IdleAfter time.Duration
	Retention time.Duration
	now       func() time.Time
}

func NewJobService(creds repository.CredentialProvider, venues *VenueService, history HistoryStore, idleAfter, retention time.Duration) *JobService {
	return &JobService{
		Creds:     creds,
		Venues:    venues,
		History:   history,
		IdleAfter: idleAfter,
		Retention: retention,
		now:       time.Now,
	}
}

// PurgeExpiredSessions removes expired credentials and workspaces nobody has touched for IdleAfter.
func (s *JobService) PurgeExpiredSessions(ctx context.Context) error {
	log := zap.L()
	log.Debug("Cron Job: Purging expired sessions...")

	n, err := s.Creds.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("cron job: failed to purge expired credentials: %w", err)
	}
	dropped := s.Venues.PurgeIdle(s.now().Add(-s.IdleAfter))
	if n == 0 && dropped == 0 {
		log.Debug("Cron Job: No expired sessions found.")
		return nil
	}
	log.Info("Cron Job: Purged expired sessions", zap.Int("credentials", n), zap.Int("workspaces", dropped))
	return nil
}

// PruneHistory deletes save history older than Retention.
func (s *JobService) PruneHistory(ctx context.Context) error {
	if s.History == nil {
		return nil
	}
	log := zap.L()
	log.Info("Cron Job: Pruning save history...")

	cutoff := s.now().Add(-s.Retention)
	ids, err := s.History.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cron job: failed to prune save history: %w", err)
	}
	if len(ids) == 0 {
		log.Info("Cron Job: No save history older than cutoff.", zap.Time("cutoff", cutoff))
		return nil
	}
	log.Info("Cron Job: Pruned save history", zap.Int("rows", len(ids)), zap.Int64s("ids", ids))
	return nil
}
