package service

import (
	"context"
	"puntoazul/internal/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeExpiredSessions(t *testing.T) {
	ctx := context.Background()
	creds := repository.NewMemoryCredentialProvider(repository.NewSealer("k"))
	require.NoError(t, creds.Set(ctx, "old", repository.Credential{Token: "t", ExpiresAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, creds.Set(ctx, "new", repository.Credential{Token: "t", ExpiresAt: time.Now().Add(time.Hour)}))

	venues := NewVenueService(newFakeACF(t), nil)
	_, err := venues.List(ctx, &Session{ID: "old"})
	require.NoError(t, err)

	jobs := NewJobService(creds, venues, nil, time.Hour, 90*24*time.Hour)
	jobs.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.NoError(t, jobs.PurgeExpiredSessions(ctx))

	_, err = creds.Get(ctx, "new")
	assert.NoError(t, err)
	assert.Equal(t, 0, venues.PurgeIdle(time.Now().Add(3*time.Hour)))
}

func TestPruneHistory(t *testing.T) {
	history := &fakeHistory{}
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	jobs := NewJobService(repository.NewMemoryCredentialProvider(repository.NewSealer("k")), nil, history, time.Hour, 90*24*time.Hour)
	jobs.now = func() time.Time { return now }

	require.NoError(t, jobs.PruneHistory(context.Background()))
	assert.Equal(t, now.AddDate(0, 0, -90), history.pruned)

	jobs.History = nil
	assert.NoError(t, jobs.PruneHistory(context.Background()))
}
