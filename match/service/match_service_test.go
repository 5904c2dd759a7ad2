package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cs2stats/stats-services/shared/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	matches map[string]models.Match
	seq     int
	failOn  string
}

func newMemStore() *memStore {
	return &memStore{matches: make(map[string]models.Match)}
}

func (m *memStore) List(ctx context.Context) ([]models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Match, 0, len(m.matches))
	for _, match := range m.matches {
		out = append(out, match)
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, id string) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return &match, nil
}

func (m *memStore) Insert(ctx context.Context, match *models.Match) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "insert" {
		return "", errors.New("write failed")
	}
	m.seq++
	match.ID = fmt.Sprintf("id-%d", m.seq)
	m.matches[match.ID] = *match
	return match.ID, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.matches, id)
	return nil
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.calls++
	return c.err
}

func TestCreateMatchForcesCreatedAt(t *testing.T) {
	inv := &countingInvalidator{}
	svc := NewMatchService(newMemStore(), inv, zerolog.Nop())
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.FixedZone("CST", 8*3600))
	svc.now = func() time.Time { return fixed }

	clientTime := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	created, err := svc.CreateMatch(context.Background(), &models.Match{Name: "Major Final", CreatedAt: clientTime})
	require.NoError(t, err)

	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, fixed.UTC().Truncate(time.Millisecond), created.CreatedAt)
	assert.NotNil(t, created.Teams.A.Players)
	assert.NotNil(t, created.Teams.B.Players)
	assert.Equal(t, 1, inv.calls)
}

func TestInvalidationFailureDoesNotFailMutation(t *testing.T) {
	inv := &countingInvalidator{err: errors.New("redis down")}
	svc := NewMatchService(newMemStore(), inv, zerolog.Nop())

	id, err := svc.ImportMatch(context.Background(), &models.Match{Name: "upload"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteMatch(context.Background(), id))
	assert.Equal(t, 2, inv.calls)
}

func TestInsertFailureIsWrapped(t *testing.T) {
	ms := newMemStore()
	ms.failOn = "insert"
	inv := &countingInvalidator{}
	svc := NewMatchService(ms, inv, zerolog.Nop())

	_, err := svc.CreateMatch(context.Background(), &models.Match{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write failed")
	assert.Zero(t, inv.calls)
}

func TestDeleteThenGetIsNotFound(t *testing.T) {
	svc := NewMatchService(newMemStore(), nil, zerolog.Nop())
	ctx := context.Background()

	created, err := svc.CreateMatch(ctx, &models.Match{Name: "gone"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteMatch(ctx, created.ID))

	_, err = svc.GetMatch(ctx, created.ID)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}
