// match/service/match_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cs2stats/stats-services/match/store"
	"github.com/cs2stats/stats-services/shared/models"
	"github.com/rs/zerolog"
)

// ErrMatchNotFound is returned by Get for an unknown id.
var ErrMatchNotFound = store.ErrMatchNotFound

// MatchStore is the persistence the service needs; *store.MatchStore implements it.
type MatchStore interface {
	List(ctx context.Context) ([]models.Match, error)
	Get(ctx context.Context, id string) (*models.Match, error)
	Insert(ctx context.Context, match *models.Match) (string, error)
	Delete(ctx context.Context, id string) error
}

// CacheInvalidator drops derived data that depends on the set of matches.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// MatchService encapsulates the business logic around match documents.
type MatchService struct {
	store       MatchStore
	invalidator CacheInvalidator
	logger      zerolog.Logger
	now         func() time.Time
}

// NewMatchService creates a new MatchService. invalidator may be nil.
func NewMatchService(ms MatchStore, invalidator CacheInvalidator, logger zerolog.Logger) *MatchService {
	return &MatchService{
		store:       ms,
		invalidator: invalidator,
		logger:      logger.With().Str("component", "match_service").Logger(),
		now:         time.Now,
	}
}

// ListMatches returns every stored match.
func (s *MatchService) ListMatches(ctx context.Context) ([]models.Match, error) {
	matches, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service failed to list matches: %w", err)
	}
	return matches, nil
}

// GetMatch returns the match with the given id or ErrMatchNotFound.
func (s *MatchService) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	return s.store.Get(ctx, id)
}

// CreateMatch stores match with a server-assigned createdAt and returns the document as persisted.
func (s *MatchService) CreateMatch(ctx context.Context, match *models.Match) (*models.Match, error) {
	id, err := s.insert(ctx, match)
	if err != nil {
		return nil, err
	}

	created, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service failed to read back match %s: %w", id, err)
	}
	return created, nil
}

// ImportMatch stores a parsed match and returns its new id.
func (s *MatchService) ImportMatch(ctx context.Context, match *models.Match) (string, error) {
	return s.insert(ctx, match)
}

// DeleteMatch removes the match unconditionally.
func (s *MatchService) DeleteMatch(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("service failed to delete match: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *MatchService) insert(ctx context.Context, match *models.Match) (string, error) {
	// MongoDB keeps milliseconds; truncating here makes the response equal the stored value.
	match.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	for _, side := range []string{models.TeamA, models.TeamB} {
		if team := match.Teams.Side(side); team.Players == nil {
			team.Players = []models.PlayerLine{}
		}
	}

	id, err := s.store.Insert(ctx, match)
	if err != nil {
		return "", fmt.Errorf("service failed to insert match: %w", err)
	}
	s.logger.Info().Str("match_id", id).Str("name", match.Name).Msg("match stored")
	s.invalidate(ctx)
	return id, nil
}

func (s *MatchService) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate stats cache")
	}
}
