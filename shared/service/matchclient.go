// shared/service/matchclient.go
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/cs2stats/stats-services/shared/api"
	"github.com/cs2stats/stats-services/shared/models"
)

// MatchServiceClient is a client for the match service.
type MatchServiceClient struct {
	apiClient *api.Client
}

// NewMatchClient creates a new match service client. A nil httpClient uses the default one.
func NewMatchClient(baseURL string, httpClient *http.Client) *MatchServiceClient {
	return &MatchServiceClient{
		apiClient: api.NewClient(baseURL, httpClient),
	}
}

// CreateMatchRequest is the body of POST /api/matches.
type CreateMatchRequest struct {
	Name  string       `json:"name"`
	Map   string       `json:"map"`
	Date  string       `json:"date,omitempty"`
	Teams models.Teams `json:"teams"`
}

// UploadResult is the body of a successful POST /api/upload.
type UploadResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	MatchID string `json:"match_id"`
}

// ListMatches fetches every match.
func (c *MatchServiceClient) ListMatches(ctx context.Context) ([]models.Match, error) {
	var matches []models.Match
	if err := c.apiClient.Get(ctx, "/api/matches", &matches); err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []models.Match{}
	}
	return matches, nil
}

// GetMatch fetches one match. The service answers an unknown id with an empty object,
// which is reported here as api.ErrNotFound.
func (c *MatchServiceClient) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	if err := c.apiClient.Get(ctx, "/api/matches/"+url.PathEscape(id), &match); err != nil {
		return nil, err
	}
	if match.ID == "" {
		return nil, fmt.Errorf("match %s: %w", id, api.ErrNotFound)
	}
	return &match, nil
}

// CreateMatch stores a new match and returns it as persisted.
func (c *MatchServiceClient) CreateMatch(ctx context.Context, req CreateMatchRequest) (*models.Match, error) {
	var created models.Match
	if err := c.apiClient.Post(ctx, "/api/matches", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteMatch removes a match. Unknown ids are not an error.
func (c *MatchServiceClient) DeleteMatch(ctx context.Context, id string) error {
	return c.apiClient.Delete(ctx, "/api/matches/"+url.PathEscape(id))
}

// UploadSpreadsheet imports a match sheet and returns the new match id.
func (c *MatchServiceClient) UploadSpreadsheet(ctx context.Context, filename string, content io.Reader) (string, error) {
	var result UploadResult
	if err := c.apiClient.PostFile(ctx, "/api/upload", "file", filename, content, &result); err != nil {
		return "", err
	}
	return result.MatchID, nil
}
