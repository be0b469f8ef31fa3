package campus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/property360-2/richwell-potal-sub001/internal/config"
	"github.com/property360-2/richwell-potal-sub001/internal/grading"
	"github.com/property360-2/richwell-potal-sub001/internal/logger"

	"github.com/rs/zerolog"
)

// Client reads teaching assignments and term windows from the campus
// system. It implements grading.Directory; everything behind these calls
// (rosters, enrollment, subject metadata) is owned by that system.
type Client struct {
	cfg         *config.Config
	httpClient  *http.Client
	authManager *AuthManager
	log         zerolog.Logger
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Campus.Timeout,
		},
		authManager: NewAuthManager(cfg),
		log:         logger.Get(),
	}
}

type assignmentResponse struct {
	Assigned bool `json:"assigned"`
}

func (c *Client) IsAssigned(ctx context.Context, professorID, subjectOfferingID string) (bool, error) {
	params := url.Values{}
	params.Add("professor_id", professorID)
	params.Add("subject_offering_id", subjectOfferingID)

	var resp assignmentResponse
	if err := c.get(ctx, c.cfg.Campus.RosterEndpoint, params, &resp); err != nil {
		return false, fmt.Errorf("roster check failed: %w", err)
	}

	c.log.Debug().
		Str("professor_id", professorID).
		Str("subject_offering_id", subjectOfferingID).
		Bool("assigned", resp.Assigned).
		Msg("Roster assignment checked")

	return resp.Assigned, nil
}

type termWindowResponse struct {
	Open                bool `json:"open"`
	RequiresHeadSignoff bool `json:"requires_head_signoff"`
}

func (c *Client) TermWindow(ctx context.Context, subjectOfferingID string) (grading.TermWindow, error) {
	params := url.Values{}
	params.Add("subject_offering_id", subjectOfferingID)

	var resp termWindowResponse
	if err := c.get(ctx, c.cfg.Campus.TermWindowEndpoint, params, &resp); err != nil {
		return grading.TermWindow{}, fmt.Errorf("term window query failed: %w", err)
	}

	return grading.TermWindow{
		Open:                resp.Open,
		RequiresHeadSignoff: resp.RequiresHeadSignoff,
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	token, err := c.authManager.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get auth token: %w", err)
	}

	fullURL := c.cfg.Campus.BaseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("campus API returned status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
