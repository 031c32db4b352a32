package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// SyncFailureService reads and reports writes that never reached the store.
type SyncFailureService struct {
	c *Client
}

// List returns recorded failures, newest first.
func (s *SyncFailureService) List(ctx context.Context, opts *SyncFailureListOptions) ([]models.SyncFailure, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Kind != "" {
			params.Set("kind", opts.Kind)
		}
		if !opts.Since.IsZero() {
			params.Set("since", opts.Since.UTC().Format(time.RFC3339))
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}

	var resp struct {
		Failures []models.SyncFailure `json:"failures"`
		HasMore  bool                 `json:"has_more"`
	}
	if err := s.c.get(ctx, "/api/v1/sync-failures", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Failures, resp.HasMore, nil
}

// Record reports one failure.
func (s *SyncFailureService) Record(ctx context.Context, f models.SyncFailure) error {
	return s.c.post(ctx, "/api/v1/sync-failures", f, nil)
}

// RecordFailure adapts Record to the failure recorder used by the sync
// worker. ownerID is implied by the API key.
func (s *SyncFailureService) RecordFailure(ctx context.Context, _ string, f models.SyncFailure) error {
	return s.Record(ctx, f)
}
