package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ImportService runs server-side GEDCOM imports.
type ImportService struct {
	c *Client
}

// GEDCOM uploads a GEDCOM file and waits for the server to store it.
func (s *ImportService) GEDCOM(ctx context.Context, text string, opts *ImportOptions) (*ImportResult, error) {
	params := url.Values{}
	if opts != nil {
		if opts.MaxGenerations != nil {
			params.Set("max_generations", strconv.Itoa(*opts.MaxGenerations))
		}
		if opts.TreeName != "" {
			params.Set("tree_name", opts.TreeName)
		}
		if opts.Anchor != "" {
			params.Set("anchor", opts.Anchor)
		}
	}

	path := "/api/v1/import/gedcom"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out ImportResult
	if err := s.c.doRaw(ctx, http.MethodPost, path, "text/plain; charset=utf-8", []byte(text), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
