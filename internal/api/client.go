// Package api is the REST collaborator client. Every request carries a
// bearer token sourced from the current session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gregjones/httpcache"

	"github.com/refrainhq/refrain-cli/internal/identity"
)

// ErrFetch is the base error for all failed REST calls. Callers match the
// whole family with errors.Is(err, ErrFetch).
var ErrFetch = errors.New("request failed")

// Error is a failed REST call, carrying the operation and HTTP status for
// inline display.
type Error struct {
	Op     string
	Status int
	Cause  error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	default:
		return e.Op + ": request failed"
	}
}

func (e *Error) Unwrap() error { return ErrFetch }

// TokenSource supplies the bearer token for each request. Implemented by
// the session store.
type TokenSource interface {
	Current() (identity.Session, bool)
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the API root, e.g. https://app.refrain.ing
	BaseURL string

	// Timeout bounds each request. Zero uses 30 seconds.
	Timeout time.Duration

	// Tokens supplies the bearer token for each request.
	Tokens TokenSource

	// MaxTries bounds retries of idempotent GETs. Zero uses 3.
	MaxTries uint
}

// Client talks to the Refrain REST API.
type Client struct {
	base     *url.URL
	http     *http.Client
	caching  *http.Client // transcripts honour server cache headers
	maxTries uint
}

// New creates a REST client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api base URL is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("api token source is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxTries := cfg.MaxTries
	if maxTries == 0 {
		maxTries = 3
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: &bearerTransport{tokens: cfg.Tokens, next: http.DefaultTransport},
		},
		caching: &http.Client{
			Timeout: timeout,
			Transport: &bearerTransport{
				tokens: cfg.Tokens,
				next:   httpcache.NewTransport(httpcache.NewMemoryCache()),
			},
		},
		maxTries: maxTries,
	}, nil
}

// GetProfile fetches the caller's profile: the first element of the
// participant list.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var profiles []Profile
	if err := c.getJSON(ctx, c.http, "get profile", "/api/participants/", &profiles); err != nil {
		return nil, err
	}

	if len(profiles) == 0 {
		return nil, &Error{Op: "get profile", Cause: errors.New("no participant record")}
	}

	return &profiles[0], nil
}

// UpdateProfile sends the edited subset of fields and returns the server's
// normalized profile.
func (c *Client) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*Profile, error) {
	var updated Profile
	if err := c.writeJSON(ctx, "save profile", http.MethodPut, "/api/participants/"+url.PathEscape(id), upd, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// InitiateCall requests an outbound call to the participant.
func (c *Client) InitiateCall(ctx context.Context, participantID string) (*InitiationResult, error) {
	body := struct {
		ParticipantID string `json:"participant_id"`
	}{ParticipantID: participantID}

	var result InitiationResult
	if err := c.writeJSON(ctx, "initiate call", http.MethodPost, "/api/calls/initiate", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CallHistory fetches the participant's calls, ordered by start time.
func (c *Client) CallHistory(ctx context.Context, participantID string) ([]CallRecord, error) {
	var calls []CallRecord
	if err := c.getJSON(ctx, c.http, "get call history", "/api/calls/participant/"+url.PathEscape(participantID), &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// Transcripts fetches the transcript list for a call. Responses are cached
// in memory when the server marks them cacheable; transcripts never change
// once written.
func (c *Client) Transcripts(ctx context.Context, callID string) ([]Transcript, error) {
	var transcripts []Transcript
	if err := c.getJSON(ctx, c.caching, "get transcripts", "/api/calls/"+url.PathEscape(callID)+"/transcripts", &transcripts); err != nil {
		return nil, err
	}
	return transcripts, nil
}

// getJSON performs an idempotent GET with bounded retry of transient
// failures. Client errors are permanent and fail immediately.
func (c *Client) getJSON(ctx context.Context, client *http.Client, op, path string, out any) error {
	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+path, nil)
		if err != nil {
			return nil, backoff.Permanent(&Error{Op: op, Cause: err})
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, &Error{Op: op, Cause: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &Error{Op: op, Cause: err}
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &Error{Op: op, Status: resp.StatusCode}
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, backoff.Permanent(&Error{Op: op, Status: resp.StatusCode})
		}

		return data, nil
	}

	data, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: op, Cause: err}
	}

	return nil
}

// writeJSON performs a non-idempotent request exactly once.
func (c *Client) writeJSON(ctx context.Context, op, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return &Error{Op: op, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, bytes.NewReader(payload))
	if err != nil {
		return &Error{Op: op, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return &Error{Op: op, Status: resp.StatusCode}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Cause: err}
	}

	return nil
}
