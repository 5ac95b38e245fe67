// Package cloudshare is a typed client for the CloudShare backend. Every call
// goes through the authenticated request pipeline, so failures are already
// classified and surfaced by the time a method returns.
package cloudshare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloudshare/api"
	"cloudshare/models"
	"cloudshare/services/sessions"
	"cloudshare/utils"
)

const (
	// DefaultAPIPrefix is where auth, payment and profile endpoints live.
	DefaultAPIPrefix = "/api"
	// DefaultUploadTimeout bounds a whole multipart upload.
	DefaultUploadTimeout = 60 * time.Second
	// MaxFileSize is the largest file the backend accepts.
	MaxFileSize int64 = 100 << 20
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrFileTooLarge        = errors.New("file exceeds the 100 MB limit")
	ErrNoFiles             = errors.New("no files selected")
	ErrMissingToken        = errors.New("login response carried no token")
	ErrIDRequired          = errors.New("file id is required")
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	APIPrefix     string
	WebURL        string
	UploadTimeout time.Duration
}

// Client talks to the CloudShare backend.
type Client struct {
	pipeline      *api.Pipeline
	baseURL       string
	apiURL        string
	webURL        string
	uploadTimeout time.Duration
}

// NewClient creates a client that sends every request through pipeline.
func NewClient(pipeline *api.Pipeline, opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	prefix := opts.APIPrefix
	if prefix == "" {
		prefix = DefaultAPIPrefix
	}
	web := strings.TrimRight(opts.WebURL, "/")
	if web == "" {
		web = base
	}
	timeout := opts.UploadTimeout
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	return &Client{
		pipeline:      pipeline,
		baseURL:       base,
		apiURL:        utils.JoinURL(base, prefix),
		webURL:        web,
		uploadTimeout: timeout,
	}
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) rootEndpoint(segments ...string) string {
	return utils.JoinURL(c.baseURL, segments...)
}

func (c *Client) apiEndpoint(segments ...string) string {
	return utils.JoinURL(c.apiURL, segments...)
}

// doJSON sends body as JSON and decodes the response into out.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	req, err := api.NewJSONRequest(ctx, method, url, body)
	if err != nil {
		return err
	}
	return c.pipeline.DoJSON(req, out)
}

// doStatus sends body and decodes the {status, message, data} envelope.
func (c *Client) doStatus(ctx context.Context, method, url string, body any) (*models.StatusResponse, error) {
	var resp models.StatusResponse
	if err := c.doJSON(ctx, method, url, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// doText sends a request whose success body is a plain string.
func (c *Client) doText(ctx context.Context, method, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.pipeline.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return strings.Trim(strings.TrimSpace(string(data)), `"`), nil
}

// Verifier confirms a stored token against /user/profile. The pipeline still
// clears the session on a 401; the verdict is reported as
// sessions.ErrTokenRejected so the store settles unauthenticated.
func (c *Client) Verifier() sessions.Verifier {
	return sessions.VerifierFunc(func(ctx context.Context) (models.Identity, error) {
		profile, err := c.Profile(api.Claim(ctx, http.StatusUnauthorized))
		if err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				return nil, fmt.Errorf("%w: %w", sessions.ErrTokenRejected, err)
			}
			return nil, err
		}
		return profile.Identity(), nil
	})
}

func requireID(id string) (string, error) {
	id = utils.FileIDFromLink(id)
	if id == "" {
		return "", ErrIDRequired
	}
	return id, nil
}
