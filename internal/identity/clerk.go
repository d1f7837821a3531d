package identity

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

	"golang.org/x/oauth2"

	"github.com/sakif/course-marketplace/internal/apperror"
	"github.com/sakif/course-marketplace/internal/model"
)

var _ Provider = (*Clerk)(nil)

// Clerk is a client for a Clerk-compatible backend API.
//
// AUTHENTICATION:
// The backend API takes the instance secret key as a bearer token. Instead of
// setting the header by hand on each request, the http.Client comes from
// oauth2.NewClient with a static token source; its transport adds
// "Authorization: Bearer <secret>" to everything we send.
type Clerk struct {
	baseURL string
	client  *http.Client
}

func NewClerk(baseURL, secretKey string, timeout time.Duration) *Clerk {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: secretKey, TokenType: "Bearer"})
	client := oauth2.NewClient(context.Background(), ts)
	client.Timeout = timeout
	return &Clerk{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// GetUser fetches GET /v1/users/{id}. The role is read from public metadata.
func (c *Clerk) GetUser(ctx context.Context, id string) (*Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("identity: building request: %w", err)
	}

	var u UserData
	if err := c.do(req, &u); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, apperror.NotFound("user", id)
		}
		return nil, err
	}
	return u.Principal(), nil
}

// UpdateRole patches the user's public metadata. The API merges metadata
// keys, so other metadata set by the frontend survives.
func (c *Clerk) UpdateRole(ctx context.Context, id string, role model.Role) error {
	body, err := json.Marshal(map[string]PublicMetadata{
		"public_metadata": {Role: role},
	})
	if err != nil {
		return fmt.Errorf("identity: encoding metadata: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.userURL(id)+"/metadata", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("identity: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}

func (c *Clerk) userURL(id string) string {
	return c.baseURL + "/v1/users/" + url.PathEscape(id)
}

// APIError is a non-2xx answer from the identity API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity: API returned status %d: %s", e.StatusCode, e.Body)
}

// do sends req and decodes a JSON body into out when out is non-nil.
func (c *Clerk) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity: calling %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("identity: decoding response: %w", err)
	}
	return nil
}
