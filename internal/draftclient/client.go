package draftclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"draftapi/internal/model"
)

// Package draftclient is the thin request wrapper the engine uses to talk
// to the draft store. One method per lifecycle verb; no scheduling or
// conflict logic lives here.

// ErrNotFound is returned by Load when the draft no longer exists. Terminal
// verbs (Delete, Convert) swallow 404s instead: another tab getting there
// first is expected, not exceptional.
var ErrNotFound = errors.New("draft not found")

// APIError carries the server's standardized error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("draft store: %s (%s, http %d)", e.Message, e.Code, e.Status)
}

// API is the operation surface the engine depends on. The concrete Client
// implements it over HTTP; tests substitute mocks.
type API interface {
	Check(ctx context.Context, module, route, entityID string) (*model.Draft, error)
	Save(ctx context.Context, req *model.SaveDraftRequest) (*model.Draft, error)
	List(ctx context.Context, module string) ([]model.Draft, error)
	Load(ctx context.Context, id string) (*model.Draft, error)
	Delete(ctx context.Context, id string) error
	Convert(ctx context.Context, id string) error
	CompleteByEntity(ctx context.Context, module, entityID, route string) error
	VersionCheck(ctx context.Context, id string, clientVersion int64) (*model.VersionCheckResult, error)
	Latest(ctx context.Context) (*model.Draft, error)

	// SendBeacon fires a save with no response handling; the unload backstop.
	SendBeacon(req *model.SaveDraftRequest)
}

// Client talks to the draft store over HTTP. Every call carries the bearer
// credential identifying the owner; the server is the sole enforcer of
// per-owner isolation, so the client never filters by owner itself.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	beacon  *http.Client
}

var _ API = (*Client)(nil)

// New creates a Client for the store at baseURL. httpClient may be nil, in
// which case a default with a sane timeout is used.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    httpClient,
		// The beacon must give up fast: the page hosting it is going away.
		beacon: &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *Client) Check(ctx context.Context, module, route, entityID string) (*model.Draft, error) {
	q := url.Values{}
	q.Set("module", module)
	q.Set("route", route)
	if entityID != "" {
		q.Set("entity_id", entityID)
	}
	var env model.DraftEnvelope
	if err := c.do(ctx, http.MethodGet, "/drafts/check?"+q.Encode(), nil, &env); err != nil {
		return nil, err
	}
	if !env.HasDraft {
		return nil, nil
	}
	return env.Draft, nil
}

func (c *Client) Save(ctx context.Context, req *model.SaveDraftRequest) (*model.Draft, error) {
	method, path := http.MethodPost, "/drafts"
	if req.ID != "" {
		method, path = http.MethodPut, "/drafts/"+req.ID
	}
	var saved model.SavedDraft
	if err := c.do(ctx, method, path, req, &saved); err != nil {
		return nil, err
	}
	return saved.Draft, nil
}

func (c *Client) List(ctx context.Context, module string) ([]model.Draft, error) {
	path := "/drafts"
	if module != "" {
		path += "?module=" + url.QueryEscape(module)
	}
	var drafts []model.Draft
	if err := c.do(ctx, http.MethodGet, path, nil, &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

func (c *Client) Load(ctx context.Context, id string) (*model.Draft, error) {
	var draft model.Draft
	if err := c.do(ctx, http.MethodGet, "/drafts/"+id, nil, &draft); err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &draft, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/drafts/"+id, nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

func (c *Client) Convert(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodPost, "/drafts/"+id+"/convert", nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

func (c *Client) CompleteByEntity(ctx context.Context, module, entityID, route string) error {
	q := url.Values{}
	q.Set("module", module)
	q.Set("entity_id", entityID)
	if route != "" {
		q.Set("route", route)
	}
	err := c.do(ctx, http.MethodPost, "/drafts/complete-by-entity?"+q.Encode(), nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

func (c *Client) VersionCheck(ctx context.Context, id string, clientVersion int64) (*model.VersionCheckResult, error) {
	path := "/drafts/version-check/" + id + "?client_version=" + strconv.FormatInt(clientVersion, 10)
	var res model.VersionCheckResult
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (c *Client) Latest(ctx context.Context) (*model.Draft, error) {
	var env model.DraftEnvelope
	if err := c.do(ctx, http.MethodGet, "/drafts/latest", nil, &env); err != nil {
		return nil, err
	}
	if !env.HasDraft {
		return nil, nil
	}
	return env.Draft, nil
}

// SendBeacon posts the save body once with no retry and discards whatever
// comes back. Used only from the unload path, where there is no opportunity
// to handle a response; "at most once, unconfirmed" is the contract.
func (c *Client) SendBeacon(req *model.SaveDraftRequest) {
	body, err := json.Marshal(req)
	if err != nil {
		return
	}
	httpReq, err := http.NewRequest(http.MethodPost, c.baseURL+"/drafts", bytes.NewReader(body))
	if err != nil {
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.beacon.Do(httpReq)
	if err != nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// do issues a request and decodes the response into out (when non-nil).
// Non-2xx responses are returned as *APIError with the server's envelope.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("draft store request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: resp.Status}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
