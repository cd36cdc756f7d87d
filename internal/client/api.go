// Package client holds Mesto session state on top of the HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"mesto/internal/models"
)

// DefaultTimeout bounds every API call unless Options says otherwise.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
}

// Options configures an API.
type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
}

// API issues typed calls against one Mesto server. The session cookie
// lives in the client's jar, so every call after Signin is authenticated.
type API struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewAPI builds an API for baseURL with its own cookie jar.
func NewAPI(baseURL string, opts Options) (*API, error) {
	hc := opts.HTTPClient
	if hc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		hc = &http.Client{Jar: jar}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		timeout: timeout,
	}, nil
}

// Credentials is the signin/signup body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a user and returns the created profile.
func (a *API) Signup(ctx context.Context, creds Credentials) (*models.User, error) {
	var out struct {
		Data models.User `json:"data"`
	}
	if err := a.do(ctx, http.MethodPost, "/signup", creds, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Signin exchanges credentials for the session cookie.
func (a *API) Signin(ctx context.Context, creds Credentials) error {
	return a.do(ctx, http.MethodPost, "/signin", creds, nil)
}

// Signout revokes the session and clears the cookie.
func (a *API) Signout(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/signout", nil, nil)
}

// Me returns the signed-in user.
func (a *API) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := a.do(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes name and about.
func (a *API) UpdateProfile(ctx context.Context, name, about string) (*models.User, error) {
	var user models.User
	body := map[string]string{"name": name, "about": about}
	if err := a.do(ctx, http.MethodPatch, "/users/me", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateAvatar changes the avatar URL.
func (a *API) UpdateAvatar(ctx context.Context, avatar string) (*models.User, error) {
	var user models.User
	body := map[string]string{"avatar": avatar}
	if err := a.do(ctx, http.MethodPatch, "/users/me/avatar", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Cards lists every card, newest first.
func (a *API) Cards(ctx context.Context) ([]models.Card, error) {
	cards := []models.Card{}
	if err := a.do(ctx, http.MethodGet, "/cards", nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// CreateCard posts a new card.
func (a *API) CreateCard(ctx context.Context, name, link string) (*models.Card, error) {
	var card models.Card
	body := map[string]string{"name": name, "link": link}
	if err := a.do(ctx, http.MethodPost, "/cards", body, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// DeleteCard removes a card the caller owns.
func (a *API) DeleteCard(ctx context.Context, id uint) error {
	return a.do(ctx, http.MethodDelete, cardPath(id), nil, nil)
}

// SetLike likes or unlikes a card and returns its new state.
func (a *API) SetLike(ctx context.Context, id uint, liked bool) (*models.Card, error) {
	method := http.MethodDelete
	if liked {
		method = http.MethodPut
	}
	var card models.Card
	if err := a.do(ctx, method, cardPath(id)+"/likes", nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func cardPath(id uint) string {
	return "/cards/" + strconv.FormatUint(uint64(id), 10)
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload models.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&payload) == nil && payload.Message != "" {
			apiErr.Message = payload.Message
			apiErr.Code = payload.Code
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
