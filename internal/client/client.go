package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/redmonkez12/dichoptic/internal/logging"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	// LocalSettings serves settings while signed out. Defaults to memory.
	LocalSettings SettingsStore
}

// Client is a typed API client. Authenticated calls go through the Coordinator.
type Client struct {
	coord    *Coordinator
	session  *Session
	events   *Events
	local    SettingsStore
	validate *validator.Validate
}

func New(cfg Config, session *Session, events *Events, logger *logging.Logger) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	local := cfg.LocalSettings
	if local == nil {
		local = NewMemorySettingsStore()
	}
	return &Client{
		coord:    NewCoordinator(cfg.BaseURL, httpClient, session, events, logger),
		session:  session,
		events:   events,
		local:    local,
		validate: validator.New(),
	}
}

func (c *Client) Session() *Session { return c.session }
func (c *Client) Events() *Events   { return c.events }

func (c *Client) call(ctx context.Context, method, path string, in any, authenticated bool) (*Response, error) {
	req := Request{Method: method, Path: path, Authenticated: authenticated}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		req.Body = body
	}
	return c.coord.Do(ctx, req)
}

func (c *Client) message(ctx context.Context, path string, in any) (string, error) {
	resp, err := c.call(ctx, http.MethodPost, path, in, false)
	if err != nil {
		return "", err
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) Register(ctx context.Context, email, password string) (*User, error) {
	resp, err := c.call(ctx, http.MethodPost, "/auth/register", map[string]string{"email": email, "password": password}, false)
	if err != nil {
		return nil, err
	}
	var out struct {
		User User `json:"user"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	return c.message(ctx, "/auth/verify-email", map[string]string{"token": token})
}

func (c *Client) ResendVerification(ctx context.Context, email string) (string, error) {
	return c.message(ctx, "/auth/resend-verification", map[string]string{"email": email})
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	return c.message(ctx, "/auth/forgot-password", map[string]string{"email": email})
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) (string, error) {
	return c.message(ctx, "/auth/reset-password", map[string]string{"token": token, "password": password})
}

// Login starts a new session with the returned token pair
func (c *Client) Login(ctx context.Context, email, password string) error {
	resp, err := c.call(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, false)
	if err != nil {
		return err
	}

	var tokens Tokens
	if err := resp.Decode(&tokens); err != nil {
		return err
	}
	return c.session.Start(tokens)
}

// Logout revokes the refresh token on the server and always clears the local session
func (c *Client) Logout(ctx context.Context) error {
	if !c.session.Active() {
		return ErrNotLoggedIn
	}

	_, err := c.call(ctx, http.MethodPost, "/auth/logout", nil, true)
	if errors.Is(err, ErrSessionEnded) {
		// the coordinator already cleared the session and announced it
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		// the server no longer knows this session, which is what logout wants
		err = nil
	}

	if clearErr := c.session.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	c.events.Publish(SessionEnded{Reason: ReasonLogout})
	return err
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	resp, err := c.call(ctx, http.MethodGet, "/auth/profile", nil, true)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := resp.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) TopScores(ctx context.Context, game string) ([]Score, error) {
	resp, err := c.call(ctx, http.MethodGet, "/scores/"+url.PathEscape(game), nil, true)
	if err != nil {
		return nil, err
	}
	var out []Score
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitScore returns nil, nil when the server declined to store the score
func (c *Client) SubmitScore(ctx context.Context, s ScoreSubmission) (*Score, error) {
	resp, err := c.call(ctx, http.MethodPost, "/scores", s, true)
	if err != nil {
		return nil, err
	}
	var out *Score
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Settings returns the saved settings, or DefaultSettings if there are none
// Settings returns the saved settings, or the defaults if none were saved.
// Without a session they come from the local store.
func (c *Client) Settings(ctx context.Context) (Settings, error) {
	if !c.session.Active() {
		return c.localSettings()
	}

	resp, err := c.call(ctx, http.MethodGet, "/settings", nil, true)
	if err != nil {
		return Settings{}, err
	}
	var out *Settings
	if err := resp.Decode(&out); err != nil {
		return Settings{}, err
	}
	if out == nil {
		return DefaultSettings(), nil
	}
	return *out, nil
}

// SaveSettings stores s on the server, or locally without a session
func (c *Client) SaveSettings(ctx context.Context, s Settings) (*Settings, error) {
	s.UpdatedAt = nil
	if !c.session.Active() {
		return c.saveLocalSettings(s)
	}

	resp, err := c.call(ctx, http.MethodPut, "/settings", s, true)
	if err != nil {
		return nil, err
	}
	var out Settings
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetSettings saves DefaultSettings wherever SaveSettings would
func (c *Client) ResetSettings(ctx context.Context) (*Settings, error) {
	return c.SaveSettings(ctx, DefaultSettings())
}

func (c *Client) localSettings() (Settings, error) {
	s, err := c.local.Load()
	if err != nil {
		return Settings{}, err
	}
	if s == nil {
		return DefaultSettings(), nil
	}
	return *s, nil
}

func (c *Client) saveLocalSettings(s Settings) (*Settings, error) {
	if err := c.validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && fieldErrs[0].Field() == "EyeDominance" {
			return nil, ErrInvalidDominance
		}
		return nil, ErrInvalidColor
	}

	s.LeftEyeColor = strings.ToUpper(s.LeftEyeColor)
	s.RightEyeColor = strings.ToUpper(s.RightEyeColor)
	now := time.Now().UTC()
	s.UpdatedAt = &now

	if err := c.local.Save(s); err != nil {
		return nil, err
	}
	return &s, nil
}
