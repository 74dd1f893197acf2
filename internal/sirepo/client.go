// Package sirepo is a client for the Sirepo simulation server's
// bluesky-compatible API: authenticate against a stored simulation,
// mutate its beamline model, run it, and download the result file.
package sirepo

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrAuth indicates the server rejected the simulation credentials
	// or was unreachable during login.
	ErrAuth = errors.New("sirepo: authentication failed")
	// ErrElementNotFound indicates a beamline lookup miss.
	ErrElementNotFound = errors.New("sirepo: element not found")
	// ErrRunFailed indicates the remote simulation run ended in error.
	ErrRunFailed = errors.New("sirepo: simulation run failed")
)

// Client talks to one Sirepo server. A Client holds the session for a
// single authenticated simulation at a time and is not safe for
// concurrent use; the caller serializes access.
type Client struct {
	server string
	secret string
	poll   time.Duration
	http   *http.Client
	log    *logrus.Entry

	simType string
	simID   string
	model   Model
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithSecret sets the bluesky auth shared secret.
func WithSecret(secret string) Option {
	return func(c *Client) { c.secret = secret }
}

// WithPollInterval sets the delay between run-status polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.poll = d }
}

// New creates a client for the given server address, e.g.
// "http://localhost:8000".
func New(server string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		server: server,
		secret: "bluesky",
		poll:   time.Second,
		http:   &http.Client{Timeout: 60 * time.Second, Jar: jar},
		log:    logrus.WithField("component", "sirepo"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Auth logs in against the stored simulation identified by
// (simType, simID) and returns its model. The session cookie and model
// are retained for the subsequent run and download calls.
func (c *Client) Auth(ctx context.Context, simType, simID string) (Model, error) {
	nonce := uuid.NewString()
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%s:%s:%s", nonce, simID, simType, c.secret)))

	req := map[string]any{
		"simulationType": simType,
		"simulationId":   simID,
		"authNonce":      nonce,
		"authHash":       "v1:" + hex.EncodeToString(sum[:]),
	}

	var model Model
	if err := c.postJSON(ctx, "/auth-bluesky-login", req, &model); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if state, _ := model["state"].(string); state == "error" {
		return nil, fmt.Errorf("%w: server reported %v", ErrAuth, model["error"])
	}

	c.simType = simType
	c.simID = simID
	c.model = model
	c.log.WithFields(logrus.Fields{"sim_id": simID, "sim_type": simType}).Debug("authenticated")
	return model, nil
}

// Model returns the model from the last successful Auth.
func (c *Client) Model() Model { return c.model }

// RunSimulation posts the (possibly mutated) model back to the server
// and blocks until the run completes or fails. There is no retry; a
// failed run is returned as-is.
func (c *Client) RunSimulation(ctx context.Context) error {
	if c.model == nil {
		return fmt.Errorf("%w: run before auth", ErrAuth)
	}

	var status struct {
		State       string         `json:"state"`
		Error       string         `json:"error"`
		NextRequest map[string]any `json:"nextRequest"`
	}
	if err := c.postJSON(ctx, "/run-simulation", map[string]any(c.model), &status); err != nil {
		return fmt.Errorf("start simulation: %w", err)
	}

	for status.State == "pending" || status.State == "running" {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.poll):
		}
		if err := c.postJSON(ctx, "/run-status", status.NextRequest, &status); err != nil {
			return fmt.Errorf("poll simulation: %w", err)
		}
	}

	if status.State != "completed" {
		return fmt.Errorf("%w: state=%s error=%s", ErrRunFailed, status.State, status.Error)
	}
	c.log.WithField("sim_id", c.simID).Debug("simulation completed")
	return nil
}

// Datafile downloads the raw result file for the currently selected
// report of the authenticated simulation.
func (c *Client) Datafile(ctx context.Context) ([]byte, error) {
	if c.model == nil {
		return nil, fmt.Errorf("%w: download before auth", ErrAuth)
	}
	report := c.model.Report()
	if report == "" {
		return nil, fmt.Errorf("sirepo: no report selected")
	}

	url := fmt.Sprintf("%s/download-data-file/%s/%s/%s/-1", c.server, c.simType, c.simID, report)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download datafile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download datafile: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// postJSON posts body as JSON to path and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s: unexpected status %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
