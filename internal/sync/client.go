// Package sync moves the working set between the client and the REST API.
// It is stateless: callers hand it snapshots and get snapshots back, and no
// method returns an error. Failures are logged and reported as false or nil.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/duaragha/cat-tracker-sub000/internal/casing"
	"github.com/duaragha/cat-tracker-sub000/internal/domain"
)

// Client talks to the cat-tracker API.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: client, logger: logger}
}

// CheckConnection probes GET /api/health. Any failure means offline.
func (c *Client) CheckConnection(ctx context.Context) bool {
	resp, err := c.http.R().SetContext(ctx).Get("/api/health")
	if err != nil {
		c.logger.Debug("health check failed", zap.Error(err))
		return false
	}
	if !resp.IsSuccess() {
		c.logger.Debug("health check failed", zap.Int("status", resp.StatusCode()))
		return false
	}
	var body struct {
		Status string `json:"status"`
	}
	return json.Unmarshal(resp.Body(), &body) == nil && body.Status == "healthy"
}

// PushToBackend writes the profile (POST when the remote has none or another
// one, PUT when it already holds ours) and then every kind's entries and
// pending deletes through POST /api/sync/{kind}. A rejected kind does not stop
// the others. Returns false when anything failed.
func (c *Client) PushToBackend(ctx context.Context, snap *domain.Snapshot) bool {
	if snap == nil || snap.CatProfile == nil {
		if !snap.IsEmpty() {
			// entries need an owning profile on the server
			c.logger.Warn("push: entries without a profile, nothing sent")
			return false
		}
		return true
	}
	p := snap.CatProfile

	remote, ok := c.fetchProfile(ctx)
	if !ok {
		return false
	}
	body, err := casing.MarshalSnake(p)
	if err != nil {
		c.logger.Warn("push: encode profile", zap.Error(err))
		return false
	}

	req := c.http.R().SetContext(ctx).SetBody(body)
	var resp *resty.Response
	if remote != nil && remote.ID == p.ID {
		resp, err = req.SetPathParam("id", p.ID).Put("/api/profile/{id}")
	} else {
		resp, err = req.Post("/api/profile")
	}
	if !c.ok("push profile", resp, err) {
		return false
	}

	ok = true
	for _, kind := range domain.AllKinds {
		if !c.pushKind(ctx, kind, snap) {
			ok = false
		}
	}
	return ok
}

type batch struct {
	Upserts []json.RawMessage `json:"upserts"`
	Deletes []string          `json:"deletes"`
}

func (c *Client) pushKind(ctx context.Context, kind domain.Kind, snap *domain.Snapshot) bool {
	entries := snap.Entries(kind)
	deletes := snap.PendingDeletes[kind]
	if len(entries) == 0 && len(deletes) == 0 {
		return true
	}

	b := batch{Upserts: make([]json.RawMessage, 0, len(entries)), Deletes: deletes}
	if b.Deletes == nil {
		b.Deletes = []string{}
	}
	for _, e := range entries {
		raw, err := casing.MarshalSnake(e)
		if err != nil {
			c.logger.Warn("push: encode entry", zap.String("kind", string(kind)), zap.Error(err))
			return false
		}
		b.Upserts = append(b.Upserts, raw)
	}

	resp, err := c.http.R().SetContext(ctx).
		SetPathParam("kind", string(kind)).
		SetBody(b).
		Post("/api/sync/{kind}")
	return c.ok("push "+string(kind), resp, err)
}

// PullFromBackend returns the remote working set, or nil when the API is
// unreachable, answers with an error, or holds no profile.
func (c *Client) PullFromBackend(ctx context.Context) *domain.Snapshot {
	p, ok := c.fetchProfile(ctx)
	if !ok || p == nil {
		return nil
	}

	snap := domain.NewSnapshot()
	snap.CatProfile = p
	for _, kind := range domain.AllKinds {
		list, ok := c.fetchEntries(ctx, kind, p.ID)
		if !ok {
			return nil
		}
		if err := snap.SetEntries(kind, list); err != nil {
			c.logger.Warn("pull: set entries", zap.String("kind", string(kind)), zap.Error(err))
			return nil
		}
	}
	snap.Normalize()
	return snap
}

// fetchProfile returns (nil, true) when the remote has no profile.
func (c *Client) fetchProfile(ctx context.Context) (*domain.CatProfile, bool) {
	resp, err := c.http.R().SetContext(ctx).Get("/api/profile")
	if !c.ok("get profile", resp, err) {
		return nil, false
	}
	raw := strings.TrimSpace(string(resp.Body()))
	if raw == "" || raw == "null" {
		return nil, true
	}
	var p domain.CatProfile
	if err := casing.UnmarshalSnake([]byte(raw), &p); err != nil {
		c.logger.Warn("get profile: decode", zap.Error(err))
		return nil, false
	}
	return &p, true
}

func (c *Client) fetchEntries(ctx context.Context, kind domain.Kind, catID string) ([]domain.Entry, bool) {
	resp, err := c.http.R().SetContext(ctx).
		SetPathParams(map[string]string{"kind": string(kind), "catId": catID}).
		Get("/api/{kind}/{catId}")
	if !c.ok("get "+string(kind), resp, err) {
		return nil, false
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		c.logger.Warn("decode entries", zap.String("kind", string(kind)), zap.Error(err))
		return nil, false
	}
	out := make([]domain.Entry, 0, len(rows))
	for _, row := range rows {
		e, _ := domain.NewEntry(kind)
		if err := casing.UnmarshalSnake(row, e); err != nil {
			c.logger.Warn("decode entry", zap.String("kind", string(kind)), zap.Error(err))
			return nil, false
		}
		e.Normalize()
		out = append(out, e)
	}
	return out, true
}

func (c *Client) ok(op string, resp *resty.Response, err error) bool {
	if err != nil {
		c.logger.Warn(op+" failed", zap.Error(err))
		return false
	}
	if !resp.IsSuccess() {
		c.logger.Warn(op+" failed", zap.Int("status", resp.StatusCode()),
			zap.String("body", truncate(string(resp.Body()), 200)))
		return false
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
