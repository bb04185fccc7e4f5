// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/olegiv/catadmin/internal/logging"
	"github.com/olegiv/catadmin/internal/version"
)

// Request headers sent with every delivery.
const (
	HeaderEvent     = "X-Webhook-Event"
	HeaderDelivery  = "X-Webhook-Delivery"
	HeaderSignature = "X-Webhook-Signature"
)

const maxResponseBody = 64 * 1024

// ErrStopped is returned by Dispatch after Stop.
var ErrStopped = errors.New("webhook notifier stopped")

// Config configures a Notifier.
type Config struct {
	URLs   []string
	Secret string

	Workers     int
	QueueSize   int
	MaxRetries  uint64
	BaseBackoff time.Duration
	Timeout     time.Duration
	// AllowPrivate permits loopback and private subscribers (development and tests).
	AllowPrivate bool
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 100
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

type delivery struct {
	id    string
	url   string
	event string
	body  []byte
}

// Notifier delivers events to the configured subscribers from a pool of
// background workers.
type Notifier struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger

	mu      sync.RWMutex
	queue   chan delivery
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewNotifier validates the subscriber URLs and creates a Notifier. Call
// Start before dispatching.
func NewNotifier(ctx context.Context, cfg Config, logger *slog.Logger) (*Notifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()
	for _, u := range cfg.URLs {
		if err := ValidateURL(ctx, u, cfg.AllowPrivate); err != nil {
			return nil, err
		}
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConnsPerHost: cfg.Workers,
	}
	if !cfg.AllowPrivate {
		transport.DialContext = safeDialContext(dialer)
	}

	return &Notifier{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
		queue:  make(chan delivery, cfg.QueueSize),
	}, nil
}

// Start launches the delivery workers.
func (n *Notifier) Start(ctx context.Context) {
	ctx, n.cancel = context.WithCancel(ctx)
	for range n.cfg.Workers {
		n.wg.Add(1)
		go n.worker(ctx)
	}
	n.logger.Info("webhook notifier started", "subscribers", len(n.cfg.URLs), "workers", n.cfg.Workers)
}

// Stop stops accepting events and waits for queued deliveries to finish.
// Deliveries still retrying when ctx ends are abandoned.
func (n *Notifier) Stop(ctx context.Context) {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return
	}
	n.stopped = true
	close(n.queue)
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if n.cancel != nil {
			n.cancel()
		}
		<-done
	}
	if n.cancel != nil {
		n.cancel()
	}
	n.logger.Info("webhook notifier stopped")
}

// Dispatch queues event for every subscriber. It never blocks: when the
// queue is full the delivery is dropped and logged.
func (n *Notifier) Dispatch(_ context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.stopped {
		return ErrStopped
	}
	for _, u := range n.cfg.URLs {
		d := delivery{id: uuid.NewString(), url: u, event: event.Type, body: body}
		select {
		case n.queue <- d:
		default:
			n.logger.Warn("webhook queue full, dropping delivery",
				"category", logging.EventCategoryWebhook, "event", event.Type, "url", u)
		}
	}
	return nil
}

func (n *Notifier) worker(ctx context.Context) {
	defer n.wg.Done()
	for d := range n.queue {
		if err := n.deliver(ctx, d); err != nil {
			n.logger.Error("webhook delivery failed",
				"category", logging.EventCategoryWebhook,
				"event", d.event, "delivery_id", d.id, "url", d.url, "error", err)
			continue
		}
		n.logger.Debug("webhook delivered", "event", d.event, "delivery_id", d.id, "url", d.url)
	}
}

// deliver posts d, retrying network errors, timeouts and 5xx responses with
// exponential backoff.
func (n *Notifier) deliver(ctx context.Context, d delivery) error {
	backoff := retry.WithMaxRetries(n.cfg.MaxRetries, retry.NewExponential(n.cfg.BaseBackoff))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		status, err := n.post(ctx, d)
		if err != nil {
			n.logger.Debug("webhook attempt failed", "delivery_id", d.id, "attempt", attempt, "error", err)
			if errors.Is(err, ErrBlockedAddress) {
				return err
			}
			return retry.RetryableError(err)
		}
		switch {
		case status >= 200 && status < 300:
			return nil
		case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500:
			return retry.RetryableError(fmt.Errorf("subscriber responded %d", status))
		default:
			return fmt.Errorf("subscriber responded %d", status)
		}
	})
}

func (n *Notifier) post(ctx context.Context, d delivery) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(d.body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "catadmin-webhook/"+version.Version)
	req.Header.Set(HeaderEvent, d.event)
	req.Header.Set(HeaderDelivery, d.id)
	if n.cfg.Secret != "" {
		req.Header.Set(HeaderSignature, Sign(d.body, n.cfg.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
	return resp.StatusCode, nil
}

// Sign returns the signature header value for payload: "sha256=" followed
// by the hex HMAC-SHA256 of payload keyed with secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches payload under secret.
func Verify(payload []byte, signature, secret string) bool {
	got, ok := strings.CutPrefix(signature, "sha256=")
	if !ok {
		return false
	}
	gotMAC, err := hex.DecodeString(got)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(gotMAC, mac.Sum(nil))
}
