/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry provides a tiny, privacy‑respecting, opt‑in event sender
// for anonymous usage metrics and optional crash uploads.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "agentcanvas/internal/log"
	"agentcanvas/internal/version"
)

// Env var names read by FromEnv.
const (
	EnvOptIn     = "ACV_TELEMETRY_OPT_IN"
	EnvURL       = "ACV_TELEMETRY_URL"
	EnvCrashURL  = "ACV_CRASH_UPLOAD_URL"
	EnvTimeoutMs = "ACV_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "ACV_TELEMETRY_DEBUG"
)

// maxPropString caps string property values; longer values are dropped, not cut.
const maxPropString = 64

// Config holds runtime configuration for telemetry and crash uploads.
// All telemetry is strictly opt‑in and disabled by default.
//
// If no URLs are set, events are dropped (no‑ops), even if opt‑in is true.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv(EnvOptIn)),
		EventsURL:    strings.TrimSpace(os.Getenv(EnvURL)),
		CrashURL:     strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv(EnvDebug) != "",
	}
	if ms := strings.TrimSpace(os.Getenv(EnvTimeoutMs)); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Client is a minimal async sender; it drops events silently on errors.
// It never blocks the caller; the queue is bounded.
type Client struct {
	cfg     Config
	log     *slog.Logger
	cli     *http.Client
	session string
	q       chan map[string]any
	once    sync.Once
	closed  chan struct{}
	wg      sync.WaitGroup
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the package client, creating it from env on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// SetDefault replaces the package client (closing the previous one) with a client for cfg.
func SetDefault(cfg Config) *Client {
	c := New(cfg)
	defaultMu.Lock()
	old := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	old.Close()
	return c
}

// New constructs a client. Every client gets a random session id so events
// of one run can be grouped without identifying the user.
func New(cfg Config) *Client {
	c := &Client{
		cfg:     cfg,
		log:     applog.WithComponent("telemetry"),
		cli:     &http.Client{Timeout: cfg.Timeout},
		session: uuid.NewString(),
		q:       make(chan map[string]any, 64),
		closed:  make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether anonymous telemetry is enabled and an endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Session returns the client's session id.
func (c *Client) Session() string { return c.session }

// Event queues a small JSON event if enabled. Only bool, number and short
// string properties are kept. Safe to call from anywhere.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"session": c.session,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		if _, reserved := payload[k]; !reserved && allowedProp(v) {
			payload[k] = v
		}
	}
	c.wg.Add(1)
	select {
	case c.q <- payload:
	default:
		c.wg.Done() // drop if queue full
	}
}

// Command reports one CLI command run with its duration and outcome.
func (c *Client) Command(name string, d time.Duration, err error) {
	c.Event("command", map[string]any{"command": name, "ms": d.Milliseconds(), "ok": err == nil})
}

func allowedProp(v any) bool {
	switch x := v.(type) {
	case bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return true
	case string:
		return len(x) <= maxPropString
	default:
		return false
	}
}

// Flush waits briefly for queued events and crash uploads to be sent.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
	}
}

// Close stops the background goroutine.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.closed) })
}

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case item := <-c.q:
			c.post(c.cfg.EventsURL, "application/json", mustJSON(item), "telemetry event")
			c.wg.Done()
		}
	}
}

func mustJSON(v any) []byte {
	buf, _ := json.Marshal(v)
	return buf
}

func (c *Client) post(url, contentType string, body []byte, what string) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug(what+" send failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug(what+" sent", slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts an already‑serialized crash report to the configured crash URL if opt‑in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	c.wg.Add(1)
	go func(b []byte) {
		defer c.wg.Done()
		c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", b, "crash report")
	}(append([]byte(nil), report...))
}

// Event using the default client.
func Event(name string, props map[string]any) { Default().Event(name, props) }

// UploadCrash using the default client.
func UploadCrash(report []byte) { Default().UploadCrash(report) }

// Enabled reports whether the default client sends events.
func Enabled() bool { return Default().Enabled() }
