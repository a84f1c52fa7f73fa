// Package svcthread implements the secondary "service thread": long-running,
// non-time-sensitive peer registration and statistics upload, communicating
// with the primary loop only through Messages deposited into a queue the
// loop drains at tick boundaries.
package svcthread

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"ampnode/logx"
	"ampnode/message"
)

// Registry is the pluggable peer-lookup dependency (LocalRegistryStd::lookup).
// The stub below always returns false; no core behavior depends on a real
// implementation being wired in.
type Registry interface {
	Lookup(node string) (addr string, ok bool)
}

// LocalRegistryStd is the no-op Registry the original stubs to always
// return false.
type LocalRegistryStd struct{}

func (LocalRegistryStd) Lookup(node string) (string, bool) { return "", false }

// Stats is the periodic payload reported to AMP_ASL_REG_URL.
type Stats struct {
	Node        string `json:"node"`
	ActiveCalls int    `json:"activeCalls"`
	Uptime      int64  `json:"uptimeSeconds"`
}

// Thread runs registration/stats upload on its own goroutine, outside the
// primary tick loop. Outbound results are reported to the primary loop only
// via Enqueue's target channel, never by calling back into Router/Bridge
// directly.
type Thread struct {
	client   *resty.Client
	regURL   string
	node     string
	registry Registry
	log      *logx.Log

	outbound chan<- message.Message
	statsFn  func() Stats
}

// New constructs a Thread. outbound is the queue the primary loop drains at
// tick boundaries; statsFn reads the latest published snapshot.
func New(regURL, node string, registry Registry, outbound chan<- message.Message, statsFn func() Stats, log *logx.Log) *Thread {
	return &Thread{
		client:   resty.New().SetTimeout(5 * time.Second),
		regURL:   regURL,
		node:     node,
		registry: registry,
		outbound: outbound,
		statsFn:  statsFn,
		log:      log,
	}
}

// Run blocks, uploading Stats every interval until ctx is canceled. All I/O
// here is blocking but isolated to this goroutine, never the primary loop.
func (t *Thread) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.uploadOnce(ctx)
		}
	}
}

func (t *Thread) uploadOnce(ctx context.Context) {
	if t.regURL == "" {
		return
	}
	stats := t.statsFn()
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(stats).
		Post(t.regURL)
	if err != nil {
		t.log.Warn("svcthread registration upload failed", "err", err)
		return
	}
	if resp.IsError() {
		t.log.Warn("svcthread registration upload rejected", "status", resp.StatusCode())
	}
}

// Enqueue deposits a Message for the primary loop to drain at its next
// tick, the only channel through which this thread may influence hot-path
// state.
func (t *Thread) Enqueue(msg message.Message) {
	select {
	case t.outbound <- msg:
	default:
		t.log.Warn("svcthread outbound queue full, dropping message")
	}
}
