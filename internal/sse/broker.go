// Package sse pushes live-reload notifications to open blog pages.
//
// Page changes reported by the index watcher are batched: every change that
// arrives within the settle window is merged into a single site.reload event
// listing the affected pages, so saving a post in an editor reloads the
// browser once.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"
	"time"
)

// EventSiteReload is the only event type sent to clients.
const EventSiteReload = "site.reload"

// Change kinds, matching the index watcher's event kinds.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

const (
	DefaultSettle    = time.Second
	DefaultHeartbeat = 30 * time.Second
)

// PageChange describes one changed document in a reload batch.
type PageChange struct {
	Path   string `json:"path"`
	URL    string `json:"url,omitempty"`
	Change string `json:"change"`
}

// Reload is the payload of a site.reload event.
type Reload struct {
	Pages []PageChange `json:"pages"`
}

// Option configures a Broker.
type Option func(*Broker)

// WithSettle sets how long the broker collects page changes before it
// broadcasts them as one reload.
func WithSettle(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.settle = d
		}
	}
}

// WithHeartbeat sets the interval of the keep-alive comments written to idle
// streams. Zero or negative disables them.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) {
		b.heartbeat = d
	}
}

// WithPageURL sets the function that maps a content-relative document path to
// the URL it is served at. Without it PageChange.URL is left empty.
func WithPageURL(fn func(path string) string) Option {
	return func(b *Broker) {
		b.pageURL = fn
	}
}

type pageChange struct {
	kind string
	path string
}

// Broker manages SSE client connections and broadcasts reload batches.
//
// A single goroutine owns the client set and the pending batch. Public
// methods talk to it over channels.
type Broker struct {
	settle    time.Duration
	heartbeat time.Duration
	pageURL   func(string) string

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	changeCh      chan pageChange
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker and starts its loop. Close stops it.
func NewBroker(opts ...Option) *Broker {
	b := &Broker{
		settle:        DefaultSettle,
		heartbeat:     DefaultHeartbeat,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		changeCh:      make(chan pageChange, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	pending := make(map[string]string)

	var (
		timer   *time.Timer
		flushCh <-chan time.Time
	)

	flush := func() {
		flushCh = nil
		if len(pending) == 0 {
			return
		}
		msg, err := b.encode(pending)
		clear(pending)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// Slow client; it will pick up the next batch.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			if timer != nil {
				timer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case c := <-b.changeCh:
			mergeChange(pending, c)
			if flushCh == nil {
				timer = time.NewTimer(b.settle)
				flushCh = timer.C
			}

		case <-flushCh:
			flush()

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// mergeChange folds c into the pending batch. A page created and deleted
// inside one batch drops out; one deleted and recreated counts as updated.
func mergeChange(pending map[string]string, c pageChange) {
	prev, seen := pending[c.path]
	switch {
	case !seen:
		pending[c.path] = c.kind
	case prev == ChangeCreated && c.kind == ChangeDeleted:
		delete(pending, c.path)
	case prev == ChangeCreated:
	case prev == ChangeDeleted && c.kind == ChangeCreated:
		pending[c.path] = ChangeUpdated
	default:
		pending[c.path] = c.kind
	}
}

func (b *Broker) encode(pending map[string]string) ([]byte, error) {
	reload := Reload{Pages: make([]PageChange, 0, len(pending))}
	for path, kind := range pending {
		pc := PageChange{Path: path, Change: kind}
		if b.pageURL != nil {
			pc.URL = b.pageURL(path)
		}
		reload.Pages = append(reload.Pages, pc)
	}
	sort.Slice(reload.Pages, func(i, j int) bool {
		return reload.Pages[i].Path < reload.Pages[j].Path
	})

	payload, err := json.Marshal(reload)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", EventSiteReload, payload), nil
}

// Close stops the loop and closes all client channels. Pending changes are
// discarded.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 16)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// PublishPageEvent records a page change for the next reload batch. Its
// signature matches index.EventCallback. Unknown kinds are ignored.
func (b *Broker) PublishPageEvent(kind, path string) {
	switch kind {
	case ChangeCreated, ChangeUpdated, ChangeDeleted:
	default:
		return
	}
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- pageChange{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	// Ask the browser to reconnect quickly after a server restart.
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", b.settle.Milliseconds())
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var beat <-chan time.Time
	if b.heartbeat > 0 {
		ticker := time.NewTicker(b.heartbeat)
		defer ticker.Stop()
		beat = ticker.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-beat:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
