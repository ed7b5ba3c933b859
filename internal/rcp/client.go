// Package rcp implements the Spinel transaction manager: the single owner of
// the serial link, converting typed property operations into wire frames and
// correlating responses back to their callers by transaction id.
package rcp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/openlowpan/rcpd/internal/events"
	"github.com/openlowpan/rcpd/internal/spinel"
	"github.com/openlowpan/rcpd/internal/transport"
)

// State is the connection state of the client.
type State int32

const (
	StateDisconnected State = iota
	StateResetting
	StateReady
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateResetting:
		return "resetting"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var (
	// ErrTimeout is returned when no matching response arrives within the
	// request timeout. The transaction id returns to the pool.
	ErrTimeout = errors.New("rcp: request timed out")

	// ErrReset is delivered to every call pending when the connection resets,
	// whether the reset was requested locally or announced by the device.
	ErrReset = errors.New("rcp: connection reset")

	// ErrClosed is returned once the client has shut down.
	ErrClosed = errors.New("rcp: client closed")

	// ErrReadOnly rejects writes to read-only properties before any I/O.
	ErrReadOnly = errors.New("rcp: property is read-only")
)

// StatusError surfaces a failure the firmware reported through LAST_STATUS.
// The client decodes it but attaches no interpretation.
type StatusError struct {
	Status spinel.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rcp: firmware reported %s", e.Status)
}

// Direction tags traced frames.
type Direction int

const (
	DirOut Direction = iota
	DirIn
)

func (d Direction) String() string {
	if d == DirOut {
		return "out"
	}
	return "in"
}

// Options configures a Client.
type Options struct {
	// RequestTimeout bounds each call independently of transport activity.
	RequestTimeout time.Duration

	// ResetTimeout bounds the wait for the firmware's post-reset
	// LAST_STATUS announcement.
	ResetTimeout time.Duration

	// Sink receives unsolicited notifications. Nil drops them.
	Sink events.Sink

	// OnState is called after every connection state change.
	OnState func(State)

	// Trace observes every frame written or delivered, for the wire trace.
	Trace func(dir Direction, f spinel.Frame)

	Logger zerolog.Logger
}

const (
	defaultRequestTimeout = 2 * time.Second
	defaultResetTimeout   = 5 * time.Second
)

type result struct {
	frame spinel.Frame
	err   error
}

// pendingCall is one outstanding request. It lives from send to matching
// response, timeout, or reset, and is keyed by its transaction id.
type pendingCall struct {
	tid    uint8
	expect spinel.Command
	done   chan result // buffered 1; exactly one writer wins
}

// Stats is a point-in-time snapshot of client counters for diagnostics.
type Stats struct {
	State        string `json:"state"`
	Pending      int    `json:"pending"`
	Requests     uint64 `json:"requests"`
	Timeouts     uint64 `json:"timeouts"`
	Unsolicited  uint64 `json:"unsolicited"`
	Discarded    uint64 `json:"discarded"`
	DecodeErrors uint64 `json:"decodeErrors"`
	Resets       uint64 `json:"resets"`
}

// Client is the transaction manager. All mutation of the pending-call table
// happens under mu; frames go out in issue order under writeMu; up to 16
// requests may be outstanding at once, bounded by the 4-bit id space.
type Client struct {
	tr   transport.Transport
	opts Options
	log  zerolog.Logger

	// tids is the bounded free list of transaction ids. Freed ids go to the
	// tail, so a just-freed id is not reused until the other fifteen have
	// cycled through; that keeps a late response for a timed-out call from
	// landing on a fresh call with the same id.
	tids chan uint8

	writeMu sync.Mutex

	mu          sync.Mutex
	pending     map[uint8]*pendingCall
	state       State
	resetNotice chan spinel.Status

	done      chan struct{}
	closeOnce sync.Once

	requests     atomic.Uint64
	timeouts     atomic.Uint64
	unsolicited  atomic.Uint64
	discarded    atomic.Uint64
	decodeErrors atomic.Uint64
	resets       atomic.Uint64
}

// New creates a client over tr and starts its read loop. The client starts
// Disconnected; Reset establishes readiness.
func New(tr transport.Transport, opts Options) *Client {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.ResetTimeout <= 0 {
		opts.ResetTimeout = defaultResetTimeout
	}

	c := &Client{
		tr:      tr,
		opts:    opts,
		log:     opts.Logger,
		tids:    make(chan uint8, spinel.NumTIDs),
		pending: make(map[uint8]*pendingCall),
		state:   StateDisconnected,
		done:    make(chan struct{}),
	}
	for tid := uint8(0); tid <= spinel.MaxTID; tid++ {
		c.tids <- tid
	}

	go c.readLoop()
	return c
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns a snapshot of the client's counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	state := c.state
	pending := len(c.pending)
	c.mu.Unlock()
	return Stats{
		State:        state.String(),
		Pending:      pending,
		Requests:     c.requests.Load(),
		Timeouts:     c.timeouts.Load(),
		Unsolicited:  c.unsolicited.Load(),
		Discarded:    c.discarded.Load(),
		DecodeErrors: c.decodeErrors.Load(),
		Resets:       c.resets.Load(),
	}
}

// Close shuts the client down, failing every pending call with ErrClosed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.failAllPending(ErrClosed)
		c.setState(StateDisconnected)
		c.tr.Close()
	})
	return nil
}

// GetProperty reads prop and decodes the response per its declared wire type.
func (c *Client) GetProperty(ctx context.Context, prop spinel.Property) (any, error) {
	resp, err := c.roundTrip(ctx, func(tid uint8) (spinel.Frame, error) {
		return spinel.NewPropertyGetFrame(tid, prop)
	})
	if err != nil {
		return nil, err
	}
	if err := checkPropResponse(resp, prop); err != nil {
		return nil, err
	}
	val, _, err := spinel.Decode(prop.Type(), resp.Value())
	if err != nil {
		return nil, fmt.Errorf("rcp: decode %s response: %w", prop, err)
	}
	return val, nil
}

// SetProperty encodes value per prop's declared wire type and writes it.
// Read-only properties are rejected locally, before any I/O.
func (c *Client) SetProperty(ctx context.Context, prop spinel.Property, value any) error {
	if prop.ReadOnly() {
		return fmt.Errorf("%w: %s", ErrReadOnly, prop)
	}
	enc, err := spinel.Encode(prop.Type(), value)
	if err != nil {
		return err
	}
	resp, err := c.roundTrip(ctx, func(tid uint8) (spinel.Frame, error) {
		return spinel.NewPropertySetFrame(tid, prop, enc)
	})
	if err != nil {
		return err
	}
	return checkPropResponse(resp, prop)
}

// InsertProperty inserts raw value bytes into a list-valued property.
func (c *Client) InsertProperty(ctx context.Context, prop spinel.Property, value []byte) error {
	resp, err := c.roundTrip(ctx, func(tid uint8) (spinel.Frame, error) {
		return spinel.NewPropertyInsertFrame(tid, prop, value)
	})
	if err != nil {
		return err
	}
	return checkPropResponse(resp, prop)
}

// RemoveProperty removes raw value bytes from a list-valued property.
func (c *Client) RemoveProperty(ctx context.Context, prop spinel.Property, value []byte) error {
	resp, err := c.roundTrip(ctx, func(tid uint8) (spinel.Frame, error) {
		return spinel.NewPropertyRemoveFrame(tid, prop, value)
	})
	if err != nil {
		return err
	}
	return checkPropResponse(resp, prop)
}

// Noop round-trips a NOOP through the firmware, proving the link is alive.
func (c *Client) Noop(ctx context.Context) error {
	resp, err := c.roundTrip(ctx, spinel.NewNoopFrame)
	if err != nil {
		return err
	}
	if prop, ok := resp.Property(); ok && prop == spinel.PropLastStatus && len(resp.Value()) > 0 {
		if st := spinel.Status(resp.Value()[0]); st != spinel.StatusOK {
			return &StatusError{Status: st}
		}
	}
	return nil
}

// Reset restarts the firmware. Every pending call fails with ErrReset and
// its transaction id is freed; the connection is Ready again once the
// firmware announces its reset cause (or the reset timeout passes).
func (c *Client) Reset(ctx context.Context) error {
	c.resets.Add(1)
	c.setState(StateResetting)
	c.failAllPending(ErrReset)

	notice := make(chan spinel.Status, 1)
	c.mu.Lock()
	c.resetNotice = notice
	c.mu.Unlock()

	// The reset request conventionally rides TID 0 and is answered by an
	// unsolicited LAST_STATUS carrying the reboot cause, not by a frame
	// matched to this TID.
	f, err := spinel.NewResetFrame(0)
	if err != nil {
		return err
	}
	if err := c.writeFrame(f); err != nil {
		c.setState(StateDisconnected)
		return err
	}

	timer := time.NewTimer(c.opts.ResetTimeout)
	defer timer.Stop()
	select {
	case cause := <-notice:
		c.log.Info().Stringer("cause", cause).Msg("firmware reset complete")
		c.setState(StateReady)
		return nil
	case <-timer.C:
		c.setState(StateDisconnected)
		return fmt.Errorf("%w: no reset announcement", ErrTimeout)
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// roundTrip allocates a transaction id, sends the built frame, and waits for
// the paired response, the per-call timeout, or cancellation. The caller
// blocks only on its own call; other callers proceed independently.
func (c *Client) roundTrip(ctx context.Context, build func(tid uint8) (spinel.Frame, error)) (spinel.Frame, error) {
	select {
	case <-c.done:
		return spinel.Frame{}, ErrClosed
	default:
	}

	// A caller arriving with all 16 ids in flight queues here: backpressure
	// from the 4-bit id space is explicit, not hidden in an unbounded queue.
	var tid uint8
	select {
	case tid = <-c.tids:
	case <-ctx.Done():
		return spinel.Frame{}, ctx.Err()
	case <-c.done:
		return spinel.Frame{}, ErrClosed
	}

	f, err := build(tid)
	if err != nil {
		c.freeTID(tid)
		return spinel.Frame{}, err
	}
	expect, ok := spinel.ResponseFor(f.Command)
	if !ok {
		c.freeTID(tid)
		return spinel.Frame{}, fmt.Errorf("rcp: %s is not a request command", f.Command)
	}

	pc := &pendingCall{tid: tid, expect: expect, done: make(chan result, 1)}
	c.mu.Lock()
	c.pending[tid] = pc
	c.mu.Unlock()

	c.requests.Add(1)
	if err := c.writeFrame(f); err != nil {
		c.abandon(pc)
		// A failed write means the link is gone; escalate to a full reset
		// rather than retrying locally.
		c.setState(StateResetting)
		return spinel.Frame{}, err
	}

	timer := time.NewTimer(c.opts.RequestTimeout)
	defer timer.Stop()
	select {
	case res := <-pc.done:
		return res.frame, res.err
	case <-timer.C:
		if !c.abandon(pc) {
			// The response won the race; it is already in the channel.
			res := <-pc.done
			return res.frame, res.err
		}
		c.timeouts.Add(1)
		return spinel.Frame{}, fmt.Errorf("%w: %s tid=%d", ErrTimeout, f.Command, tid)
	case <-ctx.Done():
		if !c.abandon(pc) {
			res := <-pc.done
			return res.frame, res.err
		}
		return spinel.Frame{}, ctx.Err()
	}
}

// abandon removes pc from the pending table and frees its id. It reports
// false when another path (response or reset sweep) already resolved pc.
func (c *Client) abandon(pc *pendingCall) bool {
	c.mu.Lock()
	cur, ok := c.pending[pc.tid]
	if ok && cur == pc {
		delete(c.pending, pc.tid)
	}
	c.mu.Unlock()
	if ok && cur == pc {
		c.freeTID(pc.tid)
		return true
	}
	return false
}

func (c *Client) writeFrame(f spinel.Frame) error {
	if c.opts.Trace != nil {
		c.opts.Trace(DirOut, f)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.tr.WriteFrame(f.Encode())
}

func (c *Client) freeTID(tid uint8) {
	// Buffered to the full id space and guarded by single-free discipline:
	// only the path that removed the pending entry frees the id.
	c.tids <- tid
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	old := c.state
	c.state = s
	c.mu.Unlock()

	c.log.Info().Stringer("from", old).Stringer("to", s).Msg("connection state changed")
	if c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}

// failAllPending resolves every outstanding call with err, clears the table,
// and frees all their transaction ids.
func (c *Client) failAllPending(err error) {
	c.mu.Lock()
	calls := make([]*pendingCall, 0, len(c.pending))
	for _, pc := range c.pending {
		calls = append(calls, pc)
	}
	c.pending = make(map[uint8]*pendingCall)
	c.mu.Unlock()

	for _, pc := range calls {
		pc.done <- result{err: err}
		c.freeTID(pc.tid)
	}
}

// readLoop drains the transport until it closes, dispatching each delivery.
func (c *Client) readLoop() {
	for raw := range c.tr.Frames() {
		c.handleFrame(raw)
	}
	// Transport gone. Everything pending fails; callers decide whether to
	// reopen a transport and build a new client.
	select {
	case <-c.done:
		return // Close already swept
	default:
	}
	c.log.Warn().Msg("transport closed, failing pending calls")
	c.failAllPending(ErrReset)
	c.setState(StateDisconnected)
}

// handleFrame correlates one inbound delivery. The transport promises one
// frame per delivery; this verifies it and drops garbage.
func (c *Client) handleFrame(raw []byte) {
	f, err := spinel.DecodeFrame(raw)
	if err != nil {
		c.decodeErrors.Add(1)
		c.log.Warn().Err(err).Int("len", len(raw)).Msg("dropping undecodable delivery")
		return
	}
	if c.opts.Trace != nil {
		c.opts.Trace(DirIn, f)
	}

	c.mu.Lock()
	pc, ok := c.pending[f.TID]
	if ok && pc.expect == f.Command {
		delete(c.pending, f.TID)
		c.mu.Unlock()
		pc.done <- result{frame: f}
		c.freeTID(f.TID)
		return
	}
	c.mu.Unlock()

	if ok {
		// Right id, wrong command: a stray or stale frame. Never resolve a
		// caller with it.
		c.discarded.Add(1)
		c.log.Warn().Stringer("cmd", f.Command).Uint8("tid", f.TID).Msg("discarding mismatched response")
		return
	}

	c.handleUnsolicited(f)
}

// handleUnsolicited processes frames with no pending transaction: reset
// announcements and asynchronous device notifications.
func (c *Client) handleUnsolicited(f spinel.Frame) {
	prop, hasProp := f.Property()

	if hasProp && prop == spinel.PropLastStatus && len(f.Value()) > 0 {
		if status := spinel.Status(f.Value()[0]); status.IsReset() {
			c.handleResetNotice(status)
			c.publish(f, prop, status)
			return
		}
	}

	c.unsolicited.Add(1)
	if !hasProp {
		c.log.Debug().Stringer("cmd", f.Command).Msg("unsolicited frame without property")
		return
	}

	val, _, err := spinel.Decode(prop.Type(), f.Value())
	if err != nil {
		val = nil // keep the raw bytes, the value just failed to decode
	}
	c.publish(f, prop, val)
}

func (c *Client) handleResetNotice(status spinel.Status) {
	c.mu.Lock()
	notice := c.resetNotice
	c.resetNotice = nil
	state := c.state
	c.mu.Unlock()

	if notice != nil {
		notice <- status
		return
	}
	if state == StateResetting {
		return
	}

	// Device-initiated reset: the firmware rebooted underneath us.
	c.log.Warn().Stringer("cause", status).Msg("device-initiated reset")
	c.resets.Add(1)
	c.setState(StateResetting)
	c.failAllPending(ErrReset)
	c.setState(StateReady)
}

func (c *Client) publish(f spinel.Frame, prop spinel.Property, val any) {
	if c.opts.Sink == nil {
		return
	}
	n := events.Notification{
		Command:  f.Command.Name(),
		Property: prop.Name(),
		Category: string(prop.CategoryOf()),
		Value:    val,
		Raw:      f.Value(),
		Time:     time.Now(),
	}
	if err := c.opts.Sink.Publish(n); err != nil {
		c.log.Warn().Err(err).Str("property", n.Property).Msg("notification publish failed")
	}
}

// checkPropResponse validates a property-oriented response: an echoed
// LAST_STATUS in place of the requested property is the firmware reporting a
// failure, surfaced as a StatusError.
func checkPropResponse(resp spinel.Frame, want spinel.Property) error {
	got, ok := resp.Property()
	if !ok {
		return fmt.Errorf("rcp: response for %s carries no property", want)
	}
	if got == spinel.PropLastStatus && want != spinel.PropLastStatus {
		status := spinel.StatusFailure
		if v := resp.Value(); len(v) > 0 {
			status = spinel.Status(v[0])
		}
		return &StatusError{Status: status}
	}
	if got != want {
		return fmt.Errorf("rcp: response property mismatch: asked %s, got %s", want, got)
	}
	return nil
}
