// Package session runs one session view: a single goroutine that owns the
// reconciler, the timer engine and its tick source, and serializes snapshot
// arrival, ticks and participant intent.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizbattle/go/internal/command"
	"github.com/mcdev12/quizbattle/go/internal/export"
	"github.com/mcdev12/quizbattle/go/internal/game"
	"github.com/mcdev12/quizbattle/go/internal/projection"
	"github.com/mcdev12/quizbattle/go/internal/reconcile"
	"github.com/mcdev12/quizbattle/go/internal/timer"
	"github.com/mcdev12/quizbattle/go/internal/transport"
)

// ErrViewClosed is returned for intents submitted after Run returned
var ErrViewClosed = errors.New("session view closed")

// Transport is the live connection the view reads from and sends on
type Transport interface {
	command.Transport
	Events() <-chan transport.Event
}

// Options configures a View
type Options struct {
	Identity     game.Identity
	Transport    Transport
	Starter      command.Starter
	Sink         export.Sink
	Clock        clockwork.Clock
	TickInterval time.Duration
}

// ViewState is an immutable copy of the view published after every event
type ViewState struct {
	ViewID    string                       `json:"view_id"`
	Connected bool                         `json:"connected"`
	State     reconcile.ClientSessionState `json:"state"`
	Roster    projection.Roster            `json:"roster"`
	Report    *projection.Report           `json:"report,omitempty"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

type request struct {
	ctx    context.Context
	intent Intent
	reply  chan error
}

type startOutcome struct {
	reply chan error
	err   error
}

type exportOutcome struct {
	reply chan error
	where string
	err   error
}

// View is one participant's live view of a game session
type View struct {
	id         string
	identity   game.Identity
	transport  Transport
	dispatcher *command.Dispatcher
	sink       export.Sink
	clock      clockwork.Clock

	rec     *reconcile.Reconciler
	ticker  *timer.Ticker
	lastGen uint64

	connected bool
	exported  bool

	snapshots chan *game.Snapshot
	intents   chan request
	started   chan startOutcome
	exports   chan exportOutcome
	updates   chan struct{}
	done      chan struct{}

	current atomic.Pointer[ViewState]
}

// NewView creates a view. The identity must already have passed the guard.
func NewView(opts Options) (*View, error) {
	if opts.Identity.Pin == "" || opts.Identity.PlayerID <= 0 {
		return nil, fmt.Errorf("view needs a pin and player id: %w", game.ErrIdentityMissing)
	}
	if opts.Transport == nil {
		return nil, errors.New("view needs a transport")
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	v := &View{
		id:         uuid.New().String(),
		identity:   opts.Identity,
		transport:  opts.Transport,
		dispatcher: command.NewDispatcher(opts.Transport, opts.Starter, opts.Identity),
		sink:       opts.Sink,
		clock:      clock,
		rec:        reconcile.New(opts.Identity, timer.NewEngine()),
		ticker:     timer.NewTicker(clock, opts.TickInterval),
		snapshots:  make(chan *game.Snapshot, 1),
		intents:    make(chan request),
		started:    make(chan startOutcome, 1),
		exports:    make(chan exportOutcome, 1),
		updates:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	v.publish()
	return v, nil
}

// ID is the per-view correlation id
func (v *View) ID() string {
	return v.id
}

// State returns the latest published state
func (v *View) State() ViewState {
	return *v.current.Load()
}

// Updates signals that a new state was published. Signals coalesce.
func (v *View) Updates() <-chan struct{} {
	return v.updates
}

// Done is closed when Run returns
func (v *View) Done() <-chan struct{} {
	return v.done
}

// Prime hands the view a snapshot fetched outside the transport, such as the
// initial HTTP state. Superseded primes are dropped.
func (v *View) Prime(s *game.Snapshot) {
	if s == nil {
		return
	}
	for {
		select {
		case v.snapshots <- s:
			return
		default:
		}
		select {
		case <-v.snapshots:
		default:
		}
	}
}

// Do submits an intent to the view loop and waits for its outcome
func (v *View) Do(ctx context.Context, in Intent) error {
	req := request{ctx: ctx, intent: in, reply: make(chan error, 1)}
	select {
	case v.intents <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-v.done:
		return ErrViewClosed
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-v.done:
		return ErrViewClosed
	}
}

// Choose routes an option pick to answer or vote
func (v *View) Choose(ctx context.Context, option int) error {
	return v.Do(ctx, Choose(option))
}

// Skip routes a skip to the binding skip or a skip vote
func (v *View) Skip(ctx context.Context) error {
	return v.Do(ctx, SkipQuestion())
}

// Send dispatches an explicit command
func (v *View) Send(ctx context.Context, c command.Command) error {
	return v.Do(ctx, Send(c))
}

// Run drives the view until ctx is done or the transport closes its events
func (v *View) Run(ctx context.Context) error {
	defer close(v.done)
	defer v.ticker.Stop()

	logger := log.With().Str("view_id", v.id).Str("pin", v.identity.Pin).Int("player_id", v.identity.PlayerID).Logger()
	logger.Info().Msg("session view started")

	events := v.transport.Events()
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("session view stopped")
			return nil

		case ev, ok := <-events:
			if !ok {
				v.connected = false
				v.publish()
				logger.Info().Msg("transport closed, session view stopped")
				return nil
			}
			v.handleEvent(ctx, ev)

		case s := <-v.snapshots:
			v.applySnapshot(ctx, s)

		case <-v.ticker.C():
			if v.rec.Tick() {
				v.publish()
			}
			v.syncTicker()

		case req := <-v.intents:
			if err := v.handle(ctx, req); err != nil {
				logger.Warn().Err(err).Msg("intent rejected")
			}

		case out := <-v.started:
			if out.err != nil {
				v.rec.SetStartInFlight(false)
				v.rec.SetNotice(noticeFor(out.err))
			}
			out.reply <- out.err
			v.publish()

		case out := <-v.exports:
			if out.err != nil {
				v.rec.SetNotice(fmt.Sprintf("export failed: %v", out.err))
			} else {
				v.rec.SetNotice(fmt.Sprintf("result saved: %s", out.where))
			}
			if out.reply != nil {
				out.reply <- out.err
			}
			v.publish()
		}
	}
}

func (v *View) handleEvent(ctx context.Context, ev transport.Event) {
	switch ev.Kind {
	case transport.EventConnected:
		v.connected = true
	case transport.EventDisconnected:
		v.connected = false
		if v.rec.State().RestartPending {
			v.rec.SetNotice(NoticeReconnected)
		}
	case transport.EventMessage:
		msg, err := game.DecodeMessage(ev.Data)
		if err != nil {
			log.Warn().Err(err).Str("view_id", v.id).Msg("dropping undecodable frame")
			return
		}
		payload, err := game.ParseMessagePayload(msg)
		if err != nil {
			log.Warn().Err(err).Str("view_id", v.id).Str("type", string(msg.Type)).Msg("dropping bad payload")
			return
		}
		switch p := payload.(type) {
		case *game.Snapshot:
			v.applySnapshot(ctx, p)
			return
		case game.AnswerResult:
			v.rec.ApplyAnswerResult(p)
		default:
			return
		}
	}
	v.publish()
}

func (v *View) applySnapshot(ctx context.Context, s *game.Snapshot) {
	res := v.rec.Apply(s)
	if res.Duplicate {
		return
	}
	v.syncTicker()

	if res.Status == game.StatusFinished && res.StatusChanged {
		v.exportReport(ctx, nil)
	}
	if res.Status != game.StatusFinished {
		v.exported = false
	}
	v.publish()
}

func (v *View) syncTicker() {
	v.lastGen = v.ticker.Sync(v.rec.Timer(), v.lastGen)
}

// handle resolves, checks and dispatches one intent. Failures leave the
// reconciler untouched apart from the notice line.
func (v *View) handle(ctx context.Context, req request) error {
	if req.intent.kind == intentExport {
		if v.rec.Snapshot() == nil || v.rec.Snapshot().Status != game.StatusFinished || v.sink == nil {
			err := fmt.Errorf("export: %w", game.ErrPermissionDenied)
			v.rec.SetNotice(NoticeNothingSaved)
			v.publish()
			req.reply <- err
			return err
		}
		v.exportReport(ctx, req.reply)
		return nil
	}

	perms := v.rec.Permissions()
	cmd, err := req.intent.resolve(perms)
	if err == nil {
		err = perms.Check(cmd)
	}
	if err == nil && cmd.Kind == command.KindStart && v.rec.State().StartInFlight {
		err = fmt.Errorf("start already requested: %w", game.ErrPermissionDenied)
	}
	if err != nil {
		v.fail(req, err)
		return err
	}

	var active *game.Question
	if s := v.rec.Snapshot(); s != nil {
		active = s.CurrentQuestion
	}

	if cmd.Kind == command.KindStart {
		v.rec.SetStartInFlight(true)
		v.rec.SetNotice(NoticeStarting)
		v.publish()
		go func() {
			err := v.dispatcher.Send(ctx, cmd, active)
			select {
			case v.started <- startOutcome{reply: req.reply, err: err}:
			case <-v.done:
			}
		}()
		return nil
	}

	if err := v.dispatcher.Send(req.ctx, cmd, active); err != nil {
		v.fail(req, err)
		return err
	}

	if cmd.Kind == command.KindHostControl && cmd.Control == command.ControlRestart {
		v.rec.MarkRestartPending()
		v.rec.SetNotice(NoticeRestarting)
	}
	log.Info().Str("view_id", v.id).Str("command", cmd.Name()).Msg("command dispatched")
	v.publish()
	req.reply <- nil
	return nil
}

func (v *View) fail(req request, err error) {
	v.rec.SetNotice(noticeFor(err))
	v.publish()
	req.reply <- err
}

// exportReport hands the report to the sink off the loop. Automatic exports
// pass a nil reply.
func (v *View) exportReport(ctx context.Context, reply chan error) {
	if v.sink == nil || (reply == nil && v.exported) {
		return
	}
	v.exported = true
	report := projection.BuildResultReport(v.rec.Snapshot(), v.identity.Pin)
	sink := v.sink
	go func() {
		where, err := sink.Export(ctx, report)
		if err != nil {
			log.Error().Err(err).Str("pin", report.Pin).Msg("failed to export result report")
		}
		select {
		case v.exports <- exportOutcome{reply: reply, where: where, err: err}:
		case <-v.done:
		}
	}()
}

func (v *View) publish() {
	st := v.rec.State()
	vs := &ViewState{
		ViewID:    v.id,
		Connected: v.connected,
		State:     st,
		Roster:    projection.BuildRoster(st.Snapshot, v.identity.PlayerID),
		UpdatedAt: v.clock.Now(),
	}
	if st.Snapshot != nil && st.Snapshot.Status == game.StatusFinished {
		report := projection.BuildResultReport(st.Snapshot, v.identity.Pin)
		vs.Report = &report
	}
	v.current.Store(vs)

	select {
	case v.updates <- struct{}{}:
	default:
	}
}
