package illustrate

import (
	"context"
	"io"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/metcalfc/limn/internal/change"
	"github.com/metcalfc/limn/internal/view"
)

const (
	QuietPeriod   = 1200 * time.Millisecond
	MinExcerpt    = 200
	FrameInterval = time.Second / 60
)

// ExcerptSource yields the passage currently in view.
type ExcerptSource interface {
	CurrentExcerpt() view.Excerpt
}

// State is the orchestrator's externally visible phase.
type State int

const (
	Idle State = iota
	AwaitingQuiet
	Requesting
)

func (s State) String() string {
	switch s {
	case AwaitingQuiet:
		return "awaiting-quiet"
	case Requesting:
		return "requesting"
	default:
		return "idle"
	}
}

// Options tunes timing. Zero values take the package defaults.
type Options struct {
	Quiet      time.Duration
	Frame      time.Duration
	MinExcerpt int
}

func (o Options) withDefaults() Options {
	if o.Quiet <= 0 {
		o.Quiet = QuietPeriod
	}
	if o.Frame <= 0 {
		o.Frame = FrameInterval
	}
	if o.MinExcerpt <= 0 {
		o.MinExcerpt = MinExcerpt
	}
	return o
}

// Request describes one call to the illustration service.
type Request struct {
	Session     uuid.UUID
	Fingerprint change.Fingerprint
	Excerpt     view.Excerpt
	Started     time.Time
}

// ResultMsg carries a finished request back into the event loop.
type ResultMsg struct {
	Request      Request
	Illustration Illustration
	Err          error
}

type frameMsg struct {
	session uuid.UUID
}

type quietMsg struct {
	session uuid.UUID
	tag     int
}

// session is everything that belongs to one loaded book.
type session struct {
	id           uuid.UUID
	src          ExcerptSource
	last         change.Fingerprint
	hasLast      bool
	flight       *Request
	tag          int
	awaiting     bool
	framePending bool
	deferred     bool
}

func newSession(src ExcerptSource) *session {
	return &session{id: uuid.New(), src: src}
}

type tickFunc func(time.Duration, func(time.Time) tea.Msg) tea.Cmd

// Orchestrator turns a stream of scroll and selection observations into at
// most one illustration request at a time. It never mutates state outside of
// Update and the methods called from the event loop; the commands it returns
// only produce messages.
type Orchestrator struct {
	svc    Service
	opts   Options
	logger *log.Logger
	ctx    context.Context
	tick   tickFunc

	sess       *session
	current    Illustration
	hasCurrent bool
}

// New returns an orchestrator with no book loaded.
func New(ctx context.Context, svc Service, opts Options, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Orchestrator{
		svc:    svc,
		opts:   opts.withDefaults(),
		logger: logger,
		ctx:    ctx,
		tick:   tea.Tick,
		sess:   newSession(nil),
	}
}

// Reset starts a new session for a freshly loaded book. Anything still
// pending from the previous session is ignored when it arrives. The returned
// command schedules the initial observation.
func (o *Orchestrator) Reset(src ExcerptSource) tea.Cmd {
	old := o.sess.id
	o.sess = newSession(src)
	o.current, o.hasCurrent = Illustration{}, false
	o.logger.Printf("[INFO] session %s replaces %s", o.sess.id, old)
	return o.observe()
}

// Scrolled records that the visible window moved. Bursts are sampled at
// most once per frame.
func (o *Orchestrator) Scrolled() tea.Cmd {
	s := o.sess
	if s.framePending {
		return nil
	}
	s.framePending = true
	id := s.id
	return o.tick(o.opts.Frame, func(time.Time) tea.Msg {
		return frameMsg{session: id}
	})
}

// Observe records a change that is not a scroll, such as a new selection or
// a resize, and restarts the quiet period.
func (o *Orchestrator) Observe() tea.Cmd {
	return o.observe()
}

// Update handles the orchestrator's own messages and ignores everything else.
func (o *Orchestrator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case frameMsg:
		if msg.session != o.sess.id {
			return nil
		}
		o.sess.framePending = false
		return o.observe()

	case quietMsg:
		if msg.session != o.sess.id || msg.tag != o.sess.tag {
			return nil
		}
		return o.evaluate()

	case ResultMsg:
		return o.complete(msg)
	}
	return nil
}

func (o *Orchestrator) observe() tea.Cmd {
	s := o.sess
	s.tag++
	s.awaiting = true
	s.deferred = false
	id, tag := s.id, s.tag
	return o.tick(o.opts.Quiet, func(time.Time) tea.Msg {
		return quietMsg{session: id, tag: tag}
	})
}

func (o *Orchestrator) evaluate() tea.Cmd {
	s := o.sess
	s.awaiting = false
	if s.flight != nil {
		s.deferred = true
		return nil
	}
	if s.src == nil {
		return nil
	}

	ex := s.src.CurrentExcerpt()
	if ex.Len() < o.opts.MinExcerpt {
		return nil
	}
	fp := change.Of(ex.Text)
	if s.hasLast && !change.HasChanged(s.last, fp) {
		return nil
	}

	req := Request{Session: s.id, Fingerprint: fp, Excerpt: ex, Started: time.Now()}
	s.flight = &req
	o.logger.Printf("[INFO] illustrating %d chars from %s (fingerprint %d)", ex.Len(), ex.Source, fp)
	return o.request(req)
}

func (o *Orchestrator) request(req Request) tea.Cmd {
	svc, ctx := o.svc, o.ctx
	return func() tea.Msg {
		ill, err := svc.Illustrate(ctx, req.Excerpt.Text)
		return ResultMsg{Request: req, Illustration: ill, Err: err}
	}
}

func (o *Orchestrator) complete(msg ResultMsg) tea.Cmd {
	s := o.sess
	if msg.Request.Session != s.id || s.flight == nil {
		o.logger.Printf("[INFO] dropping result from session %s", msg.Request.Session)
		return nil
	}

	s.flight = nil
	s.last, s.hasLast = msg.Request.Fingerprint, true
	elapsed := time.Since(msg.Request.Started).Round(time.Millisecond)

	switch {
	case msg.Err != nil:
		o.logger.Printf("[WARN] illustration failed after %s: %v", elapsed, msg.Err)
	case msg.Illustration.Image == nil:
		o.logger.Printf("[WARN] illustration after %s had no image", elapsed)
	default:
		o.current, o.hasCurrent = msg.Illustration, true
		o.logger.Printf("[INFO] illustration received after %s", elapsed)
	}

	if s.deferred {
		s.deferred = false
		return o.evaluate()
	}
	return nil
}

// State reports the current phase.
func (o *Orchestrator) State() State {
	switch {
	case o.sess.flight != nil:
		return Requesting
	case o.sess.awaiting:
		return AwaitingQuiet
	default:
		return Idle
	}
}

// Loading reports whether a request is in flight.
func (o *Orchestrator) Loading() bool { return o.sess.flight != nil }

// Illustration returns the latest illustration of the current session.
func (o *Orchestrator) Illustration() (Illustration, bool) {
	return o.current, o.hasCurrent
}

// Session returns the id of the current session.
func (o *Orchestrator) Session() uuid.UUID { return o.sess.id }
