// Package loading runs the animated status line shown while a view is
// being fetched.
package loading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"ghexplorer/internal/animation"
	"ghexplorer/internal/message"
	"ghexplorer/internal/metrics"
)

// DefaultCadence is the delay between two frames
const DefaultCadence = 700 * time.Millisecond

const defaultEditTimeout = 5 * time.Second

// Status is the lifecycle state of a Session
type Status int32

const (
	StatusIdle Status = iota
	StatusRunning
	StatusCancelled
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCancelled:
		return "cancelled"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Terminal reports whether the session has ended
func (s Status) Terminal() bool {
	return s >= StatusCancelled
}

// Options configure one loading session. Zero values fall back to the
// controller defaults.
type Options struct {
	Style  string
	Action string
	// Page is shown as " page N" when positive
	Page    int
	Cadence time.Duration
	// Duration ends the session on its own when positive
	Duration time.Duration
}

// Controller starts loading sessions on message states
type Controller struct {
	logger      *zap.Logger
	style       string
	cadence     time.Duration
	editTimeout time.Duration
}

// NewController returns a controller using style and cadence as defaults
func NewController(logger *zap.Logger, style string, cadence time.Duration) *Controller {
	if style == "" || !animation.Known(style) {
		style = animation.DefaultStyle
	}
	if cadence <= 0 {
		cadence = DefaultCadence
	}
	return &Controller{
		logger:      logger,
		style:       style,
		cadence:     cadence,
		editTimeout: defaultEditTimeout,
	}
}

func (c *Controller) withDefaults(opts Options) Options {
	if opts.Style == "" {
		opts.Style = c.style
	}
	if opts.Cadence <= 0 {
		opts.Cadence = c.cadence
	}
	if opts.Action == "" {
		opts.Action = "Loading"
	}
	return opts
}

// Session is one running animation. It is owned by the action that started
// it and must be stopped by that action.
type Session struct {
	state     *message.State
	opts      Options
	startedAt time.Time
	logger    *zap.Logger
	timeout   time.Duration

	status   atomic.Int32
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// Start renders the first frame right away and keeps animating on a
// background goroutine until Stop, ctx cancellation, Duration or a gone
// message.
func (c *Controller) Start(ctx context.Context, state *message.State, opts Options) *Session {
	opts = c.withDefaults(opts)
	loopCtx, cancel := context.WithCancel(ctx)

	s := &Session{
		state:     state,
		opts:      opts,
		startedAt: time.Now(),
		logger: c.logger.With(
			zap.Int64("chat_id", state.Handle().ChatID),
			zap.String("action", opts.Action),
		),
		timeout: c.editTimeout,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.status.Store(int32(StatusRunning))
	metrics.LoadingSessionsActive.Inc()

	go s.run(loopCtx)
	return s
}

// ShowStaticFrame writes a single frame without starting a loop
func (c *Controller) ShowStaticFrame(ctx context.Context, state *message.State, opts Options) error {
	opts = c.withDefaults(opts)
	frame := animation.FrameAt(opts.Style, 0)
	err := state.CommitStatus(ctx, StatusLine(frame.Icon, opts.Action, opts.Page))
	if message.IsNotModified(err) {
		return nil
	}
	return err
}

// Stop cancels the loop and waits for it to exit. It is safe to call more
// than once and on a nil Session.
func (s *Session) Stop() Status {
	if s == nil {
		return StatusIdle
	}
	s.stopOnce.Do(s.cancel)
	<-s.done
	return s.Status()
}

// Wait blocks until the session ends on its own
func (s *Session) Wait() Status {
	if s == nil {
		return StatusIdle
	}
	<-s.done
	return s.Status()
}

// Status returns the current lifecycle state
func (s *Session) Status() Status {
	if s == nil {
		return StatusIdle
	}
	return Status(s.status.Load())
}

// Elapsed returns the time since the session started
func (s *Session) Elapsed() time.Duration {
	return time.Since(s.startedAt)
}

func (s *Session) finish(st Status) {
	if s.status.CompareAndSwap(int32(StatusRunning), int32(st)) {
		metrics.LoadingSessionsActive.Dec()
		metrics.LoadingSessionsTotal.WithLabelValues(st.String()).Inc()
		s.logger.Debug("Loading session finished",
			zap.String("status", st.String()),
			zap.Duration("elapsed", s.Elapsed()),
		)
	}
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic in loading loop", zap.Any("panic", r))
			s.finish(StatusFailed)
		}
	}()

	var deadline <-chan time.Time
	if s.opts.Duration > 0 {
		timer := time.NewTimer(s.opts.Duration)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(s.opts.Cadence)
	defer ticker.Stop()

	logged := false
	for tick := 0; ; tick++ {
		if ctx.Err() != nil {
			s.finish(StatusCancelled)
			return
		}

		err := s.render(ctx, tick)
		if errors.Is(err, message.ErrMessageGone) {
			s.logger.Warn("Loading target message is gone", zap.Error(err))
			s.finish(StatusFailed)
			return
		}
		if err != nil && !logged {
			s.logger.Warn("Failed to update loading frame", zap.Error(err))
			logged = true
		}

		select {
		case <-ctx.Done():
			s.finish(StatusCancelled)
			return
		case <-deadline:
			s.finish(StatusCompleted)
			return
		case <-ticker.C:
		}
	}
}

// render commits one frame on a context detached from cancellation so a
// Stop never leaves an edit half sent
func (s *Session) render(ctx context.Context, tick int) error {
	frame := animation.FrameAt(s.opts.Style, tick)
	editCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	err := s.state.CommitStatus(editCtx, StatusLine(frame.Icon, s.opts.Action, s.opts.Page))
	if message.IsNotModified(err) {
		return nil
	}
	return err
}

// StatusLine formats the animated line, e.g. "⚡⚡ Loading repositories page 2... ⚡⚡"
func StatusLine(icon, action string, page int) string {
	var b strings.Builder
	b.WriteString(icon)
	b.WriteString(icon)
	b.WriteString(" ")
	b.WriteString(action)
	if page > 0 {
		fmt.Fprintf(&b, " page %d", page)
	}
	b.WriteString("... ")
	b.WriteString(icon)
	b.WriteString(icon)
	return b.String()
}

// ErrorLine formats the status line used when loading ends in an error
func ErrorLine(kind string) string {
	return fmt.Sprintf("❌❌ %s - Try again ❌❌", kind)
}
