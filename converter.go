package resume2pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// DefaultTimeout bounds a whole conversion.
const DefaultTimeout = 3 * time.Minute

// State is a step of the conversion state machine.
type State int

// Conversion states, in order. StateFailed is reachable from every
// non-terminal state.
const (
	StateInit State = iota
	StateServerStarting
	StateServerReady
	StateTargetAcquiring
	StateRendering
	StateMeasuringGeometry
	StateExporting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateInit:              "init",
	StateServerStarting:    "server-starting",
	StateServerReady:       "server-ready",
	StateTargetAcquiring:   "target-acquiring",
	StateRendering:         "rendering",
	StateMeasuringGeometry: "measuring-geometry",
	StateExporting:         "exporting",
	StateDone:              "done",
	StateFailed:            "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Result is the outcome of a successful conversion.
type Result struct {
	PDF      []byte
	Geometry PageGeometry
	Layout   Layout
}

// Timeouts bound the blocking steps of a conversion. Zero fields use the
// package defaults.
type Timeouts struct {
	ServerStart time.Duration
	Reachable   time.Duration
	Navigation  time.Duration
	Fonts       time.Duration
	Overall     time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	def := func(v, d time.Duration) time.Duration {
		if v <= 0 {
			return d
		}
		return v
	}
	return Timeouts{
		ServerStart: def(t.ServerStart, DefaultServerStartTimeout),
		Reachable:   def(t.Reachable, DefaultReachableTimeout),
		Navigation:  def(t.Navigation, DefaultNavigationTimeout),
		Fonts:       def(t.Fonts, DefaultFontTimeout),
		Overall:     def(t.Overall, DefaultTimeout),
	}
}

// serverLauncher starts the rendering server.
type serverLauncher interface {
	Start(ctx context.Context) (serverProcess, error)
	WaitReachable(ctx context.Context, url string, timeout time.Duration) error
}

type serverProcess interface {
	URL() string
	Stop() error
}

// targetAcquirer provides the browser.
type targetAcquirer interface {
	Acquire(ctx context.Context) (browserHandle, error)
}

type browserHandle interface {
	Target() Target
	newPage(ctx context.Context) (documentPage, error)
	Close() error
}

// launcherAdapter and resolverAdapter narrow the concrete types to the
// interfaces, keeping typed nils out of them.
type launcherAdapter struct{ *ServerLauncher }

func (a launcherAdapter) Start(ctx context.Context) (serverProcess, error) {
	p, err := a.ServerLauncher.Start(ctx)
	if err != nil {
		return nil, err
	}
	return p, nil
}

type resolverAdapter struct{ *TargetResolver }

func (a resolverAdapter) Acquire(ctx context.Context) (browserHandle, error) {
	b, err := a.TargetResolver.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStateHook registers fn to observe every state transition.
func WithStateHook(fn func(State)) Option {
	return func(c *Converter) {
		c.hook = fn
	}
}

// WithServer configures the rendering server.
func WithServer(opts ServerOptions) Option {
	return func(c *Converter) {
		c.server = opts
	}
}

// WithBrowser configures the browser target.
func WithBrowser(opts BrowserOptions) Option {
	return func(c *Converter) {
		c.browser = opts
	}
}

// WithTimeouts overrides step timeouts; zero fields keep their defaults.
func WithTimeouts(t Timeouts) Option {
	return func(c *Converter) {
		c.timeouts = t
	}
}

// WithTimeout sets the overall conversion timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("resume2pdf: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.timeouts.Overall = d
	}
}

// Converter orchestrates one resume-to-PDF conversion per Convert call:
// start the rendering server, acquire a browser, render, paginate, capture,
// and release everything on every exit path.
type Converter struct {
	server   ServerOptions
	browser  BrowserOptions
	timeouts Timeouts
	logger   *log.Logger
	hook     func(State)

	launcher serverLauncher
	acquirer targetAcquirer
	newRunID func() string
}

// NewConverter creates a Converter. Without WithServer the conversion fails
// with ErrServerCommand; the CLI supplies the built-in server by default.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		logger:   log.New(io.Discard),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.timeouts = c.timeouts.withDefaults()
	if c.server.StartTimeout <= 0 {
		c.server.StartTimeout = c.timeouts.ServerStart
	}
	return c
}

// session owns the resources of one conversion.
type session struct {
	logger  *log.Logger
	server  serverProcess
	browser browserHandle
	page    documentPage
}

// close releases resources in reverse order of acquisition. Failures are
// logged and never returned.
func (s *session) close() {
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			s.logger.Warn("closing page", "err", err)
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.logger.Warn("closing browser", "err", err)
		}
	}
	if s.server != nil {
		if err := s.server.Stop(); err != nil {
			s.logger.Warn("stopping rendering server", "err", err)
		}
	}
}

// run tracks the state of one conversion.
type run struct {
	logger *log.Logger
	hook   func(State)
	state  State
}

func (r *run) enter(s State) {
	r.logger.Debug("state", "from", r.state, "to", s)
	r.state = s
	if r.hook != nil {
		r.hook(s)
	}
}

// Convert renders req to PDF. Resources are released before Convert
// returns, whatever the outcome; the terminal state is entered after that.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, req *RenderRequest) (result *Result, err error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil render request", ErrInput)
	}

	logger := c.logger.With("run", c.newRunID())
	r := &run{logger: logger, hook: c.hook, state: StateInit}
	s := &session{logger: logger}
	if r.hook != nil {
		r.hook(StateInit)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Overall)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			result, err = nil, fmt.Errorf("internal error: %v", p)
		}
		s.close()
		if err != nil && errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", ErrTimeout, c.timeouts.Overall, err)
		}
		if err != nil {
			logger.Error("conversion failed", "state", r.state, "err", err)
			r.enter(StateFailed)
			return
		}
		r.enter(StateDone)
	}()

	return c.convert(ctx, r, s, req)
}

func (c *Converter) convert(ctx context.Context, r *run, s *session, req *RenderRequest) (*Result, error) {
	g := ResolveGeometry(req)
	r.logger.Info("converting", "template", req.Template(), "format", req.Format())

	r.enter(StateServerStarting)
	launcher := c.launcher
	if launcher == nil {
		launcher = launcherAdapter{NewServerLauncher(c.server, r.logger)}
	}
	proc, err := launcher.Start(ctx)
	if err != nil {
		return nil, err
	}
	s.server = proc
	if err := launcher.WaitReachable(ctx, proc.URL(), c.timeouts.Reachable); err != nil {
		return nil, err
	}
	r.logger.Info("rendering server ready", "url", proc.URL())
	r.enter(StateServerReady)

	r.enter(StateTargetAcquiring)
	acquirer := c.acquirer
	if acquirer == nil {
		acquirer = resolverAdapter{NewTargetResolver(c.browser, r.logger)}
	}
	b, err := acquirer.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	s.browser = b
	r.logger.Info("browser acquired", "target", b.Target().String())

	r.enter(StateRendering)
	page, err := b.newPage(ctx)
	if err != nil {
		return nil, err
	}
	s.page = page

	renderer := &documentRenderer{
		navigationTimeout: c.timeouts.Navigation,
		fontTimeout:       c.timeouts.Fonts,
		logger:            r.logger,
	}
	m, err := renderer.render(ctx, page, proc.URL(), req, g)
	if err != nil {
		return nil, err
	}

	r.enter(StateMeasuringGeometry)
	layout := ComputeLayout(m, g.LayoutParams())
	if err := page.ApplyLayout(ctx, layout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrLayout, err)
	}

	r.enter(StateExporting)
	data, err := capture(ctx, page, g, layout)
	if err != nil {
		return nil, err
	}
	r.logger.Info("pdf captured", "bytes", len(data))

	return &Result{PDF: data, Geometry: g, Layout: layout}, nil
}
