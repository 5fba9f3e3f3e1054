package resume2pdf

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ---------------------------------------------------------------------------
// Fake page
// ---------------------------------------------------------------------------

// fakePage records every call and returns configured results.
type fakePage struct {
	mu    sync.Mutex
	calls []string

	injected    string
	viewportW   int
	viewportH   int
	navigatedTo string
	readyWait   time.Duration
	applied     *Layout
	printOpts   *printOptions
	closed      int
	measurement Measurement
	pdf         []byte

	navigateBlocks bool
	measurePanics  bool

	injectErr, viewportErr, navigateErr, readyErr error
	measureErr, layoutErr, fontsErr, pdfErr       error
	closeErr                                      error
}

func newFakePage() *fakePage {
	return &fakePage{
		measurement: Measurement{PageHeights: []float64{1123, 1123}},
		pdf:         []byte("%PDF-1.7 fake"),
	}
}

func (p *fakePage) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePage) InjectPayload(script string) error {
	p.record("inject")
	p.injected = script
	return p.injectErr
}

func (p *fakePage) SetViewport(width, height int) error {
	p.record("viewport")
	p.viewportW, p.viewportH = width, height
	return p.viewportErr
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.record("navigate")
	p.navigatedTo = url
	if p.navigateBlocks {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.navigateErr
}

func (p *fakePage) WaitReady(ctx context.Context, timeout time.Duration) error {
	p.record("ready")
	p.readyWait = timeout
	return p.readyErr
}

func (p *fakePage) Measure(ctx context.Context) (Measurement, error) {
	p.record("measure")
	if p.measurePanics {
		panic("measure exploded")
	}
	return p.measurement, p.measureErr
}

func (p *fakePage) ApplyLayout(ctx context.Context, l Layout) error {
	p.record("layout")
	p.applied = &l
	return p.layoutErr
}

func (p *fakePage) WaitFonts(ctx context.Context) error {
	p.record("fonts")
	return p.fontsErr
}

func (p *fakePage) PDF(ctx context.Context, opts *printOptions) ([]byte, error) {
	p.record("pdf")
	p.printOpts = opts
	if p.pdfErr != nil {
		return nil, p.pdfErr
	}
	return p.pdf, nil
}

func (p *fakePage) Close() error {
	p.record("close")
	p.closed++
	return p.closeErr
}

// ---------------------------------------------------------------------------
// Fake browser, launcher, process
// ---------------------------------------------------------------------------

type fakeBrowser struct {
	target     Target
	page       *fakePage
	newPageErr error
	closeErr   error
	closed     int
}

func (b *fakeBrowser) Target() Target { return b.target }

func (b *fakeBrowser) newPage(ctx context.Context) (documentPage, error) {
	if b.newPageErr != nil {
		return nil, b.newPageErr
	}
	return b.page, nil
}

func (b *fakeBrowser) Close() error {
	b.closed++
	return b.closeErr
}

type fakeAcquirer struct {
	browser *fakeBrowser
	err     error
	calls   int
}

func (a *fakeAcquirer) Acquire(ctx context.Context) (browserHandle, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.browser, nil
}

type fakeProcess struct {
	url     string
	stopErr error
	stopped int
}

func (p *fakeProcess) URL() string { return p.url }

func (p *fakeProcess) Stop() error {
	p.stopped++
	return p.stopErr
}

type fakeLauncher struct {
	proc       *fakeProcess
	startErr   error
	reachErr   error
	reachedURL string
}

func (l *fakeLauncher) Start(ctx context.Context) (serverProcess, error) {
	if l.startErr != nil {
		return nil, l.startErr
	}
	return l.proc, nil
}

func (l *fakeLauncher) WaitReachable(ctx context.Context, url string, timeout time.Duration) error {
	l.reachedURL = url
	return l.reachErr
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// testLogger returns a debug-level logger writing to the returned buffer.
func testLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}), &buf
}
