package resume2pdf

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// Default page timeouts.
const (
	DefaultNavigationTimeout = 60 * time.Second
	DefaultFontTimeout       = 10 * time.Second
)

// documentPage is one browser page driven through a render. rodPage is the
// production implementation; tests use a fake.
type documentPage interface {
	// InjectPayload registers a script that runs before any page script on
	// every subsequent navigation.
	InjectPayload(script string) error
	SetViewport(width, height int) error
	// Navigate loads url and returns once the network is idle and the load
	// event has fired.
	Navigate(ctx context.Context, url string) error
	// WaitReady waits until the collaborator marks the body as ready.
	WaitReady(ctx context.Context, timeout time.Duration) error
	Measure(ctx context.Context) (Measurement, error)
	ApplyLayout(ctx context.Context, l Layout) error
	// WaitFonts resolves once document.fonts is ready.
	WaitFonts(ctx context.Context) error
	PDF(ctx context.Context, opts *printOptions) ([]byte, error)
	Close() error
}

// documentRenderer loads the resume into a page and measures it.
type documentRenderer struct {
	navigationTimeout time.Duration
	fontTimeout       time.Duration
	logger            *log.Logger
}

// render prepares page for req, navigates it to serverURL and returns the
// measurement of the rendered pages. A font readiness timeout is logged and
// rendering continues.
func (r *documentRenderer) render(ctx context.Context, page documentPage, serverURL string, req *RenderRequest, g PageGeometry) (Measurement, error) {
	script, err := injectionScript(req.Payload())
	if err != nil {
		return Measurement{}, fmt.Errorf("%w: encoding payload: %v", ErrPageSetup, err)
	}
	if err := page.InjectPayload(script); err != nil {
		return Measurement{}, fmt.Errorf("%w: injecting payload: %v", ErrPageSetup, err)
	}

	w, h := g.Viewport()
	if err := page.SetViewport(w, h); err != nil {
		return Measurement{}, fmt.Errorf("%w: viewport %dx%d: %v", ErrPageSetup, w, h, err)
	}

	if err := r.navigate(ctx, page, serverURL); err != nil {
		return Measurement{}, err
	}

	if err := page.WaitReady(ctx, r.fontTimeout); err != nil {
		if ctx.Err() != nil {
			return Measurement{}, ctx.Err()
		}
		r.logger.Warn(ErrFontReadinessTimeout.Error(), "timeout", r.fontTimeout, "err", err)
	}

	m, err := page.Measure(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Measurement{}, ctx.Err()
		}
		return Measurement{}, fmt.Errorf("%w: %v", ErrMeasure, err)
	}
	r.logger.Debug("measured", "pages", len(m.PageHeights), "container", m.HasContainer)
	return m, nil
}

// navigate bounds navigation by the navigation timeout. Running out of that
// budget is ErrNavigationTimeout; the caller's own deadline passes through.
func (r *documentRenderer) navigate(ctx context.Context, page documentPage, serverURL string) error {
	navCtx, cancel := context.WithTimeout(ctx, r.navigationTimeout)
	defer cancel()

	err := page.Navigate(navCtx, serverURL)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(navCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", ErrNavigationTimeout, serverURL, r.navigationTimeout)
	}
	return fmt.Errorf("%w: %s: %v", ErrNavigation, serverURL, err)
}
