package resume2pdf

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// requestIdleWindow is how long the network must stay quiet after
// navigation before the page counts as loaded.
const requestIdleWindow = 500 * time.Millisecond

// Compile-time interface checks.
var (
	_ documentPage  = (*rodPage)(nil)
	_ browserHandle = (*Browser)(nil)
)

// newPage opens a blank page in the browser.
func (b *Browser) newPage(ctx context.Context) (documentPage, error) {
	p, err := b.rod.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	return &rodPage{page: p}, nil
}

// rodPage implements documentPage with go-rod.
type rodPage struct {
	page *rod.Page
}

func (p *rodPage) InjectPayload(script string) error {
	_, err := p.page.EvalOnNewDocument(script)
	return err
}

func (p *rodPage) SetViewport(width, height int) error {
	return p.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	page := p.page.Context(ctx)
	waitIdle := page.WaitRequestIdle(requestIdleWindow, nil, nil, nil)
	if err := page.Navigate(url); err != nil {
		return err
	}
	waitIdle()
	if err := ctx.Err(); err != nil {
		return err
	}
	return page.WaitLoad()
}

func (p *rodPage) WaitReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := p.page.Context(ctx).Element(readySelector)
	return err
}

func (p *rodPage) Measure(ctx context.Context) (Measurement, error) {
	var m Measurement
	res, err := p.page.Context(ctx).Eval(measureScript, PageSelector, ContainerSelector, PageHeightProperty)
	if err != nil {
		return m, err
	}
	if err := res.Value.Unmarshal(&m); err != nil {
		return m, fmt.Errorf("decoding measurement: %w", err)
	}
	return m, nil
}

func (p *rodPage) ApplyLayout(ctx context.Context, l Layout) error {
	_, err := p.page.Context(ctx).Eval(applyLayoutScript, PageSelector, ContainerSelector, PageHeightProperty, l)
	return err
}

func (p *rodPage) WaitFonts(ctx context.Context) error {
	_, err := p.page.Context(ctx).Eval(fontsReadyScript)
	return err
}

func (p *rodPage) PDF(ctx context.Context, opts *printOptions) ([]byte, error) {
	r, err := p.page.Context(ctx).PDF(opts)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading PDF stream: %w", err)
	}
	return data, nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
