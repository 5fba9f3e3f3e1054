package resume2pdf

import "math"

// pointsPerPixel converts CSS pixels to points; its inverse converts the
// raw margin units stored in payloads (points) to pixels.
const pointsPerPixel = 0.75

// Default raw margins (points) for print-margin templates.
const (
	defaultRawMarginX = 14
	defaultRawMarginY = 12
)

// PageGeometry is the print geometry of one render, in CSS pixels.
// It is derived from the request and never persisted. PageSpacingPx
// separates free-form pages: the raw vertical margin scaled by 0.75, zero
// outside print-margin templates.
type PageGeometry struct {
	WidthPx       int
	HeightPx      int // fixed page height, or the minimum height for free-form
	MarginXPx     int
	MarginYPx     int
	FreeForm      bool
	PageSpacingPx float64
}

// ResolveGeometry derives page geometry from a request.
// It is a pure function of the request's format, template and margins.
func ResolveGeometry(req *RenderRequest) PageGeometry {
	size := formatSizes[req.Format()]
	rawX, rawY := req.RawMargins()
	mx, my := ResolveMargins(req.Template(), rawX, rawY)
	g := PageGeometry{
		WidthPx:   size.width,
		HeightPx:  size.height,
		MarginXPx: mx,
		MarginYPx: my,
		FreeForm:  size.freeForm,
	}
	if IsPrintMarginTemplate(req.Template()) {
		g.PageSpacingPx = rawOrDefault(rawY, defaultRawMarginY) * pointsPerPixel
	}
	return g
}

// ResolveMargins converts raw margins to pixels for print-margin templates,
// using the defaults for missing values. Every other template gets zero
// margins whatever the payload says.
func ResolveMargins(template string, rawX, rawY *float64) (x, y int) {
	if !IsPrintMarginTemplate(template) {
		return 0, 0
	}
	return rawToPixels(rawX, defaultRawMarginX), rawToPixels(rawY, defaultRawMarginY)
}

func rawToPixels(raw *float64, def float64) int {
	return int(math.Round(rawOrDefault(raw, def) / pointsPerPixel))
}

func rawOrDefault(raw *float64, def float64) float64 {
	if raw != nil {
		return *raw
	}
	return def
}

// Viewport returns the browser viewport for the geometry. Free-form pages
// start at their minimum height; the real height comes from measurement.
func (g PageGeometry) Viewport() (width, height int) {
	return g.WidthPx, g.HeightPx
}

// LayoutParams returns the parameters of the in-page measurement pass.
func (g PageGeometry) LayoutParams() LayoutParams {
	return LayoutParams{
		MarginYPx:     g.MarginYPx,
		PageSpacingPx: g.PageSpacingPx,
		FreeForm:      g.FreeForm,
		MinHeightPx:   g.HeightPx,
	}
}

// CaptureSize returns the PDF paper size in pixels for a computed layout.
// Free-form captures are as tall as their content, never below the minimum;
// fixed formats always use the format height.
func (g PageGeometry) CaptureSize(l Layout) (width, height int) {
	if !g.FreeForm || l.ContentHeight == nil {
		return g.WidthPx, g.HeightPx
	}
	h := int(math.Ceil(*l.ContentHeight))
	return g.WidthPx, max(h, g.HeightPx)
}

// Measurement is a snapshot of the rendered DOM taken by the measurement pass.
type Measurement struct {
	// PageHeights are the rendered heights of the page elements, in document order.
	PageHeights []float64 `json:"pageHeights"`
	// HasContainer reports whether the preview container element exists.
	HasContainer bool `json:"hasContainer"`
	// ContainerPageHeight is the container's page-height property, 0 when unset.
	ContainerPageHeight float64 `json:"containerPageHeight"`
	// RootPageHeight is the document root's page-height property, 0 when unset.
	RootPageHeight float64 `json:"rootPageHeight"`
}

// LayoutParams parameterizes ComputeLayout.
type LayoutParams struct {
	MarginYPx     int     // subtracted from fixed page heights
	PageSpacingPx float64 // gap between free-form pages
	FreeForm      bool
	MinHeightPx   int
}

// Layout is the pagination plan applied to the page before capture.
type Layout struct {
	FreeForm bool `json:"freeForm"`
	// PageSpacing separates consecutive free-form pages; it is applied as the
	// bottom margin of every page but the last.
	PageSpacing float64 `json:"pageSpacing"`
	// ContentHeight is the free-form content height; nil for fixed formats,
	// whose layout is mutated in place and captured at the format height.
	ContentHeight *float64 `json:"contentHeight"`
	// PageHeight is written to the page-height property of fixed formats.
	PageHeight float64 `json:"pageHeight"`
	// BreakBefore lists the page indices that start on a new sheet.
	BreakBefore []int `json:"breakBefore"`
}

// ComputeLayout turns a DOM measurement into a pagination plan.
// It is deterministic: identical inputs always produce identical layouts.
func ComputeLayout(m Measurement, p LayoutParams) Layout {
	minHeight := float64(p.MinHeightPx)

	if p.FreeForm {
		spacing := p.PageSpacingPx
		total := 0.0
		for i, h := range m.PageHeights {
			total += h
			if i < len(m.PageHeights)-1 {
				total += spacing
			}
		}
		content := math.Max(total, minHeight)
		return Layout{
			FreeForm:      true,
			PageSpacing:   spacing,
			ContentHeight: &content,
			BreakBefore:   []int{},
		}
	}

	height := m.RootPageHeight
	if m.HasContainer && m.ContainerPageHeight > 0 {
		height = m.ContainerPageHeight
	}
	height = math.Max(height, minHeight) - float64(p.MarginYPx)

	breaks := make([]int, 0, max(len(m.PageHeights)-1, 0))
	for i := 1; i < len(m.PageHeights); i++ {
		breaks = append(breaks, i)
	}

	return Layout{
		PageHeight:  height,
		BreakBefore: breaks,
	}
}
