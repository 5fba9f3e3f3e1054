package resume2pdf

import (
	"context"
	"fmt"

	"github.com/go-rod/rod/lib/proto"
)

// pixelsPerInch is the CSS reference resolution.
const pixelsPerInch = 96.0

// printOptions are the DevTools print parameters of a capture.
type printOptions = proto.PagePrintToPDF

// buildPrintOptions returns the capture parameters for a geometry and its
// computed layout. The bottom margin is always zero; pagination already
// accounts for the vertical margin.
func buildPrintOptions(g PageGeometry, l Layout) *printOptions {
	w, h := g.CaptureSize(l)
	return &proto.PagePrintToPDF{
		PaperWidth:        floatPtr(pxToInches(w)),
		PaperHeight:       floatPtr(pxToInches(h)),
		MarginTop:         floatPtr(pxToInches(g.MarginYPx)),
		MarginBottom:      floatPtr(0),
		MarginLeft:        floatPtr(pxToInches(g.MarginXPx)),
		MarginRight:       floatPtr(pxToInches(g.MarginXPx)),
		PrintBackground:   true,
		GenerateTaggedPDF: true,
	}
}

// capture waits for fonts and prints the page to PDF.
func capture(ctx context.Context, page documentPage, g PageGeometry, l Layout) ([]byte, error) {
	if err := page.WaitFonts(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: waiting for fonts: %v", ErrPDFCapture, err)
	}

	data, err := page.PDF(ctx, buildPrintOptions(g, l))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrPDFCapture, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: browser returned an empty document", ErrPDFCapture)
	}
	return data, nil
}

func pxToInches(px int) float64 {
	return float64(px) / pixelsPerInch
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
