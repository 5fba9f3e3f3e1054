// Package resume2pdf renders JSON resumes to PDF with a headless browser.
//
// # Quick Start
//
// Build a request from the resume JSON, convert it, and write the bytes:
//
//	req, err := resume2pdf.NewRenderRequest(payload, resume2pdf.Overrides{
//	    Format: "letter",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	conv := resume2pdf.NewConverter(
//	    resume2pdf.WithServer(resume2pdf.ServerOptions{
//	        Command: []string{"resume2pdf", "serve", "--port", resume2pdf.PortPlaceholder},
//	    }),
//	)
//	result, err := conv.Convert(ctx, req)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("resume.pdf", result.PDF, 0644)
//
// # Conversion Pipeline
//
// Each Convert call owns one rendering server and one browser:
//
//  1. Start the rendering server and wait until it answers HTTP
//  2. Launch a local browser or connect to a remote one
//  3. Inject the payload, navigate, and wait for the page to report ready
//  4. Measure the rendered pages and compute the pagination layout
//  5. Apply the layout and capture the PDF
//
// The server, browser and page are released on every exit path, before
// Convert returns. Progress is observable through WithStateHook.
//
// # Page Contract
//
// The rendering server's page reads the payload from window.__RESUME_DATA__,
// renders one [data-page-index] element per page (optionally inside
// #resume-preview), exposes the page height through --page-height, and sets
// data-fonts-ready="true" on <body> once fonts are loaded.
//
// # Browser Selection
//
// BrowserOptions.Endpoint selects a remote browser (ws, wss, http or https).
// Otherwise BrowserOptions.Bin, the platform's usual install locations, and
// finally the PATH are tried in that order.
//
// # Errors
//
// Failures wrap sentinel errors (ErrServerStartTimeout, ErrBrowserNotFound,
// ErrNavigationTimeout, ...) so callers can classify them with errors.Is.
// Unknown templates and formats also match ErrValidation.
package resume2pdf
