package resume2pdf

import "errors"

// Sentinel errors for library operations.
var (
	// Input errors.
	ErrInput          = errors.New("unreadable resume input")
	ErrEmptyPayload   = errors.New("resume payload cannot be empty")
	ErrPayloadNotJSON = errors.New("resume payload is not a JSON object")

	// Validation errors. Both unknown-value errors wrap ErrValidation.
	ErrValidation      = errors.New("invalid render request")
	ErrUnknownTemplate = wrapValidation("unknown template")
	ErrUnknownFormat   = wrapValidation("unknown page format")

	// Rendering server errors.
	ErrServerCommand      = errors.New("rendering server command is empty")
	ErrServerSpawn        = errors.New("failed to spawn rendering server")
	ErrServerStartTimeout = errors.New("rendering server did not become ready in time")
	ErrServerExitedEarly  = errors.New("rendering server exited before becoming ready")
	ErrServerUnreachable  = errors.New("rendering server is not reachable")

	// Browser errors.
	ErrBrowserNotFound = errors.New("no Chromium-based browser found")
	ErrBrowserEndpoint = errors.New("invalid remote browser endpoint")
	ErrBrowserLaunch   = errors.New("failed to launch or connect to browser")

	// Page errors.
	ErrPageCreate           = errors.New("failed to create browser page")
	ErrPageSetup            = errors.New("failed to prepare browser page")
	ErrNavigationTimeout    = errors.New("navigation to rendering server timed out")
	ErrNavigation           = errors.New("navigation to rendering server failed")
	ErrFontReadinessTimeout = errors.New("fonts were not reported ready in time")
	ErrMeasure              = errors.New("failed to measure rendered pages")
	ErrLayout               = errors.New("failed to apply page layout")
	ErrPDFCapture           = errors.New("PDF capture failed")

	// ErrTimeout wraps the context error when the overall deadline expires.
	ErrTimeout = errors.New("conversion timed out")
)

// validationError is an error kind that also matches ErrValidation.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Is(target error) bool { return target == ErrValidation }

func wrapValidation(msg string) error {
	return &validationError{msg: msg}
}
