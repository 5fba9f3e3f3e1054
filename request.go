package resume2pdf

import (
	"bytes"
	"fmt"
	"slices"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// PageFormat names a supported page format.
type PageFormat string

// Supported page formats.
const (
	FormatA4       PageFormat = "a4"
	FormatLetter   PageFormat = "letter"
	FormatFreeForm PageFormat = "free-form"
)

// Defaults used when neither the payload nor the overrides name a value.
const (
	DefaultTemplate = "onyx"
	DefaultFormat   = FormatA4
)

// Payload paths read from (and written back to) the resume JSON.
const (
	pathTemplate = "metadata.template"
	pathFormat   = "metadata.page.format"
	pathMarginX  = "metadata.page.marginX"
	pathMarginY  = "metadata.page.marginY"
)

// formatSize holds CSS pixel dimensions at 96 DPI. For free-form formats
// height is the minimum page height.
type formatSize struct {
	width    int
	height   int
	freeForm bool
}

var formatSizes = map[PageFormat]formatSize{
	FormatA4:       {width: 794, height: 1123},
	FormatLetter:   {width: 816, height: 1056},
	FormatFreeForm: {width: 794, height: 1123, freeForm: true},
}

// templates lists every template the rendering collaborator ships.
var templates = []string{
	"azurill", "bronzor", "chikorita", "ditto", "gengar", "glalie",
	"kakuna", "leafish", "nosepass", "onyx", "pikachu", "rhyhorn",
}

// printMarginTemplates expect the PDF margin to be applied at capture time
// instead of being part of their in-page layout.
var printMarginTemplates = []string{"azurill", "bronzor", "kakuna", "onyx", "rhyhorn"}

// Templates returns the supported template identifiers, sorted.
func Templates() []string {
	return slices.Clone(templates)
}

// Formats returns the supported page format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(formatSizes))
	for f := range formatSizes {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// ParseFormat validates a page format name.
func ParseFormat(s string) (PageFormat, error) {
	f := PageFormat(s)
	if _, ok := formatSizes[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// ValidateTemplate checks that id names a supported template.
func ValidateTemplate(id string) error {
	if !slices.Contains(templates, id) {
		return fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	return nil
}

// IsPrintMarginTemplate reports whether the template gets its margins from
// the PDF capture step.
func IsPrintMarginTemplate(id string) bool {
	return slices.Contains(printMarginTemplates, id)
}

// Overrides are command-line values that win over the payload metadata.
// Empty strings and nil pointers mean "not set".
type Overrides struct {
	Template string
	Format   string
	MarginX  *float64 // raw units
	MarginY  *float64 // raw units
}

// RenderRequest is an immutable, validated description of one render.
// Build it with NewRenderRequest.
type RenderRequest struct {
	payload  []byte
	template string
	format   PageFormat
	marginX  *float64
	marginY  *float64
}

// NewRenderRequest merges overrides into the payload metadata and validates
// the result. The effective template, format and margins are written back
// into the payload so the rendering collaborator sees the same values.
func NewRenderRequest(payload []byte, o Overrides) (*RenderRequest, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInput, ErrEmptyPayload)
	}
	if !gjson.ValidBytes(payload) || !gjson.ParseBytes(payload).IsObject() {
		return nil, fmt.Errorf("%w: %w", ErrInput, ErrPayloadNotJSON)
	}

	template := firstNonEmpty(o.Template, gjson.GetBytes(payload, pathTemplate).String(), DefaultTemplate)
	if err := ValidateTemplate(template); err != nil {
		return nil, err
	}

	format, err := ParseFormat(firstNonEmpty(o.Format, gjson.GetBytes(payload, pathFormat).String(), string(DefaultFormat)))
	if err != nil {
		return nil, err
	}

	req := &RenderRequest{
		template: template,
		format:   format,
		marginX:  firstNumber(o.MarginX, payload, pathMarginX),
		marginY:  firstNumber(o.MarginY, payload, pathMarginY),
	}

	req.payload, err = writeBack(payload, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrInput, ErrPayloadNotJSON, err)
	}
	return req, nil
}

// Payload returns a copy of the effective JSON payload.
func (r *RenderRequest) Payload() []byte { return bytes.Clone(r.payload) }

// Template returns the effective template identifier.
func (r *RenderRequest) Template() string { return r.template }

// Format returns the effective page format.
func (r *RenderRequest) Format() PageFormat { return r.format }

// RawMargins returns the raw horizontal and vertical margins, nil when unset.
func (r *RenderRequest) RawMargins() (x, y *float64) {
	return clonePtr(r.marginX), clonePtr(r.marginY)
}

// writeBack stores the effective values in a copy of payload.
func writeBack(payload []byte, r *RenderRequest) ([]byte, error) {
	out := bytes.Clone(payload)
	var err error
	if out, err = sjson.SetBytes(out, pathTemplate, r.template); err != nil {
		return nil, err
	}
	if out, err = sjson.SetBytes(out, pathFormat, string(r.format)); err != nil {
		return nil, err
	}
	if r.marginX != nil {
		if out, err = sjson.SetBytes(out, pathMarginX, *r.marginX); err != nil {
			return nil, err
		}
	}
	if r.marginY != nil {
		if out, err = sjson.SetBytes(out, pathMarginY, *r.marginY); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// firstNumber returns override when set, else the numeric payload value at path.
func firstNumber(override *float64, payload []byte, path string) *float64 {
	if override != nil {
		return clonePtr(override)
	}
	res := gjson.GetBytes(payload, path)
	if res.Type != gjson.Number {
		return nil
	}
	v := res.Float()
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
