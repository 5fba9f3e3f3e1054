package resume2pdf

import (
	"encoding/json"
	"fmt"
)

// In-page contract shared with the rendering collaborator.
const (
	// PayloadGlobal is the window property holding the parsed resume payload.
	PayloadGlobal = "__RESUME_DATA__"
	// ReadyAttribute is set to "true" on <body> once fonts and resources are loaded.
	ReadyAttribute = "data-fonts-ready"
	// PageHeightProperty is the CSS custom property carrying the page height.
	PageHeightProperty = "--page-height"
	// PageSelector matches one element per logical output page.
	PageSelector = "[data-page-index]"
	// ContainerSelector matches the optional preview container.
	ContainerSelector = "#resume-preview"
)

// readySelector matches the body once the collaborator reports readiness.
var readySelector = fmt.Sprintf(`body[%s="true"]`, ReadyAttribute)

// injectionScript returns a script that parses the serialized payload into
// the well-known global before any page script runs.
func injectionScript(payload []byte) (string, error) {
	// Encoding the payload as a JSON string literal keeps it inert until
	// JSON.parse runs, whatever characters it contains.
	literal, err := json.Marshal(string(payload))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("window[%q] = JSON.parse(%s);", PayloadGlobal, literal), nil
}

// measureScript snapshots page heights and page-height properties.
// Arguments: page selector, container selector, property name.
const measureScript = `(pageSelector, containerSelector, prop) => {
	const readHeight = (el) => {
		if (!el) return 0;
		const v = parseFloat(getComputedStyle(el).getPropertyValue(prop));
		return Number.isFinite(v) ? v : 0;
	};
	const pages = Array.from(document.querySelectorAll(pageSelector));
	const container = document.querySelector(containerSelector);
	return {
		pageHeights: pages.map((el) => el.getBoundingClientRect().height),
		hasContainer: container !== null,
		containerPageHeight: readHeight(container),
		rootPageHeight: readHeight(document.documentElement),
	};
}`

// applyLayoutScript writes a computed Layout back into the document so the
// page reflows before capture. Returns the number of page elements.
// Arguments: page selector, container selector, property name, layout.
const applyLayoutScript = `(pageSelector, containerSelector, prop, layout) => {
	const pages = Array.from(document.querySelectorAll(pageSelector));
	if (layout.freeForm) {
		pages.forEach((el, i) => {
			el.style.marginBottom = i < pages.length - 1 ? layout.pageSpacing + "px" : "0px";
		});
		return pages.length;
	}
	const value = layout.pageHeight + "px";
	const container = document.querySelector(containerSelector);
	if (container) container.style.setProperty(prop, value);
	document.documentElement.style.setProperty(prop, value);
	const breaks = new Set(layout.breakBefore);
	pages.forEach((el, i) => {
		if (!breaks.has(i)) return;
		el.style.breakBefore = "page";
		el.style.breakInside = "auto";
	});
	return pages.length;
}`

// fontsReadyScript resolves once the document's fonts have loaded.
const fontsReadyScript = `() => document.fonts.ready.then(() => true)`
