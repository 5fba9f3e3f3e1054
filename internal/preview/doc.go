// Package preview is the built-in rendering server.
//
// It serves a single page that renders the resume payload injected into
// window.__RESUME_DATA__ as one [data-page-index] element per page inside
// #resume-preview, publishes the page height through the --page-height custom
// property, and sets data-fonts-ready="true" on <body> once stylesheets and
// fonts are loaded. Free-text fields are rendered as Markdown through
// /api/markdown.
//
// The package never imports the converter; the shared contract strings are
// duplicated in the embedded assets and checked by the command's tests.
package preview
