// Package pagelens captures a web page's rendered HTML and stylesheets and
// renders the capture back as raw HTML, a self-contained styled document
// and a de-noised plain-text view.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, htmlquery/).
package pagelens
