// Package web holds the embedded form page.
package web

import (
	"embed"
	"html/template"
)

// IndexTemplate is the name of the form page template
const IndexTemplate = "index.html"

//go:embed templates/*.html
var files embed.FS

// Templates is the parsed template set
var Templates = template.Must(template.ParseFS(files, "templates/*.html"))

// Page is the data rendered into the form page
type Page struct {
	Title        string
	Organization string
	EventName    string
}
