// Package web embeds the HTML templates and static assets.
package web

import "embed"

// TemplatesFS holds the layout, the HTMX partials and one file per page.
//
//go:embed templates
var TemplatesFS embed.FS

// StaticFS holds stylesheets and scripts served under /static/.
//
//go:embed static
var StaticFS embed.FS
