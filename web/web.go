// Package web embeds the HTML templates served by the plan generator.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
