// Package web holds the page templates and static assets compiled into the
// server binary.
package web

import "embed"

// TemplatesFS embeds the HTML templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet.
//
//go:embed static/*
var StaticFS embed.FS
