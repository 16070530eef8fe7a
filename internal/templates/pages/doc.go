// Package pages holds full-page components that belong to no plugin.
package pages

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.1001 generate -path ../..
