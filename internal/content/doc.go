// Package content serves the static site tree for liveserve.
//
// Request paths under /static/ map verbatim below the site root; all other
// paths map into <root>/pages with two conveniences: "/" and directory paths
// resolve to their index.html, and a path without an extension gets ".html"
// appended. Content types come from a fixed extension table.
//
// With live reload enabled, HTML documents are read fully and served with
// the reload bootstrap script appended; other files stream without
// buffering. Every resolution or open failure is a 404 with the literal
// body "404 Not Found", and failures never receive script injection.
package content
