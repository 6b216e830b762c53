package topic

import (
	"strings"
)

// Builder constructs MQTT topic strings of the form {root}/{segment}/{id}.
type Builder struct {
	// root is the base namespace for all topics (e.g., "efls/v1").
	root string
}

// NewBuilder creates a new Builder with the specified root namespace.
// Leading and trailing slashes are trimmed.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.Trim(root, "/")}
}

// Root returns the namespace all topics are built under.
func (b *Builder) Root() string {
	return b.root
}

// Build returns {root}/{segment}/{id}.
func (b *Builder) Build(segment, id string) string {
	return b.root + "/" + strings.Trim(segment, "/") + "/" + id
}

// Wildcard returns {root}/{segment}/+ matching the segment for every id.
func (b *Builder) Wildcard(segment string) string {
	return b.Build(segment, Wildcard)
}
