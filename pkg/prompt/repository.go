// Package prompt renders incident instructions and the initial agent input
// from a notification. Rendering is a pure function that never raises: any
// failure falls back to the raw template text.
package prompt

import (
	"os"
)

// Repository resolves an IncidentCard's PromptTemplate identifier to
// template text. If the identifier names a readable file it is loaded from
// disk; otherwise the identifier itself is treated as inline template text.
//
// Grounded on original_source/mcp_sentinel/prompts.py's
// PromptRepository.load file-path-or-inline fallback.
type Repository struct{}

// NewRepository constructs a Repository.
func NewRepository() *Repository {
	return &Repository{}
}

// Load returns the template text for identifier.
func (r *Repository) Load(identifier string) string {
	data, err := os.ReadFile(identifier)
	if err != nil {
		return identifier
	}
	return string(data)
}
