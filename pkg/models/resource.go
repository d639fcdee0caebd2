// Package models holds the value types shared by the watcher, dispatcher,
// tool-server registry, and agent orchestrator.
package models

import (
	"sort"
	"strings"
)

// Resource is the triggering entity for an incident. The pair (Type, Name)
// is its routing identity; Labels and Annotations are opaque metadata.
type Resource struct {
	Type        string
	Name        string
	Labels      map[string]string
	Annotations map[string]string
	State       string
	Value       string
	Timestamp   string
}

// DedupeKey returns a deterministic key for the resource, identical for any
// permutation of Labels/Annotations insertion order.
func (r Resource) DedupeKey() string {
	labelPairs := sortedPairs(r.Labels)
	annotationPairs := sortedPairs(r.Annotations)

	parts := []string{r.Type, r.Name, labelPairs, annotationPairs}
	if r.Timestamp != "" {
		parts = append(parts, r.Timestamp)
	}

	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "|")
}

func sortedPairs(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+m[k])
	}
	return strings.Join(pairs, ",")
}

// IncidentNotification is emitted by a Watcher when it detects a new
// incident and consumed by the Dispatcher and Orchestrator.
type IncidentNotification struct {
	Resource   Resource
	RawPayload map[string]any
}
