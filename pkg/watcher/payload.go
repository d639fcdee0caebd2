package watcher

import "encoding/json"

// alertsResponse is the expected shape of a Prometheus-style alerts
// endpoint response: { "data": { "alerts": [...] } }. Any other shape
// yields an empty alert list rather than an error. Each alert is kept as a
// raw JSON message so decodeAlert can produce both the typed view used for
// matching/field extraction and the untouched map used as RawPayload,
// preserving fields the typed struct doesn't know about (spec.md §3:
// "raw_payload = the raw dict").
type alertsResponse struct {
	Data struct {
		Alerts []json.RawMessage `json:"alerts"`
	} `json:"data"`
}

type alertPayload struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	Status      json.RawMessage   `json:"status"`
	StartsAt    string            `json:"startsAt"`
	ActiveAt    string            `json:"activeAt"`
	Value       *json.Number      `json:"value"`
}

// alert bundles the typed view used for matching/field extraction with the
// raw decoded object, so the latter can be surfaced verbatim as
// IncidentNotification.RawPayload.
type alert struct {
	typed alertPayload
	raw   map[string]any
}

// decodeAlert parses a single raw alert message into both its typed view
// and its untouched map[string]any form. A message that fails to decode
// into either form is skipped entirely by the caller, consistent with the
// "unexpected shapes yield an empty list" tolerance at the response level.
func decodeAlert(raw json.RawMessage) (alert, bool) {
	var typed alertPayload
	if err := json.Unmarshal(raw, &typed); err != nil {
		return alert{}, false
	}

	var rawMap map[string]any
	if err := json.Unmarshal(raw, &rawMap); err != nil {
		return alert{}, false
	}

	return alert{typed: typed, raw: rawMap}, true
}

// state resolves the alert's status field: a mapping yields its "state"
// falling back to "value"; a bare scalar is used as-is.
func (a alertPayload) state() string {
	if len(a.Status) == 0 {
		return ""
	}

	var mapped struct {
		State string `json:"state"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(a.Status, &mapped); err == nil && (mapped.State != "" || mapped.Value != "") {
		if mapped.State != "" {
			return mapped.State
		}
		return mapped.Value
	}

	var scalar string
	if err := json.Unmarshal(a.Status, &scalar); err == nil {
		return scalar
	}
	return ""
}

func (a alertPayload) timestamp() string {
	if a.StartsAt != "" {
		return a.StartsAt
	}
	return a.ActiveAt
}

func (a alertPayload) stringValue() string {
	if a.Value == nil {
		return ""
	}
	return a.Value.String()
}
