package watcher

import "strings"

// deriveAlertsURL trims a trailing "/" from endpoint and appends "/alerts"
// unless the trimmed path already ends in it. Grounded on
// original_source/mcp_sentinel/watchers/prometheus.py's _derive_alerts_url.
func deriveAlertsURL(endpoint string) string {
	trimmed := strings.TrimRight(endpoint, "/")
	if strings.HasSuffix(trimmed, "/alerts") {
		return trimmed
	}
	return trimmed + "/alerts"
}
