package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Seconds decodes a YAML scalar that may be a bare integer (seconds) or a
// duration string ("500ms", "5s", "1m", "1h") into a normalised integer
// number of seconds, with a floor of 1. Grounded on spec.md §3/§6's
// duration-field rule.
type Seconds int

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Seconds) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		var n int
		if err := node.Decode(&n); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDuration, err)
		}
		*s = Seconds(normalizeSeconds(n))
		return nil
	}

	if n, err := strconv.Atoi(raw); err == nil {
		*s = Seconds(normalizeSeconds(n))
		return nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
	}
	*s = Seconds(normalizeSeconds(int(d.Seconds())))
	return nil
}

func normalizeSeconds(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// ParseSeconds parses a duration value (string or already-numeric) outside
// of YAML decoding, e.g. for programmatic construction in tests.
func ParseSeconds(value string) (int, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		return normalizeSeconds(n), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
	}
	return normalizeSeconds(int(d.Seconds())), nil
}
