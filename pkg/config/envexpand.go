package config

import "os"

// ExpandEnv expands environment variables in raw file content using Go's
// standard shell-style syntax. Supports both ${VAR} and $VAR. Missing
// variables expand to empty string; validation is expected to catch
// required fields left empty by a missing variable.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
