package config

import "os"

// ExpandEnv expands ${VAR} / $VAR references inside tool-catalog JSON before
// parsing, identical in shape to the teacher's pkg/config/envexpand.go (there
// used for YAML, here for the §6 tool-catalog JSON format) so a deployment
// can inject environment-specific defaults (e.g. a default database name)
// into a tool's response_template without a code change.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
