package loader

import (
	"os"
	"strconv"
	"strings"
)

// EnvLoader loads configuration overrides from environment variables.
type EnvLoader struct {
	prefix   string            // Environment variable prefix (e.g., "KEYWEAVE_")
	mapping  map[string]string // Env var -> config path
	sections map[string]bool   // sections scanned for unmapped variables
}

// NewEnvLoader creates an environment loader.
// The prefix should include the trailing underscore (e.g., "KEYWEAVE_").
// Unmapped prefixed variables are read only when their first segment names
// one of sections.
func NewEnvLoader(prefix string, sections ...string) *EnvLoader {
	l := &EnvLoader{
		prefix:   prefix,
		mapping:  make(map[string]string),
		sections: make(map[string]bool, len(sections)),
	}
	for _, s := range sections {
		l.sections[s] = true
	}
	return l
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	l.mapping[envVar] = configPath
}

// Load reads environment variables and returns a configuration map.
// Empty values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for env, path := range l.mapping {
		if val, ok := os.LookupEnv(env); ok {
			setByPath(config, path, parseValue(val))
		}
	}

	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		if _, mapped := l.mapping[name]; mapped {
			continue
		}
		path := l.envToPath(name)
		section, _, _ := strings.Cut(path, ".")
		if !l.sections[section] || !strings.Contains(path, ".") {
			continue
		}
		setByPath(config, path, parseValue(value))
	}

	return config, nil
}

// envToPath converts KEYWEAVE_TIMING_COMBO_TERM to timing.combo_term.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, rest, ok := strings.Cut(name, "_")
	if !ok {
		return section
	}
	return section + "." + rest
}

// parseValue converts an environment string to a bool, integer, float or
// string. Durations such as "190ms" stay strings; integers are read as
// milliseconds by duration fields.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
