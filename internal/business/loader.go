package business

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk directory: store domain -> business code.
// JSON files are accepted too since JSON is a YAML subset.
type File map[string]string

// Loader handles loading and parsing of the business directory file
type Loader struct {
	filePath string
}

// NewLoader creates a new directory loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the directory file
func (l *Loader) Load() (map[string]string, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read business directory: %w", err)
	}

	data = expandEnvVariables(data)

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse business directory: %w", err)
	}

	out := make(map[string]string, len(file))
	for domain, code := range file {
		key := NormalizeDomain(domain)
		code = strings.TrimSpace(code)
		if key == "" || code == "" {
			return nil, fmt.Errorf("invalid business directory entry %q: %q", domain, code)
		}
		out[key] = code
	}
	return out, nil
}

var envVariable = regexp.MustCompile(`\{\{\s*([A-Z0-9_]+)\s*\}\}`)

// expandEnvVariables replaces {{NAME}} with the value of the NAME environment variable
// Example: {{UPSYNC_DEMO_CODE}} -> B1
func expandEnvVariables(data []byte) []byte {
	return envVariable.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envVariable.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// NormalizeDomain lower-cases a store domain and strips any scheme, path and trailing dot.
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSuffix(d, ".")
}
