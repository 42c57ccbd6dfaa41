package registry

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Loader handles loading and parsing of the pool registry file
type Loader struct {
	filePath string
	lookup   func(string) (string, bool)
}

// NewLoader creates a new registry loader reading filePath
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
		lookup:   os.LookupEnv,
	}
}

// Path returns the file the loader reads
func (l *Loader) Path() string {
	return l.filePath
}

// Load reads and parses the registry file
func (l *Loader) Load() (*File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	return l.Parse(data)
}

// Parse parses registry YAML after expanding {{VAR}} template variables
// from the environment. Unknown keys are rejected so typos fail loudly.
func (l *Loader) Parse(data []byte) (*File, error) {
	data, err := expandTemplateVariables(data, l.lookup)
	if err != nil {
		return nil, err
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse registry yaml: %w", err)
	}
	if len(f.Pools) == 0 {
		return nil, fmt.Errorf("registry file declares no pools")
	}
	return &f, nil
}

// expandTemplateVariables substitutes {{NAME}} with the value of the
// environment variable NAME. Comments are copied untouched. A reference to
// an unset variable is an error.
// Example: {{STAKEHUB_VAR_BASC_HOST}} -> "stake.bascdao.net"
func expandTemplateVariables(data []byte, lookup func(string) (string, bool)) ([]byte, error) {
	var missing []string
	expand := func(m []byte) []byte {
		name := string(templateVar.FindSubmatch(m)[1])
		v, ok := lookup(name)
		if !ok {
			missing = append(missing, name)
			return m
		}
		return []byte(v)
	}

	var out bytes.Buffer
	out.Grow(len(data))
	for _, line := range bytes.SplitAfter(data, []byte("\n")) {
		cut := commentStart(line)
		out.Write(templateVar.ReplaceAllFunc(line[:cut], expand))
		out.Write(line[cut:])
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("registry file references unset variables: %v", missing)
	}
	return out.Bytes(), nil
}

// commentStart returns the offset of the YAML comment on line, or len(line).
// A '#' starts a comment at the beginning of the line or after whitespace,
// outside quoted scalars.
func commentStart(line []byte) int {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote == '"' && c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case (c == '"' || c == '\'') && (i == 0 || isQuoteLead(line[i-1])):
			quote = c
		case c == '#' && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t'):
			return i
		}
	}
	return len(line)
}

func isQuoteLead(c byte) bool {
	switch c {
	case ' ', '\t', '[', '{', ',':
		return true
	}
	return false
}
