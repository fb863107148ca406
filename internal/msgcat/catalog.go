package msgcat

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var defaultFiles embed.FS

// Catalog holds user-facing notice templates keyed by flattened dot-paths.
// Values render through text/template; unknown keys fall back to the key
// itself so a missing message never drops a protocol event.
type Catalog struct {
	mu   sync.RWMutex
	data map[string]string
}

func New() (*Catalog, error) {
	c := &Catalog{data: make(map[string]string)}
	raw, err := fs.ReadFile(defaultFiles, "messages.en.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded messages: %w", err)
	}
	flat, err := parseYAMLToFlat(raw)
	if err != nil {
		return nil, err
	}
	for k, v := range flat {
		c.data[k] = v
	}
	return c, nil
}

// Render resolves key and executes it as a template with args.
func (c *Catalog) Render(key string, args map[string]any) string {
	c.mu.RLock()
	text, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return key
	}
	if len(args) == 0 && !strings.Contains(text, "{{") {
		return text
	}
	tpl, err := template.New(key).Option("missingkey=error").Parse(text)
	if err != nil {
		return key
	}
	var b strings.Builder
	if err := tpl.Execute(&b, args); err != nil {
		return key
	}
	return b.String()
}

// Keys returns the sorted key set, used by tests to assert coverage.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func parseYAMLToFlat(raw []byte) (map[string]string, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("parse messages yaml: %w", err)
	}
	out := make(map[string]string)
	flatten("", tree, out)
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprintf("%v", val)
		}
	}
}
