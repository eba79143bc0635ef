package bundle

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Message is a single bundler error or warning. Bundlers emit these either
// as plain strings or as objects with a message field, depending on the
// version; both forms decode into Message.
type Message struct {
	Message string `json:"message"`
	Module  string `json:"moduleName,omitempty"`
}

// UnmarshalJSON accepts both the string and the object form.
func (m *Message) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.Message = s
		return nil
	}

	type alias Message

	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	*m = Message(obj)

	return nil
}

// Asset is one emitted output file.
type Asset struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Entrypoint groups the assets serving one entry of the bundle.
type Entrypoint struct {
	Name   string  `json:"name"`
	Assets []Asset `json:"assets"`
}

// Chunk is one code-split unit of the bundle.
type Chunk struct {
	Names []string `json:"names"`
	Size  int64    `json:"size"`
	Files []string `json:"files"`
}

// Module is one source module included in the bundle.
type Module struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Stats is the structured report a bundler writes to stdout.
type Stats struct {
	Hash        string                `json:"hash"`
	Time        int64                 `json:"time"`
	Errors      []Message             `json:"errors"`
	Warnings    []Message             `json:"warnings"`
	Entrypoints map[string]Entrypoint `json:"entrypoints"`
	Chunks      []Chunk               `json:"chunks"`
	Modules     []Module              `json:"modules"`
}

// ParseStats decodes a bundler stats document.
func ParseStats(data []byte) (*Stats, error) {
	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("parsing bundler stats: %w", err)
	}

	return &stats, nil
}

// Clean reports whether the bundle finished with zero errors and zero
// warnings.
func (s *Stats) Clean() bool {
	return len(s.Errors) == 0 && len(s.Warnings) == 0
}

// AssetNames returns the sorted distinct names of all emitted assets,
// collected across entrypoints and chunk files.
func (s *Stats) AssetNames() []string {
	seen := make(map[string]struct{})

	for _, ep := range s.Entrypoints {
		for _, a := range ep.Assets {
			seen[a.Name] = struct{}{}
		}
	}

	for _, c := range s.Chunks {
		for _, f := range c.Files {
			seen[f] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}
