package timeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadFile loads a timeline from .json, .yaml/.yml or .mid/.midi
func ReadFile(path string) (*Timeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tl, err := Decode(f, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, fmt.Errorf("failed to load timeline %s: %w", path, err)
	}
	return tl, nil
}

// Decode reads a timeline in the format named by ext (".json", ".yaml", ".yml", ".mid", ".midi")
func Decode(r io.Reader, ext string) (*Timeline, error) {
	tl := New(0)

	switch ext {
	case ".json":
		if err := json.NewDecoder(r).Decode(tl); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(r).Decode(tl); err != nil {
			return nil, err
		}
	case ".mid", ".midi":
		return ReadSMF(r)
	default:
		return nil, fmt.Errorf("unsupported timeline format %q", ext)
	}

	if tl.Notes == nil {
		tl.Notes = []Note{}
	}
	return tl, nil
}
