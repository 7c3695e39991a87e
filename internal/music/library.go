package music

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Library maps each music type to a file name inside the music directory.
type Library map[Type]string

// DefaultLibrary returns the built-in file map.
func DefaultLibrary() Library {
	return Library{
		Ambient:  "ambient_peace.mp3",
		Nature:   "nature_sounds.mp3",
		Piano:    "gentle_piano.mp3",
		Positive: "uplifting.mp3",
		Deep:     "deep_focus.mp3",
		Gentle:   "soft_melody.mp3",
	}
}

type manifest struct {
	Tracks map[string]string `yaml:"tracks"`
}

// LoadLibrary reads a YAML manifest of the form
//
//	tracks:
//	  ambient: ambient_peace.mp3
//	  piano: my_piano.mp3
//
// Types the manifest omits keep their built-in file. A missing manifest yields
// the built-in library.
func LoadLibrary(path string) (Library, error) {
	library := DefaultLibrary()
	if strings.TrimSpace(path) == "" {
		return library, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return library, nil
		}
		return nil, fmt.Errorf("read music manifest: %w", err)
	}

	var parsed manifest
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse music manifest %s: %w", path, err)
	}
	for key, file := range parsed.Tracks {
		musicType, ok := ParseType(key)
		if !ok {
			return nil, fmt.Errorf("music manifest %s: unknown music type %q", path, key)
		}
		if file = strings.TrimSpace(file); file != "" {
			library[musicType] = file
		}
	}
	return library, nil
}
