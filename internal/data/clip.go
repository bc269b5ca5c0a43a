package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ClipEntry maps an audio clip name to its file and playing time.
type ClipEntry struct {
	Name     string        `yaml:"name" json:"name"`
	File     string        `yaml:"file" json:"file"`
	Duration time.Duration `yaml:"duration" json:"duration" jsonschema:"type=string,example=1500ms"`
	Volume   float32       `yaml:"volume" json:"volume,omitempty" jsonschema:"minimum=0,maximum=1"`
}

// ClipFile is the top-level layout of clips.yaml.
type ClipFile struct {
	Clips []ClipEntry `yaml:"clips" json:"clips"`
}

type clipYAML struct {
	Name     string  `yaml:"name"`
	File     string  `yaml:"file"`
	Duration string  `yaml:"duration"`
	Volume   float32 `yaml:"volume"`
}

// ClipTable looks clips up by name.
type ClipTable struct {
	clips map[string]*ClipEntry
}

// LoadClipTable loads clips.yaml. Durations use Go duration syntax ("1.5s").
// A clip without a volume plays at full volume.
func LoadClipTable(path string) (*ClipTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clip list: %w", err)
	}
	var file struct {
		Clips []clipYAML `yaml:"clips"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse clip list: %w", err)
	}
	t := &ClipTable{
		clips: make(map[string]*ClipEntry, len(file.Clips)),
	}
	for _, c := range file.Clips {
		d, err := time.ParseDuration(c.Duration)
		if err != nil {
			return nil, fmt.Errorf("clip %q: %w", c.Name, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("clip %q: negative duration", c.Name)
		}
		vol := c.Volume
		if vol == 0 {
			vol = 1
		}
		t.clips[c.Name] = &ClipEntry{Name: c.Name, File: c.File, Duration: d, Volume: vol}
	}
	return t, nil
}

// Get returns the named clip, or nil.
func (t *ClipTable) Get(name string) *ClipEntry {
	return t.clips[name]
}

func (t *ClipTable) Count() int {
	return len(t.clips)
}
