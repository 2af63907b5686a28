package audio

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Clip registers one sound file under a logical name.
type Clip struct {
	Name     string `mapstructure:"name" yaml:"name" json:"name"`
	Sound    string `mapstructure:"sound" yaml:"sound" json:"sound"`
	Loopable bool   `mapstructure:"loopable" yaml:"loopable" json:"loopable"`
}

// Catalog is the set of registered clips keyed by name.
type Catalog map[string]Clip

// CatalogSources lists every place clips can be declared.
type CatalogSources struct {
	Clips    []Clip
	File     string
	SoundDir string
	Names    []string
	Loopable []string
}

// BuildCatalog merges the configured sources. Later sources override
// earlier ones: bare names first, then the YAML file, then explicit clips.
func BuildCatalog(src CatalogSources) (Catalog, error) {
	cat := make(Catalog)

	loopable := make(map[string]bool, len(src.Loopable))
	for _, n := range src.Loopable {
		loopable[n] = true
	}
	for _, name := range src.Names {
		cat[name] = Clip{
			Name:     name,
			Sound:    filepath.Join(src.SoundDir, name+".wav"),
			Loopable: loopable[name],
		}
	}

	if src.File != "" {
		clips, err := LoadCatalogFile(src.File)
		if err != nil {
			return nil, err
		}
		for _, c := range clips {
			cat[c.Name] = resolve(c, src.SoundDir)
		}
	}

	for _, c := range src.Clips {
		cat[c.Name] = resolve(c, src.SoundDir)
	}

	for name, c := range cat {
		if name == "" || c.Sound == "" {
			return nil, fmt.Errorf("catalog entry %q: name and sound are required", name)
		}
	}
	return cat, nil
}

// LoadCatalogFile reads a YAML list of clips.
func LoadCatalogFile(path string) ([]Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var clips []Clip
	if err := yaml.Unmarshal(data, &clips); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return clips, nil
}

func resolve(c Clip, dir string) Clip {
	if dir != "" && c.Sound != "" && !filepath.IsAbs(c.Sound) {
		c.Sound = filepath.Join(dir, c.Sound)
	}
	return c
}
