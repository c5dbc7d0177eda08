package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fafscore/internal/models"
)

// Manifest lists the images of one batch run. It stands in for the
// image-metadata database of the full study pipeline.
type Manifest struct {
	Images []models.ImageRecord `yaml:"images"`
}

// LoadManifest reads a YAML manifest from path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("error parsing manifest %s: %w", path, err)
	}
	if len(m.Images) == 0 {
		return nil, fmt.Errorf("manifest %s lists no images", path)
	}
	seen := make(map[string]bool, len(m.Images))
	for _, rec := range m.Images {
		if rec.Alias == "" {
			return nil, fmt.Errorf("manifest %s: record with empty alias", path)
		}
		if seen[rec.Alias] {
			return nil, fmt.Errorf("manifest %s: duplicate alias %q", path, rec.Alias)
		}
		seen[rec.Alias] = true
		if rec.ImagePath == "" {
			return nil, fmt.Errorf("manifest %s: no image path for %s", path, rec.Alias)
		}
	}
	return m, nil
}
