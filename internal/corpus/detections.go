package corpus

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadDetections reads a CV amenity-detection file: a YAML mapping of listing
// id to detected amenity labels. The detector itself runs elsewhere; its
// output is merged into listing amenity sets before indexing.
func LoadDetections(path string) (map[string][]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read detections file %s: %w", path, err)
	}

	detections := make(map[string][]string)
	if err := yaml.Unmarshal(data, &detections); err != nil {
		return nil, fmt.Errorf("parse detections file %s: %w", path, err)
	}
	return detections, nil
}
