package vision

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GalleryManifest names the known identities and their sample images. The
// recognizer computes reference descriptors from the samples at startup.
type GalleryManifest struct {
	Identities []GalleryIdentity `yaml:"identities"`
}

// GalleryIdentity is one known subject with its reference images.
type GalleryIdentity struct {
	Name    string   `yaml:"name"`
	Samples []string `yaml:"samples"`
}

// LoadGalleryManifest reads and validates a YAML gallery manifest.
func LoadGalleryManifest(path string) (*GalleryManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gallery manifest: %w", err)
	}

	var manifest GalleryManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse gallery manifest: %w", err)
	}

	if len(manifest.Identities) == 0 {
		return nil, fmt.Errorf("gallery manifest %q has no identities", path)
	}
	for _, id := range manifest.Identities {
		if id.Name == "" {
			return nil, fmt.Errorf("gallery manifest %q has an identity without a name", path)
		}
		if len(id.Samples) == 0 {
			return nil, fmt.Errorf("identity %q has no sample images", id.Name)
		}
	}

	return &manifest, nil
}
