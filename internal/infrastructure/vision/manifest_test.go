package vision

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gallery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadGalleryManifest(t *testing.T) {
	path := writeManifest(t, `
identities:
  - name: alice
    samples:
      - faces/alice-1.jpg
      - faces/alice-2.jpg
  - name: bob
    samples:
      - faces/bob.jpg
`)

	manifest, err := LoadGalleryManifest(path)
	require.NoError(t, err)
	require.Len(t, manifest.Identities, 2)
	require.Equal(t, "alice", manifest.Identities[0].Name)
	require.Len(t, manifest.Identities[0].Samples, 2)
}

func TestLoadGalleryManifest_Empty(t *testing.T) {
	path := writeManifest(t, "identities: []\n")
	_, err := LoadGalleryManifest(path)
	require.Error(t, err)
}

func TestLoadGalleryManifest_IdentityWithoutName(t *testing.T) {
	path := writeManifest(t, `
identities:
  - samples: [faces/x.jpg]
`)
	_, err := LoadGalleryManifest(path)
	require.Error(t, err)
}

func TestLoadGalleryManifest_IdentityWithoutSamples(t *testing.T) {
	path := writeManifest(t, `
identities:
  - name: alice
    samples: []
`)
	_, err := LoadGalleryManifest(path)
	require.Error(t, err)
}

func TestLoadGalleryManifest_MissingFile(t *testing.T) {
	_, err := LoadGalleryManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
