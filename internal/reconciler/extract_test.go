package reconciler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTraefikConfig = `
http:
  routers:
    app:
      rule: "Host(`app.example.com`)"
    api:
      rule: "Host(`API.Example.com`) && PathPrefix(`/v1`)"
    mixed:
      rule: "Host(`one.example.com`) || Host(`two.example.com`)"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "traefik.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractHostnames_LowercasesAndCollectsAllRules(t *testing.T) {
	path := writeTempConfig(t, sampleTraefikConfig)

	hostnames, err := ExtractHostnames(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"app.example.com",
		"api.example.com",
		"one.example.com",
		"two.example.com",
	}, hostnames)
}

func TestExtractHostnames_EmptyRoutersReturnsEmpty(t *testing.T) {
	path := writeTempConfig(t, "http:\n  routers: {}\n")

	hostnames, err := ExtractHostnames(path)
	require.NoError(t, err)
	assert.Empty(t, hostnames)
}

func TestFingerprint_ChangesWithContent(t *testing.T) {
	pathA := writeTempConfig(t, sampleTraefikConfig)
	pathB := writeTempConfig(t, sampleTraefikConfig+"\n# comment\n")

	fpA, err := Fingerprint(pathA)
	require.NoError(t, err)
	fpB, err := Fingerprint(pathB)
	require.NoError(t, err)

	assert.NotEqual(t, fpA, fpB)

	fpA2, err := Fingerprint(pathA)
	require.NoError(t, err)
	assert.Equal(t, fpA, fpA2)
}
