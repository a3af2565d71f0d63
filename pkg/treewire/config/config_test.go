package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFromYAML tests parsing a full settings document.
func TestFromYAML(t *testing.T) {
	s, err := FromYAML([]byte(`
marker_key: data-wired
journal_path: ./lifecycle.db
root_margin: 50px
thresholds: [0, 0.5, 1]
`))
	require.NoError(t, err)
	assert.Equal(t, "data-wired", s.MarkerKey)
	assert.Equal(t, "./lifecycle.db", s.JournalPath)
	assert.Equal(t, "50px", s.RootMargin)
	assert.Equal(t, []float64{0, 0.5, 1}, s.Thresholds)
}

// TestFromYAML_Partial tests that missing keys stay at their zero value.
func TestFromYAML_Partial(t *testing.T) {
	s, err := FromYAML([]byte("marker_key: x-wired\n"))
	require.NoError(t, err)
	assert.Equal(t, "x-wired", s.MarkerKey)
	assert.Empty(t, s.JournalPath)
	assert.Empty(t, s.RootMargin)
	assert.Nil(t, s.Thresholds)
}

// TestFromYAML_UnknownKeys tests that foreign keys are ignored, so
// engine settings can live inside a larger config file.
func TestFromYAML_UnknownKeys(t *testing.T) {
	s, err := FromYAML([]byte(`
app_name: frontend
marker_key: data-wired
log_level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, "data-wired", s.MarkerKey)
}

// TestFromYAML_Invalid tests the parse error path.
func TestFromYAML_Invalid(t *testing.T) {
	_, err := FromYAML([]byte("marker_key: [unclosed"))
	assert.Error(t, err)
}

// TestFromJSON tests the JSON parser.
func TestFromJSON(t *testing.T) {
	s, err := FromJSON([]byte(`{
		"marker_key": "data-wired",
		"root_margin": "25px",
		"thresholds": [0, 1]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "data-wired", s.MarkerKey)
	assert.Equal(t, "25px", s.RootMargin)
	assert.Equal(t, []float64{0, 1}, s.Thresholds)
}

// TestFromJSON_Invalid tests the parse error path.
func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte("{not json"))
	assert.Error(t, err)
}

// TestFromFile tests extension-based format detection.
func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("marker_key: from-yaml\n"), 0o644))
	s, err := FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", s.MarkerKey)

	jsonPath := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"marker_key": "from-json"}`), 0o644))
	s, err = FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "from-json", s.MarkerKey)
}

// TestFromFile_Unsupported tests the unknown-extension error.
func TestFromFile_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("marker_key = 'x'"), 0o644))
	_, err := FromFile(path)
	assert.ErrorContains(t, err, "unsupported settings extension")
}

// TestFromFile_Missing tests the read error path.
func TestFromFile_Missing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
