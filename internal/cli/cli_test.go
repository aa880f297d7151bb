package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architect-io/hcl2cdk/pkg/convert"
)

func TestReadSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.tf")
	require.NoError(t, os.WriteFile(path, []byte(`resource "null_resource" "a" {}`), 0644))

	source, err := readSource(path)
	require.NoError(t, err)
	assert.Equal(t, `resource "null_resource" "a" {}`, source)
}

func TestReadSourceDirectoryConcatenatesInNameOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "variables.tf"), []byte("variable \"env\" {}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.tf"), []byte(`resource "null_resource" "a" {}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "modules.tf"), 0755), "directories are skipped even with a .tf suffix")

	source, err := readSource(dir)
	require.NoError(t, err)
	assert.Equal(t, "resource \"null_resource\" \"a\" {}\nvariable \"env\" {}\n", source)
}

func TestReadSourceEmptyDirectoryFails(t *testing.T) {
	dir := t.TempDir()
	_, err := readSource(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .tf files found")
}

func TestReadSourceMissingPathFails(t *testing.T) {
	_, err := readSource(filepath.Join(t.TempDir(), "nope.tf"))
	require.Error(t, err)
}

func TestLoadManifestAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
defaults:
  language: python
  codeContainer: cdktf.TerraformStack
conversions:
  - source: ./stacks/network
  - source: ./stacks/compute
    language: go
    codeContainer: MyStack
`), 0644))

	manifest, err := loadManifest(path)
	require.NoError(t, err)
	require.Len(t, manifest.Conversions, 2)

	first := manifest.Conversions[0].withDefaults(manifest.Defaults)
	assert.Equal(t, "./stacks/network", first.Source)
	assert.Equal(t, "python", first.Language)
	assert.Equal(t, "cdktf.TerraformStack", first.CodeContainer)

	second := manifest.Conversions[1].withDefaults(manifest.Defaults)
	assert.Equal(t, "go", second.Language)
	assert.Equal(t, "MyStack", second.CodeContainer)
}

func TestWithDefaultsFallsBackToDefaultContainer(t *testing.T) {
	entry := ManifestEntry{Source: "./stacks/network"}.withDefaults(ManifestDefaults{})
	assert.Equal(t, convert.DefaultCodeContainer, entry.CodeContainer)
}

func TestLoadManifestWithoutConversionsFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaults:\n  language: python\n"), 0644))

	_, err := loadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conversions")
}

func TestLoadManifestMissingFileFails(t *testing.T) {
	_, err := loadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestBackendSettings(t *testing.T) {
	viper.Set("schema-cache-config", []string{"path=/tmp/schemas", "region=us-east-1", "malformed"})
	defer viper.Set("schema-cache-config", nil)

	settings := backendSettings()
	assert.Equal(t, map[string]string{
		"path":   "/tmp/schemas",
		"region": "us-east-1",
	}, settings)
}

func TestWriteOutputCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "main.ts")
	require.NoError(t, writeOutput(path, []byte("app.synth();\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "app.synth();\n", string(data))
}
