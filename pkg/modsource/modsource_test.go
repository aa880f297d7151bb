package modsource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Source
	}{
		{
			name: "relative path",
			raw:  "./modules/vpc",
			want: Source{Raw: "./modules/vpc", Kind: KindLocal, Location: "./modules/vpc"},
		},
		{
			name: "parent path",
			raw:  "../shared/network",
			want: Source{Raw: "../shared/network", Kind: KindLocal, Location: "../shared/network"},
		},
		{
			name: "registry",
			raw:  "terraform-aws-modules/vpc/aws",
			want: Source{
				Raw:          "terraform-aws-modules/vpc/aws",
				Kind:         KindRegistry,
				Namespace:    "terraform-aws-modules",
				Name:         "vpc",
				TargetSystem: "aws",
			},
		},
		{
			name: "registry with host",
			raw:  "registry.example.com/acme/vpc/aws",
			want: Source{
				Raw:          "registry.example.com/acme/vpc/aws",
				Kind:         KindRegistry,
				Host:         "registry.example.com",
				Namespace:    "acme",
				Name:         "vpc",
				TargetSystem: "aws",
			},
		},
		{
			name: "git with ref and subpath",
			raw:  "git::https://example.com/network.git//modules/vpc?ref=v1.2.0",
			want: Source{
				Raw:      "git::https://example.com/network.git//modules/vpc?ref=v1.2.0",
				Kind:     KindGit,
				Location: "https://example.com/network.git",
				Subpath:  "modules/vpc",
				Ref:      "v1.2.0",
			},
		},
		{
			name: "git with ref only",
			raw:  "git::https://example.com/network.git?ref=main",
			want: Source{
				Raw:      "git::https://example.com/network.git?ref=main",
				Kind:     KindGit,
				Location: "https://example.com/network.git",
				Ref:      "main",
			},
		},
		{
			name: "git ssh shorthand",
			raw:  "git@github.com:acme/network.git",
			want: Source{
				Raw:      "git@github.com:acme/network.git",
				Kind:     KindGit,
				Location: "git@github.com:acme/network.git",
			},
		},
		{
			name: "github shorthand",
			raw:  "github.com/acme/network",
			want: Source{
				Raw:      "github.com/acme/network",
				Kind:     KindGit,
				Location: "https://github.com/acme/network",
			},
		},
		{
			name: "oci artifact",
			raw:  "oci://registry.example.com/modules/vpc:1.0.0",
			want: Source{
				Raw:      "oci://registry.example.com/modules/vpc:1.0.0",
				Kind:     KindOCI,
				Location: "registry.example.com/modules/vpc:1.0.0",
			},
		},
		{
			name: "bare name falls back to local",
			raw:  "vpc",
			want: Source{Raw: "vpc", Kind: KindLocal, Location: "vpc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.raw))
		})
	}
}

func TestResolveLocal(t *testing.T) {
	dir := t.TempDir()
	moduleDir := filepath.Join(dir, "modules", "vpc")
	require.NoError(t, os.MkdirAll(moduleDir, 0755))

	resolver := NewResolver(Options{CacheDir: filepath.Join(dir, "cache")})
	resolved, err := resolver.Resolve(context.Background(), moduleDir, "")
	require.NoError(t, err)
	assert.Equal(t, KindLocal, resolved.Source.Kind)
	assert.Equal(t, moduleDir, resolved.Path)
}

func TestResolveLocalMissingPath(t *testing.T) {
	resolver := NewResolver(Options{CacheDir: t.TempDir()})
	_, err := resolver.Resolve(context.Background(), filepath.Join(t.TempDir(), "nope"), "")
	require.Error(t, err)
}

func TestResolveLocalFileIsNotAModule(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "main.tf")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0644))

	resolver := NewResolver(Options{CacheDir: filepath.Join(dir, "cache")})
	_, err := resolver.Resolve(context.Background(), file, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestResolveRegistryKeepsCoordinates(t *testing.T) {
	resolver := NewResolver(Options{CacheDir: t.TempDir()})
	resolved, err := resolver.Resolve(context.Background(), "terraform-aws-modules/vpc/aws", "5.0.0")
	require.NoError(t, err)

	assert.Equal(t, KindRegistry, resolved.Source.Kind)
	assert.Empty(t, resolved.Path, "registry sources are not fetched")
	assert.Equal(t, "5.0.0", resolved.Version)
}

func TestResolveOCIUsesCache(t *testing.T) {
	cacheDir := t.TempDir()
	location := "registry.example.com/modules/vpc:1.0.0"
	cached := filepath.Join(cacheDir, "oci", cacheKey(location))
	require.NoError(t, os.MkdirAll(cached, 0755))

	resolver := NewResolver(Options{CacheDir: cacheDir})
	resolved, err := resolver.Resolve(context.Background(), "oci://"+location, "")
	require.NoError(t, err)
	assert.Equal(t, cached, resolved.Path)
	assert.Equal(t, "1.0.0", resolved.Version)
}

func TestReferenceTag(t *testing.T) {
	assert.Equal(t, "1.0.0", referenceTag("registry.example.com/modules/vpc:1.0.0"))
	assert.Equal(t, "latest", referenceTag("registry.example.com/modules/vpc"))
	assert.Equal(t, "latest", referenceTag("registry.example.com:5000/modules/vpc"))
}

func TestCacheKeyIsFilesystemSafe(t *testing.T) {
	key := cacheKey("registry.example.com:5000/modules/vpc")
	assert.NotContains(t, key, "/")
	assert.NotContains(t, key, ":")
}
