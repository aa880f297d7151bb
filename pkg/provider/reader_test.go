package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architect-io/hcl2cdk/pkg/provider/cache"
	"github.com/architect-io/hcl2cdk/pkg/provider/cache/local"
)

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(awsSchemaJSON), 0644))

	catalog, err := ReadFile(path)
	require.NoError(t, err)
	_, _, ok := catalog.LookupProvider("aws")
	assert.True(t, ok)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestReadSchemaLoadsAndCaches(t *testing.T) {
	backend, err := local.NewBackend(map[string]string{"path": t.TempDir()})
	require.NoError(t, err)

	loads := 0
	reader := NewReader(backend)
	reader.Loader = func(ctx context.Context, target string) ([]byte, error) {
		loads++
		return []byte(awsSchemaJSON), nil
	}

	catalog, err := reader.ReadSchema(context.Background(), []string{"hashicorp/aws@5.0.1"})
	require.NoError(t, err)
	_, _, ok := catalog.LookupProvider("aws")
	require.True(t, ok)
	assert.Equal(t, 1, loads)

	// The second read is served from the cache backend.
	catalog, err = reader.ReadSchema(context.Background(), []string{"hashicorp/aws@5.0.1"})
	require.NoError(t, err)
	_, _, ok = catalog.LookupProvider("aws")
	require.True(t, ok)
	assert.Equal(t, 1, loads)
}

func TestReadSchemaMissingTargetIsNotFatal(t *testing.T) {
	reader := NewReader(nil)

	catalog, err := reader.ReadSchema(context.Background(), []string{"hashicorp/aws@5.0.1"})
	require.NoError(t, err)
	assert.Empty(t, catalog.Providers)
}

func TestReadSchemaLoaderErrorFails(t *testing.T) {
	reader := NewReader(nil)
	reader.Loader = func(ctx context.Context, target string) ([]byte, error) {
		return nil, fmt.Errorf("registry unreachable")
	}

	_, err := reader.ReadSchema(context.Background(), []string{"hashicorp/aws@5.0.1"})
	require.Error(t, err)
}

func TestCacheBackendRoundTrip(t *testing.T) {
	backend, err := cache.Create(cache.Config{
		Type:     "local",
		Settings: map[string]string{"path": t.TempDir()},
	})
	require.NoError(t, err)
	assert.Equal(t, "local", backend.Type())

	ctx := context.Background()
	key := "hashicorp/aws/5.0.1.json"

	_, err = backend.Read(ctx, key)
	assert.Equal(t, cache.ErrNotFound, err)

	require.NoError(t, backend.Write(ctx, key, strings.NewReader(`{"provider_schemas": {}}`)))

	exists, err := backend.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	keys, err := backend.List(ctx, "hashicorp")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	require.NoError(t, backend.Delete(ctx, key))
	require.NoError(t, backend.Delete(ctx, key), "delete is idempotent")
}

func TestCreateUnknownBackendFails(t *testing.T) {
	_, err := cache.Create(cache.Config{Type: "tape-drive"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tape-drive")
}
