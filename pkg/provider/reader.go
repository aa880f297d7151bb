package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/architect-io/hcl2cdk/internal/ctxlog"
	"github.com/architect-io/hcl2cdk/pkg/errors"
	"github.com/architect-io/hcl2cdk/pkg/provider/cache"
)

// Reader loads schema catalogs. When a cache backend is configured, targets
// are looked up there before falling back to the loader; fetched documents
// are written back so subsequent conversions hit the cache.
type Reader struct {
	backend cache.Backend

	// Loader fetches the schema document for a target on cache miss. Nil
	// means cache-only operation.
	Loader func(ctx context.Context, target string) ([]byte, error)
}

// NewReader creates a schema reader over the given cache backend. A nil
// backend disables caching.
func NewReader(backend cache.Backend) *Reader {
	return &Reader{backend: backend}
}

// ReadFile loads a complete catalog from a schema JSON file on disk, in the
// `terraform providers schema -json` shape.
func ReadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchemaRead, fmt.Sprintf("failed to read schema file %s", path), err)
	}
	return Decode(data)
}

// Decode parses a catalog from schema JSON bytes.
func Decode(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchemaRead, "failed to decode provider schema JSON", err)
	}
	if catalog.Providers == nil {
		catalog.Providers = make(map[string]*Schema)
	}
	return &catalog, nil
}

// ReadSchema assembles a catalog for the given provider targets, each in
// "source@version" form (e.g. "hashicorp/aws@5.0.1"). Targets missing from
// both cache and loader produce no entry; the conversion pipeline treats
// absent schemas as a non-fatal condition.
func (r *Reader) ReadSchema(ctx context.Context, targets []string) (*Catalog, error) {
	logger := ctxlog.FromContext(ctx)
	catalog := &Catalog{
		Providers: make(map[string]*Schema),
		Modules:   make(map[string]*ModuleSchema),
	}

	for _, target := range targets {
		data, err := r.fetch(ctx, target)
		if err != nil {
			return nil, err
		}
		if data == nil {
			logger.Warn("no schema available for provider", "target", target)
			continue
		}

		partial, err := Decode(data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeSchemaRead, fmt.Sprintf("invalid schema document for %s", target), err)
		}
		for fqpn, schema := range partial.Providers {
			catalog.Providers[fqpn] = schema
		}
		for name, schema := range partial.Modules {
			catalog.Modules[name] = schema
		}
	}

	return catalog, nil
}

func (r *Reader) fetch(ctx context.Context, target string) ([]byte, error) {
	logger := ctxlog.FromContext(ctx)
	key := cacheKey(target)

	if r.backend != nil {
		reader, err := r.backend.Read(ctx, key)
		switch {
		case err == nil:
			defer reader.Close()
			data, err := io.ReadAll(reader)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeCacheBackend, fmt.Sprintf("failed to read cached schema %s", key), err)
			}
			logger.Debug("schema cache hit", "target", target, "backend", r.backend.Type())
			return data, nil
		case err == cache.ErrNotFound:
			logger.Debug("schema cache miss", "target", target, "backend", r.backend.Type())
		default:
			return nil, errors.Wrap(errors.ErrCodeCacheBackend, fmt.Sprintf("failed to read cached schema %s", key), err)
		}
	}

	if r.Loader == nil {
		return nil, nil
	}
	data, err := r.Loader(ctx, target)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSchemaRead, fmt.Sprintf("failed to load schema for %s", target), err)
	}

	if r.backend != nil && data != nil {
		if err := r.backend.Write(ctx, key, strings.NewReader(string(data))); err != nil {
			logger.Warn("failed to cache schema document", "target", target, "error", err)
		}
	}
	return data, nil
}

// cacheKey maps a "source@version" target to a stable storage key.
func cacheKey(target string) string {
	source, version, found := strings.Cut(target, "@")
	if !found {
		version = "latest"
	}
	return source + "/" + version + ".json"
}
