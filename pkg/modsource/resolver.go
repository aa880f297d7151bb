package modsource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/architect-io/hcl2cdk/pkg/errors"
)

// Resolver fetches module sources to local directories so their inputs and
// outputs can be inspected.
type Resolver struct {
	cacheDir string
	puller   *Puller
}

// Options configures a resolver.
type Options struct {
	// CacheDir is the directory fetched modules are stored under. Defaults
	// to ~/.hcl2cdk/modules.
	CacheDir string

	// Puller is the OCI artifact puller. A default client is created when
	// nil.
	Puller *Puller
}

// NewResolver creates a module source resolver.
func NewResolver(opts Options) *Resolver {
	cacheDir := opts.CacheDir
	if cacheDir == "" {
		homeDir, _ := os.UserHomeDir()
		cacheDir = filepath.Join(homeDir, ".hcl2cdk", "modules")
	}
	puller := opts.Puller
	if puller == nil {
		puller = NewPuller()
	}
	return &Resolver{cacheDir: cacheDir, puller: puller}
}

// Resolved is a module source fetched to the local filesystem. Registry
// sources are not fetched; they resolve to their coordinates only.
type Resolved struct {
	Source Source

	// Path is the local directory holding the module, empty for registry
	// sources.
	Path string

	// Version is the resolved version or ref.
	Version string
}

// Resolve fetches the module source. The version argument is the module
// block's version constraint and applies to registry sources.
func (r *Resolver) Resolve(ctx context.Context, raw, version string) (Resolved, error) {
	src := Classify(raw)
	switch src.Kind {
	case KindLocal:
		return r.resolveLocal(src)
	case KindRegistry:
		return Resolved{Source: src, Version: version}, nil
	case KindGit:
		return r.resolveGit(ctx, src)
	case KindOCI:
		return r.resolveOCI(ctx, src)
	default:
		return Resolved{}, errors.New(errors.ErrCodeModuleSource, fmt.Sprintf("unknown module source: %s", raw))
	}
}

func (r *Resolver) resolveLocal(src Source) (Resolved, error) {
	absPath, err := filepath.Abs(src.Location)
	if err != nil {
		return Resolved{}, errors.Wrap(errors.ErrCodeModuleSource, "failed to resolve path", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return Resolved{}, errors.Wrap(errors.ErrCodeModuleSource, "module path not found", err)
	}
	if !info.IsDir() {
		return Resolved{}, errors.New(errors.ErrCodeModuleSource, fmt.Sprintf("module source %s is not a directory", src.Raw))
	}
	return Resolved{Source: src, Path: absPath}, nil
}

func (r *Resolver) resolveGit(ctx context.Context, src Source) (Resolved, error) {
	ref := src.Ref
	if ref == "" {
		ref = "main"
	}

	repoDir := filepath.Join(r.cacheDir, "git", cacheKey(src.Location), ref)
	if _, err := os.Stat(repoDir); os.IsNotExist(err) {
		if err := gitClone(ctx, src.Location, ref, repoDir); err != nil {
			return Resolved{}, errors.Wrap(errors.ErrCodeModuleSource, "failed to clone repository", err)
		}
	}

	moduleDir := repoDir
	if src.Subpath != "" {
		moduleDir = filepath.Join(repoDir, src.Subpath)
		if _, err := os.Stat(moduleDir); err != nil {
			return Resolved{}, errors.Wrap(errors.ErrCodeModuleSource, fmt.Sprintf("subpath %s not found in repository", src.Subpath), err)
		}
	}

	return Resolved{Source: src, Path: moduleDir, Version: ref}, nil
}

func (r *Resolver) resolveOCI(ctx context.Context, src Source) (Resolved, error) {
	moduleDir := filepath.Join(r.cacheDir, "oci", cacheKey(src.Location))
	if _, err := os.Stat(moduleDir); err == nil {
		return Resolved{Source: src, Path: moduleDir, Version: referenceTag(src.Location)}, nil
	}

	if err := os.MkdirAll(moduleDir, 0755); err != nil {
		return Resolved{}, errors.Wrap(errors.ErrCodeModuleSource, "failed to create cache directory", err)
	}
	if err := r.puller.Pull(ctx, src.Location, moduleDir); err != nil {
		os.RemoveAll(moduleDir)
		return Resolved{}, err
	}

	return Resolved{Source: src, Path: moduleDir, Version: referenceTag(src.Location)}, nil
}

func gitClone(ctx context.Context, url, ref, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	cloneOpts := &git.CloneOptions{
		URL:           url,
		Depth:         1,
		SingleBranch:  true,
		ReferenceName: plumbing.NewBranchReferenceName(ref),
	}

	_, err := git.PlainCloneContext(ctx, dest, false, cloneOpts)
	if err != nil {
		// The ref may name a tag rather than a branch.
		cloneOpts.ReferenceName = plumbing.NewTagReferenceName(ref)
		_, err = git.PlainCloneContext(ctx, dest, false, cloneOpts)
	}
	return err
}

func cacheKey(location string) string {
	key := strings.ReplaceAll(location, "/", "_")
	key = strings.ReplaceAll(key, ":", "_")
	return key
}

func referenceTag(location string) string {
	slash := strings.LastIndex(location, "/")
	if idx := strings.LastIndex(location, ":"); idx > slash {
		return location[idx+1:]
	}
	return "latest"
}
