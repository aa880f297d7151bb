// Package modsource classifies and resolves Terraform module sources: local
// paths, registry coordinates, git repositories, and OCI artifacts.
package modsource

import (
	"strings"
)

// Kind indicates the form of a module source.
type Kind string

const (
	// KindLocal is a relative or absolute filesystem path
	KindLocal Kind = "local"

	// KindRegistry is a module registry address
	KindRegistry Kind = "registry"

	// KindGit is a git repository reference
	KindGit Kind = "git"

	// KindOCI is an OCI registry reference
	KindOCI Kind = "oci"
)

// Source is a classified module source.
type Source struct {
	// Raw is the source string as written in the module block.
	Raw string

	Kind Kind

	// Host is the registry host for registry sources; empty means the
	// public registry.
	Host string

	// Namespace, Name, and TargetSystem are the registry coordinates for
	// registry sources.
	Namespace    string
	Name         string
	TargetSystem string

	// Location is the fetchable address for git and OCI sources, and the
	// path for local sources.
	Location string

	// Subpath is the directory inside a git repository, when given.
	Subpath string

	// Ref is the requested git branch or tag.
	Ref string
}

// Classify parses a module source string into its kind and coordinates.
func Classify(raw string) Source {
	switch {
	case strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../") || strings.HasPrefix(raw, "/"):
		return Source{Raw: raw, Kind: KindLocal, Location: raw}
	case strings.HasPrefix(raw, "git::"):
		return classifyGit(raw, strings.TrimPrefix(raw, "git::"))
	case strings.HasPrefix(raw, "git@"):
		return classifyGit(raw, raw)
	case strings.HasPrefix(raw, "oci://"):
		return Source{Raw: raw, Kind: KindOCI, Location: strings.TrimPrefix(raw, "oci://")}
	case strings.HasPrefix(raw, "github.com/") || strings.HasPrefix(raw, "bitbucket.org/"):
		return classifyGit(raw, "https://"+raw)
	default:
		return classifyRegistry(raw)
	}
}

// classifyGit splits a git address into repository URL, subpath, and ref.
// The subpath follows "//" and the ref arrives as a ?ref= query parameter.
func classifyGit(raw, address string) Source {
	src := Source{Raw: raw, Kind: KindGit}

	scheme := ""
	rest := address
	if idx := strings.Index(address, "://"); idx != -1 {
		scheme = address[:idx+3]
		rest = address[idx+3:]
	}

	if idx := strings.Index(rest, "//"); idx != -1 {
		src.Subpath = rest[idx+2:]
		rest = rest[:idx]
	}
	if idx := strings.Index(src.Subpath, "?"); idx != -1 {
		src.Ref = queryParam(src.Subpath[idx+1:], "ref")
		src.Subpath = src.Subpath[:idx]
	} else if idx := strings.Index(rest, "?"); idx != -1 {
		src.Ref = queryParam(rest[idx+1:], "ref")
		rest = rest[:idx]
	}

	src.Location = scheme + rest
	return src
}

// classifyRegistry parses a registry address: [host/]namespace/name/system.
// Anything that does not fit the shape is treated as a bare local path.
func classifyRegistry(raw string) Source {
	parts := strings.Split(raw, "/")
	switch len(parts) {
	case 3:
		return Source{
			Raw:          raw,
			Kind:         KindRegistry,
			Namespace:    parts[0],
			Name:         parts[1],
			TargetSystem: parts[2],
		}
	case 4:
		return Source{
			Raw:          raw,
			Kind:         KindRegistry,
			Host:         parts[0],
			Namespace:    parts[1],
			Name:         parts[2],
			TargetSystem: parts[3],
		}
	default:
		return Source{Raw: raw, Kind: KindLocal, Location: raw}
	}
}

func queryParam(query, key string) string {
	for _, param := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(param, "=")
		if k == key {
			return v
		}
	}
	return ""
}
