package modsource

import (
	"archive/tar"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"

	"github.com/architect-io/hcl2cdk/pkg/errors"
)

// Puller fetches module artifacts from OCI registries.
type Puller struct {
	auth authn.Keychain
}

// NewPuller creates a puller using the ambient registry credentials.
func NewPuller() *Puller {
	return &Puller{auth: authn.DefaultKeychain}
}

// Pull downloads the artifact's layers and extracts them into destDir.
func (p *Puller) Pull(ctx context.Context, reference, destDir string) error {
	ref, err := name.ParseReference(reference)
	if err != nil {
		return errors.Wrap(errors.ErrCodeModuleSource, fmt.Sprintf("invalid OCI reference %s", reference), err)
	}

	img, err := remote.Image(ref, remote.WithAuthFromKeychain(p.auth), remote.WithContext(ctx))
	if err != nil {
		return registryError(reference, err)
	}

	layers, err := img.Layers()
	if err != nil {
		return errors.Wrap(errors.ErrCodeModuleSource, "failed to read layers", err)
	}

	for _, layer := range layers {
		rc, err := layer.Uncompressed()
		if err != nil {
			return errors.Wrap(errors.ErrCodeModuleSource, "failed to uncompress layer", err)
		}
		if err := extractTar(rc, destDir); err != nil {
			rc.Close()
			return errors.Wrap(errors.ErrCodeModuleSource, "failed to extract layer", err)
		}
		rc.Close()
	}

	return nil
}

// Exists reports whether the artifact is present in the registry.
func (p *Puller) Exists(ctx context.Context, reference string) (bool, error) {
	ref, err := name.ParseReference(reference)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeModuleSource, fmt.Sprintf("invalid OCI reference %s", reference), err)
	}
	if _, err := remote.Head(ref, remote.WithAuthFromKeychain(p.auth), remote.WithContext(ctx)); err != nil {
		return false, nil
	}
	return true, nil
}

// registryError translates OCI registry errors into user-friendly messages.
func registryError(reference string, err error) error {
	var transportErr *transport.Error
	if stderrors.As(err, &transportErr) {
		for _, diagnostic := range transportErr.Errors {
			switch diagnostic.Code {
			case transport.ManifestUnknownErrorCode:
				return errors.New(errors.ErrCodeModuleSource, fmt.Sprintf("module not found: %s does not exist or the tag is invalid", reference))
			case transport.NameUnknownErrorCode:
				return errors.New(errors.ErrCodeModuleSource, fmt.Sprintf("repository not found: %s does not exist in the registry", reference))
			case transport.UnauthorizedErrorCode:
				return errors.New(errors.ErrCodeModuleSource, fmt.Sprintf("authentication required: log in to access %s", reference))
			}
		}
	}
	return errors.Wrap(errors.ErrCodeModuleSource, fmt.Sprintf("failed to pull %s", reference), err)
}

// extractTar unpacks a tar stream into destDir, rejecting entries that
// escape it.
func extractTar(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, filepath.Clean(header.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) && target != filepath.Clean(destDir) {
			return fmt.Errorf("tar entry %s escapes destination directory", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			f.Close()
		}
	}
}
