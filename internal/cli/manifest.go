package cli

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/architect-io/hcl2cdk/pkg/convert"
)

// Manifest lists conversions to run in one invocation.
type Manifest struct {
	// Defaults apply to every entry that does not override them.
	Defaults ManifestDefaults `yaml:"defaults"`

	Conversions []ManifestEntry `yaml:"conversions"`
}

// ManifestDefaults are the manifest-wide option defaults.
type ManifestDefaults struct {
	Language      string `yaml:"language"`
	Schema        string `yaml:"schema"`
	CodeContainer string `yaml:"codeContainer"`
}

// ManifestEntry is one conversion: a source path and its options.
type ManifestEntry struct {
	Source                  string `yaml:"source"`
	Output                  string `yaml:"output"`
	Language                string `yaml:"language"`
	Schema                  string `yaml:"schema"`
	CodeContainer           string `yaml:"codeContainer"`
	ThrowOnTranslationError bool   `yaml:"throwOnTranslationError"`
}

func runManifest(ctx context.Context, path string) error {
	manifest, err := loadManifest(path)
	if err != nil {
		return err
	}

	for i, entry := range manifest.Conversions {
		opts := entry.withDefaults(manifest.Defaults)
		if opts.Source == "" {
			return fmt.Errorf("manifest entry %d has no source", i+1)
		}

		result, err := runConvert(ctx, opts.Source, &convertOptions{
			language:                opts.Language,
			schemaPath:              opts.Schema,
			codeContainer:           opts.CodeContainer,
			throwOnTranslationError: opts.ThrowOnTranslationError,
		})
		if err != nil {
			return fmt.Errorf("conversion of %s failed: %w", opts.Source, err)
		}
		printWarnings(result.Warnings)
		if err := emitResult(result, opts.Output); err != nil {
			return err
		}
	}
	return nil
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if len(manifest.Conversions) == 0 {
		return nil, fmt.Errorf("manifest %s lists no conversions", path)
	}
	return &manifest, nil
}

func (e ManifestEntry) withDefaults(d ManifestDefaults) ManifestEntry {
	if e.Language == "" {
		e.Language = d.Language
	}
	if e.Schema == "" {
		e.Schema = d.Schema
	}
	if e.CodeContainer == "" {
		e.CodeContainer = d.CodeContainer
	}
	if e.CodeContainer == "" {
		e.CodeContainer = convert.DefaultCodeContainer
	}
	return e
}
