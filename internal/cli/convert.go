package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/architect-io/hcl2cdk/internal/ctxlog"
	"github.com/architect-io/hcl2cdk/pkg/convert"
	"github.com/architect-io/hcl2cdk/pkg/lowering"
	"github.com/architect-io/hcl2cdk/pkg/provider"
	"github.com/architect-io/hcl2cdk/pkg/provider/cache"
)

type convertOptions struct {
	language                string
	output                  string
	schemaPath              string
	schemaProviders         []string
	codeContainer           string
	throwOnTranslationError bool
	manifestPath            string
	verbose                 bool
}

func newConvertCmd() *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [path]",
		Short: "Convert Terraform HCL to a CDKTF program",
		Long: `Convert a Terraform configuration file or directory into a CDK for
Terraform program in the requested language.

With --manifest, a YAML file lists multiple conversions with per-file
options and the positional path is not used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := loggerContext(cmd.Context(), opts.verbose)

			if opts.manifestPath != "" {
				return runManifest(ctx, opts.manifestPath)
			}
			if len(args) != 1 {
				return fmt.Errorf("a source file or directory is required unless --manifest is set")
			}
			result, err := runConvert(ctx, args[0], opts)
			if err != nil {
				return err
			}
			printWarnings(result.Warnings)
			return emitResult(result, opts.output)
		},
	}

	cmd.Flags().StringVarP(&opts.language, "language", "l", lowering.LanguageTypeScript, fmt.Sprintf("Target language (%s)", strings.Join(lowering.Languages, ", ")))
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the converted program to a file instead of stdout")
	cmd.Flags().StringVar(&opts.schemaPath, "schema", "", "Provider schema JSON file (terraform providers schema -json)")
	cmd.Flags().StringArrayVar(&opts.schemaProviders, "provider", nil, "Provider schema target to load from the cache backend (source@version)")
	cmd.Flags().StringVar(&opts.codeContainer, "code-container", convert.DefaultCodeContainer, "Construct class the declarations target")
	cmd.Flags().BoolVar(&opts.throwOnTranslationError, "throw-on-translation-error", false, "Fail the conversion when lowering reports an error")
	cmd.Flags().StringVar(&opts.manifestPath, "manifest", "", "YAML manifest listing conversions to run")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

func runConvert(ctx context.Context, path string, opts *convertOptions) (*convert.Result, error) {
	source, err := readSource(path)
	if err != nil {
		return nil, err
	}

	catalog, err := loadCatalog(ctx, opts.schemaPath, opts.schemaProviders)
	if err != nil {
		return nil, err
	}

	return convert.Convert(ctx, source, convert.Options{
		Language:                opts.language,
		ProviderSchema:          catalog,
		CodeContainer:           opts.codeContainer,
		ThrowOnTranslationError: opts.throwOnTranslationError,
	})
}

// readSource reads a .tf file, or concatenates the .tf files of a directory
// in name order.
func readSource(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to read source %s: %w", path, err)
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read source %s: %w", path, err)
		}
		return string(data), nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tf") {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no .tf files found in %s", path)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(path, name))
		if err != nil {
			return "", fmt.Errorf("failed to read source %s: %w", name, err)
		}
		b.Write(data)
		if !strings.HasSuffix(string(data), "\n") {
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// loadCatalog builds the provider schema catalog from a schema file, or from
// the configured cache backend when provider targets are given.
func loadCatalog(ctx context.Context, schemaPath string, targets []string) (*provider.Catalog, error) {
	if schemaPath != "" {
		return provider.ReadFile(schemaPath)
	}
	if len(targets) == 0 {
		return nil, nil
	}

	backendType := viper.GetString("schema-cache")
	if backendType == "" {
		return nil, fmt.Errorf("--provider requires a schema cache backend (--schema-cache)")
	}
	backend, err := cache.Create(cache.Config{
		Type:     backendType,
		Settings: backendSettings(),
	})
	if err != nil {
		return nil, err
	}
	return provider.NewReader(backend).ReadSchema(ctx, targets)
}

// backendSettings parses the --schema-cache-config key=value pairs.
func backendSettings() map[string]string {
	settings := make(map[string]string)
	for _, pair := range viper.GetStringSlice("schema-cache-config") {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		settings[key] = value
	}
	return settings
}

func emitResult(result *convert.Result, outputPath string) error {
	if outputPath == "" {
		fmt.Print(result.All)
		return nil
	}
	if err := writeOutput(outputPath, []byte(result.All)); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Converted program written to %s\n", outputPath)
	return nil
}

// printWarnings reports conversion warnings on stderr, colored when the
// stream is a terminal.
func printWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	colored := term.IsTerminal(int(os.Stderr.Fd()))
	for _, warning := range warnings {
		if colored {
			fmt.Fprintf(os.Stderr, "\033[33mwarning:\033[0m %s\n", warning)
		} else {
			fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
		}
	}
}

func loggerContext(ctx context.Context, verbose bool) context.Context {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return ctxlog.WithLogger(ctx, logger)
}

func writeOutput(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0644)
}
