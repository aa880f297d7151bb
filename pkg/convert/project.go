package convert

import (
	"context"
	"fmt"
	"strings"
)

// CodeMarker is the insertion point the project main-file template carries
// for converted declarations.
const CodeMarker = "// define resources here"

// ProjectConversion is a conversion result bound to a project: it can splice
// its declarations into the project's main file and fold its provider and
// module requirements into the project configuration.
type ProjectConversion struct {
	*Result
}

// ConvertProject converts HCL source for insertion into an existing CDKTF
// project.
func ConvertProject(ctx context.Context, source string, opts Options) (*ProjectConversion, error) {
	result, err := Convert(ctx, source, opts)
	if err != nil {
		return nil, err
	}
	return &ProjectConversion{Result: result}, nil
}

// InsertCode splices the converted declarations into the main-file template
// at the code marker, re-indenting each line to the marker's depth. The
// marker line is preserved so repeated conversions keep an insertion point.
func (p *ProjectConversion) InsertCode(template string) (string, error) {
	idx := strings.Index(template, CodeMarker)
	if idx < 0 {
		return "", fmt.Errorf("project template does not contain marker %q", CodeMarker)
	}
	if p.Code == "" {
		return template, nil
	}

	lineStart := strings.LastIndex(template[:idx], "\n") + 1
	indent := template[lineStart:idx]

	var block strings.Builder
	block.WriteString(CodeMarker)
	for _, line := range strings.Split(strings.TrimRight(p.Code, "\n"), "\n") {
		block.WriteString("\n")
		if line != "" {
			block.WriteString(indent)
			block.WriteString(line)
		}
	}

	return template[:idx] + block.String() + template[idx+len(CodeMarker):], nil
}

// ProjectConfig is the subset of a CDKTF project configuration the
// conversion updates.
type ProjectConfig struct {
	Language           string   `json:"language" yaml:"language"`
	TerraformProviders []string `json:"terraformProviders" yaml:"terraformProviders"`
	TerraformModules   []string `json:"terraformModules" yaml:"terraformModules"`
}

// UpdateConfig folds the conversion's provider and module requirements into
// the project configuration. Entries for an already-listed source replace
// the existing entry; everything else is appended.
func (p *ProjectConversion) UpdateConfig(config *ProjectConfig) {
	config.TerraformProviders = mergeRequirements(config.TerraformProviders, p.Providers)
	config.TerraformModules = mergeRequirements(config.TerraformModules, p.Modules)
}

func mergeRequirements(existing, incoming []string) []string {
	bySource := make(map[string]int, len(existing))
	merged := make([]string, len(existing))
	copy(merged, existing)
	for i, entry := range merged {
		bySource[requirementSource(entry)] = i
	}
	for _, entry := range incoming {
		if i, ok := bySource[requirementSource(entry)]; ok {
			merged[i] = entry
			continue
		}
		bySource[requirementSource(entry)] = len(merged)
		merged = append(merged, entry)
	}
	return merged
}

func requirementSource(entry string) string {
	source, _, _ := strings.Cut(entry, "@")
	return source
}
