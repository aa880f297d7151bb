package convert

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architect-io/hcl2cdk/pkg/lowering"
)

const mainTemplate = `import { Construct } from "constructs";
import { App, TerraformStack } from "cdktf";

class MyStack extends TerraformStack {
  constructor(scope: Construct, name: string) {
    super(scope, name);
    // define resources here
  }
}

const app = new App();
new MyStack(app, "stack");
app.synth();
`

func TestInsertCodeAtMarker(t *testing.T) {
	conversion, err := ConvertProject(context.Background(), `
resource "null_resource" "example" {}
`, Options{Language: lowering.LanguageTypeScript})
	require.NoError(t, err)

	updated, err := conversion.InsertCode(mainTemplate)
	require.NoError(t, err)

	assert.Contains(t, updated, "// define resources here", "marker survives for repeat insertion")
	assert.Contains(t, updated, `    new NullResource(this, "example", {});`)

	markerAt := strings.Index(updated, CodeMarker)
	codeAt := strings.Index(updated, "new NullResource")
	assert.Less(t, markerAt, codeAt)
	assert.Contains(t, updated, "app.synth();")
}

func TestInsertCodeMissingMarkerFails(t *testing.T) {
	conversion, err := ConvertProject(context.Background(), `
resource "null_resource" "example" {}
`, Options{Language: lowering.LanguageTypeScript})
	require.NoError(t, err)

	_, err = conversion.InsertCode("class MyStack {}\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marker")
}

func TestInsertCodeEmptyConversionKeepsTemplate(t *testing.T) {
	conversion, err := ConvertProject(context.Background(), "", Options{Language: lowering.LanguageTypeScript})
	require.NoError(t, err)

	updated, err := conversion.InsertCode(mainTemplate)
	require.NoError(t, err)
	assert.Equal(t, mainTemplate, updated)
}

func TestUpdateConfigMergesRequirements(t *testing.T) {
	conversion := &ProjectConversion{Result: &Result{
		Providers: []string{"hashicorp/aws@5.0.1", "hashicorp/google@4.80.0"},
		Modules:   []string{"terraform-aws-modules/vpc/aws@5.0.0"},
	}}

	config := &ProjectConfig{
		Language:           "typescript",
		TerraformProviders: []string{"hashicorp/aws@4.0.0", "hashicorp/null@3.2.1"},
	}
	conversion.UpdateConfig(config)

	assert.Equal(t, []string{
		"hashicorp/aws@5.0.1",
		"hashicorp/null@3.2.1",
		"hashicorp/google@4.80.0",
	}, config.TerraformProviders, "same-source entries are replaced in place")
	assert.Equal(t, []string{"terraform-aws-modules/vpc/aws@5.0.0"}, config.TerraformModules)
}
