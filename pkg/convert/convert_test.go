package convert

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/architect-io/hcl2cdk/pkg/errors"
	"github.com/architect-io/hcl2cdk/pkg/lowering"
	"github.com/architect-io/hcl2cdk/pkg/provider"
)

// awsTestCatalog builds a minimal aws provider schema with a vpc resource, a
// subnet resource, and an ami data source.
func awsTestCatalog() *provider.Catalog {
	return &provider.Catalog{
		Providers: map[string]*provider.Schema{
			"registry.terraform.io/hashicorp/aws": {
				ResourceSchemas: map[string]*provider.BlockType{
					"aws_vpc": {Block: &provider.Block{
						Attributes: map[string]*provider.Attribute{
							"cidr_block": {Type: cty.String, Optional: true},
							"id":         {Type: cty.String, Computed: true},
						},
					}},
					"aws_subnet": {Block: &provider.Block{
						Attributes: map[string]*provider.Attribute{
							"vpc_id":     {Type: cty.String, Required: true},
							"cidr_block": {Type: cty.String, Optional: true},
							"id":         {Type: cty.String, Computed: true},
						},
					}},
				},
				DataSourceSchemas: map[string]*provider.BlockType{
					"aws_ami": {Block: &provider.Block{
						Attributes: map[string]*provider.Attribute{
							"id":          {Type: cty.String, Computed: true},
							"most_recent": {Type: cty.Bool, Optional: true},
						},
					}},
				},
			},
		},
	}
}

func TestConvertBareResource(t *testing.T) {
	result, err := Convert(context.Background(), `
resource "null_resource" "example" {}
`, Options{Language: lowering.LanguageTypeScript})
	require.NoError(t, err)

	assert.Contains(t, result.Code, `new NullResource(this, "example", {})`)
	assert.Contains(t, result.Imports, `import { Construct } from "constructs";`)
	assert.Contains(t, result.Imports, `import { TerraformStack } from "cdktf";`)
	assert.Contains(t, result.Imports, `import { NullResource } from "./.gen/providers/null";`)
	assert.Contains(t, result.Imports, `Provider bindings are generated by running "cdktf get".`)

	// No schema for the null provider, so the declaration is annotated.
	assert.Contains(t, result.Code, "No provider schema available for: null.")
	assert.Equal(t, map[string]int{"null_resource": 1}, result.Stats.Resources)

	// An implied provider defaults to the hashicorp registry namespace.
	assert.Equal(t, []string{"hashicorp/null"}, result.Providers)
}

func TestConvertDependencyOrderAndTokenCoercion(t *testing.T) {
	result, err := Convert(context.Background(), `
resource "aws_subnet" "a" {
  vpc_id = aws_vpc.main.id
}

resource "aws_vpc" "main" {
  cidr_block = "10.0.0.0/16"
}
`, Options{Language: lowering.LanguageTypeScript, ProviderSchema: awsTestCatalog()})
	require.NoError(t, err)

	vpcAt := strings.Index(result.Code, `new AwsVpc(this, "main"`)
	subnetAt := strings.Index(result.Code, `new AwsSubnet(this, "a"`)
	require.GreaterOrEqual(t, vpcAt, 0)
	require.GreaterOrEqual(t, subnetAt, 0)
	assert.Less(t, vpcAt, subnetAt, "referencee must be declared before referencer")

	// The vpc has a dependent, so it is bound to an identifier; the computed
	// id reference into a string attribute is token coerced.
	assert.Contains(t, result.Code, "const main = new AwsVpc")
	assert.Contains(t, result.Code, "vpcId: Token.asString(main.id)")
	assert.Contains(t, result.Imports, "Token")
	assert.NotContains(t, result.Code, "No provider schema available")
}

func TestConvertCycleDetected(t *testing.T) {
	_, err := Convert(context.Background(), `
resource "null_resource" "a" {
  triggers = {
    peer = null_resource.b.id
  }
}

resource "null_resource" "b" {
  triggers = {
    peer = null_resource.a.id
  }
}
`, Options{Language: lowering.LanguageTypeScript})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCycleDetected))
	assert.Contains(t, err.Error(), "resource.null_resource.a")
	assert.Contains(t, err.Error(), "resource.null_resource.b")
}

func TestConvertSelfReferenceIsNotACycle(t *testing.T) {
	result, err := Convert(context.Background(), `
resource "null_resource" "a" {
  triggers = {
    self = null_resource.a.id
  }
}
`, Options{Language: lowering.LanguageTypeScript})
	require.NoError(t, err)
	assert.Contains(t, result.Code, `new NullResource(this, "a"`)
}

func TestConvertVariableAndOutput(t *testing.T) {
	result, err := Convert(context.Background(), `
variable "env" {
  type        = string
  default     = "dev"
  description = "Deployment environment"
}

output "env_name" {
  value = var.env
}
`, Options{Language: lowering.LanguageTypeScript})
	require.NoError(t, err)

	assert.Contains(t, result.Code, `const env = new TerraformVariable(this, "env", {`)
	assert.Contains(t, result.Code, `type: "string"`)
	assert.Contains(t, result.Code, `default: "dev"`)
	assert.Contains(t, result.Code, `new TerraformOutput(this, "env_name", {`)
	assert.Contains(t, result.Code, "value: env.value")

	assert.Contains(t, result.Imports, "TerraformVariable")
	assert.Contains(t, result.Imports, "TerraformOutput")

	varAt := strings.Index(result.Code, "TerraformVariable")
	outAt := strings.Index(result.Code, "TerraformOutput")
	assert.Less(t, varAt, outAt)
}

func TestConvertModuleInvocation(t *testing.T) {
	result, err := Convert(context.Background(), `
module "vpc" {
  source  = "terraform-aws-modules/vpc/aws"
  version = "5.0.0"
  name    = "main"
}
`, Options{Language: lowering.LanguageTypeScript})
	require.NoError(t, err)

	assert.Contains(t, result.Code, `new Vpc(this, "vpc", {`)
	assert.Contains(t, result.Code, `name: "main"`)
	assert.NotContains(t, result.Code, "source:", "source is consumed by the import, not the config")
	assert.Contains(t, result.Imports, `import { Vpc } from "./.gen/modules/vpc";`)
	assert.Equal(t, []string{"terraform-aws-modules/vpc/aws@5.0.0"}, result.Modules)
	assert.Equal(t, 1, result.Stats.NumberOfModules)
}

func TestConvertBackendPrecedesDeclarations(t *testing.T) {
	result, err := Convert(context.Background(), `
terraform {
  backend "s3" {
    bucket = "state-bucket"
    key    = "prod/terraform.tfstate"
  }
  required_providers {
    aws = {
      source  = "hashicorp/aws"
      version = "5.0.1"
    }
  }
}

provider "aws" {
  region = "us-east-1"
}

resource "aws_vpc" "main" {
  cidr_block = "10.0.0.0/16"
}
`, Options{Language: lowering.LanguageTypeScript, ProviderSchema: awsTestCatalog()})
	require.NoError(t, err)

	backendAt := strings.Index(result.Code, "new S3Backend(this, {")
	providerAt := strings.Index(result.Code, `new AwsProvider(this, "aws"`)
	vpcAt := strings.Index(result.Code, `new AwsVpc(this, "main"`)
	require.GreaterOrEqual(t, backendAt, 0)
	require.GreaterOrEqual(t, providerAt, 0)
	require.GreaterOrEqual(t, vpcAt, 0)
	assert.Less(t, backendAt, providerAt, "backend must come first")
	assert.Less(t, providerAt, vpcAt)

	assert.Contains(t, result.Code, `bucket: "state-bucket"`)
	assert.Contains(t, result.Imports, "S3Backend")
	assert.Equal(t, []string{"hashicorp/aws@5.0.1"}, result.Providers)
	assert.Equal(t, 1, result.Stats.NumberOfProviders)
}

func TestConvertProviderAlias(t *testing.T) {
	result, err := Convert(context.Background(), `
provider "aws" {
  region = "us-east-1"
}

provider "aws" {
  region = "us-west-2"
  alias  = "west"
}
`, Options{Language: lowering.LanguageTypeScript, ProviderSchema: awsTestCatalog()})
	require.NoError(t, err)

	assert.Contains(t, result.Code, `new AwsProvider(this, "aws", {`)
	assert.Contains(t, result.Code, `new AwsProvider(this, "aws.west", {`)
	assert.Contains(t, result.Code, `alias: "west"`)
}

func TestConvertRemoteStateUsesFrameworkCore(t *testing.T) {
	result, err := Convert(context.Background(), `
data "terraform_remote_state" "network" {
  backend = "s3"
}
`, Options{Language: lowering.LanguageTypeScript})
	require.NoError(t, err)

	assert.Contains(t, result.Imports, "DataTerraformRemoteState")
	assert.NotContains(t, result.Imports, "./.gen/providers/terraform")
}

func TestConvertEmptySource(t *testing.T) {
	result, err := Convert(context.Background(), "", Options{Language: lowering.LanguageTypeScript})
	require.NoError(t, err)

	assert.Empty(t, result.Code)
	// The default container is a framework class, so its import survives.
	assert.Contains(t, result.Imports, "TerraformStack")
	assert.Equal(t, 0, result.Stats.ConvertedLines)
}

func TestConvertEmptySourceCustomContainer(t *testing.T) {
	result, err := Convert(context.Background(), "", Options{
		Language:      lowering.LanguageTypeScript,
		CodeContainer: "MyStack",
	})
	require.NoError(t, err)

	assert.Empty(t, result.Imports)
	assert.Empty(t, result.Code)
	assert.Empty(t, result.All)
}

func TestConvertDeterministicOutput(t *testing.T) {
	src := `
resource "aws_vpc" "main" {
  cidr_block = "10.0.0.0/16"
}

resource "aws_subnet" "a" {
  vpc_id = aws_vpc.main.id
}

variable "env" {
  default = "dev"
}
`
	first, err := Convert(context.Background(), src, Options{Language: lowering.LanguageTypeScript, ProviderSchema: awsTestCatalog()})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		next, err := Convert(context.Background(), src, Options{Language: lowering.LanguageTypeScript, ProviderSchema: awsTestCatalog()})
		require.NoError(t, err)
		assert.Equal(t, first.All, next.All)
		assert.Equal(t, first.Providers, next.Providers)
	}
}

func TestConvertBlockReorderingIsEquivalent(t *testing.T) {
	forward := `
resource "aws_vpc" "main" {
  cidr_block = "10.0.0.0/16"
}

resource "aws_subnet" "a" {
  vpc_id = aws_vpc.main.id
}
`
	reversed := `
resource "aws_subnet" "a" {
  vpc_id = aws_vpc.main.id
}

resource "aws_vpc" "main" {
  cidr_block = "10.0.0.0/16"
}
`
	a, err := Convert(context.Background(), forward, Options{Language: lowering.LanguageTypeScript, ProviderSchema: awsTestCatalog()})
	require.NoError(t, err)
	b, err := Convert(context.Background(), reversed, Options{Language: lowering.LanguageTypeScript, ProviderSchema: awsTestCatalog()})
	require.NoError(t, err)

	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.Imports, b.Imports)
}

func TestConvertedLineCounting(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"empty", "", 0},
		{"trailing newline", "resource \"null_resource\" \"a\" {}\n", 1},
		{"no trailing newline", "resource \"null_resource\" \"a\" {}", 1},
		{"multi line", "resource \"null_resource\" \"a\" {\n}\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Convert(context.Background(), tt.source, Options{Language: lowering.LanguageTypeScript})
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Stats.ConvertedLines)
		})
	}
}

func TestConvertThrowOnTranslationError(t *testing.T) {
	// Conditionals have no Go expression form, so the Go backend reports an
	// error diagnostic for them.
	src := `
resource "null_resource" "a" {
  triggers = {
    mode = var.env == "prod" ? "strict" : "lax"
  }
}

variable "env" {
  default = "dev"
}
`
	_, err := Convert(context.Background(), src, Options{
		Language:                lowering.LanguageGo,
		ThrowOnTranslationError: true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeLowering))

	result, err := Convert(context.Background(), src, Options{Language: lowering.LanguageGo})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Code)
}

func TestConvertUnsupportedLanguage(t *testing.T) {
	_, err := Convert(context.Background(), "", Options{Language: "rust"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupportedLanguage))
}

func TestConvertLocalsLastAssignmentWins(t *testing.T) {
	result, err := Convert(context.Background(), `
locals {
  region = "us-east-1"
}

locals {
  region = "us-west-2"
}

output "region" {
  value = local.region
}
`, Options{Language: lowering.LanguageTypeScript})
	require.NoError(t, err)

	assert.Contains(t, result.Code, `const region = "us-west-2";`)
	assert.NotContains(t, result.Code, "us-east-1")
}

func TestConvertDependsOnResolvesIdentifiers(t *testing.T) {
	result, err := Convert(context.Background(), `
resource "aws_vpc" "main" {
  cidr_block = "10.0.0.0/16"
}

resource "aws_subnet" "a" {
  vpc_id     = aws_vpc.main.id
  depends_on = [aws_vpc.main]
}
`, Options{Language: lowering.LanguageTypeScript, ProviderSchema: awsTestCatalog()})
	require.NoError(t, err)

	assert.Contains(t, result.Code, "dependsOn: [main]")
}

func TestConvertDataSourceClassAndImport(t *testing.T) {
	result, err := Convert(context.Background(), `
data "aws_ami" "ubuntu" {
  most_recent = true
}

resource "aws_vpc" "main" {
  cidr_block = "10.0.0.0/16"
}
`, Options{Language: lowering.LanguageTypeScript, ProviderSchema: awsTestCatalog()})
	require.NoError(t, err)

	assert.Contains(t, result.Code, `new DataAwsAmi(this, "ubuntu", {`)
	assert.Contains(t, result.Code, "mostRecent: true")
	assert.Contains(t, result.Imports, "DataAwsAmi")
	assert.Equal(t, map[string]int{"aws_ami": 1}, result.Stats.Data)
}

func TestConvertDynamicBlock(t *testing.T) {
	result, err := Convert(context.Background(), `
variable "ports" {
  default = [80, 443]
}

resource "aws_security_group" "web" {
  name = "web"

  dynamic "ingress" {
    for_each = var.ports
    content {
      from_port = ingress.value
      protocol  = "tcp"
    }
  }
}
`, Options{Language: lowering.LanguageTypeScript, ProviderSchema: awsTestCatalog()})
	require.NoError(t, err)

	assert.Contains(t, result.Code, `ingress: ports.value.map((ingress) => ({`)
	assert.Contains(t, result.Code, "fromPort: ingress.value,")
	assert.Contains(t, result.Code, `protocol: "tcp",`)

	varAt := strings.Index(result.Code, "TerraformVariable")
	groupAt := strings.Index(result.Code, `new AwsSecurityGroup(this, "web"`)
	require.GreaterOrEqual(t, varAt, 0)
	require.GreaterOrEqual(t, groupAt, 0)
	assert.Less(t, varAt, groupAt)
}

func TestConvertDynamicBlockForwardReferenceOrders(t *testing.T) {
	result, err := Convert(context.Background(), `
resource "aws_security_group" "web" {
  dynamic "ingress" {
    for_each = aws_vpc.main.tags
    content {
      description = ingress.value
    }
  }
}

resource "aws_vpc" "main" {
  cidr_block = "10.0.0.0/16"
}
`, Options{Language: lowering.LanguageTypeScript, ProviderSchema: awsTestCatalog()})
	require.NoError(t, err)

	vpcAt := strings.Index(result.Code, `new AwsVpc(this, "main"`)
	groupAt := strings.Index(result.Code, `new AwsSecurityGroup(this, "web"`)
	require.GreaterOrEqual(t, vpcAt, 0)
	require.GreaterOrEqual(t, groupAt, 0)
	assert.Less(t, vpcAt, groupAt, "the for_each referencee must be declared first")

	assert.Contains(t, result.Code, "const main = new AwsVpc")
	assert.Contains(t, result.Code, `ingress: main.tags.map((ingress) => ({`)
}
