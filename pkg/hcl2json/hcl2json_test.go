package hcl2json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architect-io/hcl2cdk/pkg/errors"
)

func TestParseResourceBlock(t *testing.T) {
	src := `
resource "aws_vpc" "main" {
  cidr_block = "10.0.0.0/16"
  enable_dns = true
  max_size   = 3
}
`
	tree, err := Parse("main.tf", []byte(src))
	require.NoError(t, err)

	resource, ok := tree["resource"].(map[string]interface{})
	require.True(t, ok, "resource should be a map keyed by type")
	vpcs, ok := resource["aws_vpc"].(map[string]interface{})
	require.True(t, ok)
	configs, ok := vpcs["main"].([]interface{})
	require.True(t, ok, "leaf should be a list of configurations")
	require.Len(t, configs, 1)

	config := configs[0].(map[string]interface{})
	assert.Equal(t, "10.0.0.0/16", config["cidr_block"])
	assert.Equal(t, true, config["enable_dns"])
	assert.Equal(t, int64(3), config["max_size"])
}

func TestParsePreservesExpressionsVerbatim(t *testing.T) {
	src := `
resource "aws_subnet" "a" {
  vpc_id     = aws_vpc.main.id
  cidr_block = cidrsubnet(aws_vpc.main.cidr_block, 4, 1)
  name       = "sub-${var.env}"
}
`
	tree, err := Parse("main.tf", []byte(src))
	require.NoError(t, err)

	config := leafConfig(t, tree, "resource", "aws_subnet", "a")
	assert.Equal(t, "${aws_vpc.main.id}", config["vpc_id"])
	assert.Equal(t, "${cidrsubnet(aws_vpc.main.cidr_block, 4, 1)}", config["cidr_block"])
	assert.Equal(t, "sub-${var.env}", config["name"])
}

func TestParseRepeatedBlocksAccumulate(t *testing.T) {
	src := `
provider "aws" {
  region = "us-east-1"
}

provider "aws" {
  region = "us-west-2"
  alias  = "west"
}
`
	tree, err := Parse("main.tf", []byte(src))
	require.NoError(t, err)

	providers := tree["provider"].(map[string]interface{})
	configs := providers["aws"].([]interface{})
	require.Len(t, configs, 2)
	assert.Equal(t, "us-east-1", configs[0].(map[string]interface{})["region"])
	assert.Equal(t, "west", configs[1].(map[string]interface{})["alias"])
}

func TestParseLocalsAndCollections(t *testing.T) {
	src := `
locals {
  tags = {
    Team = "platform"
    Env  = var.env
  }
  zones = ["a", "b", "c"]
}
`
	tree, err := Parse("main.tf", []byte(src))
	require.NoError(t, err)

	localsList := tree["locals"].([]interface{})
	require.Len(t, localsList, 1)
	locals := localsList[0].(map[string]interface{})

	tags := locals["tags"].(map[string]interface{})
	assert.Equal(t, "platform", tags["Team"])
	assert.Equal(t, "${var.env}", tags["Env"])

	zones := locals["zones"].([]interface{})
	assert.Equal(t, []interface{}{"a", "b", "c"}, zones)
}

func TestParseHeredoc(t *testing.T) {
	src := `
resource "aws_iam_policy" "p" {
  policy = <<EOF
{"Version": "${var.policy_version}"}
EOF
}
`
	tree, err := Parse("main.tf", []byte(src))
	require.NoError(t, err)

	config := leafConfig(t, tree, "resource", "aws_iam_policy", "p")
	assert.Equal(t, "{\"Version\": \"${var.policy_version}\"}\n", config["policy"])
}

func TestParseInvalidSourceFails(t *testing.T) {
	_, err := Parse("broken.tf", []byte(`resource "aws_vpc" {`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeParse))
}

func leafConfig(t *testing.T, tree map[string]interface{}, keys ...string) map[string]interface{} {
	t.Helper()
	node := tree
	for _, key := range keys[:len(keys)-1] {
		next, ok := node[key].(map[string]interface{})
		require.True(t, ok, "missing %q", key)
		node = next
	}
	list, ok := node[keys[len(keys)-1]].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, list)
	return list[0].(map[string]interface{})
}
