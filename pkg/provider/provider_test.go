package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const awsSchemaJSON = `{
  "provider_schemas": {
    "registry.terraform.io/hashicorp/aws": {
      "provider": {
        "version": 0,
        "block": {
          "attributes": {
            "region": {"type": "string", "optional": true}
          }
        }
      },
      "resource_schemas": {
        "aws_vpc": {
          "version": 1,
          "block": {
            "attributes": {
              "cidr_block": {"type": "string", "optional": true},
              "id": {"type": "string", "computed": true},
              "tags": {"type": ["map", "string"], "optional": true}
            },
            "block_types": {
              "timeouts": {
                "nesting_mode": "single",
                "block": {
                  "attributes": {
                    "create": {"type": "string", "optional": true}
                  }
                }
              }
            }
          }
        }
      },
      "data_source_schemas": {
        "aws_ami": {
          "version": 0,
          "block": {
            "attributes": {
              "most_recent": {"type": "bool", "optional": true}
            }
          }
        }
      }
    }
  }
}`

func TestDecodeCatalog(t *testing.T) {
	catalog, err := Decode([]byte(awsSchemaJSON))
	require.NoError(t, err)

	fqpn, schema, ok := catalog.LookupProvider("aws")
	require.True(t, ok)
	assert.Equal(t, "registry.terraform.io/hashicorp/aws", fqpn)
	require.NotNil(t, schema.Provider)
	assert.Equal(t, cty.String, schema.Provider.Block.Attributes["region"].Type)

	vpc, ok := catalog.LookupResource("aws_vpc")
	require.True(t, ok)
	assert.Equal(t, 1, vpc.Version)
	assert.True(t, vpc.Block.Attributes["id"].Computed)
	assert.Equal(t, cty.Map(cty.String), vpc.Block.Attributes["tags"].Type)
	assert.Equal(t, "single", vpc.Block.BlockTypes["timeouts"].NestingMode)

	ami, ok := catalog.LookupDataSource("aws_ami")
	require.True(t, ok)
	assert.Equal(t, cty.Bool, ami.Block.Attributes["most_recent"].Type)
}

func TestLookupResourcePrefersLongestProviderPrefix(t *testing.T) {
	catalog := &Catalog{Providers: map[string]*Schema{
		"registry.terraform.io/hashicorp/aws": {
			ResourceSchemas: map[string]*BlockType{},
		},
		"registry.terraform.io/example/awscc": {
			ResourceSchemas: map[string]*BlockType{
				"awscc_s3_bucket": {Block: &Block{}},
			},
		},
	}}

	bt, ok := catalog.LookupResource("awscc_s3_bucket")
	require.True(t, ok)
	assert.NotNil(t, bt)
}

func TestDecodeInvalidJSONFails(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	require.Error(t, err)
}

func TestProviderName(t *testing.T) {
	assert.Equal(t, "aws", ProviderName("registry.terraform.io/hashicorp/aws"))
	assert.Equal(t, "google", ProviderName("hashicorp/google"))
	assert.Equal(t, "null", ProviderName("null"))
	assert.Equal(t, "aws", ProviderName("hashicorp/aws@5.0.1"))
}

func TestClassName(t *testing.T) {
	assert.Equal(t, "NullResource", ClassName("null_resource"))
	assert.Equal(t, "AwsVpc", ClassName("aws_vpc"))
	assert.Equal(t, "AwsS3BucketObject", ClassName("aws_s3_bucket_object"))
}

func TestCamelize(t *testing.T) {
	assert.Equal(t, "cidrBlock", Camelize("cidr_block"))
	assert.Equal(t, "mostRecent", Camelize("most_recent"))
	assert.Equal(t, "region", Camelize("region"))
}

func TestGeneratorCachesModels(t *testing.T) {
	catalog, err := Decode([]byte(awsSchemaJSON))
	require.NoError(t, err)
	gen := NewGenerator(catalog)

	model, ok := gen.ResourceModel("aws_vpc")
	require.True(t, ok)
	assert.Equal(t, "AwsVpc", model.ClassName)
	assert.Equal(t, "cidrBlock", model.Attributes["cidr_block"])

	again, ok := gen.ResourceModel("aws_vpc")
	require.True(t, ok)
	assert.Same(t, model, again)

	_, ok = gen.ResourceModel("unknown_thing")
	assert.False(t, ok)
	_, ok = gen.ResourceModel("unknown_thing")
	assert.False(t, ok, "negative lookups are cached")
}
