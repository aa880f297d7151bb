package lowering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/architect-io/hcl2cdk/pkg/ast"
	"github.com/architect-io/hcl2cdk/pkg/errors"
)

// vpcFile builds a small program: a framework import, a provider binding
// import, and a vpc declaration referencing a variable.
func vpcFile() *ast.File {
	return &ast.File{
		Imports: []ast.Import{
			{Names: []string{"Construct"}, From: "constructs"},
			{Names: []string{"TerraformVariable", "Token"}, From: "cdktf"},
			{Names: []string{"AwsProvider", "AwsVpc"}, From: "./.gen/providers/aws"},
		},
		Statements: []ast.Stmt{
			&ast.ConstDecl{Name: "main", Value: &ast.New{
				Ctor: "AwsVpc",
				Args: []ast.Expr{
					&ast.Ident{Name: "this"},
					ast.Str("main"),
					&ast.Object{Entries: []ast.ObjectEntry{
						{Key: "cidrBlock", Value: ast.Str("10.0.0.0/16")},
						{Key: "enableDns", Value: &ast.BoolLit{Value: true}},
						{Key: "maxSize", Value: &ast.NumberLit{Text: "3"}},
					}},
				},
			}},
			&ast.ExprStmt{X: &ast.Member{X: &ast.Ident{Name: "main"}, Name: "id"}},
		},
	}
}

func TestTranslateTypeScriptPassesThrough(t *testing.T) {
	translation, err := Translate(vpcFile(), LanguageTypeScript)
	require.NoError(t, err)

	assert.Contains(t, translation.Imports, `import { Construct } from "constructs";`)
	assert.Contains(t, translation.Imports, `import { AwsProvider, AwsVpc } from "./.gen/providers/aws";`)
	assert.Contains(t, translation.Code, `const main = new AwsVpc(this, "main", {`)
	assert.Contains(t, translation.Code, `cidrBlock: "10.0.0.0/16",`)
	assert.Empty(t, translation.Diagnostics)
}

func TestTranslatePython(t *testing.T) {
	translation, err := Translate(vpcFile(), LanguagePython)
	require.NoError(t, err)

	assert.Contains(t, translation.Imports, "from imports.aws import AwsProvider, AwsVpc")
	assert.Contains(t, translation.Code, `main = AwsVpc(self, "main",`)
	assert.Contains(t, translation.Code, `cidr_block="10.0.0.0/16"`)
	assert.Contains(t, translation.Code, "enable_dns=True")
	assert.Contains(t, translation.Code, "main.id")
}

func TestTranslateJavaBuilders(t *testing.T) {
	translation, err := Translate(vpcFile(), LanguageJava)
	require.NoError(t, err)

	assert.Contains(t, translation.Imports, "import imports.aws.AwsVpc;")
	assert.Contains(t, translation.Code, `var main = AwsVpc.Builder.create(this, "main")`)
	assert.Contains(t, translation.Code, `.cidrBlock("10.0.0.0/16")`)
	assert.Contains(t, translation.Code, ".build()")
}

func TestTranslateCSharpInitializers(t *testing.T) {
	translation, err := Translate(vpcFile(), LanguageCSharp)
	require.NoError(t, err)

	assert.Contains(t, translation.Imports, "using Imports.Aws;")
	assert.Contains(t, translation.Code, `var main = new AwsVpc(this, "main", new AwsVpcConfig {`)
	assert.Contains(t, translation.Code, `CidrBlock = "10.0.0.0/16"`)
}

func TestTranslateGoWrapsLiterals(t *testing.T) {
	translation, err := Translate(vpcFile(), LanguageGo)
	require.NoError(t, err)

	assert.Contains(t, translation.Imports, `"github.com/aws/jsii-runtime-go"`)
	assert.Contains(t, translation.Code, `main := aws.NewAwsVpc(stack, jsii.String("main"), &aws.AwsVpcConfig{`)
	assert.Contains(t, translation.Code, `CidrBlock: jsii.String("10.0.0.0/16")`)
	assert.Contains(t, translation.Code, "MaxSize: jsii.Number(3)")
}

func TestTranslateGoReportsConditionalError(t *testing.T) {
	f := &ast.File{
		Statements: []ast.Stmt{
			&ast.ConstDecl{Name: "mode", Value: &ast.Cond{
				Cond: &ast.BoolLit{Value: true},
				Then: ast.Str("strict"),
				Else: ast.Str("lax"),
			}},
		},
	}
	translation, err := Translate(f, LanguageGo)
	require.NoError(t, err)

	msgs := translation.ErrorMessages()
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[0], "conditional")
}

func TestTranslateTemplates(t *testing.T) {
	f := &ast.File{
		Statements: []ast.Stmt{
			&ast.ConstDecl{Name: "name", Value: &ast.Template{Parts: []ast.Expr{
				ast.Str("app-"),
				&ast.Member{X: &ast.Ident{Name: "env"}, Name: "value"},
			}}},
		},
	}

	ts, err := Translate(f, LanguageTypeScript)
	require.NoError(t, err)
	assert.Contains(t, ts.Code, "`app-${env.value}`")

	py, err := Translate(f, LanguagePython)
	require.NoError(t, err)
	assert.Contains(t, py.Code, `f"app-{env.value}"`)

	cs, err := Translate(f, LanguageCSharp)
	require.NoError(t, err)
	assert.Contains(t, cs.Code, `$"app-{env.Value}"`)

	java, err := Translate(f, LanguageJava)
	require.NoError(t, err)
	assert.Contains(t, java.Code, `"app-" + env.value`)
}

func TestTranslateUnknownLanguageFails(t *testing.T) {
	_, err := Translate(&ast.File{}, "cobol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupportedLanguage))
	assert.Contains(t, err.Error(), "typescript")
}
