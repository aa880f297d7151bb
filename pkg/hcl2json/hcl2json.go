// Package hcl2json converts Terraform HCL source into the JSON-shaped tree
// consumed by the conversion pipeline. Scalar literals become native JSON
// values, tuple and object constructors become arrays and maps, and templates
// keep their literal text with each interpolation wrapped in "${...}"; every
// other expression is preserved verbatim as an interpolation string so later
// stages can re-parse it with full fidelity.
package hcl2json

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/architect-io/hcl2cdk/pkg/errors"
)

// Parse parses hclText as Terraform HCL and returns the JSON-shaped tree.
// Block bodies are grouped by block type, then by label, with a list at the
// leaf so repeated blocks accumulate in source order.
func Parse(filename string, hclText []byte) (map[string]interface{}, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(hclText, filename)
	if diags.HasErrors() {
		return nil, errors.ParseError(filename, diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, errors.ParseError(filename, fmt.Errorf("unexpected body type %T", file.Body))
	}
	c := &converter{src: hclText}
	return c.convertBody(body)
}

type converter struct {
	src []byte
}

func (c *converter) convertBody(body *hclsyntax.Body) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	for name, attr := range body.Attributes {
		value, err := c.convertExpr(attr.Expr)
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	for _, block := range body.Blocks {
		if err := c.convertBlock(block, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// convertBlock inserts a block's body into out, descending through its
// labels and appending to the list at the leaf.
func (c *converter) convertBlock(block *hclsyntax.Block, out map[string]interface{}) error {
	node := out
	key := block.Type
	for _, label := range block.Labels {
		child, ok := node[key].(map[string]interface{})
		if !ok {
			if _, exists := node[key]; exists {
				return errors.ParseError(block.DefRange().Filename,
					fmt.Errorf("block %q at %s mixes labeled and unlabeled forms", block.Type, block.DefRange()))
			}
			child = make(map[string]interface{})
			node[key] = child
		}
		node = child
		key = label
	}
	body, err := c.convertBody(block.Body)
	if err != nil {
		return err
	}
	list, _ := node[key].([]interface{})
	node[key] = append(list, body)
	return nil
}

func (c *converter) convertExpr(expr hclsyntax.Expression) (interface{}, error) {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return ctyToNative(e.Val)
	case *hclsyntax.TemplateExpr:
		return c.convertTemplate(e)
	case *hclsyntax.TemplateWrapExpr:
		return c.wrap(e.Wrapped), nil
	case *hclsyntax.TupleConsExpr:
		items := make([]interface{}, 0, len(e.Exprs))
		for _, item := range e.Exprs {
			value, err := c.convertExpr(item)
			if err != nil {
				return nil, err
			}
			items = append(items, value)
		}
		return items, nil
	case *hclsyntax.ObjectConsExpr:
		obj := make(map[string]interface{}, len(e.Items))
		for _, item := range e.Items {
			key, err := c.objectKey(item.KeyExpr)
			if err != nil {
				return nil, err
			}
			value, err := c.convertExpr(item.ValueExpr)
			if err != nil {
				return nil, err
			}
			obj[key] = value
		}
		return obj, nil
	default:
		return c.wrap(expr), nil
	}
}

// convertTemplate flattens a quoted or heredoc template into a single string.
// Literal parts contribute their text; interpolations are kept verbatim
// inside ${...} markers.
func (c *converter) convertTemplate(t *hclsyntax.TemplateExpr) (interface{}, error) {
	if t.IsStringLiteral() {
		value, diags := t.Value(nil)
		if diags.HasErrors() {
			return nil, errors.ParseError(t.SrcRange.Filename, diags)
		}
		return value.AsString(), nil
	}
	var out string
	for _, part := range t.Parts {
		if lit, ok := part.(*hclsyntax.LiteralValueExpr); ok && lit.Val.Type() == cty.String {
			out += lit.Val.AsString()
			continue
		}
		out += c.wrap(part)
	}
	return out, nil
}

func (c *converter) objectKey(expr hclsyntax.Expression) (string, error) {
	if keyExpr, ok := expr.(*hclsyntax.ObjectConsKeyExpr); ok {
		if keyword := hcl.ExprAsKeyword(keyExpr); keyword != "" {
			return keyword, nil
		}
		expr = keyExpr.Wrapped.(hclsyntax.Expression)
	}
	value, err := c.convertExpr(expr)
	if err != nil {
		return "", err
	}
	if s, ok := value.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", value), nil
}

// wrap returns the expression's source text enclosed in interpolation
// markers, the verbatim form carried through the rest of the pipeline.
func (c *converter) wrap(expr hclsyntax.Expression) string {
	return "${" + c.rawSource(expr.Range()) + "}"
}

func (c *converter) rawSource(rng hcl.Range) string {
	return string(rng.SliceBytes(c.src))
}

func ctyToNative(val cty.Value) (interface{}, error) {
	if val.IsNull() {
		return nil, nil
	}
	switch val.Type() {
	case cty.String:
		return val.AsString(), nil
	case cty.Bool:
		return val.True(), nil
	case cty.Number:
		bf := val.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	}
	return nil, fmt.Errorf("unsupported literal type %s", val.Type().FriendlyName())
}
