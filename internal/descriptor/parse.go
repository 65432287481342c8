// Package descriptor parses build descriptors (build.hcl and build.toml) into
// the structured settings the reconciler maps onto the host model.
//
// HCL descriptors support variable blocks, var.NAME references and the env()
// function. TOML descriptors carry the same blocks as tables without
// expression support.
package descriptor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pelletier/go-toml/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/launchcg/jsync/internal/errors"
)

// Parser wraps HCL parsing functionality and provides a reusable parser instance.
// HCL files are cached by name, so a Parser must not be reused to re-read a
// file whose content may have changed; use Parse for that.
type Parser struct {
	parser *hclparse.Parser
}

// NewParser creates a new descriptor parser instance.
func NewParser() *Parser {
	return &Parser{
		parser: hclparse.NewParser(),
	}
}

// Load reads and parses the descriptor at path.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("descriptor", path)
		}
		return nil, errors.Wrap(err, "reading descriptor")
	}
	return NewParser().Parse(path, data)
}

// Parse decodes descriptor content. The format is chosen from the file
// extension of filename; anything other than .toml is treated as HCL.
// Every failure is returned as a *errors.ConfigError.
func (p *Parser) Parse(filename string, data []byte) (*Descriptor, error) {
	var (
		d   *Descriptor
		err error
	)
	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		d, err = parseTOML(filename, data)
	} else {
		d, err = p.parseHCL(filename, data)
	}
	if err != nil {
		return nil, err
	}

	d.File = filename
	if err := d.Validate(); err != nil {
		return nil, errors.NewConfigError(filename, 0, 0, "invalid descriptor", err)
	}
	return d, nil
}

// Parse decodes descriptor content with a fresh parser.
func Parse(filename string, data []byte) (*Descriptor, error) {
	return NewParser().Parse(filename, data)
}

func (p *Parser) parseHCL(filename string, data []byte) (*Descriptor, error) {
	file, diags := p.parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diagnosticsError(filename, "syntax error", diags)
	}

	variables, resolved, remain, err := extractAndResolveVariables(filename, file.Body)
	if err != nil {
		return nil, err
	}

	var d Descriptor
	ctx := NewEvalContext(resolved)
	if diags := gohcl.DecodeBody(remain, ctx, &d); diags.HasErrors() {
		return nil, diagnosticsError(filename, "decode error", diags)
	}
	d.Variables = variables
	return &d, nil
}

func parseTOML(filename string, data []byte) (*Descriptor, error) {
	var d Descriptor
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		var decErr *toml.DecodeError
		if errors.As(err, &decErr) {
			line, col := decErr.Position()
			return nil, errors.NewConfigError(filename, line, col, "syntax error", err)
		}
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) && len(strictErr.Errors) > 0 {
			line, col := strictErr.Errors[0].Position()
			return nil, errors.NewConfigError(filename, line, col, "unknown field", err)
		}
		return nil, errors.NewConfigError(filename, 0, 0, "decode error", err)
	}
	return &d, nil
}

// diagnosticsError converts HCL diagnostics into a ConfigError located at
// the first error's subject.
func diagnosticsError(filename, msg string, diags hcl.Diagnostics) error {
	line, col := 0, 0
	for _, diag := range diags {
		if diag.Severity == hcl.DiagError && diag.Subject != nil {
			line, col = diag.Subject.Start.Line, diag.Subject.Start.Column
			break
		}
	}
	return errors.NewConfigError(filename, line, col, msg, diags)
}

// NewEvalContext creates an HCL evaluation context for descriptors.
// It includes the env() function and a var object containing resolved variable values.
func NewEvalContext(resolvedVars map[string]string) *hcl.EvalContext {
	ctyVars := make(map[string]cty.Value, len(resolvedVars))
	for name, value := range resolvedVars {
		ctyVars[name] = cty.StringVal(value)
	}

	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": envFunction(),
		},
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(ctyVars),
		},
	}
}

var variableBlockSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "variable", LabelNames: []string{"name"}},
	},
}

// extractAndResolveVariables pulls variable blocks out of body and resolves
// their values. The remaining body is returned for decoding.
func extractAndResolveVariables(filename string, body hcl.Body) ([]VariableBlock, map[string]string, hcl.Body, error) {
	content, remain, diags := body.PartialContent(variableBlockSchema)
	if diags.HasErrors() {
		return nil, nil, nil, diagnosticsError(filename, "invalid variable block", diags)
	}

	var variables []VariableBlock
	resolved := make(map[string]string)

	// Variables may use env() but not each other.
	basicCtx := &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": envFunction(),
		},
	}

	for _, block := range content.Blocks {
		v := VariableBlock{Name: block.Labels[0]}
		if _, dup := resolved[v.Name]; dup {
			r := block.DefRange
			return nil, nil, nil, errors.NewConfigError(filename, r.Start.Line, r.Start.Column,
				fmt.Sprintf("duplicate variable %q", v.Name), nil)
		}

		if diags := gohcl.DecodeBody(block.Body, basicCtx, &v); diags.HasErrors() {
			return nil, nil, nil, diagnosticsError(filename, fmt.Sprintf("invalid variable %q", v.Name), diags)
		}

		value, err := resolveVariable(&v)
		if err != nil {
			r := block.DefRange
			return nil, nil, nil, errors.NewConfigError(filename, r.Start.Line, r.Start.Column, "unresolved variable", err)
		}

		variables = append(variables, v)
		resolved[v.Name] = value
	}

	return variables, resolved, remain, nil
}

// resolveVariable resolves the value for a descriptor variable.
// Resolution order: env var (if specified) -> default -> error if required -> empty string
func resolveVariable(v *VariableBlock) (string, error) {
	if v.Env != "" {
		if val, ok := os.LookupEnv(v.Env); ok {
			return val, nil
		}
	}

	if v.Default != "" {
		return v.Default, nil
	}

	if v.Required {
		return "", fmt.Errorf("required variable %q has no value (set via env var %q or default)", v.Name, v.Env)
	}

	return "", nil
}

// envFunction returns an HCL function that reads environment variables.
// Usage in HCL: env("VAR_NAME") or env("VAR_NAME", "default_value")
func envFunction() function.Function {
	return function.New(&function.Spec{
		Description: "Reads an environment variable, with an optional default value",
		Params: []function.Parameter{
			{
				Name:        "name",
				Type:        cty.String,
				Description: "The name of the environment variable to read",
			},
		},
		VarParam: &function.Parameter{
			Name:        "default",
			Type:        cty.String,
			Description: "Optional default value if the environment variable is not set",
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			value := os.Getenv(args[0].AsString())
			if value == "" && len(args) > 1 {
				value = args[1].AsString()
			}
			return cty.StringVal(value), nil
		},
	})
}
