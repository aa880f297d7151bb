// Package lowering turns the language-neutral program AST into source text
// for one of the supported target languages. The reference language,
// TypeScript, is rendered directly; the other backends translate
// expressions and declarations best-effort and report diagnostics for
// constructs they can only approximate.
package lowering

import (
	"github.com/architect-io/hcl2cdk/pkg/ast"
	"github.com/architect-io/hcl2cdk/pkg/errors"
)

// Supported target languages.
const (
	LanguageTypeScript = "typescript"
	LanguagePython     = "python"
	LanguageJava       = "java"
	LanguageCSharp     = "csharp"
	LanguageGo         = "go"
)

// Languages lists the supported targets in display order.
var Languages = []string{
	LanguageTypeScript,
	LanguagePython,
	LanguageJava,
	LanguageCSharp,
	LanguageGo,
}

// Severity classifies a lowering diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one lowering finding.
type Diagnostic struct {
	Severity Severity
	Message  string
}

// Translation is the lowered program, split the same way the conversion
// result is.
type Translation struct {
	Imports     string
	Code        string
	Diagnostics []Diagnostic
}

// ErrorMessages returns the messages of all error-severity diagnostics.
func (t *Translation) ErrorMessages() []string {
	var msgs []string
	for _, d := range t.Diagnostics {
		if d.Severity == SeverityError {
			msgs = append(msgs, d.Message)
		}
	}
	return msgs
}

// backend lowers one target language.
type backend interface {
	lower(f *ast.File) *Translation
}

var backends = map[string]backend{
	LanguageTypeScript: typescriptBackend{},
	LanguagePython:     pythonBackend{},
	LanguageJava:       javaBackend{},
	LanguageCSharp:     csharpBackend{},
	LanguageGo:         goBackend{},
}

// Translate lowers the program to the given language. Unknown languages are
// rejected; translation problems are reported as diagnostics on the result
// rather than errors.
func Translate(f *ast.File, language string) (*Translation, error) {
	b, ok := backends[language]
	if !ok {
		return nil, errors.UnsupportedLanguage(language, Languages)
	}
	return b.lower(f), nil
}
