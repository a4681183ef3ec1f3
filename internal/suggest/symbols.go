package suggest

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	clang "github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Symbol is a named declaration found in a source file.
type Symbol struct {
	Name string
	Kind string // "function", "method", "class", "type", ...
	Line int    // 1-indexed
}

// SymbolExtractor pulls declaration names out of source files using
// tree-sitter.
type SymbolExtractor struct {
	parsers map[string]*sitter.Parser
}

func NewSymbolExtractor() *SymbolExtractor {
	return &SymbolExtractor{parsers: make(map[string]*sitter.Parser)}
}

// Close releases the cached parsers.
func (e *SymbolExtractor) Close() {
	for lang, p := range e.parsers {
		p.Close()
		delete(e.parsers, lang)
	}
}

// SupportedLanguages returns the languages symbols can be extracted from
func (e *SymbolExtractor) SupportedLanguages() []string {
	return []string{
		"go", "python", "javascript", "typescript", "rust",
		"ruby", "java", "c", "cpp", "csharp", "bash",
	}
}

func (e *SymbolExtractor) parser(lang string) (*sitter.Parser, error) {
	if p, ok := e.parsers[lang]; ok {
		return p, nil
	}

	var tsLang *sitter.Language
	switch lang {
	case "go":
		tsLang = golang.GetLanguage()
	case "python":
		tsLang = python.GetLanguage()
	case "javascript":
		tsLang = javascript.GetLanguage()
	case "typescript":
		tsLang = typescript.GetLanguage()
	case "rust":
		tsLang = rust.GetLanguage()
	case "ruby":
		tsLang = ruby.GetLanguage()
	case "java":
		tsLang = java.GetLanguage()
	case "c":
		tsLang = clang.GetLanguage()
	case "cpp":
		tsLang = cpp.GetLanguage()
	case "csharp":
		tsLang = csharp.GetLanguage()
	case "bash":
		tsLang = bash.GetLanguage()
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	p := sitter.NewParser()
	p.SetLanguage(tsLang)
	e.parsers[lang] = p
	return p, nil
}

// Symbols extracts the declarations in source. Files in languages without a
// grammar yield no symbols and no error.
func (e *SymbolExtractor) Symbols(ctx context.Context, source []byte, filename string) ([]Symbol, error) {
	lang := DetectLanguage(filename)
	if lang == "" {
		return nil, fmt.Errorf("unsupported file type: %s", filename)
	}

	p, err := e.parser(lang)
	if err != nil {
		return nil, nil
	}

	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	defer tree.Close()

	var symbols []Symbol
	walk(tree.RootNode(), source, declarationKinds(lang), &symbols)
	return symbols, nil
}

// declarationKinds maps AST node types to symbol kinds
func declarationKinds(lang string) map[string]string {
	switch lang {
	case "go":
		return map[string]string{
			"function_declaration": "function",
			"method_declaration":   "method",
			"type_spec":            "type",
			"const_spec":           "const",
		}
	case "python":
		return map[string]string{
			"function_definition": "function",
			"class_definition":    "class",
		}
	case "javascript", "typescript":
		return map[string]string{
			"function_declaration":   "function",
			"method_definition":      "method",
			"class_declaration":      "class",
			"interface_declaration":  "interface",
			"type_alias_declaration": "type",
			"enum_declaration":       "enum",
		}
	case "rust":
		return map[string]string{
			"function_item":    "function",
			"struct_item":      "struct",
			"enum_item":        "enum",
			"trait_item":       "trait",
			"mod_item":         "module",
			"const_item":       "const",
			"type_item":        "type",
			"macro_definition": "macro",
		}
	case "java":
		return map[string]string{
			"method_declaration":      "method",
			"constructor_declaration": "constructor",
			"class_declaration":       "class",
			"interface_declaration":   "interface",
			"enum_declaration":        "enum",
		}
	case "ruby":
		return map[string]string{
			"method":           "method",
			"singleton_method": "method",
			"class":            "class",
			"module":           "module",
		}
	case "c", "cpp":
		return map[string]string{
			"function_definition":  "function",
			"struct_specifier":     "struct",
			"class_specifier":      "class",
			"enum_specifier":       "enum",
			"namespace_definition": "namespace",
		}
	case "csharp":
		return map[string]string{
			"method_declaration":      "method",
			"constructor_declaration": "constructor",
			"class_declaration":       "class",
			"interface_declaration":   "interface",
			"struct_declaration":      "struct",
			"enum_declaration":        "enum",
		}
	case "bash":
		return map[string]string{
			"function_definition": "function",
		}
	default:
		return map[string]string{}
	}
}

func walk(node *sitter.Node, source []byte, kinds map[string]string, out *[]Symbol) {
	if kind, ok := kinds[node.Type()]; ok {
		if name := nameOf(node, source); name != "" {
			*out = append(*out, Symbol{
				Name: name,
				Kind: kind,
				Line: int(node.StartPoint().Row) + 1,
			})
		}
	}

	// nested declarations (methods in classes) are symbols too
	for i := 0; i < int(node.NamedChildCount()); i++ {
		walk(node.NamedChild(i), source, kinds, out)
	}
}

// nameOf finds the declared name. C-family functions keep it behind one or
// more declarators.
func nameOf(node *sitter.Node, source []byte) string {
	switch node.Type() {
	case "identifier", "field_identifier", "type_identifier", "constant", "name", "word":
		return node.Content(source)
	}
	if n := node.ChildByFieldName("name"); n != nil {
		return n.Content(source)
	}
	if d := node.ChildByFieldName("declarator"); d != nil {
		return nameOf(d, source)
	}
	return ""
}
