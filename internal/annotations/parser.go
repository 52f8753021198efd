package annotations

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/mbean/internal/errors"
)

// tagAST is the root of a marker tag: comma separated key[=value] items
type tagAST struct {
	Items []*tagItem `parser:"( @@ ( ',' @@ )* )?"`
}

type tagItem struct {
	Pos   lexer.Position
	Key   string    `parser:"@Word"`
	Value *tagValue `parser:"( '=' @@ )?"`
}

type tagValue struct {
	Quoted *string `parser:"  @String"`
	Word   *string `parser:"| @Word"`
}

func (v *tagValue) text() string {
	if v.Quoted != nil {
		return unquote(*v.Quoted)
	}
	return *v.Word
}

// Parser turns mbean struct tags into validated markers
type Parser struct {
	parser    *participle.Parser[tagAST]
	registry  MarkerRegistry
	validator SchemaValidator
}

// NewParser creates a tag parser backed by registry
func NewParser(registry MarkerRegistry) *Parser {
	lex := lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `'(\\'|[^'])*'`},
		{Name: "Word", Pattern: `[^\s,=']+`},
		{Name: "Punct", Pattern: `[,=]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	parser := participle.MustBuild[tagAST](
		participle.Lexer(lex),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)

	return &Parser{
		parser:    parser,
		registry:  registry,
		validator: NewValidator(),
	}
}

var defaultParser = NewParser(DefaultRegistry())

// DefaultParser returns the parser bound to the default registry
func DefaultParser() *Parser {
	return defaultParser
}

// Parse parses, defaults and validates one tag. target names the struct
// field the tag was read from and only feeds error messages.
func (p *Parser) Parse(markerType MarkerType, target, tag string, loc errors.SourceLocation) (*ParsedMarker, error) {
	schema, err := p.registry.GetSchema(markerType)
	if err != nil {
		return nil, errors.Wrap(errors.MarkerValidationCode, "no schema", err).WithLocation(loc)
	}

	marker := &ParsedMarker{
		Type:       markerType,
		Target:     target,
		Parameters: make(map[string]interface{}),
		Location:   loc,
		Raw:        tag,
	}

	if strings.TrimSpace(tag) != "" {
		ast, err := p.parser.ParseString(target, tag)
		if err != nil {
			pos := 0
			if perr, ok := err.(participle.Error); ok {
				pos = perr.Position().Offset
			}
			return nil, errors.NewSyntaxError(tag, pos, err).WithLocation(loc)
		}
		for _, item := range ast.Items {
			if _, dup := marker.Parameters[item.Key]; dup {
				return nil, errors.NewValidationError(markerType.String(), item.Key, "parameter given once", "repeated").
					WithLocation(loc)
			}
			if item.Value == nil {
				marker.Parameters[item.Key] = true
				continue
			}
			marker.Parameters[item.Key] = item.Value.text()
		}
	}

	if err := p.validator.TransformParameters(marker, schema); err != nil {
		return nil, err
	}
	if err := p.validator.ApplyDefaults(marker, schema); err != nil {
		return nil, err
	}
	if err := p.validator.Validate(marker, schema); err != nil {
		return nil, err
	}

	return marker, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, `\'`, `'`)
}
