// Package objectname parses management object names of the form
// domain:key=value[,key=value]* and the patterns used to query them.
package objectname

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/mbean/internal/errors"
)

// Wildcard tokens accepted in patterns
const (
	AnyChars    = "*"
	AnyChar     = "?"
	AnyProperty = "*"
)

const wildcards = AnyChars + AnyChar

type nameAST struct {
	Domain string     `parser:"@Text ':'"`
	Props  []*propAST `parser:"@@ ( ',' @@ )*"`
}

type propAST struct {
	Pos   lexer.Position
	Key   string   `parser:"@Text"`
	Value *valueAST `parser:"( '=' @@ )?"`
}

type valueAST struct {
	Quoted *string `parser:"  @String"`
	Text   *string `parser:"| @Text"`
}

func (v *valueAST) String() string {
	if v.Quoted != nil {
		return strings.Trim(*v.Quoted, `"`)
	}
	return *v.Text
}

var nameLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Text", Pattern: `[^\s:,="]+`},
	{Name: "Punct", Pattern: `[:,=]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var nameParser = participle.MustBuild[nameAST](
	participle.Lexer(nameLexer),
	participle.Elide("Whitespace"),
)

// Property is one key=value pair of a name
type Property struct {
	Key   string
	Value string
}

// Name is a parsed object name or pattern
type Name struct {
	domain          string
	props           []Property
	propertyPattern bool
	canonical       string

	domainRe *regexp.Regexp
	valueRe  map[string]*regexp.Regexp
}

// Parse parses a concrete object name. Wildcards are rejected.
func Parse(s string) (*Name, error) {
	n, err := parse(s)
	if err != nil {
		return nil, err
	}
	if n.IsPattern() {
		return nil, errors.InvalidName(s, fmt.Errorf("wildcards are only allowed in patterns"))
	}
	return n, nil
}

// ParsePattern parses an object name that may contain wildcards
func ParsePattern(s string) (*Name, error) {
	return parse(s)
}

// MustParse is like Parse but panics on error
func MustParse(s string) *Name {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Valid reports whether s is a well formed concrete object name
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func parse(s string) (*Name, error) {
	ast, err := nameParser.ParseString("", s)
	if err != nil {
		return nil, errors.InvalidName(s, err)
	}

	n := &Name{domain: ast.Domain, valueRe: make(map[string]*regexp.Regexp)}
	seen := make(map[string]bool, len(ast.Props))
	for i, p := range ast.Props {
		if p.Key == AnyProperty && p.Value == nil {
			if i != len(ast.Props)-1 {
				return nil, errors.InvalidName(s, fmt.Errorf("property wildcard must come last"))
			}
			n.propertyPattern = true
			continue
		}
		if p.Value == nil {
			return nil, errors.InvalidName(s, fmt.Errorf("property %q has no value", p.Key)).
				WithLocation(errors.SourceLocation{Column: p.Pos.Column})
		}
		if strings.ContainsAny(p.Key, wildcards) {
			return nil, errors.InvalidName(s, fmt.Errorf("wildcards are not allowed in key %q", p.Key))
		}
		if seen[p.Key] {
			return nil, errors.InvalidName(s, fmt.Errorf("duplicate key %q", p.Key))
		}
		seen[p.Key] = true
		value := p.Value.String()
		if value == "" {
			return nil, errors.InvalidName(s, fmt.Errorf("property %q has an empty value", p.Key))
		}
		n.props = append(n.props, Property{Key: p.Key, Value: value})
		if strings.ContainsAny(value, wildcards) {
			n.valueRe[p.Key] = globRegexp(value)
		}
	}
	if len(n.props) == 0 && !n.propertyPattern {
		return nil, errors.InvalidName(s, fmt.Errorf("at least one key=value property is required"))
	}
	if strings.ContainsAny(n.domain, wildcards) {
		n.domainRe = globRegexp(n.domain)
	}
	n.canonical = n.buildCanonical()
	return n, nil
}

// globRegexp turns a pattern with * and ? into an anchored regular expression
func globRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch string(r) {
		case AnyChars:
			b.WriteString(".*")
		case AnyChar:
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

func (n *Name) buildCanonical() string {
	props := n.Properties()
	sort.Slice(props, func(i, j int) bool { return props[i].Key < props[j].Key })
	parts := make([]string, 0, len(props)+1)
	for _, p := range props {
		parts = append(parts, p.Key+"="+p.Value)
	}
	if n.propertyPattern {
		parts = append(parts, AnyProperty)
	}
	return n.domain + ":" + strings.Join(parts, ",")
}

// Domain returns the part before the colon
func (n *Name) Domain() string { return n.domain }

// Properties returns the key=value pairs in written order
func (n *Name) Properties() []Property {
	return append([]Property(nil), n.props...)
}

// Key returns the value of key
func (n *Name) Key(key string) (string, bool) {
	for _, p := range n.props {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// IsPattern reports whether n contains any wildcard
func (n *Name) IsPattern() bool {
	return n.propertyPattern || n.domainRe != nil || len(n.valueRe) > 0
}

// IsPropertyPattern reports whether n ends with the ",*" property wildcard
func (n *Name) IsPropertyPattern() bool { return n.propertyPattern }

// Canonical returns the name with its properties sorted by key
func (n *Name) Canonical() string { return n.canonical }

// String returns the canonical form
func (n *Name) String() string { return n.canonical }

// Matches reports whether the concrete name other is selected by n. Without
// the property wildcard both names must carry exactly the same keys.
func (n *Name) Matches(other *Name) bool {
	if other == nil {
		return false
	}
	if n.domainRe != nil {
		if !n.domainRe.MatchString(other.domain) {
			return false
		}
	} else if n.domain != other.domain {
		return false
	}

	if !n.propertyPattern && len(n.props) != len(other.props) {
		return false
	}
	for _, p := range n.props {
		value, ok := other.Key(p.Key)
		if !ok {
			return false
		}
		if re, glob := n.valueRe[p.Key]; glob {
			if !re.MatchString(value) {
				return false
			}
		} else if value != p.Value {
			return false
		}
	}
	return true
}

// MatchString parses s as a concrete name and matches it against n
func (n *Name) MatchString(s string) bool {
	other, err := Parse(s)
	if err != nil {
		return false
	}
	return n.Matches(other)
}
