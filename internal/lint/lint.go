// Package lint checks mbean struct tags without running the program. It
// loads packages with golang.org/x/tools/go/packages and applies the same
// tag grammar and naming rules the runtime scanner and resolver use.
package lint

import (
	"fmt"
	"go/ast"
	"go/token"
	"path"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/toyz/mbean/internal/annotations"
	"github.com/toyz/mbean/internal/errors"
	"github.com/toyz/mbean/internal/models"
	"github.com/toyz/mbean/internal/resolver"
)

// markerPackage is the last element of the import path markers come from
const markerPackage = "mbean"

var markerKinds = map[string]models.MemberKind{
	"Getter":    models.GetterKind,
	"Setter":    models.SetterKind,
	"Operation": models.OperationKind,
	"Attribute": models.PropertyMethodKind,
}

// Report is the outcome of a lint run
type Report struct {
	Packages int
	Structs  int
	Findings *errors.MultipleErrors
}

// Err returns the findings as one error, or nil when there are none
func (r *Report) Err() error {
	return r.Findings.ErrOrNil()
}

// Linter checks the mbean tags of Go packages
type Linter struct {
	dir    string
	parser *annotations.Parser
}

// New creates a linter resolving package patterns relative to dir; an empty
// dir means the current directory
func New(dir string) *Linter {
	return &Linter{dir: dir, parser: annotations.DefaultParser()}
}

// Run loads the packages matching patterns and checks every struct that
// carries mbean tags. Syntax errors of loaded packages become findings; Run
// itself fails only when loading does.
func (l *Linter) Run(patterns ...string) (*Report, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	cfg := &packages.Config{
		Mode:  packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Dir:   l.dir,
		Tests: false,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, errors.WrapConfigurationError("loading packages", err)
	}
	if len(pkgs) == 0 {
		return nil, errors.Newf(errors.ConfigurationCode, "no packages match %s", strings.Join(patterns, " "))
	}

	report := &Report{Findings: errors.NewMultipleErrors()}
	for _, pkg := range pkgs {
		for _, perr := range pkg.Errors {
			if perr.Kind == packages.ParseError {
				report.Findings.Add(errors.New(errors.MetadataAccessCode, perr.Msg).
					WithContext("package", pkg.PkgPath))
			}
		}
		report.Packages++
		report.Structs += l.checkFiles(pkg.Fset, pkg.Syntax, report.Findings)
	}
	return report, nil
}

// CheckFiles checks already parsed files of one package
func (l *Linter) CheckFiles(fset *token.FileSet, files []*ast.File) *Report {
	report := &Report{Packages: 1, Findings: errors.NewMultipleErrors()}
	report.Structs = l.checkFiles(fset, files, report.Findings)
	return report
}

// structInfo is what the linter knows about one struct type of a package
type structInfo struct {
	name     string
	file     *ast.File
	node     *ast.StructType
	methods  map[string]bool
	embedded []string
	external bool
}

func (l *Linter) checkFiles(fset *token.FileSet, files []*ast.File, findings *errors.MultipleErrors) int {
	structs := make(map[string]*structInfo)
	var order []string

	for _, file := range files {
		ast.Inspect(file, func(n ast.Node) bool {
			ts, ok := n.(*ast.TypeSpec)
			if !ok {
				return true
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				return true
			}
			info := &structInfo{name: ts.Name.Name, file: file, node: st, methods: map[string]bool{}}
			for _, f := range st.Fields.List {
				if len(f.Names) > 0 {
					continue
				}
				switch t := unstar(f.Type).(type) {
				case *ast.Ident:
					info.embedded = append(info.embedded, t.Name)
				default:
					info.external = true
				}
			}
			structs[info.name] = info
			order = append(order, info.name)
			return true
		})
	}
	for _, file := range files {
		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Recv == nil || len(fd.Recv.List) == 0 {
				continue
			}
			if recv, ok := unstar(fd.Recv.List[0].Type).(*ast.Ident); ok {
				if info, found := structs[recv.Name]; found {
					info.methods[fd.Name.Name] = true
				}
			}
		}
	}

	checked := 0
	for _, name := range order {
		if l.checkStruct(fset, structs[name], structs, findings) {
			checked++
		}
	}
	return checked
}

type taggedField struct {
	ident  string
	kind   models.MemberKind
	marker *annotations.ParsedMarker
	loc    errors.SourceLocation
}

func (l *Linter) checkStruct(fset *token.FileSet, info *structInfo, structs map[string]*structInfo, findings *errors.MultipleErrors) bool {
	var tagged []taggedField
	for _, f := range info.node.Fields.List {
		if f.Tag == nil {
			continue
		}
		raw, err := strconv.Unquote(f.Tag.Value)
		if err != nil {
			continue
		}
		tag, ok := reflect.StructTag(raw).Lookup(models.TagKey)
		if !ok || tag == "-" {
			continue
		}

		loc := location(fset, f.Pos())
		kind := markerKind(info.file, f.Type)
		ident := "_"
		if len(f.Names) > 0 {
			ident = f.Names[0].Name
		}
		target := info.name + "." + ident

		if kind == models.FieldKind && ident == "_" {
			findings.Add(errors.Newf(errors.MarkerValidationCode,
				"blank field %s is tagged but is not a marker", target).WithLocation(loc))
			continue
		}
		marker, err := l.parser.Parse(annotations.MarkerTypeFor(kind), target, tag, loc)
		if err != nil {
			addFinding(findings, err, loc)
			continue
		}
		tagged = append(tagged, taggedField{ident: ident, kind: kind, marker: marker, loc: loc})
	}
	if len(tagged) == 0 {
		return false
	}

	methods, fields, complete := collectMembers(info, structs, map[string]bool{})
	l.checkMethods(info, tagged, methods, complete, findings)
	checkNames(tagged, fields, complete, findings)
	return true
}

// collectMembers gathers the methods and property field names visible on a
// struct, following embedded structs of the same package. complete is false
// when an embedded type lives in another package.
func collectMembers(info *structInfo, structs map[string]*structInfo, seen map[string]bool) (map[string]bool, map[string]bool, bool) {
	methods := make(map[string]bool)
	fields := make(map[string]bool)
	complete := !info.external
	if seen[info.name] {
		return methods, fields, complete
	}
	seen[info.name] = true

	for m := range info.methods {
		methods[m] = true
	}
	for _, f := range info.node.Fields.List {
		if f.Tag == nil || len(f.Names) == 0 || f.Names[0].Name == "_" {
			continue
		}
		raw, err := strconv.Unquote(f.Tag.Value)
		if err != nil {
			continue
		}
		tag, ok := reflect.StructTag(raw).Lookup(models.TagKey)
		if !ok || tag == "-" {
			continue
		}
		fields[fieldName(f.Names[0].Name, tag)] = true
	}
	for _, name := range info.embedded {
		inner, ok := structs[name]
		if !ok {
			complete = false
			continue
		}
		im, ifields, icomplete := collectMembers(inner, structs, seen)
		for m := range im {
			methods[m] = true
		}
		for f := range ifields {
			fields[f] = true
		}
		complete = complete && icomplete
	}
	return methods, fields, complete
}

func (l *Linter) checkMethods(info *structInfo, tagged []taggedField, methods map[string]bool, complete bool, findings *errors.MultipleErrors) {
	for _, tf := range tagged {
		if tf.kind == models.FieldKind {
			continue
		}
		method := tf.marker.GetString(annotations.ParamMethod)
		if !token.IsExported(method) {
			findings.Add(errors.Newf(errors.MetadataAccessCode,
				"%s marker on %s names unexported method %s", tf.kind, info.name, method).
				WithLocation(tf.loc).
				WithSuggestion("methods are bound by name and must be exported"))
			continue
		}
		if complete && !methods[method] {
			findings.Add(errors.Newf(errors.MetadataAccessCode,
				"%s marker on %s names missing method %s", tf.kind, info.name, method).
				WithLocation(tf.loc))
		}
	}
}

// checkNames applies the resolver's naming rules within one struct
func checkNames(tagged []taggedField, fields map[string]bool, complete bool, findings *errors.MultipleErrors) {
	seen := map[models.MemberKind]map[string]bool{
		models.FieldKind:          {},
		models.GetterKind:         {},
		models.SetterKind:         {},
		models.PropertyMethodKind: {},
	}
	var accessors []taggedField

	for _, tf := range tagged {
		if tf.kind == models.OperationKind {
			continue
		}
		name := logicalName(tf)
		if seen[tf.kind][name] {
			findings.Add(errors.DuplicateProperty(tf.kind.String(), name).WithLocation(tf.loc))
			continue
		}
		seen[tf.kind][name] = true
		if tf.kind == models.GetterKind || tf.kind == models.SetterKind {
			accessors = append(accessors, tf)
		}
	}

	for _, tf := range tagged {
		if tf.kind != models.PropertyMethodKind {
			continue
		}
		name := logicalName(tf)
		for _, kind := range []models.MemberKind{models.FieldKind, models.GetterKind, models.SetterKind} {
			if seen[kind][name] {
				findings.Add(errors.DuplicateProperty(tf.kind.String(), name).
					WithLocation(tf.loc).
					WithContext("collides_with", kind.String()))
				break
			}
		}
	}

	if !complete {
		return
	}
	for _, tf := range accessors {
		name := logicalName(tf)
		if !fields[name] {
			findings.Add(errors.OrphanedAccessor(tf.kind.String(), name).WithLocation(tf.loc))
		}
	}
}

func logicalName(tf taggedField) string {
	if name := tf.marker.GetString(annotations.ParamName); name != "" {
		return name
	}
	switch tf.kind {
	case models.GetterKind:
		return resolver.GetterName(tf.marker.GetString(annotations.ParamMethod))
	case models.SetterKind:
		return resolver.SetterName(tf.marker.GetString(annotations.ParamMethod))
	case models.PropertyMethodKind:
		return resolver.LowerFirst(tf.marker.GetString(annotations.ParamMethod))
	default:
		return resolver.LowerFirst(tf.ident)
	}
}

// fieldName reads the explicit name of a field tag without validating it
func fieldName(ident, tag string) string {
	for _, item := range strings.Split(tag, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if ok && key == annotations.ParamName {
			return strings.Trim(value, "'")
		}
	}
	return resolver.LowerFirst(ident)
}

// markerKind reports the marker a field type selects. Markers are
// recognised by name when they come from a package named mbean, or when
// the file itself belongs to that package.
func markerKind(file *ast.File, expr ast.Expr) models.MemberKind {
	switch t := expr.(type) {
	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok || !importsMarkers(file, pkg.Name) {
			return models.FieldKind
		}
		if kind, ok := markerKinds[t.Sel.Name]; ok {
			return kind
		}
	case *ast.Ident:
		if file.Name.Name != markerPackage {
			return models.FieldKind
		}
		if kind, ok := markerKinds[t.Name]; ok {
			return kind
		}
	}
	return models.FieldKind
}

func importsMarkers(file *ast.File, local string) bool {
	for _, imp := range file.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path.Base(p) != markerPackage {
			continue
		}
		name := path.Base(p)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if name == local {
			return true
		}
	}
	return false
}

func unstar(expr ast.Expr) ast.Expr {
	if star, ok := expr.(*ast.StarExpr); ok {
		return star.X
	}
	return expr
}

func location(fset *token.FileSet, pos token.Pos) errors.SourceLocation {
	p := fset.Position(pos)
	return errors.SourceLocation{File: p.Filename, Line: p.Line, Column: p.Column}
}

func addFinding(findings *errors.MultipleErrors, err error, loc errors.SourceLocation) {
	var multi *errors.MultipleErrors
	if errors.As(err, &multi) {
		for _, e := range multi.Errors {
			findings.Add(e)
		}
		return
	}
	var be errors.BeanError
	if errors.As(err, &be) {
		findings.Add(be)
		return
	}
	findings.Add(errors.Wrap(errors.MarkerSyntaxCode, fmt.Sprintf("bad tag: %v", err), err).WithLocation(loc))
}

// Sorted returns the findings ordered by file and line
func (r *Report) Sorted() []errors.BeanError {
	out := append([]errors.BeanError(nil), r.Findings.Errors...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Location(), out[j].Location()
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	return out
}
