package graph

import (
	"fmt"
	"sort"
	"strings"

	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

const (
	dateScalarName = "Date"
	// インラインのDateリテラルを移し替える変数名の接頭辞
	dateVariablePrefix = "gqlboardDateLiteral"
)

// bindDateLiterals はDate型の引数に直接書かれたリテラルを変数に置き換えた文書と変数を返す。
//
// graphql-goはIntリテラルをint32として解釈するため、エポックミリ秒のリテラルはそのままでは
// Dateに届かない。Intリテラルはint64の変数値に移し、Int以外のリテラルはエラーにする。
// Dateリテラルを含まない文書や構文エラーの文書は変更せずに返す。
func bindDateLiterals(schema *ast.Schema, query, operationName string, variables map[string]interface{}) (string, map[string]interface{}, *gqlerrors.QueryError) {
	doc, parseErr := parser.ParseQuery(&ast.Source{Input: query})
	if parseErr != nil {
		return query, variables, nil
	}

	b := &literalBinder{
		schema:   schema,
		doc:      doc,
		provided: variables,
		names:    map[*ast.Value]string{},
		values:   map[string]interface{}{},
		declared: map[string]bool{},
	}
	for _, op := range doc.Operations {
		for _, vd := range op.VariableDefinitions {
			b.declared[vd.Variable] = true
		}
	}

	selected := selectOperation(doc, operationName)
	for _, op := range doc.Operations {
		if qerr := b.operation(op, op == selected); qerr != nil {
			return query, variables, qerr
		}
	}

	if !b.changed {
		return query, variables, nil
	}

	merged := make(map[string]interface{}, len(variables)+len(b.values))
	for k, v := range variables {
		merged[k] = v
	}
	for k, v := range b.values {
		merged[k] = v
	}

	var sb strings.Builder
	formatter.NewFormatter(&sb).FormatQueryDocument(doc)
	return sb.String(), merged, nil
}

func selectOperation(doc *ast.QueryDocument, operationName string) *ast.OperationDefinition {
	if operationName == "" {
		if len(doc.Operations) == 1 {
			return doc.Operations[0]
		}
		return nil
	}
	return doc.Operations.ForName(operationName)
}

type literalBinder struct {
	schema   *ast.Schema
	doc      *ast.QueryDocument
	provided map[string]interface{}

	// 置き換え済みリテラルと変数名の対応。複数の操作から参照されるフラグメントで共有する
	names    map[*ast.Value]string
	values   map[string]interface{}
	declared map[string]bool
	changed  bool

	// 操作ごとの状態
	used     map[string]bool
	visiting map[string]bool
}

func (b *literalBinder) operation(op *ast.OperationDefinition, selected bool) *gqlerrors.QueryError {
	b.used = map[string]bool{}
	b.visiting = map[string]bool{}

	for _, vd := range op.VariableDefinitions {
		if qerr := b.variableDefault(vd, selected); qerr != nil {
			return qerr
		}
	}

	var root *ast.Definition
	switch op.Operation {
	case ast.Query:
		root = b.schema.Query
	case ast.Mutation:
		root = b.schema.Mutation
	}
	if qerr := b.selectionSet(op.SelectionSet, root); qerr != nil {
		return qerr
	}

	names := make([]string, 0, len(b.used))
	for name := range b.used {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		op.VariableDefinitions = append(op.VariableDefinitions, &ast.VariableDefinition{
			Variable: name,
			Type:     ast.NamedType(dateScalarName, nil),
		})
	}
	return nil
}

// variableDefault はDate型変数のデフォルト値を検査する。
// 実行対象の操作では、Intのデフォルト値を変数値として渡し定義からは取り除く。
func (b *literalBinder) variableDefault(vd *ast.VariableDefinition, selected bool) *gqlerrors.QueryError {
	if vd.DefaultValue == nil || vd.Type.Name() != dateScalarName {
		return nil
	}
	if vd.DefaultValue.Kind == ast.NullValue {
		return nil
	}

	t, ok := ParseLiteral(vd.DefaultValue)
	if !ok {
		return invalidDateLiteral(vd.DefaultValue, fmt.Sprintf("variable %q", "$"+vd.Variable))
	}
	if !selected {
		return nil
	}

	if _, given := b.provided[vd.Variable]; !given {
		b.values[vd.Variable] = t.UnixMilli()
	}
	vd.DefaultValue = nil
	b.changed = true
	return nil
}

func (b *literalBinder) selectionSet(set ast.SelectionSet, parent *ast.Definition) *gqlerrors.QueryError {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			if qerr := b.field(sel, parent); qerr != nil {
				return qerr
			}
		case *ast.InlineFragment:
			def := parent
			if sel.TypeCondition != "" {
				def = b.schema.Types[sel.TypeCondition]
			}
			if qerr := b.selectionSet(sel.SelectionSet, def); qerr != nil {
				return qerr
			}
		case *ast.FragmentSpread:
			if b.visiting[sel.Name] {
				continue
			}
			frag := b.doc.Fragments.ForName(sel.Name)
			if frag == nil {
				continue
			}
			b.visiting[sel.Name] = true
			if qerr := b.selectionSet(frag.SelectionSet, b.schema.Types[frag.TypeCondition]); qerr != nil {
				return qerr
			}
		}
	}
	return nil
}

func (b *literalBinder) field(f *ast.Field, parent *ast.Definition) *gqlerrors.QueryError {
	if parent == nil {
		return nil
	}
	def := parent.Fields.ForName(f.Name)
	if def == nil {
		return nil
	}

	for _, arg := range f.Arguments {
		argDef := def.Arguments.ForName(arg.Name)
		if argDef == nil || argDef.Type.Name() != dateScalarName {
			continue
		}
		if qerr := b.value(arg.Value, fmt.Sprintf("argument %q on field %q", arg.Name, f.Name)); qerr != nil {
			return qerr
		}
	}

	return b.selectionSet(f.SelectionSet, b.schema.Types[def.Type.Name()])
}

func (b *literalBinder) value(v *ast.Value, where string) *gqlerrors.QueryError {
	if v == nil {
		return nil
	}
	if name, ok := b.names[v]; ok {
		b.used[name] = true
		return nil
	}

	switch v.Kind {
	case ast.Variable, ast.NullValue:
		return nil
	case ast.ListValue:
		for _, child := range v.Children {
			if qerr := b.value(child.Value, where); qerr != nil {
				return qerr
			}
		}
		return nil
	}

	t, ok := ParseLiteral(v)
	if !ok {
		return invalidDateLiteral(v, where)
	}

	name := b.nextName()
	b.names[v] = name
	b.values[name] = t.UnixMilli()
	b.used[name] = true
	b.changed = true

	v.Kind = ast.Variable
	v.Raw = name
	return nil
}

// nextName は文書中の変数とも呼び出し元の変数とも衝突しない変数名を返す。
func (b *literalBinder) nextName() string {
	for i := len(b.names); ; i++ {
		name := fmt.Sprintf("%s%d", dateVariablePrefix, i)
		if _, taken := b.provided[name]; taken || b.declared[name] {
			continue
		}
		if _, taken := b.values[name]; taken {
			continue
		}
		return name
	}
}

func invalidDateLiteral(v *ast.Value, where string) *gqlerrors.QueryError {
	qerr := gqlerrors.Errorf("%s has invalid value %s: Date literals must be Int", where, v.String())
	if v.Position != nil {
		qerr.Locations = []gqlerrors.Location{{Line: v.Position.Line, Column: v.Position.Column}}
	}
	return qerr
}
