package lsp

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"fp/internal/ast"
	"fp/internal/parser"
	"fp/internal/token"
)

// DocumentSymbols lists the top-level declarations in source order.
func DocumentSymbols(text string) []protocol.DocumentSymbol {
	prog, _ := parser.Parse(text)
	out := []protocol.DocumentSymbol{}
	slot := 0
	for _, s := range prog.Statements {
		let, ok := s.(*ast.LetStatement)
		if !ok || let.Name == nil {
			continue
		}
		detail := fmt.Sprintf("global #%d", slot)
		slot++
		r := tokenRange(text, let.Name.Token)
		out = append(out, protocol.DocumentSymbol{
			Name:           let.Name.Value,
			Detail:         &detail,
			Kind:           protocol.SymbolKindVariable,
			Range:          r,
			SelectionRange: r,
		})
	}
	return out
}

type binding struct {
	decl   token.Token
	global bool
	index  int
}

// resolver replays the compiler's scoping rules to find what the name at
// target refers to.
type resolver struct {
	target Pos
	scopes []map[string]binding // scopes[0] holds globals

	nextGlobal int
	found      *binding
	ref        token.Token
}

func resolveAt(text string, p Pos) (binding, token.Token, bool) {
	prog, _ := parser.Parse(text)
	r := &resolver{target: p, scopes: []map[string]binding{{}}}
	r.statements(prog.Statements)
	if r.found == nil {
		return binding{}, token.Token{}, false
	}
	return *r.found, r.ref, true
}

func (r *resolver) statements(stmts []ast.Statement) {
	for _, s := range stmts {
		if r.found != nil {
			return
		}
		switch n := s.(type) {
		case *ast.ExpressionStatement:
			r.expression(n.Expression)
		case *ast.LetStatement:
			r.expression(n.Value)
			if n.Name == nil {
				continue
			}
			b := binding{decl: n.Name.Token}
			if len(r.scopes) == 1 {
				b.global = true
				b.index = r.nextGlobal
				r.nextGlobal++
			}
			r.scopes[len(r.scopes)-1][n.Name.Value] = b
			if covers(n.Name.Token, r.target) {
				r.found, r.ref = &b, n.Name.Token
			}
		case *ast.WhileStatement:
			r.expression(n.Condition)
			if n.Body != nil {
				r.expression(n.Body)
			}
		}
	}
}

func (r *resolver) expression(e ast.Expression) {
	if e == nil || r.found != nil {
		return
	}
	switch n := e.(type) {
	case *ast.Identifier:
		if !covers(n.Token, r.target) {
			return
		}
		for i := len(r.scopes) - 1; i >= 0; i-- {
			if b, ok := r.scopes[i][n.Value]; ok {
				r.found, r.ref = &b, n.Token
				return
			}
		}
	case *ast.GroupExpression:
		r.expression(n.Inner)
	case *ast.UnaryExpression:
		r.expression(n.Operand)
	case *ast.BinaryExpression:
		r.expression(n.Left)
		r.expression(n.Right)
	case *ast.BlockExpression:
		r.scopes = append(r.scopes, map[string]binding{})
		r.statements(n.Statements)
		r.scopes = r.scopes[:len(r.scopes)-1]
	case *ast.IfExpression:
		r.expression(n.Condition)
		if n.Consequence != nil {
			r.expression(n.Consequence)
		}
		if n.Alternative != nil {
			r.expression(n.Alternative)
		}
	}
}

// DefinitionAt returns the declaration of the name under pos.
func DefinitionAt(uri, text string, pos protocol.Position) []protocol.Location {
	p, ok := positionToByte(text, pos)
	if !ok {
		return nil
	}
	b, _, ok := resolveAt(text, p)
	if !ok {
		return nil
	}
	return []protocol.Location{{URI: protocol.DocumentUri(uri), Range: tokenRange(text, b.decl)}}
}

// HoverAt describes the binding of the name under pos.
func HoverAt(text string, pos protocol.Position) *protocol.Hover {
	p, ok := positionToByte(text, pos)
	if !ok {
		return nil
	}
	b, ref, ok := resolveAt(text, p)
	if !ok {
		return nil
	}
	desc := "local"
	if b.global {
		desc = fmt.Sprintf("global #%d", b.index)
	}
	r := tokenRange(text, ref)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: fmt.Sprintf("`%s`: %s, declared at %d:%d", ref.Literal, desc, b.decl.Line, b.decl.Col),
		},
		Range: &r,
	}
}
