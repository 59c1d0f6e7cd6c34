// Package rustparse builds syntax trees from Rust source using tree-sitter.
//
// ParseFile keeps byte spans into the parsed source so that attribute
// directives can later be located. Snippet parsers (ParseExpr, ParseStmts,
// ParseType, ParseItem and the member parsers) accept pattern variables
// ($name, $name:kind) and produce synthesized nodes with dummy spans.
// Constructs the tree model has no variant for are kept verbatim as Raw
// nodes.
package rustparse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alexaandru/go-sitter-forest/rust"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/refactor/pkg/alg/lru"
	"github.com/Sumatoshi-tech/refactor/pkg/syntax"
)

// Sentinel errors.
var (
	ErrSyntax    = errors.New("syntax error")
	ErrEmpty     = errors.New("empty input")
	ErrShape     = errors.New("unexpected snippet shape")
	errNoRoot    = errors.New("parser returned no root node")
	errPoolType  = errors.New("parser pool returned unexpected type")
	errNoGrammar = errors.New("rust grammar unavailable")
)

// SyntaxError locates the first error node reported by the grammar.
type SyntaxError struct {
	Line   uint
	Column uint
	Near   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d near %q", e.Line, e.Column, e.Near)
}

// Unwrap lets errors.Is match ErrSyntax.
func (e *SyntaxError) Unwrap() error { return ErrSyntax }

const (
	exprWrapPrefix   = "fn __refactor_snippet() {\n"
	exprWrapSuffix   = "\n}\n"
	typeWrapPrefix   = "type __RefactorSnippet = "
	typeWrapSuffix   = ";\n"
	implWrapPrefix   = "impl __RefactorSnippet {\n"
	traitWrapPrefix  = "trait __RefactorSnippet {\n"
	externWrapPrefix = "extern \"C\" {\n"
	memberWrapSuffix = "\n}\n"
	maxNearLen       = 40
)

// Parser parses Rust source. It is safe for concurrent use.
type Parser struct {
	pool     sync.Pool
	snippets *lru.Cache[snippetKey, syntax.Node]
}

// snippetKey identifies a cached snippet parse.
type snippetKey struct {
	kind syntax.Kind
	src  string
}

// Option configures a Parser.
type Option func(*Parser) error

// WithSnippetCache keeps up to n parsed snippets. Every lookup returns a
// copy with fresh node identities, so patterns reused across files and
// rules are parsed once.
func WithSnippetCache(n int) Option {
	return func(p *Parser) error {
		c, err := lru.New(n, lru.WithCopyFunc[snippetKey](syntax.Clone[syntax.Node]))
		if err != nil {
			return fmt.Errorf("snippet cache: %w", err)
		}

		p.snippets = c

		return nil
	}
}

//nolint:gochecknoglobals // the grammar is process-wide.
var (
	langOnce sync.Once
	lang     *sitter.Language
)

func language() *sitter.Language {
	langOnce.Do(func() {
		defer func() {
			_ = recover() //nolint:errcheck // recover() returns any, not error
		}()

		lang = sitter.NewLanguage(rust.GetLanguage())
	})

	return lang
}

// NewParser returns a parser backed by a pool of tree-sitter parsers.
func NewParser(opts ...Option) (*Parser, error) {
	l := language()
	if l == nil {
		return nil, errNoGrammar
	}

	p := &Parser{}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.pool.New = func() any {
		tsParser := sitter.NewParser()
		tsParser.SetLanguage(l)

		return tsParser
	}

	return p, nil
}

// SnippetStats reports snippet cache counters. ok is false without a cache.
func (p *Parser) SnippetStats() (stats lru.Stats, ok bool) {
	if p.snippets == nil {
		return lru.Stats{}, false
	}

	return p.snippets.Stats(), true
}

// cached returns a copy of the snippet parsed for (kind, src), calling
// parse on a miss. Errors are not cached.
func cached[N syntax.Node](p *Parser, kind syntax.Kind, src string, parse func() (N, error)) (N, error) {
	if p.snippets == nil {
		return parse()
	}

	key := snippetKey{kind: kind, src: src}

	if n, ok := p.snippets.Get(key); ok {
		if typed, ok := n.(N); ok {
			return typed, nil
		}
	}

	n, err := parse()
	if err != nil {
		return n, err
	}

	p.snippets.Put(key, n)

	return n, nil
}

// parse runs tree-sitter over src and lowers the root with fn.
func (p *Parser) parse(ctx context.Context, src string, spans bool, fn func(*lowerer, sitter.Node) error) error {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return errPoolType
	}

	defer p.pool.Put(tsParser)

	content := []byte(src)

	tree, err := tsParser.ParseString(ctx, nil, content)
	if err != nil {
		return fmt.Errorf("rustparse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return errNoRoot
	}

	if root.HasError() {
		return syntaxError(root, content)
	}

	return fn(&lowerer{src: content, spans: spans}, root)
}

func syntaxError(root sitter.Node, content []byte) error {
	bad := firstError(root)
	if bad.IsNull() {
		bad = root
	}

	pt := bad.StartPoint()

	near := string(content[bad.StartByte():min(bad.EndByte(), uint(len(content)))])
	if len(near) > maxNearLen {
		near = near[:maxNearLen]
	}

	return &SyntaxError{Line: uint(pt.Row) + 1, Column: uint(pt.Column) + 1, Near: near}
}

func firstError(n sitter.Node) sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}

	for idx := range n.ChildCount() {
		child := n.Child(idx)
		if !child.HasError() && !child.IsMissing() {
			continue
		}

		if found := firstError(child); !found.IsNull() {
			return found
		}
	}

	return sitter.Node{}
}

// ParseFile parses a whole source file, keeping source spans.
func (p *Parser) ParseFile(ctx context.Context, src []byte) (*syntax.File, error) {
	var file *syntax.File

	err := p.parse(ctx, string(src), true, func(l *lowerer, root sitter.Node) error {
		file = l.file(root)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return file, nil
}

// ParseExpr parses a single expression.
func (p *Parser) ParseExpr(src string) (*syntax.Expr, error) {
	stmts, err := p.ParseStmts(src)
	if err != nil {
		return nil, err
	}

	if len(stmts.Stmts) != 1 {
		return nil, fmt.Errorf("%w: want one expression, got %d statements", ErrShape, len(stmts.Stmts))
	}

	es, ok := stmts.Stmts[0].Variant.(*syntax.ExprStmt)
	if !ok || es.Semi {
		return nil, fmt.Errorf("%w: %q is not an expression", ErrShape, src)
	}

	return es.X, nil
}

// ParseStmts parses a statement sequence.
func (p *Parser) ParseStmts(src string) (*syntax.Block, error) {
	return cached(p, syntax.KindStmtList, src, func() (*syntax.Block, error) { return p.parseStmts(src) })
}

func (p *Parser) parseStmts(src string) (*syntax.Block, error) {
	if strings.TrimSpace(src) == "" {
		return syntax.NewBlock(), nil
	}

	var block *syntax.Block

	wrapped := exprWrapPrefix + expandPlaceholders(src) + exprWrapSuffix

	err := p.parse(context.Background(), wrapped, false, func(l *lowerer, root sitter.Node) error {
		fn, err := l.onlyItem(root)
		if err != nil {
			return err
		}

		body := fn.ChildByFieldName("body")
		if body.IsNull() {
			return fmt.Errorf("%w: missing body", ErrShape)
		}

		block = l.block(body)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return block, nil
}

// ParseType parses a single type.
func (p *Parser) ParseType(src string) (*syntax.Type, error) {
	return cached(p, syntax.KindType, src, func() (*syntax.Type, error) { return p.parseType(src) })
}

func (p *Parser) parseType(src string) (*syntax.Type, error) {
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmpty
	}

	var ty *syntax.Type

	wrapped := typeWrapPrefix + expandPlaceholders(src) + typeWrapSuffix

	err := p.parse(context.Background(), wrapped, false, func(l *lowerer, root sitter.Node) error {
		alias, err := l.onlyItem(root)
		if err != nil {
			return err
		}

		ty = l.ty(alias.ChildByFieldName("type"))

		return nil
	})
	if err != nil {
		return nil, err
	}

	return ty, nil
}

// ParseItems parses a sequence of items.
func (p *Parser) ParseItems(src string) ([]*syntax.Item, error) {
	var items []*syntax.Item

	err := p.parse(context.Background(), expandPlaceholders(src), false, func(l *lowerer, root sitter.Node) error {
		items = l.items(root)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// ParseItem parses exactly one item.
func (p *Parser) ParseItem(src string) (*syntax.Item, error) {
	return cached(p, syntax.KindItem, src, func() (*syntax.Item, error) { return p.parseItem(src) })
}

func (p *Parser) parseItem(src string) (*syntax.Item, error) {
	items, err := p.ParseItems(src)
	if err != nil {
		return nil, err
	}

	if len(items) != 1 {
		return nil, fmt.Errorf("%w: want one item, got %d", ErrShape, len(items))
	}

	return items[0], nil
}

// ParseTraitMember parses one member of a trait body.
func (p *Parser) ParseTraitMember(src string) (*syntax.TraitMember, error) {
	return cached(p, syntax.KindTraitMember, src, func() (*syntax.TraitMember, error) {
		return parseMembers(p, traitWrapPrefix, src, (*lowerer).traitMember)
	})
}

// ParseImplMember parses one member of an impl block.
func (p *Parser) ParseImplMember(src string) (*syntax.ImplMember, error) {
	return cached(p, syntax.KindImplMember, src, func() (*syntax.ImplMember, error) {
		return parseMembers(p, implWrapPrefix, src, (*lowerer).implMember)
	})
}

// ParseExternMember parses one member of an extern block.
func (p *Parser) ParseExternMember(src string) (*syntax.ExternMember, error) {
	return cached(p, syntax.KindExternMember, src, func() (*syntax.ExternMember, error) {
		return parseMembers(p, externWrapPrefix, src, (*lowerer).externMember)
	})
}

func parseMembers[M any](p *Parser, prefix, src string, lower func(*lowerer, sitter.Node, []syntax.Attribute) M) (M, error) {
	var (
		zero M
		out  []M
	)

	wrapped := prefix + expandPlaceholders(src) + memberWrapSuffix

	err := p.parse(context.Background(), wrapped, false, func(l *lowerer, root sitter.Node) error {
		decl, err := l.onlyItem(root)
		if err != nil {
			return err
		}

		body := decl.ChildByFieldName("body")
		if body.IsNull() {
			return fmt.Errorf("%w: missing declaration list", ErrShape)
		}

		l.eachWithAttrs(body, func(child sitter.Node, attrs []syntax.Attribute) {
			out = append(out, lower(l, child, attrs))
		})

		return nil
	})
	if err != nil {
		return zero, err
	}

	if len(out) != 1 {
		return zero, fmt.Errorf("%w: want one member, got %d", ErrShape, len(out))
	}

	return out[0], nil
}
