// Package parser implements a recursive-descent parser for MiniC,
// producing the AST consumed by IR lowering.
package parser

import (
	"fmt"
	"strconv"

	"github.com/minic-cc/minicc/pkg/ast"
	"github.com/minic-cc/minicc/pkg/lexer"
)

// Parser parses MiniC token streams into an AST
type Parser struct {
	l *lexer.Lexer

	curTok  lexer.Token
	peekTok lexer.Token

	errors []string
}

// New creates a Parser reading from the given lexer
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	// Fill curTok and peekTok
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns parse errors collected so far
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Sprintf("line %d: %s", p.curTok.Line, msg))
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) expect(t lexer.TokenType, what string) bool {
	if p.curTok.Type != t {
		p.errorf("expected %s, found %q", what, p.curTok.Literal)
		return false
	}
	p.nextToken()
	return true
}

// ParseCompileUnit parses a whole translation unit
func (p *Parser) ParseCompileUnit() *ast.Node {
	unit := ast.New(ast.CompileUnit, p.curTok.Line)

	for p.curTok.Type != lexer.TokenEOF {
		switch p.curTok.Type {
		case lexer.TokenKwInt, lexer.TokenKwVoid:
			// "type ident (" starts a function definition, anything
			// else is a global declaration.
			if p.peekTok.Type == lexer.TokenIdent {
				n := p.parseTopLevel()
				if n != nil {
					unit.Add(n)
				}
				continue
			}
			p.errorf("expected identifier after type, found %q", p.peekTok.Literal)
			p.nextToken()
		default:
			p.errorf("unexpected token %q at top level", p.curTok.Literal)
			p.nextToken()
		}
	}

	return unit
}

// parseTopLevel parses a function definition or a global declaration.
// curTok is the type keyword, peekTok the identifier.
func (p *Parser) parseTopLevel() *ast.Node {
	typeTok := p.curTok
	p.nextToken() // identifier
	nameTok := p.curTok
	p.nextToken()

	if p.curTok.Type == lexer.TokenLParen {
		return p.parseFuncDefRest(typeTok, nameTok)
	}
	return p.parseDeclRest(typeTok, nameTok)
}

func basicType(t lexer.Token) ast.BasicType {
	if t.Type == lexer.TokenKwVoid {
		return ast.TypeVoid
	}
	return ast.TypeInt
}

// parseFuncDefRest parses "( params ) block" of a function definition
func (p *Parser) parseFuncDefRest(typeTok, nameTok lexer.Token) *ast.Node {
	fn := ast.New(ast.FuncDef, typeTok.Line,
		ast.NewType(basicType(typeTok), typeTok.Line),
		ast.NewIdent(nameTok.Literal, nameTok.Line))

	p.nextToken() // consume '('
	params := ast.New(ast.FuncFormalParams, p.curTok.Line)
	if p.curTok.Type != lexer.TokenRParen {
		for {
			param := p.parseFormalParam()
			if param == nil {
				break
			}
			params.Add(param)
			if p.curTok.Type != lexer.TokenComma {
				break
			}
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRParen, "')'")

	fn.Add(params)

	// A semicolon instead of a body makes this a prototype
	if p.curTok.Type == lexer.TokenSemicolon {
		p.nextToken()
		return fn
	}
	if p.curTok.Type != lexer.TokenLBrace {
		p.errorf("expected function body, found %q", p.curTok.Literal)
		return fn
	}
	fn.Add(p.parseBlock())
	return fn
}

// parseFormalParam parses "int name" with optional array brackets.
// Only the first bracket pair of an array parameter may be empty (it is
// recorded as a zero dimension); a size written there is also accepted.
func (p *Parser) parseFormalParam() *ast.Node {
	if p.curTok.Type != lexer.TokenKwInt {
		p.errorf("expected parameter type, found %q", p.curTok.Literal)
		return nil
	}
	typeTok := p.curTok
	p.nextToken()

	// Prototype parameters may be unnamed
	name := ""
	if p.curTok.Type == lexer.TokenIdent {
		name = p.curTok.Literal
		p.nextToken()
	}
	param := ast.New(ast.FuncFormalParam, typeTok.Line,
		ast.NewType(ast.TypeInt, typeTok.Line),
		ast.NewIdent(name, typeTok.Line))

	first := true
	for p.curTok.Type == lexer.TokenLBracket {
		p.nextToken()
		if p.curTok.Type == lexer.TokenRBracket {
			if !first {
				p.errorf("only the first array dimension may be empty")
			}
			param.Add(ast.NewLiteral(0, 10, p.curTok.Line))
			p.nextToken()
		} else {
			dim := p.parseExpr()
			param.Add(dim)
			p.expect(lexer.TokenRBracket, "']'")
		}
		first = false
	}

	return param
}

// parseDeclRest parses the remainder of a declaration whose type keyword
// and first identifier are already consumed. Used for globals and locals.
func (p *Parser) parseDeclRest(typeTok, nameTok lexer.Token) *ast.Node {
	decl := ast.New(ast.DeclStmt, typeTok.Line)
	if typeTok.Type != lexer.TokenKwInt {
		p.errorf("variables must have type int")
	}

	for {
		decl.Add(p.parseVarDef(typeTok, nameTok))

		if p.curTok.Type != lexer.TokenComma {
			break
		}
		p.nextToken()
		if p.curTok.Type != lexer.TokenIdent {
			p.errorf("expected identifier after ',', found %q", p.curTok.Literal)
			break
		}
		nameTok = p.curTok
		p.nextToken()
	}

	p.expect(lexer.TokenSemicolon, "';'")
	return decl
}

// parseVarDef parses one declarator: scalar, scalar with initializer,
// or array with dimension list.
func (p *Parser) parseVarDef(typeTok, nameTok lexer.Token) *ast.Node {
	if p.curTok.Type == lexer.TokenLBracket {
		arr := ast.New(ast.ArrayDef, nameTok.Line,
			ast.NewType(ast.TypeInt, typeTok.Line),
			ast.NewIdent(nameTok.Literal, nameTok.Line))
		for p.curTok.Type == lexer.TokenLBracket {
			p.nextToken()
			arr.Add(p.parseExpr())
			p.expect(lexer.TokenRBracket, "']'")
		}
		return arr
	}

	v := ast.New(ast.VarDecl, nameTok.Line,
		ast.NewType(ast.TypeInt, typeTok.Line),
		ast.NewIdent(nameTok.Literal, nameTok.Line))
	if p.curTok.Type == lexer.TokenAssign {
		p.nextToken()
		v.Add(p.parseExpr())
	}
	return v
}

// parseBlock parses "{ item* }"
func (p *Parser) parseBlock() *ast.Node {
	block := ast.New(ast.Block, p.curTok.Line)
	p.nextToken() // consume '{'

	for p.curTok.Type != lexer.TokenRBrace && p.curTok.Type != lexer.TokenEOF {
		item := p.parseBlockItem()
		if item != nil {
			block.Add(item)
		}
	}
	p.expect(lexer.TokenRBrace, "'}'")
	return block
}

func (p *Parser) parseBlockItem() *ast.Node {
	if p.curTok.Type == lexer.TokenKwInt {
		typeTok := p.curTok
		p.nextToken()
		if p.curTok.Type != lexer.TokenIdent {
			p.errorf("expected identifier in declaration, found %q", p.curTok.Literal)
			p.synchronize()
			return nil
		}
		nameTok := p.curTok
		p.nextToken()
		return p.parseDeclRest(typeTok, nameTok)
	}
	return p.parseStmt()
}

func (p *Parser) parseStmt() *ast.Node {
	switch p.curTok.Type {
	case lexer.TokenLBrace:
		return p.parseBlock()

	case lexer.TokenIf:
		return p.parseIf()

	case lexer.TokenWhile:
		return p.parseWhile()

	case lexer.TokenBreak:
		n := ast.New(ast.Break, p.curTok.Line)
		p.nextToken()
		p.expect(lexer.TokenSemicolon, "';'")
		return n

	case lexer.TokenContinue:
		n := ast.New(ast.Continue, p.curTok.Line)
		p.nextToken()
		p.expect(lexer.TokenSemicolon, "';'")
		return n

	case lexer.TokenReturn:
		n := ast.New(ast.Return, p.curTok.Line)
		p.nextToken()
		if p.curTok.Type != lexer.TokenSemicolon {
			n.Add(p.parseExpr())
		}
		p.expect(lexer.TokenSemicolon, "';'")
		return n

	case lexer.TokenSemicolon:
		p.nextToken() // empty statement
		return nil

	default:
		return p.parseExprOrAssign()
	}
}

func (p *Parser) parseIf() *ast.Node {
	line := p.curTok.Line
	p.nextToken() // consume 'if'
	p.expect(lexer.TokenLParen, "'('")
	cond := p.parseExpr()
	p.expect(lexer.TokenRParen, "')'")
	then := p.parseStmt()
	if then == nil {
		then = ast.New(ast.Block, line)
	}

	if p.curTok.Type == lexer.TokenElse {
		p.nextToken()
		els := p.parseStmt()
		if els == nil {
			els = ast.New(ast.Block, line)
		}
		return ast.New(ast.IfElse, line, cond, then, els)
	}
	return ast.New(ast.If, line, cond, then)
}

func (p *Parser) parseWhile() *ast.Node {
	line := p.curTok.Line
	p.nextToken() // consume 'while'
	p.expect(lexer.TokenLParen, "'('")
	cond := p.parseExpr()
	p.expect(lexer.TokenRParen, "')'")
	body := p.parseStmt()
	if body == nil {
		body = ast.New(ast.Block, line)
	}
	return ast.New(ast.While, line, cond, body)
}

// parseExprOrAssign parses either an assignment or an expression statement
func (p *Parser) parseExprOrAssign() *ast.Node {
	line := p.curTok.Line
	e := p.parseExpr()
	if e == nil {
		p.synchronize()
		return nil
	}

	if p.curTok.Type == lexer.TokenAssign {
		if e.Op != ast.LeafVarID && e.Op != ast.ArrayAccess {
			p.errorf("invalid assignment target")
		}
		p.nextToken()
		rhs := p.parseExpr()
		p.expect(lexer.TokenSemicolon, "';'")
		return ast.New(ast.Assign, line, e, rhs)
	}

	p.expect(lexer.TokenSemicolon, "';'")
	return e
}

// synchronize skips ahead to the next statement boundary after an error
func (p *Parser) synchronize() {
	for p.curTok.Type != lexer.TokenSemicolon &&
		p.curTok.Type != lexer.TokenRBrace &&
		p.curTok.Type != lexer.TokenEOF {
		p.nextToken()
	}
	if p.curTok.Type == lexer.TokenSemicolon {
		p.nextToken()
	}
}

// --- Expressions ---
// Precedence, low to high: || < && < == != < relational < + - < * / % < unary

func (p *Parser) parseExpr() *ast.Node {
	return p.parseLogicalOr()
}

func (p *Parser) parseLogicalOr() *ast.Node {
	left := p.parseLogicalAnd()
	for p.curTok.Type == lexer.TokenOr {
		line := p.curTok.Line
		p.nextToken()
		right := p.parseLogicalAnd()
		left = ast.New(ast.LogicalOr, line, left, right)
	}
	return left
}

func (p *Parser) parseLogicalAnd() *ast.Node {
	left := p.parseEquality()
	for p.curTok.Type == lexer.TokenAnd {
		line := p.curTok.Line
		p.nextToken()
		right := p.parseEquality()
		left = ast.New(ast.LogicalAnd, line, left, right)
	}
	return left
}

func (p *Parser) parseEquality() *ast.Node {
	left := p.parseRelational()
	for p.curTok.Type == lexer.TokenEq || p.curTok.Type == lexer.TokenNe {
		op := ast.Eq
		if p.curTok.Type == lexer.TokenNe {
			op = ast.Ne
		}
		line := p.curTok.Line
		p.nextToken()
		right := p.parseRelational()
		left = ast.New(op, line, left, right)
	}
	return left
}

func (p *Parser) parseRelational() *ast.Node {
	left := p.parseAdditive()
	for {
		var op ast.Op
		switch p.curTok.Type {
		case lexer.TokenLt:
			op = ast.Lt
		case lexer.TokenLe:
			op = ast.Le
		case lexer.TokenGt:
			op = ast.Gt
		case lexer.TokenGe:
			op = ast.Ge
		default:
			return left
		}
		line := p.curTok.Line
		p.nextToken()
		right := p.parseAdditive()
		left = ast.New(op, line, left, right)
	}
}

func (p *Parser) parseAdditive() *ast.Node {
	left := p.parseMultiplicative()
	for p.curTok.Type == lexer.TokenPlus || p.curTok.Type == lexer.TokenMinus {
		op := ast.Add
		if p.curTok.Type == lexer.TokenMinus {
			op = ast.Sub
		}
		line := p.curTok.Line
		p.nextToken()
		right := p.parseMultiplicative()
		left = ast.New(op, line, left, right)
	}
	return left
}

func (p *Parser) parseMultiplicative() *ast.Node {
	left := p.parseUnary()
	for {
		var op ast.Op
		switch p.curTok.Type {
		case lexer.TokenStar:
			op = ast.Mul
		case lexer.TokenSlash:
			op = ast.Div
		case lexer.TokenPercent:
			op = ast.Mod
		default:
			return left
		}
		line := p.curTok.Line
		p.nextToken()
		right := p.parseUnary()
		left = ast.New(op, line, left, right)
	}
}

func (p *Parser) parseUnary() *ast.Node {
	switch p.curTok.Type {
	case lexer.TokenMinus:
		line := p.curTok.Line
		p.nextToken()
		return ast.New(ast.Neg, line, p.parseUnary())
	case lexer.TokenPlus:
		p.nextToken()
		return p.parseUnary()
	case lexer.TokenNot:
		line := p.curTok.Line
		p.nextToken()
		return ast.New(ast.LogicalNot, line, p.parseUnary())
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() *ast.Node {
	switch p.curTok.Type {
	case lexer.TokenLParen:
		p.nextToken()
		e := p.parseExpr()
		p.expect(lexer.TokenRParen, "')'")
		return e

	case lexer.TokenInt:
		return p.parseLiteral()

	case lexer.TokenIdent:
		nameTok := p.curTok
		p.nextToken()

		if p.curTok.Type == lexer.TokenLParen {
			return p.parseCallRest(nameTok)
		}
		if p.curTok.Type == lexer.TokenLBracket {
			acc := ast.New(ast.ArrayAccess, nameTok.Line,
				ast.NewIdent(nameTok.Literal, nameTok.Line))
			for p.curTok.Type == lexer.TokenLBracket {
				p.nextToken()
				acc.Add(p.parseExpr())
				p.expect(lexer.TokenRBracket, "']'")
			}
			return acc
		}
		return ast.NewIdent(nameTok.Literal, nameTok.Line)

	default:
		p.errorf("unexpected token %q in expression", p.curTok.Literal)
		p.nextToken()
		return nil
	}
}

func (p *Parser) parseLiteral() *ast.Node {
	lit := p.curTok.Literal
	line := p.curTok.Line
	p.nextToken()

	radix := 10
	digits := lit
	if len(lit) > 2 && (lit[:2] == "0x" || lit[:2] == "0X") {
		radix = 16
		digits = lit[2:]
	} else if len(lit) > 1 && lit[0] == '0' {
		radix = 8
		digits = lit[1:]
	}

	v, err := strconv.ParseInt(digits, radix, 64)
	if err != nil {
		p.errors = append(p.errors, fmt.Sprintf("line %d: bad integer literal %q", line, lit))
		v = 0
	}
	return ast.NewLiteral(v, radix, line)
}

// parseCallRest parses "( args )" of a function call
func (p *Parser) parseCallRest(nameTok lexer.Token) *ast.Node {
	p.nextToken() // consume '('
	args := ast.New(ast.FuncRealParams, nameTok.Line)
	if p.curTok.Type != lexer.TokenRParen {
		for {
			args.Add(p.parseExpr())
			if p.curTok.Type != lexer.TokenComma {
				break
			}
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRParen, "')'")
	return ast.New(ast.FuncCall, nameTok.Line,
		ast.NewIdent(nameTok.Literal, nameTok.Line), args)
}
