package parser

import (
	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/diagnostic"
	"github.com/HugoDaniel/shadercross/internal/lexer"
)

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (p *Parser) parseStatement() ast.NodeID {
	tok := p.next()

	switch tok.Kind {
	case lexer.TokLBrace:
		p.back()
		return p.parseBlock()

	case lexer.TokIf:
		return p.parseIf()

	case lexer.TokWhile:
		return p.parseWhile()

	case lexer.TokDo:
		return p.parseDoWhile()

	case lexer.TokFor:
		return p.parseFor()

	case lexer.TokSwitch:
		return p.parseSwitch()

	case lexer.TokReturn:
		return p.parseReturn(tok)

	case lexer.TokBreak:
		p.expect(lexer.TokSemicolon)
		return p.alloc(&ast.Break{})

	case lexer.TokContinue:
		p.expect(lexer.TokSemicolon)
		return p.alloc(&ast.Continue{})

	case lexer.TokDiscard:
		p.expect(lexer.TokSemicolon)
		return p.alloc(&ast.Discard{})

	case lexer.TokSemicolon:
		return p.alloc(&ast.Block{})

	case lexer.TokIdent:
		if _, ok := p.types[tok.Name]; ok {
			stmt := p.parseDeclarationOrExpression(tok)
			p.expect(lexer.TokSemicolon)
			return stmt
		}
	}

	p.back()
	stmt := p.parseExpressionStatement()
	p.expect(lexer.TokSemicolon)
	return stmt
}

// parseDeclarationOrExpression continues a statement that starts with the
// type name typeTok: either a declaration, or an expression whose first
// operand is a constructor. The scanner has already moved past the type
// name, so the constructor reaches the expression parser through p.pending.
func (p *Parser) parseDeclarationOrExpression(typeTok lexer.Token) ast.NodeID {
	typeID := p.types[typeTok.Name]
	if p.peek().Kind == lexer.TokIdent {
		return p.parseVariableDeclaration(typeID, typeTok)
	}
	p.pending = p.parseConstructor(typeTok, typeID)
	return p.parseExpressionStatement()
}

func (p *Parser) parseExpressionStatement() ast.NodeID {
	return p.alloc(&ast.ExpressionStatement{Expr: p.parseExpression()})
}

// parseBlock parses "{ ... }" as a new lexical scope.
func (p *Parser) parseBlock() ast.NodeID {
	return p.parseBlockFrom(p.scopeMark())
}

// parseBlockFrom parses a block whose duplicate-name check starts at
// blockStart; a function body shares it with the parameters.
func (p *Parser) parseBlockFrom(blockStart int) ast.NodeID {
	p.expect(lexer.TokLBrace)
	mark := p.scopeMark()
	outer := p.blockMark
	p.blockMark = blockStart

	block := &ast.Block{}
	for !p.match(lexer.TokRBrace) {
		if tok := p.peek(); tok.Kind == lexer.TokEOF {
			p.error(tok, "expected '}', got end of input")
		}
		block.Statements = append(block.Statements, p.parseStatement())
	}

	p.blockMark = outer
	p.scopeReset(mark)
	return p.alloc(block)
}

// parseBody parses a loop or branch body. A single statement is wrapped in
// its own block so every body carries a scope.
func (p *Parser) parseBody() ast.NodeID {
	if p.peek().Kind == lexer.TokLBrace {
		return p.parseBlock()
	}
	mark := p.scopeMark()
	stmt := p.parseStatement()
	p.scopeReset(mark)
	return p.alloc(&ast.Block{Statements: []ast.NodeID{stmt}})
}

func (p *Parser) parseCondition() ast.NodeID {
	p.expect(lexer.TokLParen)
	cond := p.parseExpression()
	p.expect(lexer.TokRParen)
	return cond
}

func (p *Parser) parseIf() ast.NodeID {
	stmt := &ast.If{Else: ast.NoNode}
	stmt.Condition = p.parseCondition()
	stmt.Then = p.parseBody()

	if p.match(lexer.TokElse) {
		if p.match(lexer.TokIf) {
			stmt.Else = p.parseIf()
		} else {
			stmt.Else = p.parseBody()
		}
	}

	return p.alloc(stmt)
}

func (p *Parser) parseWhile() ast.NodeID {
	cond := p.parseCondition()
	body := p.parseBody()
	return p.alloc(&ast.While{Condition: cond, Body: body})
}

func (p *Parser) parseDoWhile() ast.NodeID {
	body := p.parseBody()
	p.expect(lexer.TokWhile)
	cond := p.parseCondition()
	p.expect(lexer.TokSemicolon)
	return p.alloc(&ast.DoWhile{Body: body, Condition: cond})
}

func (p *Parser) parseFor() ast.NodeID {
	p.expect(lexer.TokLParen)
	mark := p.scopeMark()
	stmt := &ast.For{Init: ast.NoNode, Condition: ast.NoNode, Update: ast.NoNode}

	// Init
	if !p.match(lexer.TokSemicolon) {
		tok := p.next()
		if _, ok := p.types[tok.Name]; ok && tok.Kind == lexer.TokIdent {
			outer := p.blockMark
			p.blockMark = mark
			stmt.Init = p.parseDeclarationOrExpression(tok)
			p.blockMark = outer
		} else {
			p.back()
			stmt.Init = p.parseExpressionStatement()
		}
		p.expect(lexer.TokSemicolon)
	}

	// Condition
	if !p.match(lexer.TokSemicolon) {
		stmt.Condition = p.parseExpression()
		p.expect(lexer.TokSemicolon)
	}

	// Update
	if !p.match(lexer.TokRParen) {
		stmt.Update = p.parseExpression()
		p.expect(lexer.TokRParen)
	}

	stmt.Body = p.parseBody()
	p.scopeReset(mark)
	return p.alloc(stmt)
}

func (p *Parser) parseSwitch() ast.NodeID {
	stmt := &ast.Switch{Value: p.parseCondition()}
	p.expect(lexer.TokLBrace)
	mark := p.scopeMark()
	outer := p.blockMark
	p.blockMark = mark
	hasDefault := false

	for !p.match(lexer.TokRBrace) {
		tok := p.next()
		switch tok.Kind {
		case lexer.TokCase:
			value := p.parseTernary()
			p.expect(lexer.TokColon)
			stmt.Cases = append(stmt.Cases, p.alloc(&ast.Case{Value: value, Body: p.parseCaseBody()}))
		case lexer.TokDefault:
			p.errorIf(hasDefault, tok, diagnostic.CodeDuplicateSymbol, "multiple default labels in switch")
			hasDefault = true
			p.expect(lexer.TokColon)
			stmt.Cases = append(stmt.Cases, p.alloc(&ast.Default{Body: p.parseCaseBody()}))
		default:
			p.error(tok, "expected case or default, got %s", describe(tok))
		}
	}

	p.blockMark = outer
	p.scopeReset(mark)
	return p.alloc(stmt)
}

func (p *Parser) parseCaseBody() []ast.NodeID {
	var body []ast.NodeID
	for {
		switch p.peek().Kind {
		case lexer.TokCase, lexer.TokDefault, lexer.TokRBrace:
			return body
		case lexer.TokEOF:
			p.error(p.peek(), "expected '}', got end of input")
		}
		body = append(body, p.parseStatement())
	}
}

func (p *Parser) parseReturn(tok lexer.Token) ast.NodeID {
	stmt := &ast.Return{Value: ast.NoNode}
	isVoid := p.currentFunction == ast.NoFunction ||
		p.prog.Types[p.prog.Functions[p.currentFunction].Type].Scalar == ast.ScalarVoid

	if !p.match(lexer.TokSemicolon) {
		p.errorIf(isVoid, tok, diagnostic.CodeInvalidOperand, "void function cannot return a value")
		stmt.Value = p.parseExpression()
		p.expect(lexer.TokSemicolon)
	} else {
		p.errorIf(!isVoid, tok, diagnostic.CodeInvalidOperand, "non-void function must return a value")
	}

	return p.alloc(stmt)
}

// parseVariableDeclaration parses "T a[N] = x, b" after the type name.
// Each initializer is parsed before its variable enters scope.
func (p *Parser) parseVariableDeclaration(typeID ast.TypeID, typeTok lexer.Token) ast.NodeID {
	t := p.typeAt(typeID)
	p.errorIf(t.Scalar == ast.ScalarVoid, typeTok, diagnostic.CodeInvalidType, "variable cannot have type void")
	p.errorIf(p.isCBufferType(typeID), typeTok, diagnostic.CodeInvalidType,
		"cbuffer '%s' cannot be used as a variable type", typeTok.Name)

	decl := &ast.VariableDeclaration{}

	for {
		nameTok := p.expect(lexer.TokIdent)
		p.checkLocalConflicts(nameTok, p.blockMark)
		id := p.registerVariable(nameTok, typeID)
		v := &p.prog.Variables[id]
		v.ArrayLengthX, v.ArrayLengthY = p.parseArrayDims()

		init := ast.NoNode
		if p.match(lexer.TokEq) {
			init = p.parseAssignment()
		}
		p.scopePush(id)

		decl.Variables = append(decl.Variables, id)
		decl.Initializers = append(decl.Initializers, init)

		if !p.match(lexer.TokComma) {
			break
		}
	}

	return p.alloc(decl)
}
