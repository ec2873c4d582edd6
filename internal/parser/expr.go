package parser

import (
	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/builtins"
	"github.com/HugoDaniel/shadercross/internal/diagnostic"
	"github.com/HugoDaniel/shadercross/internal/lexer"
)

// ----------------------------------------------------------------------------
// Expressions
//
// Precedence, lowest first:
//   assignment (right)  =  +=  -=  *=  /=  %=  &=  |=  ^=  <<=  >>=
//   ternary (right)     ?:
//   logical or          ||
//   logical and         &&
//   bitwise or          |
//   bitwise xor         ^
//   bitwise and         &
//   equality            ==  !=
//   relational          <  <=  >  >=
//   shift               <<  >>
//   additive            +  -
//   multiplicative      *  /  %
//   prefix unary        -  +  !  ~  ++  --  (cast)
//   postfix             ()  []  .  ++  --
//   primary
// ----------------------------------------------------------------------------

func (p *Parser) parseExpression() ast.NodeID {
	return p.parseAssignment()
}

var assignmentOps = map[lexer.TokenKind]ast.BinaryOp{
	lexer.TokEq:        ast.BinaryAssign,
	lexer.TokPlusEq:    ast.BinaryAddAssign,
	lexer.TokMinusEq:   ast.BinarySubAssign,
	lexer.TokStarEq:    ast.BinaryMulAssign,
	lexer.TokSlashEq:   ast.BinaryDivAssign,
	lexer.TokPercentEq: ast.BinaryModAssign,
	lexer.TokAmpEq:     ast.BinaryAndAssign,
	lexer.TokPipeEq:    ast.BinaryOrAssign,
	lexer.TokCaretEq:   ast.BinaryXorAssign,
	lexer.TokLtLtEq:    ast.BinaryShlAssign,
	lexer.TokGtGtEq:    ast.BinaryShrAssign,
}

func (p *Parser) parseAssignment() ast.NodeID {
	left := p.parseTernary()

	tok := p.next()
	op, ok := assignmentOps[tok.Kind]
	if !ok {
		p.back()
		return left
	}

	p.checkAssignable(left, tok)
	right := p.parseAssignment()
	return p.binary(op, left, right)
}

// checkAssignable rejects stores into anything but a local location.
func (p *Parser) checkAssignable(id ast.NodeID, tok lexer.Token) {
	switch n := p.prog.Nodes.Get(id).(type) {
	case *ast.VariableRef:
		p.errorIf(p.prog.Variables[n.Variable].Owner != ast.NoStruct, tok,
			diagnostic.CodeInvalidOperand, "cannot assign to cbuffer member '%s'", p.prog.Variables[n.Variable].Name)
	case *ast.Member:
		p.checkAssignable(n.Base, tok)
	case *ast.SwizzleExpr:
		p.checkAssignable(n.Base, tok)
	case *ast.Index:
		p.checkAssignable(n.Base, tok)
	case *ast.Group:
		p.checkAssignable(n.Expr, tok)
	default:
		p.errorCode(tok, diagnostic.CodeInvalidOperand, "invalid assignment target")
	}
}

func (p *Parser) parseTernary() ast.NodeID {
	cond := p.parseLogicalOr()

	if !p.match(lexer.TokQuestion) {
		return cond
	}
	then := p.parseExpression()
	p.expect(lexer.TokColon)
	otherwise := p.parseTernary()

	return p.alloc(&ast.Ternary{
		Typed:     ast.Typed{Type: p.widest(p.prog.TypeOf(then), p.prog.TypeOf(otherwise))},
		Condition: cond,
		Then:      then,
		Else:      otherwise,
	})
}

func (p *Parser) binary(op ast.BinaryOp, left, right ast.NodeID) ast.NodeID {
	return p.alloc(&ast.Binary{
		Typed: ast.Typed{Type: p.binaryType(op, p.prog.TypeOf(left), p.prog.TypeOf(right))},
		Op:    op,
		Left:  left,
		Right: right,
	})
}

// parseLeftAssoc parses one left-associative level: operands come from
// operand, operators from ops.
func (p *Parser) parseLeftAssoc(operand func() ast.NodeID, ops map[lexer.TokenKind]ast.BinaryOp) ast.NodeID {
	left := operand()

	for {
		tok := p.next()
		op, ok := ops[tok.Kind]
		if !ok {
			p.back()
			return left
		}
		right := operand()
		left = p.binary(op, left, right)
	}
}

var (
	logicalOrOps  = map[lexer.TokenKind]ast.BinaryOp{lexer.TokPipePipe: ast.BinaryLogicalOr}
	logicalAndOps = map[lexer.TokenKind]ast.BinaryOp{lexer.TokAmpAmp: ast.BinaryLogicalAnd}
	bitOrOps      = map[lexer.TokenKind]ast.BinaryOp{lexer.TokPipe: ast.BinaryOr}
	bitXorOps     = map[lexer.TokenKind]ast.BinaryOp{lexer.TokCaret: ast.BinaryXor}
	bitAndOps     = map[lexer.TokenKind]ast.BinaryOp{lexer.TokAmp: ast.BinaryAnd}
	equalityOps   = map[lexer.TokenKind]ast.BinaryOp{
		lexer.TokEqEq:   ast.BinaryEq,
		lexer.TokBangEq: ast.BinaryNe,
	}
	relationalOps = map[lexer.TokenKind]ast.BinaryOp{
		lexer.TokLt:   ast.BinaryLt,
		lexer.TokLtEq: ast.BinaryLe,
		lexer.TokGt:   ast.BinaryGt,
		lexer.TokGtEq: ast.BinaryGe,
	}
	shiftOps = map[lexer.TokenKind]ast.BinaryOp{
		lexer.TokLtLt: ast.BinaryShl,
		lexer.TokGtGt: ast.BinaryShr,
	}
	additiveOps = map[lexer.TokenKind]ast.BinaryOp{
		lexer.TokPlus:  ast.BinaryAdd,
		lexer.TokMinus: ast.BinarySub,
	}
	multiplicativeOps = map[lexer.TokenKind]ast.BinaryOp{
		lexer.TokStar:    ast.BinaryMul,
		lexer.TokSlash:   ast.BinaryDiv,
		lexer.TokPercent: ast.BinaryMod,
	}
)

func (p *Parser) parseLogicalOr() ast.NodeID {
	return p.parseLeftAssoc(p.parseLogicalAnd, logicalOrOps)
}

func (p *Parser) parseLogicalAnd() ast.NodeID {
	return p.parseLeftAssoc(p.parseBitwiseOr, logicalAndOps)
}

func (p *Parser) parseBitwiseOr() ast.NodeID {
	return p.parseLeftAssoc(p.parseBitwiseXor, bitOrOps)
}

func (p *Parser) parseBitwiseXor() ast.NodeID {
	return p.parseLeftAssoc(p.parseBitwiseAnd, bitXorOps)
}

func (p *Parser) parseBitwiseAnd() ast.NodeID {
	return p.parseLeftAssoc(p.parseEquality, bitAndOps)
}

func (p *Parser) parseEquality() ast.NodeID {
	return p.parseLeftAssoc(p.parseRelational, equalityOps)
}

func (p *Parser) parseRelational() ast.NodeID {
	return p.parseLeftAssoc(p.parseShift, relationalOps)
}

func (p *Parser) parseShift() ast.NodeID {
	return p.parseLeftAssoc(p.parseAdditive, shiftOps)
}

func (p *Parser) parseAdditive() ast.NodeID {
	return p.parseLeftAssoc(p.parseMultiplicative, additiveOps)
}

func (p *Parser) parseMultiplicative() ast.NodeID {
	return p.parseLeftAssoc(p.parseUnary, multiplicativeOps)
}

func (p *Parser) parseUnary() ast.NodeID {
	if p.pending.IsValid() {
		return p.parsePostfix()
	}

	tok := p.next()
	var op ast.UnaryOp
	switch tok.Kind {
	case lexer.TokMinus:
		op = ast.UnaryNeg
	case lexer.TokPlus:
		op = ast.UnaryPlus
	case lexer.TokBang:
		op = ast.UnaryNot
	case lexer.TokTilde:
		op = ast.UnaryBitNot
	case lexer.TokPlusPlus:
		op = ast.UnaryPreIncrement
	case lexer.TokMinusMinus:
		op = ast.UnaryPreDecrement
	case lexer.TokLParen:
		return p.parseParenthesized()
	default:
		p.back()
		return p.parsePostfix()
	}

	operand := p.parseUnary()
	if op == ast.UnaryPreIncrement || op == ast.UnaryPreDecrement {
		p.checkAssignable(operand, tok)
	}
	typeID := p.prog.TypeOf(operand)
	if op == ast.UnaryNot {
		typeID = p.builtin(ast.ScalarBool, 1, 0)
	}
	return p.alloc(&ast.Unary{Typed: ast.Typed{Type: typeID}, Op: op, Operand: operand})
}

// parseParenthesized handles everything after an opening parenthesis at
// unary level: a cast "(T)x", or a parenthesized group. When the group
// begins with a constructor "(T(...) ...)" the type name has already been
// consumed, so the constructor is parsed here and handed to the primary
// level through p.pending.
func (p *Parser) parseParenthesized() ast.NodeID {
	if tok := p.peek(); tok.Kind == lexer.TokIdent && p.isTypeName(tok.Name) {
		p.next()
		typeID := p.types[tok.Name]

		if p.match(lexer.TokRParen) {
			p.errorIf(p.typeAt(typeID).IsStruct() || p.typeAt(typeID).Scalar == ast.ScalarVoid, tok,
				diagnostic.CodeInvalidType, "cannot cast to '%s'", tok.Name)
			value := p.parseUnary()
			return p.alloc(&ast.Cast{Typed: ast.Typed{Type: typeID}, Value: value})
		}

		p.pending = p.parseConstructor(tok, typeID)
	}

	inner := p.parseExpression()
	p.expect(lexer.TokRParen)
	p.pending = p.alloc(&ast.Group{Typed: ast.Typed{Type: p.prog.TypeOf(inner)}, Expr: inner})
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.NodeID {
	left := p.parsePrimary()

	for {
		tok := p.next()
		switch tok.Kind {
		case lexer.TokDot:
			left = p.parseMemberAccess(left, p.expect(lexer.TokIdent))

		case lexer.TokLBracket:
			baseType := p.prog.TypeOf(left)
			p.errorIf(p.arrayDims(left) == 0 && (baseType == ast.NoType ||
				!(p.typeAt(baseType).IsVector() || p.typeAt(baseType).IsMatrix())),
				tok, diagnostic.CodeInvalidOperand, "value cannot be indexed")
			index := p.parseExpression()
			p.expect(lexer.TokRBracket)
			left = p.alloc(&ast.Index{Typed: ast.Typed{Type: p.indexType(left)}, Base: left, Index: index})

		case lexer.TokPlusPlus, lexer.TokMinusMinus:
			p.checkAssignable(left, tok)
			op := ast.UnaryPostIncrement
			if tok.Kind == lexer.TokMinusMinus {
				op = ast.UnaryPostDecrement
			}
			left = p.alloc(&ast.Unary{Typed: ast.Typed{Type: p.prog.TypeOf(left)}, Op: op, Operand: left})

		default:
			p.back()
			return left
		}
	}
}

// parseMemberAccess resolves base.name as a struct member or a swizzle.
func (p *Parser) parseMemberAccess(base ast.NodeID, nameTok lexer.Token) ast.NodeID {
	baseType := p.prog.TypeOf(base)
	p.errorIf(baseType == ast.NoType || p.arrayDims(base) > 0, nameTok,
		diagnostic.CodeInvalidOperand, "value has no member '%s'", nameTok.Name)
	t := p.typeAt(baseType)

	if t.IsStruct() {
		members := p.prog.Members(baseType)
		for i := range members {
			if members[i].Name == nameTok.Name {
				member := ast.VariableID(uint32(t.MemberFirst) + uint32(i))
				return p.alloc(&ast.Member{Typed: ast.Typed{Type: members[i].Type}, Base: base, Member: member})
			}
		}
		p.errorCode(nameTok, diagnostic.CodeUndefinedSymbol, "'%s' has no member '%s'", t.Name, nameTok.Name)
	}

	p.errorIf(!t.IsVector(), nameTok, diagnostic.CodeInvalidOperand,
		"type '%s' has no member '%s'", t.Name, nameTok.Name)
	swizzle, ok := parseSwizzle(nameTok.Name, t.Columns)
	p.errorIf(!ok, nameTok, diagnostic.CodeInvalidOperand, "invalid swizzle '%s' on '%s'", nameTok.Name, t.Name)

	id := p.prog.RegisterSwizzle(swizzle)
	return p.alloc(&ast.SwizzleExpr{
		Typed:   ast.Typed{Type: p.builtin(t.Scalar, swizzle.Count, 0)},
		Base:    base,
		Swizzle: id,
	})
}

// parseSwizzle decodes xyzw or rgba component names.
func parseSwizzle(text string, width uint8) (ast.Swizzle, bool) {
	var s ast.Swizzle
	if len(text) == 0 || len(text) > 4 {
		return s, false
	}
	for i := 0; i < len(text); i++ {
		var c uint8
		switch text[i] {
		case 'x', 'r':
			c = 0
		case 'y', 'g':
			c = 1
		case 'z', 'b':
			c = 2
		case 'w', 'a':
			c = 3
		default:
			return s, false
		}
		if c >= width {
			return s, false
		}
		s.Components[i] = c
	}
	s.Count = uint8(len(text))
	return s, true
}

func (p *Parser) parsePrimary() ast.NodeID {
	if p.pending.IsValid() {
		id := p.pending
		p.pending = ast.NoNode
		return id
	}

	tok := p.next()
	switch tok.Kind {
	case lexer.TokInteger:
		scalar := ast.ScalarInt
		if tok.Unsigned() {
			scalar = ast.ScalarUint
		}
		return p.alloc(&ast.Integer{
			Typed:    ast.Typed{Type: p.builtin(scalar, 1, 0)},
			Value:    tok.Integer,
			Unsigned: tok.Unsigned(),
		})

	case lexer.TokNumber:
		return p.alloc(&ast.Number{Typed: ast.Typed{Type: p.builtin(ast.ScalarFloat, 1, 0)}, Value: tok.Number})

	case lexer.TokTrue, lexer.TokFalse:
		return p.alloc(&ast.Boolean{Typed: ast.Typed{Type: p.builtin(ast.ScalarBool, 1, 0)}, Value: tok.Kind == lexer.TokTrue})

	case lexer.TokIdent:
		return p.parseIdentifier(tok)

	case lexer.TokLParen:
		return p.parseParenthesized()
	}

	p.error(tok, "expected expression, got %s", describe(tok))
	return ast.NoNode
}

// parseIdentifier resolves a name in expression position. Locals win over
// cbuffer members, which win over functions, intrinsics, textures and types.
func (p *Parser) parseIdentifier(tok lexer.Token) ast.NodeID {
	if id, ok := p.lookupLocal(tok.Name); ok {
		return p.alloc(&ast.VariableRef{Typed: ast.Typed{Type: p.prog.Variables[id].Type}, Variable: id})
	}
	if id, ok := p.globals[tok.Name]; ok {
		return p.alloc(&ast.VariableRef{Typed: ast.Typed{Type: p.prog.Variables[id].Type}, Variable: id})
	}
	if id, ok := p.functions[tok.Name]; ok {
		return p.parseFunctionCall(tok, id)
	}
	if id, ok := builtins.Lookup(tok.Name); ok {
		return p.parseIntrinsicCall(tok, id)
	}
	if _, ok := p.textures[tok.Name]; ok {
		p.errorCode(tok, diagnostic.CodeInvalidTexture, "texture '%s' can only be passed to a texture intrinsic", tok.Name)
	}
	if id, ok := p.types[tok.Name]; ok {
		return p.parseConstructor(tok, id)
	}

	p.errorCode(tok, diagnostic.CodeUndefinedSymbol, "undefined identifier '%s'", tok.Name)
	return ast.NoNode
}

// parseArguments parses "(a, b, ...)" after a callee.
func (p *Parser) parseArguments(texture bool) []ast.NodeID {
	p.expect(lexer.TokLParen)
	var args []ast.NodeID
	if p.match(lexer.TokRParen) {
		return args
	}
	for {
		if texture && len(args) == 0 {
			args = append(args, p.parseTextureArgument())
		} else {
			args = append(args, p.parseAssignment())
		}
		if !p.match(lexer.TokComma) {
			break
		}
	}
	p.expect(lexer.TokRParen)
	return args
}

func (p *Parser) parseTextureArgument() ast.NodeID {
	tok := p.expect(lexer.TokIdent)
	id, ok := p.textures[tok.Name]
	p.errorIf(!ok, tok, diagnostic.CodeInvalidTexture, "expected texture, got '%s'", tok.Name)
	return p.alloc(&ast.TextureRef{Typed: ast.Typed{Type: ast.NoType}, Texture: id})
}

func (p *Parser) parseConstructor(tok lexer.Token, typeID ast.TypeID) ast.NodeID {
	t := p.typeAt(typeID)
	p.errorIf(t.IsStruct() || t.Scalar == ast.ScalarVoid, tok, diagnostic.CodeInvalidType,
		"type '%s' cannot be constructed", tok.Name)
	args := p.parseArguments(false)
	p.errorIf(len(args) == 0, tok, diagnostic.CodeInvalidArgCount, "constructor '%s' needs arguments", tok.Name)
	return p.alloc(&ast.Constructor{Typed: ast.Typed{Type: typeID}, Args: args})
}

func (p *Parser) parseFunctionCall(tok lexer.Token, id ast.FunctionID) ast.NodeID {
	fn := &p.prog.Functions[id]
	p.errorIf(fn.FunctionType != ast.FunctionOrdinary, tok, diagnostic.CodeInvalidOperand,
		"entry point '%s' cannot be called", tok.Name)
	args := p.parseArguments(false)
	p.errorIf(uint32(len(args)) != fn.ParameterCount, tok, diagnostic.CodeInvalidArgCount,
		"'%s' expects %d arguments, got %d", tok.Name, fn.ParameterCount, len(args))
	return p.alloc(&ast.FunctionCall{Typed: ast.Typed{Type: fn.Type}, Function: id, Args: args})
}

func (p *Parser) parseIntrinsicCall(tok lexer.Token, id ast.IntrinsicID) ast.NodeID {
	in := builtins.Get(id)
	args := p.parseArguments(in.Form.IsTexture())
	p.errorIf(len(args) < in.MinArgs || len(args) > in.MaxArgs, tok, diagnostic.CodeInvalidArgCount,
		"'%s' expects %d arguments, got %d", in.Name, in.MinArgs, len(args))

	if in.Form.IsTexture() {
		ref := p.prog.Nodes.Get(args[0]).(*ast.TextureRef)
		tex := &p.prog.Textures[ref.Texture]
		switch in.Form {
		case builtins.FormStore:
			p.errorIf(!tex.Writable, tok, diagnostic.CodeInvalidTexture,
				"'%s' requires an rwtexture2D, '%s' is read-only", in.Name, tex.Name)
		default:
			p.errorIf(tex.Writable, tok, diagnostic.CodeInvalidTexture,
				"'%s' cannot read from rwtexture2D '%s'", in.Name, tex.Name)
		}
		p.errorIf(in.Form == builtins.FormLoad && tex.Dimension != ast.Texture2D, tok,
			diagnostic.CodeInvalidTexture, "'%s' requires a texture2D", in.Name)
	}

	return p.alloc(&ast.IntrinsicCall{Typed: ast.Typed{Type: p.intrinsicType(in, args)}, Intrinsic: id, Args: args})
}
