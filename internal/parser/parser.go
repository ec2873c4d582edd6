// Package parser builds a Program from shader source.
//
// Parsing is a single recursive-descent pass. While it builds the node
// arena it also fills the registration tables (types, functions,
// variables, structs, textures, swizzles), resolves every identifier
// against the lexical scope stack and the global name maps, and validates
// slot assignments. The first error aborts the parse.
package parser

import (
	"fmt"

	"github.com/HugoDaniel/shadercross/internal/ast"
	"github.com/HugoDaniel/shadercross/internal/builtins"
	"github.com/HugoDaniel/shadercross/internal/diagnostic"
	"github.com/HugoDaniel/shadercross/internal/lexer"
)

// Slot limits shared with the runtime.
const (
	MaxBufferSlots  = 16
	MaxTextureSlots = 16
	MaxTargetSlots  = 8
)

// Reserved entry point names.
const (
	VertexMain   = "vertex_main"
	FragmentMain = "fragment_main"
	ComputeMain  = "compute_main"
)

// Parser parses shader source into a Program.
type Parser struct {
	source  string
	scanner *lexer.Scanner
	lines   *diagnostic.LineIndex
	prog    *ast.Program

	// Name maps for global lookups
	types     map[string]ast.TypeID
	functions map[string]ast.FunctionID
	textures  map[string]ast.TextureID
	globals   map[string]ast.VariableID // cbuffer members
	shapes    map[shape]ast.TypeID

	// Lexical scope: visible locals, innermost last. blockMark is where
	// the innermost block's own declarations begin.
	scope     []ast.VariableID
	blockMark int

	// Slot bitsets
	bufferSlots  uint32
	textureSlots uint32
	targetSlots  uint32

	// pending holds an expression already parsed by lookahead; the next
	// primary expression returns it instead of reading a token.
	pending ast.NodeID

	// currentFunction is the function whose body is being parsed.
	currentFunction ast.FunctionID
}

// ParseError represents a parsing error. Parsing stops at the first one.
type ParseError struct {
	Message string
	Pos     int
	Line    int
	Column  int
	Code    diagnostic.DiagnosticCode
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Offset returns the byte offset of the error.
func (e *ParseError) Offset() int { return e.Pos }

// DiagnosticCode returns the error's code.
func (e *ParseError) DiagnosticCode() diagnostic.DiagnosticCode { return e.Code }

// Msg returns the message without position.
func (e *ParseError) Msg() string { return e.Message }

// bailout carries the first error out of the recursive descent.
type bailout struct {
	err *ParseError
}

// New creates a new parser for the given source.
func New(source string) *Parser {
	p := &Parser{
		source:          source,
		scanner:         lexer.New(source),
		lines:           diagnostic.NewLineIndex(source),
		prog:            ast.NewProgram(),
		types:           make(map[string]ast.TypeID),
		functions:       make(map[string]ast.FunctionID),
		textures:        make(map[string]ast.TextureID),
		globals:         make(map[string]ast.VariableID),
		shapes:          make(map[shape]ast.TypeID),
		pending:         ast.NoNode,
		currentFunction: ast.NoFunction,
	}
	p.registerBuiltinTypes()
	return p
}

// Parse parses source into a Program.
func Parse(source string) (*ast.Program, error) {
	return New(source).Parse()
}

// Parse runs the parser. It returns the first error encountered.
func (p *Parser) Parse() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			prog, err = nil, b.err
		}
	}()

	p.parseTranslationUnit()
	return p.prog, nil
}

// ----------------------------------------------------------------------------
// Token Helpers
// ----------------------------------------------------------------------------

// next consumes a token, turning scanner errors into lexical errors.
func (p *Parser) next() lexer.Token {
	tok := p.scanner.Next()
	if tok.Kind == lexer.TokError {
		if tok.Name == "/*" {
			p.errorCode(tok, diagnostic.CodeInvalidToken, "unterminated block comment")
		}
		p.errorCode(tok, diagnostic.CodeInvalidToken, "unrecognized character sequence %q", tok.Name)
	}
	return tok
}

// back un-consumes the last token.
func (p *Parser) back() {
	p.scanner.Back()
}

// peek returns the next token without consuming it.
func (p *Parser) peek() lexer.Token {
	tok := p.next()
	p.back()
	return tok
}

func (p *Parser) expect(kind lexer.TokenKind) lexer.Token {
	tok := p.next()
	if tok.Kind != kind {
		p.errorCode(tok, diagnostic.CodeUnexpectedToken, "expected '%s', got %s", kind, describe(tok))
	}
	return tok
}

func (p *Parser) match(kind lexer.TokenKind) bool {
	if p.next().Kind == kind {
		return true
	}
	p.back()
	return false
}

func describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.TokEOF:
		return "end of input"
	case lexer.TokIdent, lexer.TokInteger, lexer.TokNumber:
		return fmt.Sprintf("%s %q", tok.Kind, tok.Name)
	default:
		return fmt.Sprintf("%q", tok.Name)
	}
}

// ----------------------------------------------------------------------------
// Errors
// ----------------------------------------------------------------------------

func (p *Parser) error(tok lexer.Token, format string, args ...any) {
	p.errorCode(tok, diagnostic.CodeUnexpectedToken, format, args...)
}

func (p *Parser) errorCode(tok lexer.Token, code diagnostic.DiagnosticCode, format string, args ...any) {
	pos := p.lines.Position(tok.Position)
	panic(bailout{&ParseError{
		Message: fmt.Sprintf(format, args...),
		Pos:     tok.Position,
		Line:    pos.Line,
		Column:  pos.Column,
		Code:    code,
	}})
}

func (p *Parser) errorIf(cond bool, tok lexer.Token, code diagnostic.DiagnosticCode, format string, args ...any) {
	if cond {
		p.errorCode(tok, code, format, args...)
	}
}

// ----------------------------------------------------------------------------
// Registration
// ----------------------------------------------------------------------------

func (p *Parser) alloc(n ast.Node) ast.NodeID {
	return p.prog.Nodes.Alloc(n)
}

// checkNamespaceConflicts rejects a global declaration whose name is taken.
func (p *Parser) checkNamespaceConflicts(tok lexer.Token) {
	name := tok.Name
	_, isType := p.types[name]
	_, isFunction := p.functions[name]
	_, isTexture := p.textures[name]
	_, isGlobal := p.globals[name]
	p.errorIf(isType || isFunction || isTexture || isGlobal || builtins.IsIntrinsic(name),
		tok, diagnostic.CodeDuplicateSymbol, "redefinition of '%s'", name)
}

// checkLocalConflicts rejects a local that collides with a global name or
// with another local in the same block.
func (p *Parser) checkLocalConflicts(tok lexer.Token, blockStart int) {
	p.checkNamespaceConflicts(tok)
	for _, id := range p.scope[blockStart:] {
		p.errorIf(p.prog.Variables[id].Name == tok.Name,
			tok, diagnostic.CodeDuplicateSymbol, "redefinition of '%s'", tok.Name)
	}
}

func (p *Parser) registerVariable(tok lexer.Token, typeID ast.TypeID) ast.VariableID {
	return p.prog.RegisterVariable(ast.Variable{
		Name:  tok.Name,
		Pos:   tok.Position,
		Type:  typeID,
		Owner: ast.NoStruct,
	})
}

// claimSlot marks slot as used in bits, failing on collision or overflow.
func (p *Parser) claimSlot(bits *uint32, slot uint64, limit int, kind string, tok lexer.Token) uint32 {
	p.errorIf(slot >= uint64(limit), tok, diagnostic.CodeSlotOutOfRange,
		"%s slot %d out of range (max %d)", kind, slot, limit-1)
	mask := uint32(1) << slot
	p.errorIf(*bits&mask != 0, tok, diagnostic.CodeSlotCollision,
		"%s slot %d already in use", kind, slot)
	*bits |= mask
	return uint32(slot)
}

// ----------------------------------------------------------------------------
// Scope
// ----------------------------------------------------------------------------

func (p *Parser) scopeMark() int {
	return len(p.scope)
}

// scopeReset drops every local declared since mark.
func (p *Parser) scopeReset(mark int) {
	p.scope = p.scope[:mark]
}

func (p *Parser) scopePush(id ast.VariableID) {
	p.scope = append(p.scope, id)
}

// lookupLocal searches the scope stack from innermost to outermost.
func (p *Parser) lookupLocal(name string) (ast.VariableID, bool) {
	for i := len(p.scope) - 1; i >= 0; i-- {
		if p.prog.Variables[p.scope[i]].Name == name {
			return p.scope[i], true
		}
	}
	return ast.NoVariable, false
}

// ----------------------------------------------------------------------------
// Top Level
// ----------------------------------------------------------------------------

func (p *Parser) parseTranslationUnit() {
	for {
		tok := p.next()
		switch tok.Kind {
		case lexer.TokEOF:
			return
		case lexer.TokSemicolon:
			continue
		case lexer.TokStruct:
			p.parseStruct()
		case lexer.TokCBuffer:
			p.parseCBuffer()
		case lexer.TokTexture2D, lexer.TokTexture3D, lexer.TokTextureCube, lexer.TokRWTexture2D:
			p.parseTexture(tok)
		case lexer.TokLBracket:
			threads := p.parseNumThreads()
			p.parseFunction(p.expect(lexer.TokIdent), threads, true)
		case lexer.TokIdent:
			p.parseFunction(tok, [3]uint32{}, false)
		default:
			p.error(tok, "expected declaration, got %s", describe(tok))
		}
	}
}

// parseMembers parses a braced member list and returns the member range.
func (p *Parser) parseMembers(owner ast.StructID, cbuffer bool) (ast.VariableID, uint32) {
	p.expect(lexer.TokLBrace)
	first := p.prog.NextVariable()
	var count uint32

	for !p.match(lexer.TokRBrace) {
		typeTok := p.expect(lexer.TokIdent)
		typeID := p.lookupType(typeTok)
		p.errorIf(p.prog.Types[typeID].Scalar == ast.ScalarVoid, typeTok,
			diagnostic.CodeInvalidType, "member cannot have type void")
		p.errorIf(p.isCBufferType(typeID), typeTok,
			diagnostic.CodeInvalidType, "cbuffer '%s' cannot be used as a member type", typeTok.Name)

		nameTok := p.expect(lexer.TokIdent)
		for i := uint32(0); i < count; i++ {
			p.errorIf(p.prog.Variables[uint32(first)+i].Name == nameTok.Name, nameTok,
				diagnostic.CodeDuplicateSymbol, "duplicate member '%s'", nameTok.Name)
		}
		if cbuffer {
			p.checkNamespaceConflicts(nameTok)
		}

		id := p.registerVariable(nameTok, typeID)
		v := &p.prog.Variables[id]
		v.ArrayLengthX, v.ArrayLengthY = p.parseArrayDims()

		if p.match(lexer.TokColon) {
			semTok := p.expect(lexer.TokIdent)
			p.errorIf(cbuffer, semTok, diagnostic.CodeInvalidSemantic, "cbuffer members cannot have semantics")
			sem, ok := ast.LookupSemantic(semTok.Name)
			p.errorIf(!ok, semTok, diagnostic.CodeInvalidSemantic, "unknown semantic '%s'", semTok.Name)
			p.prog.Variables[id].Semantic = sem
		}
		p.expect(lexer.TokSemicolon)

		if cbuffer {
			p.prog.Variables[id].Owner = owner
			p.globals[nameTok.Name] = id
		}
		count++
	}
	p.match(lexer.TokSemicolon)

	return first, count
}

// parseStruct parses: struct Name { T m [: SEM]; ... };
func (p *Parser) parseStruct() {
	nameTok := p.expect(lexer.TokIdent)
	p.checkNamespaceConflicts(nameTok)

	structID := ast.StructID(len(p.prog.Structs))
	first, count := p.parseMembers(structID, false)
	p.declareStruct(nameTok, ast.StructPlain, 0, first, count)
}

// parseCBuffer parses: cbuffer Name : slot(N) { T m; ... };
func (p *Parser) parseCBuffer() {
	nameTok := p.expect(lexer.TokIdent)
	p.checkNamespaceConflicts(nameTok)
	slotTok, slotValue := p.parseSlot()
	slot := p.claimSlot(&p.bufferSlots, slotValue, MaxBufferSlots, "buffer", slotTok)

	structID := ast.StructID(len(p.prog.Structs))
	first, count := p.parseMembers(structID, true)
	p.declareStruct(nameTok, ast.StructCBuffer, slot, first, count)
}

func (p *Parser) declareStruct(nameTok lexer.Token, role ast.StructType, slot uint32, first ast.VariableID, count uint32) {
	structID := ast.StructID(len(p.prog.Structs))
	typeID := p.prog.RegisterType(ast.Type{
		Name:        nameTok.Name,
		Struct:      structID,
		MemberFirst: first,
		MemberCount: count,
	})
	p.prog.RegisterStruct(ast.Struct{
		Type:       typeID,
		StructType: role,
		Slot:       slot,
		Pos:        nameTok.Position,
	})
	p.types[nameTok.Name] = typeID
	p.prog.Decls = append(p.prog.Decls, p.alloc(&ast.StructDeclaration{Struct: structID}))
}

// parseSlot parses ": slot(N)".
func (p *Parser) parseSlot() (lexer.Token, uint64) {
	p.expect(lexer.TokColon)
	p.expect(lexer.TokSlot)
	p.expect(lexer.TokLParen)
	tok := p.expect(lexer.TokInteger)
	p.expect(lexer.TokRParen)
	return tok, tok.Integer
}

// parseTexture parses: texture2D name : slot(N);
func (p *Parser) parseTexture(kindTok lexer.Token) {
	nameTok := p.expect(lexer.TokIdent)
	p.checkNamespaceConflicts(nameTok)
	slotTok, slotValue := p.parseSlot()
	slot := p.claimSlot(&p.textureSlots, slotValue, MaxTextureSlots, "texture", slotTok)
	p.expect(lexer.TokSemicolon)

	tex := ast.Texture{Name: nameTok.Name, Pos: nameTok.Position, Slot: slot}
	switch kindTok.Kind {
	case lexer.TokTexture3D:
		tex.Dimension = ast.Texture3D
	case lexer.TokTextureCube:
		tex.Dimension = ast.TextureCube
	case lexer.TokRWTexture2D:
		tex.Writable = true
	}
	id := p.prog.RegisterTexture(tex)
	p.textures[nameTok.Name] = id
	p.prog.Decls = append(p.prog.Decls, p.alloc(&ast.TextureDeclaration{Texture: id}))
}

// parseNumThreads parses the remainder of "[numthreads(X, Y, Z)]".
func (p *Parser) parseNumThreads() [3]uint32 {
	tok := p.expect(lexer.TokIdent)
	p.errorIf(tok.Name != "numthreads", tok, diagnostic.CodeUnexpectedToken, "unknown attribute '%s'", tok.Name)
	p.expect(lexer.TokLParen)

	var threads [3]uint32
	for i := range threads {
		if i > 0 {
			p.expect(lexer.TokComma)
		}
		n := p.expect(lexer.TokInteger)
		p.errorIf(n.Integer == 0 || n.Integer > 1024, n, diagnostic.CodeInvalidArraySize,
			"thread count %d out of range", n.Integer)
		threads[i] = uint32(n.Integer)
	}

	p.expect(lexer.TokRParen)
	p.expect(lexer.TokRBracket)
	return threads
}

// parseFunction parses a function definition starting at its return type.
func (p *Parser) parseFunction(typeTok lexer.Token, threads [3]uint32, hasThreads bool) {
	returnType := p.lookupType(typeTok)
	nameTok := p.expect(lexer.TokIdent)
	p.checkNamespaceConflicts(nameTok)

	fn := ast.Function{
		Name:    nameTok.Name,
		Pos:     nameTok.Position,
		Type:    returnType,
		Threads: threads,
		Node:    ast.NoNode,
	}
	switch nameTok.Name {
	case VertexMain:
		fn.FunctionType = ast.FunctionMainVertex
	case FragmentMain:
		fn.FunctionType = ast.FunctionMainFragment
	case ComputeMain:
		fn.FunctionType = ast.FunctionMainCompute
	}
	p.errorIf(hasThreads && fn.FunctionType != ast.FunctionMainCompute, nameTok,
		diagnostic.CodeInvalidEntryPoint, "[numthreads] is only valid on %s", ComputeMain)

	// Parameters
	mark := p.scopeMark()
	p.expect(lexer.TokLParen)
	fn.ParameterFirst = p.prog.NextVariable()
	if !p.match(lexer.TokRParen) {
		for {
			paramType := p.lookupType(p.expect(lexer.TokIdent))
			paramTok := p.expect(lexer.TokIdent)
			p.checkLocalConflicts(paramTok, mark)
			id := p.registerVariable(paramTok, paramType)
			v := &p.prog.Variables[id]
			v.ArrayLengthX, v.ArrayLengthY = p.parseArrayDims()
			p.scopePush(id)
			fn.ParameterCount++
			if !p.match(lexer.TokComma) {
				break
			}
		}
		p.expect(lexer.TokRParen)
	}

	fnID := p.prog.RegisterFunction(fn)
	p.functions[nameTok.Name] = fnID
	p.registerEntryPoint(fnID, nameTok)

	// Body
	p.currentFunction = fnID
	body := p.parseBlockFrom(mark)
	p.currentFunction = ast.NoFunction
	p.scopeReset(mark)

	node := p.alloc(&ast.FunctionDeclaration{Function: fnID, Body: body})
	p.prog.Functions[fnID].Node = node
	p.prog.Decls = append(p.prog.Decls, node)
}

// registerEntryPoint records a stage entry and infers its I/O struct roles.
func (p *Parser) registerEntryPoint(id ast.FunctionID, tok lexer.Token) {
	fn := &p.prog.Functions[id]
	var in, out ast.StructType

	switch fn.FunctionType {
	case ast.FunctionMainVertex:
		p.prog.MainVertex = id
		in, out = ast.StructVertexInput, ast.StructVertexOutput
	case ast.FunctionMainFragment:
		p.prog.MainFragment = id
		in, out = ast.StructFragmentInput, ast.StructFragmentOutput
	case ast.FunctionMainCompute:
		p.prog.MainCompute = id
		in = ast.StructComputeInput
	default:
		return
	}

	for _, param := range p.prog.Parameters(id) {
		p.assignRole(param.Type, in, tok)
	}
	if out != ast.StructPlain {
		p.assignRole(fn.Type, out, tok)
	}
}

func (p *Parser) assignRole(typeID ast.TypeID, role ast.StructType, tok lexer.Token) {
	s := p.prog.StructOf(typeID)
	if s == nil {
		return // signature shape is checked by the validator
	}
	name := p.prog.Types[typeID].Name

	switch {
	case s.StructType == ast.StructCBuffer:
		p.errorCode(tok, diagnostic.CodeStructRole, "cbuffer '%s' cannot be used as %s", name, role)
	case s.StructType == ast.StructPlain || s.StructType == role:
		s.StructType = role
	case s.StructType == ast.StructVertexOutput && role == ast.StructFragmentInput:
		s.FragmentInput = true
	case s.StructType == ast.StructFragmentInput && role == ast.StructVertexOutput:
		s.StructType = ast.StructVertexOutput
		s.FragmentInput = true
	default:
		p.errorCode(tok, diagnostic.CodeStructRole, "struct '%s' used as both %s and %s", name, s.StructType, role)
	}

	if role == ast.StructFragmentOutput {
		for _, member := range p.prog.Members(typeID) {
			if member.Semantic.Kind == ast.SemanticColor {
				memberTok := lexer.Token{Position: member.Pos}
				p.claimSlot(&p.targetSlots, uint64(member.Semantic.Index), MaxTargetSlots, "target", memberTok)
			}
		}
	}
}

// parseArrayDims parses up to two [N] suffixes.
func (p *Parser) parseArrayDims() (uint32, uint32) {
	var dims [2]uint32
	for i := range dims {
		if !p.match(lexer.TokLBracket) {
			break
		}
		tok := p.expect(lexer.TokInteger)
		p.errorIf(tok.Integer == 0 || tok.Integer > 1<<16, tok, diagnostic.CodeInvalidArraySize,
			"invalid array size %d", tok.Integer)
		dims[i] = uint32(tok.Integer)
		p.expect(lexer.TokRBracket)
	}
	return dims[0], dims[1]
}
