package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/entforge/entkit/internal/entity"
	"github.com/entforge/entkit/internal/lexer"
	"github.com/entforge/entkit/internal/token"
)

// Error is a structurally invalid token sequence at a known position.
type Error struct {
	Pos      token.Position
	Expected string
	Found    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d col %d: expected %s, found %s", e.Pos.Line, e.Pos.Column, e.Expected, e.Found)
}

// Position returns the position of the offending token.
func (e *Error) Position() token.Position { return e.Pos }

// Fragment is the result of parsing a value subtree: either a bare value or
// a sequence of key = value properties.
type Fragment struct {
	Props []entity.Property
	Value *entity.Value
}

// Parser consumes tokens produced by the lexer and builds the document.
type Parser struct {
	toks []token.Token
	cur  int
}

// Parse lexes and parses a complete entities document. Every token is
// consumed: trailing input after the last entityDef block is an error.
func Parse(src string) (*entity.Document, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseDocument()
}

// ParseFragment lexes and parses a value subtree: a bare value (struct,
// array or scalar) or a bare sequence of properties.
func ParseFragment(src string) (*Fragment, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseFragment()
}

func (p *Parser) parseDocument() (*entity.Document, error) {
	doc := entity.NewDocument()

	if err := p.parseHeader(doc); err != nil {
		return nil, err
	}

	for p.peek().Type != token.EOF {
		if err := p.parseEntityDef(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// parseHeader consumes the optional Version, HierarchyVersion and
// properties sections preceding the first entityDef block.
func (p *Parser) parseHeader(doc *entity.Document) error {
	if p.peek().Type == token.Ident && p.peek().Text == "Version" {
		p.next()
		n, err := p.expectInt("version number")
		if err != nil {
			return err
		}
		doc.Version = n
	}
	if p.peek().Type == token.Ident && p.peek().Text == "HierarchyVersion" {
		p.next()
		n, err := p.expectInt("hierarchy version number")
		if err != nil {
			return err
		}
		doc.HierarchyVersion = n
	}
	if p.peek().Type == token.Ident && p.peek().Text == "properties" {
		p.next()
		if _, err := p.expect(token.LBrace, "'{'"); err != nil {
			return err
		}
		props, err := p.parseProperties()
		if err != nil {
			return err
		}
		if _, err := p.expect(token.RBrace, "'}'"); err != nil {
			return err
		}
		doc.HeaderProps = props
	}
	return nil
}

// parseEntityDef parses one entityDef <name> { ... } block. A name seen
// before replaces the earlier definition (last write wins).
func (p *Parser) parseEntityDef(doc *entity.Document) error {
	tok := p.peek()
	if tok.Type != token.Ident || tok.Text != "entityDef" {
		return p.errExpected("'entityDef'", tok)
	}
	p.next()

	nameTok := p.peek()
	if nameTok.Type != token.Ident && nameTok.Type != token.String {
		return p.errExpected("entity name", nameTok)
	}
	p.next()

	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return err
	}
	props, err := p.parseProperties()
	if err != nil {
		return err
	}
	if _, err := p.expect(token.RBrace, "'}'"); err != nil {
		return err
	}

	doc.InsertOrReplaceEntity(nameTok.Text, props)
	return nil
}

// parseProperties parses key = value entries until the closing brace or EOF
// of the surrounding context.
func (p *Parser) parseProperties() ([]entity.Property, error) {
	var props []entity.Property
	for {
		tok := p.peek()
		if tok.Type == token.RBrace || tok.Type == token.EOF {
			return props, nil
		}
		prop, err := p.parseProperty()
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
}

// parseProperty parses one <key> = <value> entry. The semicolon is required
// after scalar values and tolerated, but not required, after a closing brace.
func (p *Parser) parseProperty() (entity.Property, error) {
	keyTok := p.peek()
	if keyTok.Type == token.LBracket {
		return entity.Property{}, p.errExpected("property key (array entry in struct context)", keyTok)
	}
	if keyTok.Type != token.Ident && keyTok.Type != token.String {
		return entity.Property{}, p.errExpected("property key", keyTok)
	}
	p.next()

	key := keyTok.Text
	// item[3] style keys fold the authored index into the key string.
	if p.peek().Type == token.LBracket {
		p.next()
		idx, err := p.expectInt("array index")
		if err != nil {
			return entity.Property{}, err
		}
		if _, err := p.expect(token.RBracket, "']'"); err != nil {
			return entity.Property{}, err
		}
		key = fmt.Sprintf("%s[%d]", key, idx)
	}

	if _, err := p.expect(token.Assign, "'='"); err != nil {
		return entity.Property{}, err
	}

	val, err := p.parseValue()
	if err != nil {
		return entity.Property{}, err
	}
	if err := p.finishValue(val); err != nil {
		return entity.Property{}, err
	}
	return entity.Property{Key: key, Value: val}, nil
}

// finishValue consumes the terminator after a value: mandatory ';' for
// scalars, optional after a block.
func (p *Parser) finishValue(v entity.Value) error {
	if v.IsScalar() {
		_, err := p.expect(token.Semicolon, "';'")
		return err
	}
	if p.peek().Type == token.Semicolon {
		p.next()
	}
	return nil
}

func (p *Parser) parseValue() (entity.Value, error) {
	tok := p.peek()
	switch tok.Type {
	case token.String:
		p.next()
		return entity.String(tok.Text), nil
	case token.Number:
		p.next()
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return entity.Value{}, p.errAt(tok, "number", "malformed numeric literal")
		}
		if isIntLiteral(tok.Text) {
			return entity.Value{Kind: entity.KindNumber, Num: f, IsInt: true}, nil
		}
		return entity.Number(f), nil
	case token.Ident:
		p.next()
		switch tok.Text {
		case "true":
			return entity.Bool(true), nil
		case "false":
			return entity.Bool(false), nil
		case "NULL":
			return entity.Null(), nil
		default:
			return entity.Reference(tok.Text), nil
		}
	case token.LBrace:
		return p.parseBlock()
	default:
		return entity.Value{}, p.errExpected("value", tok)
	}
}

// parseBlock parses a brace-enclosed block and decides between struct and
// array by inspecting the first entry: a key followed by '=' (or an item[i]
// key) opens a struct, anything else is positional. Mixing the two entry
// forms is an error; an empty block is an empty struct.
func (p *Parser) parseBlock() (entity.Value, error) {
	if _, err := p.expect(token.LBrace, "'{'"); err != nil {
		return entity.Value{}, err
	}

	tok := p.peek()
	if tok.Type == token.RBrace {
		p.next()
		return entity.Struct(), nil
	}

	if p.startsProperty() {
		props, err := p.parseProperties()
		if err != nil {
			return entity.Value{}, err
		}
		if _, err := p.expect(token.RBrace, "'}'"); err != nil {
			return entity.Value{}, err
		}
		return entity.Value{Kind: entity.KindStruct, Props: props}, nil
	}
	return p.parseArrayEntries()
}

// startsProperty reports whether the upcoming tokens look like a key = value
// entry rather than a positional array entry.
func (p *Parser) startsProperty() bool {
	tok := p.peek()
	if tok.Type != token.Ident && tok.Type != token.String {
		return false
	}
	next := p.peekAt(1)
	return next.Type == token.Assign || next.Type == token.LBracket
}

func (p *Parser) parseArrayEntries() (entity.Value, error) {
	var elems []entity.ArrayEntry
	for {
		tok := p.peek()
		switch tok.Type {
		case token.RBrace:
			p.next()
			return entity.Value{Kind: entity.KindArray, Elems: elems}, nil
		case token.EOF:
			return entity.Value{}, p.errExpected("'}'", tok)
		case token.LBracket:
			p.next()
			idx, err := p.expectInt("array index")
			if err != nil {
				return entity.Value{}, err
			}
			if _, err := p.expect(token.RBracket, "']'"); err != nil {
				return entity.Value{}, err
			}
			if _, err := p.expect(token.Assign, "'='"); err != nil {
				return entity.Value{}, err
			}
			val, err := p.parseValue()
			if err != nil {
				return entity.Value{}, err
			}
			if err := p.finishValue(val); err != nil {
				return entity.Value{}, err
			}
			elems = append(elems, entity.ArrayEntry{Index: idx, HasIndex: true, Value: val})
		default:
			if p.startsProperty() {
				return entity.Value{}, p.errExpected("array entry (struct entry in array context)", tok)
			}
			val, err := p.parseValue()
			if err != nil {
				return entity.Value{}, err
			}
			if err := p.finishValue(val); err != nil {
				return entity.Value{}, err
			}
			elems = append(elems, entity.ArrayEntry{Value: val})
		}
	}
}

func (p *Parser) parseFragment() (*Fragment, error) {
	tok := p.peek()
	if tok.Type == token.EOF {
		return nil, p.errExpected("value or property", tok)
	}

	if p.startsProperty() {
		props, err := p.parseProperties()
		if err != nil {
			return nil, err
		}
		if tok := p.peek(); tok.Type != token.EOF {
			return nil, p.errExpected("end of input", tok)
		}
		return &Fragment{Props: props}, nil
	}

	val, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if p.peek().Type == token.Semicolon {
		p.next()
	}
	if tok := p.peek(); tok.Type != token.EOF {
		return nil, p.errExpected("end of input", tok)
	}
	return &Fragment{Value: &val}, nil
}

func (p *Parser) peek() token.Token { return p.toks[p.cur] }

func (p *Parser) peekAt(ahead int) token.Token {
	if p.cur+ahead >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.cur+ahead]
}

func (p *Parser) next() token.Token {
	tok := p.toks[p.cur]
	if tok.Type != token.EOF {
		p.cur++
	}
	return tok
}

func (p *Parser) expect(typ token.Type, what string) (token.Token, error) {
	tok := p.peek()
	if tok.Type != typ {
		return token.Token{}, p.errExpected(what, tok)
	}
	p.next()
	return tok, nil
}

// expectInt consumes a number token that must be an integer literal.
func (p *Parser) expectInt(what string) (int64, error) {
	tok := p.peek()
	if tok.Type != token.Number || !isIntLiteral(tok.Text) {
		return 0, p.errExpected(what, tok)
	}
	p.next()
	n, err := strconv.ParseInt(tok.Text, 10, 64)
	if err != nil {
		return 0, p.errAt(tok, what, "integer out of range")
	}
	return n, nil
}

func (p *Parser) errExpected(expected string, tok token.Token) error {
	return &Error{Pos: tok.Pos, Expected: expected, Found: describe(tok)}
}

func (p *Parser) errAt(tok token.Token, expected, found string) error {
	return &Error{Pos: tok.Pos, Expected: expected, Found: found}
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.String:
		return fmt.Sprintf("string %q", tok.Text)
	case token.Ident, token.Number:
		return fmt.Sprintf("%q", tok.Text)
	default:
		return tok.Type.String()
	}
}

func isIntLiteral(text string) bool {
	return !strings.ContainsAny(text, ".eE")
}
