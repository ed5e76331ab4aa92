package parse

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer design from text/template

// Tokens ---------------------------------------------------------------------

// item represents a token returned from the scanner.
type item struct {
	typ itemType // The type of this item.
	pos int      // The starting position, in bytes, of this item in the input string.
	val string   // The value of this item.
}

func (i item) String() string {
	switch i.typ {
	case itemEOF:
		return "EOF"
	case itemError:
		return i.val
	}
	if len(i.val) > 10 {
		return fmt.Sprintf("%.10q...", i.val)
	}
	return fmt.Sprintf("%q", i.val)
}

// itemType identifies the type of lexical items.
type itemType int

// All items.
const (
	itemInvalid itemType = iota // not used
	itemEOF                     // EOF
	itemError                   // error occurred; value is text of error

	// Values
	itemNull      // null
	itemUndefined // undefined
	itemBool      // true, false
	itemInteger   // e.g. 42
	itemFloat     // e.g. 1.0
	itemString    // e.g. 'hello world'
	itemIdent     // identifier, e.g. user or $loop
	itemDotIdent  // .ident property access

	// Punctuation
	itemComma        // ,
	itemColon        // : (object literals, ternary else-branch)
	itemQuestion     // ? (ternary)
	itemAssign       // = (tag argument bindings)
	itemLeftParen    // (
	itemRightParen   // )
	itemLeftBracket  // [
	itemRightBracket // ]
	itemLeftBrace    // {
	itemRightBrace   // }

	// Operators (kept contiguous; see isOp)
	itemNegate // - (unary)
	itemMul    // *
	itemDiv    // /
	itemMod    // %
	itemAdd    // +
	itemSub    // - (binary)
	itemEq     // == or ===
	itemNotEq  // != or !==
	itemGt     // >
	itemGte    // >=
	itemLt     // <
	itemLte    // <=
	itemNot    // !
	itemOr     // ||
	itemAnd    // &&
	itemIn     // in
)

// isOp returns true if the item is an expression operation.
func (t itemType) isOp() bool {
	return itemNegate <= t && t <= itemIn
}

var keywordIdents = map[string]itemType{
	"null":      itemNull,
	"undefined": itemUndefined,
	"true":      itemBool,
	"false":     itemBool,
	"in":        itemIn,
}

// String converts the itemType into its source string.
// It is fantastically inefficient and should only be used for error messages.
func (t itemType) String() string {
	for k, v := range keywordIdents {
		if v == t {
			return k
		}
	}
	var r, ok = map[itemType]string{
		itemEOF:          "<eof>",
		itemError:        "<error>",
		itemInteger:      "<integer>",
		itemFloat:        "<float>",
		itemString:       "<string>",
		itemIdent:        "<ident>",
		itemDotIdent:     "<.ident>",
		itemComma:        ",",
		itemColon:        ":",
		itemQuestion:     "?",
		itemAssign:       "=",
		itemLeftParen:    "(",
		itemRightParen:   ")",
		itemLeftBracket:  "[",
		itemRightBracket: "]",
		itemLeftBrace:    "{",
		itemRightBrace:   "}",
		itemNegate:       "-",
		itemMul:          "*",
		itemDiv:          "/",
		itemMod:          "%",
		itemAdd:          "+",
		itemSub:          "-",
		itemEq:           "==",
		itemNotEq:        "!=",
		itemGt:           ">",
		itemGte:          ">=",
		itemLt:           "<",
		itemLte:          "<=",
		itemNot:          "!",
		itemOr:           "||",
		itemAnd:          "&&",
	}[t]
	if ok {
		return r
	}
	return fmt.Sprintf("item(%d)", int(t))
}

// Lexer ----------------------------------------------------------------------

const (
	eof       = -1
	decDigits = "0123456789"
	hexDigits = "0123456789ABCDEF"
)

// stateFn represents the state of the lexer as a function that returns the
// next state.
type stateFn func(*lexer) stateFn

// lexer holds the state of the lexical scanning.
//
// Based on the lexer from the "text/template" package.
// See http://www.youtube.com/watch?v=HxaD_trXwRE
type lexer struct {
	name     string    // the name of the input; used only during errors.
	input    string    // the string being scanned.
	state    stateFn   // the next lexing function to enter.
	pos      int       // current position in the input.
	start    int       // start position of this item.
	width    int       // width of last rune read from input.
	items    chan item // channel of scanned items.
	lastEmit item      // most recent item emitted.
}

// lexExpr creates a new scanner for an expression.
func lexExpr(name, input string) *lexer {
	l := &lexer{
		name:  name,
		input: input,
		items: make(chan item),
		state: lexInsideExpr,
	}
	go l.run()
	return l
}

// nextItem returns the next item from the input.
func (l *lexer) nextItem() item {
	return <-l.items
}

// run runs the state machine for the lexer.
func (l *lexer) run() {
	for l.state != nil {
		l.state = l.state(l)
	}
	close(l.items)
}

// next returns the next rune in the input.
func (l *lexer) next() (r rune) {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.width
	return r
}

// peek returns but does not consume the next rune in the input.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// backup steps back one rune. Can only be called once per call of next.
func (l *lexer) backup() {
	l.pos -= l.width
}

// emit passes an item back to the client.
func (l *lexer) emit(t itemType) {
	l.lastEmit = item{t, l.start, l.input[l.start:l.pos]}
	l.items <- l.lastEmit
	l.start = l.pos
}

// ignore skips over the pending input before this point.
func (l *lexer) ignore() {
	l.start = l.pos
}

// accept consumes the next rune if it's from the valid set.
func (l *lexer) accept(valid string) bool {
	if strings.IndexRune(valid, l.next()) >= 0 {
		return true
	}
	l.backup()
	return false
}

// acceptRun consumes a run of runes from the valid set.
func (l *lexer) acceptRun(valid string) bool {
	pos := l.pos
	for strings.IndexRune(valid, l.next()) >= 0 {
	}
	l.backup()
	return l.pos > pos
}

// lineNumber reports which line the given position is on.
func (l *lexer) lineNumber(pos int) int {
	return 1 + strings.Count(l.input[:pos], "\n")
}

// columnNumber reports which column in the current line the position is at.
func (l *lexer) columnNumber(pos int) int {
	n := strings.LastIndex(l.input[:pos], "\n")
	if n == -1 {
		n = 0
	}
	return pos - n
}

// errorf returns an error item and terminates the scan by passing back a nil
// pointer that will be the next state, terminating l.nextItem.
func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.items <- item{itemError, l.pos, fmt.Sprintf(format, args...)}
	return nil
}

// State functions ------------------------------------------------------------

// lexInsideExpr is called repeatedly to scan the elements of an expression.
func lexInsideExpr(l *lexer) stateFn {
	switch r := l.next(); {
	case isSpaceEOL(r):
		l.ignore()
	case r == eof:
		l.emit(itemEOF)
		return nil
	case isLetterOrUnderscore(r) || r == '$':
		l.backup()
		return lexIdent
	case isDigit(r):
		l.backup()
		return lexNumber
	case r == '\'' || r == '"':
		return stringLexer(r)
	case r == '-':
		return lexNegative(l)
	case r == '.':
		return lexDotIdent(l)
	case r == ',':
		l.emit(itemComma)
	case r == ':':
		l.emit(itemColon)
	case r == '?':
		l.emit(itemQuestion)
	case r == '(':
		l.emit(itemLeftParen)
	case r == ')':
		l.emit(itemRightParen)
	case r == '[':
		l.emit(itemLeftBracket)
	case r == ']':
		l.emit(itemRightBracket)
	case r == '{':
		l.emit(itemLeftBrace)
	case r == '}':
		l.emit(itemRightBrace)
	case r == '*':
		l.emit(itemMul)
	case r == '/':
		l.emit(itemDiv)
	case r == '%':
		l.emit(itemMod)
	case r == '+':
		l.emit(itemAdd)
	case r == '=':
		if l.peek() == '=' {
			l.next()
			l.accept("=") // tolerate the strict spelling ===
			l.emit(itemEq)
		} else {
			l.emit(itemAssign)
		}
	case r == '!':
		if l.peek() == '=' {
			l.next()
			l.accept("=") // tolerate the strict spelling !==
			l.emit(itemNotEq)
		} else {
			l.emit(itemNot)
		}
	case r == '>':
		if l.accept("=") {
			l.emit(itemGte)
		} else {
			l.emit(itemGt)
		}
	case r == '<':
		if l.accept("=") {
			l.emit(itemLte)
		} else {
			l.emit(itemLt)
		}
	case r == '&':
		if !l.accept("&") {
			return l.errorf("expected && in expression")
		}
		l.emit(itemAnd)
	case r == '|':
		if !l.accept("|") {
			return l.errorf("expected || in expression")
		}
		l.emit(itemOr)
	default:
		return l.errorf("unrecognized character in expression: %#U", r)
	}
	return lexInsideExpr
}

// lexNegative decides whether a minus is a unary negation or a binary
// subtraction: unary if it starts the input, a group, or follows an operator.
func lexNegative(l *lexer) stateFn {
	var lastType = l.lastEmit.typ
	if lastType == itemInvalid ||
		lastType.isOp() ||
		lastType == itemLeftParen ||
		lastType == itemLeftBracket ||
		lastType == itemLeftBrace ||
		lastType == itemComma ||
		lastType == itemColon ||
		lastType == itemQuestion ||
		lastType == itemAssign {
		// is it a negative number?
		if isDigit(l.peek()) {
			l.backup()
			return lexNumber
		}
		l.emit(itemNegate)
	} else {
		l.emit(itemSub)
	}
	return lexInsideExpr
}

// stringLexer returns a stateFn that lexes strings surrounded by the given
// quote character.
func stringLexer(quoteChar rune) stateFn {
	// the quote char has already been read.
	return func(l *lexer) stateFn {
		for {
			switch l.next() {
			case eof:
				return l.errorf("unexpected eof while scanning string")
			case '\\':
				l.next() // skip escape sequences
			case quoteChar:
				l.emit(itemString)
				return lexInsideExpr
			}
		}
	}
}

// lexIdent scans an identifier or keyword.
func lexIdent(l *lexer) stateFn {
	for isIdentRune(l.next()) {
	}
	l.backup()
	word := l.input[l.start:l.pos]
	if typ, ok := keywordIdents[word]; ok {
		l.emit(typ)
		return lexInsideExpr
	}
	l.emit(itemIdent)
	return lexInsideExpr
}

// lexDotIdent scans a property access. '.' has already been read.
func lexDotIdent(l *lexer) stateFn {
	if r := l.peek(); !isLetterOrUnderscore(r) && r != '$' {
		return l.errorf("expected identifier after '.'")
	}
	for isIdentRune(l.next()) {
	}
	l.backup()
	l.emit(itemDotIdent) // value includes the leading dot
	return lexInsideExpr
}

// lexNumber scans a number: a float or integer (which can be decimal or hex).
func lexNumber(l *lexer) stateFn {
	typ, ok := scanNumber(l)
	if !ok {
		return l.errorf("bad number syntax: %q", l.input[l.start:l.pos])
	}
	// Emits itemFloat or itemInteger.
	l.emit(typ)
	return lexInsideExpr
}

// scanNumber scans a numeric literal.
//
// It returns the scanned itemType (itemFloat or itemInteger) and a flag
// indicating if an error was found.
//
// Floats must be in decimal and must either:
//
//     - Have digits both before and after the decimal point (both can be
//       a single 0), e.g. 0.5, -100.0, or
//     - Have a lower-case e that represents scientific notation,
//       e.g. -3e-3, 6.02e23.
//
// Integers can be:
//
//     - decimal (e.g. -827)
//     - hexadecimal (must begin with 0x and must use capital A-F,
//       e.g. 0x1A2B).
func scanNumber(l *lexer) (typ itemType, ok bool) {
	typ = itemInteger
	// Optional leading sign.
	hasSign := l.accept("+-")
	if len(l.input) >= l.pos+2 && l.input[l.pos:l.pos+2] == "0x" {
		// Hexadecimal.
		if hasSign {
			// No signs for hexadecimals.
			return
		}
		l.acceptRun("0x")
		if !l.acceptRun(hexDigits) {
			// Requires at least one digit.
			return
		}
		if l.accept(".") {
			// No dots for hexadecimals.
			return
		}
	} else {
		// Decimal.
		if !l.acceptRun(decDigits) {
			// Requires at least one digit.
			return
		}
		if l.accept(".") {
			// Float.
			if !l.acceptRun(decDigits) {
				// Requires a digit after the dot.
				return
			}
			typ = itemFloat
		} else {
			if (!hasSign && l.input[l.start] == '0' && l.pos > l.start+1) ||
				(hasSign && l.input[l.start+1] == '0' && l.pos > l.start+2) {
				// Integers can't start with 0.
				return
			}
		}
		if l.accept("e") {
			l.accept("+-")
			if !l.acceptRun(decDigits) {
				// A digit is required after the scientific notation.
				return
			}
			typ = itemFloat
		}
	}
	// Next thing must not be alphanumeric.
	if isAlphaNumeric(l.peek()) {
		l.next()
		return
	}
	ok = true
	return
}

// Helpers --------------------------------------------------------------------

// isAlphaNumeric reports whether r is an alphabetic, digit, or underscore.
func isAlphaNumeric(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isIdentRune reports whether r may appear in an identifier.
func isIdentRune(r rune) bool {
	return r == '$' || isAlphaNumeric(r)
}

// isSpace reports whether r is a space character.
func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

// isEndOfLine reports whether r is an end-of-line character.
func isEndOfLine(r rune) bool {
	return r == '\r' || r == '\n'
}

// isSpaceEOL returns true if r is space or end of line.
func isSpaceEOL(r rune) bool {
	return isSpace(r) || isEndOfLine(r)
}

func isLetterOrUnderscore(r rune) bool {
	return 'a' <= r && r <= 'z' ||
		'A' <= r && r <= 'Z' ||
		r == '_'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
