package parse

import "testing"

type lexTest struct {
	name  string
	input string
	items []item
}

var tEOF = item{itemEOF, 0, ""}

var lexTests = []lexTest{
	{"empty", "", []item{tEOF}},
	{"spaces", " \t\n", []item{tEOF}},
	{"ident", "user", []item{{itemIdent, 0, "user"}, tEOF}},
	{"dollar ident", "$loop", []item{{itemIdent, 0, "$loop"}, tEOF}},
	{"keywords", "null undefined true false", []item{
		{itemNull, 0, "null"},
		{itemUndefined, 0, "undefined"},
		{itemBool, 0, "true"},
		{itemBool, 0, "false"},
		tEOF,
	}},
	{"numbers", "42 0x1A2B 0.5 6.02e23", []item{
		{itemInteger, 0, "42"},
		{itemInteger, 0, "0x1A2B"},
		{itemFloat, 0, "0.5"},
		{itemFloat, 0, "6.02e23"},
		tEOF,
	}},
	{"negative number", "-3e-3", []item{{itemFloat, 0, "-3e-3"}, tEOF}},
	{"unary minus", "-a", []item{{itemNegate, 0, "-"}, {itemIdent, 0, "a"}, tEOF}},
	{"binary minus", "a - b", []item{
		{itemIdent, 0, "a"},
		{itemSub, 0, "-"},
		{itemIdent, 0, "b"},
		tEOF,
	}},
	{"negative call arg", "f(-1)", []item{
		{itemIdent, 0, "f"},
		{itemLeftParen, 0, "("},
		{itemInteger, 0, "-1"},
		{itemRightParen, 0, ")"},
		tEOF,
	}},
	{"arithmetic", "a + b * c % d / e", []item{
		{itemIdent, 0, "a"},
		{itemAdd, 0, "+"},
		{itemIdent, 0, "b"},
		{itemMul, 0, "*"},
		{itemIdent, 0, "c"},
		{itemMod, 0, "%"},
		{itemIdent, 0, "d"},
		{itemDiv, 0, "/"},
		{itemIdent, 0, "e"},
		tEOF,
	}},
	{"comparisons", "a == b != c >= d <= e > f < g", []item{
		{itemIdent, 0, "a"},
		{itemEq, 0, "=="},
		{itemIdent, 0, "b"},
		{itemNotEq, 0, "!="},
		{itemIdent, 0, "c"},
		{itemGte, 0, ">="},
		{itemIdent, 0, "d"},
		{itemLte, 0, "<="},
		{itemIdent, 0, "e"},
		{itemGt, 0, ">"},
		{itemIdent, 0, "f"},
		{itemLt, 0, "<"},
		{itemIdent, 0, "g"},
		tEOF,
	}},
	{"strict spellings", "a === b !== c", []item{
		{itemIdent, 0, "a"},
		{itemEq, 0, "==="},
		{itemIdent, 0, "b"},
		{itemNotEq, 0, "!=="},
		{itemIdent, 0, "c"},
		tEOF,
	}},
	{"logical", "a && b || !c", []item{
		{itemIdent, 0, "a"},
		{itemAnd, 0, "&&"},
		{itemIdent, 0, "b"},
		{itemOr, 0, "||"},
		{itemNot, 0, "!"},
		{itemIdent, 0, "c"},
		tEOF,
	}},
	{"assign vs equality", "title = a == b", []item{
		{itemIdent, 0, "title"},
		{itemAssign, 0, "="},
		{itemIdent, 0, "a"},
		{itemEq, 0, "=="},
		{itemIdent, 0, "b"},
		tEOF,
	}},
	{"member access", "user.profile.name", []item{
		{itemIdent, 0, "user"},
		{itemDotIdent, 0, ".profile"},
		{itemDotIdent, 0, ".name"},
		tEOF,
	}},
	{"element access", "users[0]", []item{
		{itemIdent, 0, "users"},
		{itemLeftBracket, 0, "["},
		{itemInteger, 0, "0"},
		{itemRightBracket, 0, "]"},
		tEOF,
	}},
	{"call", "size(users, 2)", []item{
		{itemIdent, 0, "size"},
		{itemLeftParen, 0, "("},
		{itemIdent, 0, "users"},
		{itemComma, 0, ","},
		{itemInteger, 0, "2"},
		{itemRightParen, 0, ")"},
		tEOF,
	}},
	{"each binding", "(user, i) in users", []item{
		{itemLeftParen, 0, "("},
		{itemIdent, 0, "user"},
		{itemComma, 0, ","},
		{itemIdent, 0, "i"},
		{itemRightParen, 0, ")"},
		{itemIn, 0, "in"},
		{itemIdent, 0, "users"},
		tEOF,
	}},
	{"object literal", "{ a: 1, 'b-c': 2 }", []item{
		{itemLeftBrace, 0, "{"},
		{itemIdent, 0, "a"},
		{itemColon, 0, ":"},
		{itemInteger, 0, "1"},
		{itemComma, 0, ","},
		{itemString, 0, "'b-c'"},
		{itemColon, 0, ":"},
		{itemInteger, 0, "2"},
		{itemRightBrace, 0, "}"},
		tEOF,
	}},
	{"array literal", "[1, 'two']", []item{
		{itemLeftBracket, 0, "["},
		{itemInteger, 0, "1"},
		{itemComma, 0, ","},
		{itemString, 0, "'two'"},
		{itemRightBracket, 0, "]"},
		tEOF,
	}},
	{"ternary", "ok ? a : b", []item{
		{itemIdent, 0, "ok"},
		{itemQuestion, 0, "?"},
		{itemIdent, 0, "a"},
		{itemColon, 0, ":"},
		{itemIdent, 0, "b"},
		tEOF,
	}},
	{"sequence", "'alert', message", []item{
		{itemString, 0, "'alert'"},
		{itemComma, 0, ","},
		{itemIdent, 0, "message"},
		tEOF,
	}},
	{"strings", `'a' "b" 'it\'s'`, []item{
		{itemString, 0, `'a'`},
		{itemString, 0, `"b"`},
		{itemString, 0, `'it\'s'`},
		tEOF,
	}},
	{"unterminated string", "'abc", []item{
		{itemError, 0, "unexpected eof while scanning string"},
	}},
	{"lone ampersand", "a & b", []item{
		{itemIdent, 0, "a"},
		{itemError, 0, "expected && in expression"},
	}},
	{"bad character", "a ^ b", []item{
		{itemIdent, 0, "a"},
		{itemError, 0, `unrecognized character in expression: U+005E '^'`},
	}},
	{"dot without ident", "user. ", []item{
		{itemIdent, 0, "user"},
		{itemError, 0, "expected identifier after '.'"},
	}},
}

// collect gathers the emitted items into a slice.
func collect(t *lexTest) (items []item) {
	l := lexExpr(t.name, t.input)
	for {
		item := l.nextItem()
		items = append(items, item)
		if item.typ == itemEOF || item.typ == itemError {
			break
		}
	}
	return
}

func equal(i1, i2 []item, checkPos bool) bool {
	if len(i1) != len(i2) {
		return false
	}
	for k := range i1 {
		if i1[k].typ != i2[k].typ {
			return false
		}
		if i1[k].val != i2[k].val {
			return false
		}
		if checkPos && i1[k].pos != i2[k].pos {
			return false
		}
	}
	return true
}

func TestLex(t *testing.T) {
	for _, test := range lexTests {
		items := collect(&test)
		if !equal(items, test.items, false) {
			t.Errorf("%s: got\n\t%+v\nexpected\n\t%+v", test.name, items, test.items)
		}
	}
}

func TestScanNumber(t *testing.T) {
	validIntegers := []string{
		// Decimal.
		"0",
		"-1",
		"42",
		"-827",
		// Hexadecimal.
		"0x1A2B",
	}
	invalidIntegers := []string{
		// Decimal.
		"042",
		"-0827",
		// Hexadecimal.
		"-0x1A2B",
		"0X1A2B",
		"0x1a2b",
		"0x1A2B.2B",
	}
	validFloats := []string{
		"0.5",
		"-100.0",
		"-3e-3",
		"6.02e23",
		"5.1e-9",
	}
	invalidFloats := []string{
		".5",
		"-.5",
		"100.",
		"-100.",
		"-3E-3",
		"6.02E23",
		"5.1E-9",
		"-3e",
		"6.02e",
	}

	for _, v := range validIntegers {
		l := &lexer{input: v}
		typ, ok := scanNumber(l)
		res := l.input[l.start:l.pos]
		if !ok || typ != itemInteger {
			t.Fatalf("Expected a valid integer for %q", v)
		}
		if res != v {
			t.Fatalf("Expected %q, got %q", v, res)
		}
	}
	for _, v := range invalidIntegers {
		l := &lexer{input: v}
		_, ok := scanNumber(l)
		if ok {
			t.Fatalf("Expected an invalid integer for %q", v)
		}
	}
	for _, v := range validFloats {
		l := &lexer{input: v}
		typ, ok := scanNumber(l)
		res := l.input[l.start:l.pos]
		if !ok || typ != itemFloat {
			t.Fatalf("Expected a valid float for %q", v)
		}
		if res != v {
			t.Fatalf("Expected %q, got %q", v, res)
		}
	}
	for _, v := range invalidFloats {
		l := &lexer{input: v}
		_, ok := scanNumber(l)
		if ok {
			t.Fatalf("Expected an invalid float for %q", v)
		}
	}
}
