package formula

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nconklindev/sheetsync/internal/coord"

	"golang.org/x/text/unicode/norm"
)

// TokenType represents the kinds of tokens produced by the lexers.
type TokenType int

const (
	TokenText        TokenType = iota // opaque text: functions, numbers, unknown names
	TokenString                       // "quoted" literal
	TokenWhitespace                   // run of spaces, tabs and newlines
	TokenOperator                     // + - * / ^ & = < > %
	TokenPunct                        // ( ) , ; : { }
	TokenColumn                       // same-sheet column name
	TokenSheetColumn                  // Sheet!Column
	TokenCell                         // A1 style reference
	TokenSheetRange                   // Sheet!$A$2:$A$9
	TokenSheetRef                     // any other sheet-qualified reference
)

// character classification constants.
const (
	charQuote      = '"'
	charApostrophe = '\''
	charExclaim    = '!'
	charDollar     = '$'
	charLParen     = '('
)

// delimiters end a name. '!' and '$' are part of references, not delimiters.
const delimiters = "+-*/^&=<>%(),;:{}"

// Token is a lexical token with its source text and byte position.
type Token struct {
	Type  TokenType
	Value string // exact source text
	Pos   int

	// Resolved reference parts, set depending on Type.
	Sheet  string
	Column string
	Ref    cellRef
	End    cellRef
}

// cellRef is an A1 reference split into its parts.
type cellRef struct {
	Letters   string
	Row       int
	AbsCol    bool
	AbsRow    bool
	RowDigits string
}

func (r cellRef) absolute() bool { return r.AbsCol && r.AbsRow }

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || r == charQuote || strings.ContainsRune(delimiters, r)
}

func isOperator(r rune) bool {
	return strings.ContainsRune("+-*/^&=<>%", r)
}

// lexer holds the scanning state shared by the symbolic and positional
// tokenizers.
type lexer struct {
	input  string
	pos    int
	tokens []Token
}

func (l *lexer) done() bool { return l.pos >= len(l.input) }

func (l *lexer) current() rune {
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *lexer) emit(t TokenType, end int) *Token {
	l.tokens = append(l.tokens, Token{Type: t, Value: l.input[l.pos:end], Pos: l.pos})
	l.pos = end
	return &l.tokens[len(l.tokens)-1]
}

// scanCommon consumes string literals, whitespace, operators and
// punctuation. It reports false when the current rune starts a name.
func (l *lexer) scanCommon() bool {
	r := l.current()
	switch {
	case r == charQuote:
		l.emit(TokenString, l.stringEnd())
	case unicode.IsSpace(r):
		end := l.pos
		for end < len(l.input) {
			r, size := utf8.DecodeRuneInString(l.input[end:])
			if !unicode.IsSpace(r) {
				break
			}
			end += size
		}
		l.emit(TokenWhitespace, end)
	case isOperator(r):
		l.emit(TokenOperator, l.pos+utf8.RuneLen(r))
	case strings.ContainsRune(delimiters, r):
		l.emit(TokenPunct, l.pos+utf8.RuneLen(r))
	default:
		return false
	}
	return true
}

// stringEnd returns the end of the string literal starting at pos. A doubled
// quote is an escaped quote. An unterminated literal runs to the end.
func (l *lexer) stringEnd() int {
	i := l.pos + 1
	for i < len(l.input) {
		if l.input[i] == charQuote {
			if i+1 < len(l.input) && l.input[i+1] == charQuote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(l.input)
}

// textEnd returns the end of an opaque name starting at pos.
func (l *lexer) textEnd() int {
	end := l.pos
	for end < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[end:])
		if isDelimiter(r) {
			break
		}
		end += size
	}
	if end == l.pos {
		_, size := utf8.DecodeRuneInString(l.input[l.pos:])
		end += size
	}
	return end
}

// boundaryAt reports whether a name may end at offset i.
func boundaryAt(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isDelimiter(r)
}

// isReferenceName reports whether text can be matched as a name by the
// symbolic lexer. Numeric literals such as "2024" or "1e3" never are.
func isReferenceName(text string) bool {
	if text == "" {
		return false
	}
	_, err := strconv.ParseFloat(text, 64)
	return err != nil
}

// name is a vocabulary entry of the symbolic lexer.
type name struct {
	text   string
	sheet  string // empty for same-sheet columns
	column string
}

// vocabulary indexes known names by their first rune, longest first.
type vocabulary map[rune][]name

func (v vocabulary) add(n name) {
	if !isReferenceName(n.text) {
		return
	}
	first, _ := utf8.DecodeRuneInString(n.text)
	list := v[first]
	i := 0
	for i < len(list) && len(list[i].text) >= len(n.text) {
		if list[i].text == n.text {
			return
		}
		i++
	}
	list = append(list, name{})
	copy(list[i+1:], list[i:])
	list[i] = n
	v[first] = list
}

// match returns the longest name starting at offset pos that ends at a
// boundary and is not a function call.
func (v vocabulary) match(s string, pos int) (name, bool) {
	first, _ := utf8.DecodeRuneInString(s[pos:])
	for _, n := range v[first] {
		if !strings.HasPrefix(s[pos:], n.text) {
			continue
		}
		end := pos + len(n.text)
		if !boundaryAt(s, end) {
			continue
		}
		if end < len(s) && s[end] == charLParen {
			continue
		}
		return n, true
	}
	return name{}, false
}

// LexSymbolic tokenizes a symbolic formula. Cross-sheet names
// ("Sheet!Column") of every sheet in dir and the column names of the active
// sheet are recognized by maximal munch at token boundaries; a cross-sheet
// name always wins over a same-sheet name at the same position because it is
// strictly longer than any prefix it shares.
func LexSymbolic(input string, columns []string, dir *Directory) []Token {
	vocab := make(vocabulary)
	if dir != nil {
		for _, sheet := range dir.Sheets() {
			info, _ := dir.Lookup(sheet)
			for _, col := range info.Columns {
				if col == "" {
					continue
				}
				vocab.add(name{text: sheet + "!" + col, sheet: sheet, column: col})
				if needsQuoting(sheet) {
					vocab.add(name{text: quoteSheet(sheet) + "!" + col, sheet: sheet, column: col})
				}
			}
		}
	}
	for _, col := range columns {
		col = norm.NFC.String(col)
		vocab.add(name{text: col, column: col})
	}

	l := &lexer{input: norm.NFC.String(input)}
	for !l.done() {
		if n, ok := vocab.match(l.input, l.pos); ok {
			typ := TokenColumn
			if n.sheet != "" {
				typ = TokenSheetColumn
			}
			tok := l.emit(typ, l.pos+len(n.text))
			tok.Sheet, tok.Column = n.sheet, n.column
			continue
		}
		if l.scanCommon() {
			continue
		}
		l.emit(TokenText, l.textEnd())
	}
	return l.tokens
}

const sheetNamePattern = `(?:'((?:[^']|'')+)'|([^\s"'!+\-*/^&=<>%(),;:{}]+))`

var (
	sheetRangeRe = regexp.MustCompile(`^` + sheetNamePattern + `!(\$?)([A-Z]+)(\$?)(\d+):(\$?)([A-Z]+)(\$?)(\d+)`)
	sheetRefRe   = regexp.MustCompile(`^` + sheetNamePattern + `![^\s"+\-*/^&=<>%(),;{}]+`)
	cellRe       = regexp.MustCompile(`^(\$?)([A-Z]+)(\$?)(\d+)`)
)

// LexPositional tokenizes a positional formula. Sheet-qualified references
// are always emitted as a single token, so their coordinates are never
// mistaken for same-sheet cells. Letter-digit names beyond column XFD, such
// as defined names, are plain text.
func LexPositional(input string) []Token {
	l := &lexer{input: norm.NFC.String(input)}
	for !l.done() {
		if l.scanCommon() {
			continue
		}
		rest := l.input[l.pos:]

		if m := sheetRangeRe.FindStringSubmatch(rest); m != nil && boundaryAt(rest, len(m[0])) &&
			coord.InSheet(m[4]) && coord.InSheet(m[8]) {
			tok := l.emit(TokenSheetRange, l.pos+len(m[0]))
			tok.Sheet = sheetFromMatch(m[1], m[2])
			tok.Ref = newCellRef(m[3], m[4], m[5], m[6])
			tok.End = newCellRef(m[7], m[8], m[9], m[10])
			continue
		}
		if m := sheetRefRe.FindStringSubmatch(rest); m != nil {
			tok := l.emit(TokenSheetRef, l.pos+len(m[0]))
			tok.Sheet = sheetFromMatch(m[1], m[2])
			continue
		}
		if m := cellRe.FindStringSubmatch(rest); m != nil && boundaryAt(rest, len(m[0])) &&
			(len(m[0]) == len(rest) || rest[len(m[0])] != charLParen) && coord.InSheet(m[2]) {
			tok := l.emit(TokenCell, l.pos+len(m[0]))
			tok.Ref = newCellRef(m[1], m[2], m[3], m[4])
			continue
		}
		l.emit(TokenText, l.textEnd())
	}
	return l.tokens
}

func newCellRef(absCol, letters, absRow, digits string) cellRef {
	row, _ := strconv.Atoi(digits)
	return cellRef{
		Letters:   letters,
		Row:       row,
		AbsCol:    absCol == string(charDollar),
		AbsRow:    absRow == string(charDollar),
		RowDigits: digits,
	}
}

func sheetFromMatch(quoted, bare string) string {
	if quoted != "" {
		return strings.ReplaceAll(quoted, "''", "'")
	}
	return bare
}

// needsQuoting reports whether a sheet name must be wrapped in apostrophes
// inside a reference.
func needsQuoting(sheet string) bool {
	if sheet == "" {
		return true
	}
	if cellRe.MatchString(sheet) && len(cellRe.FindString(sheet)) == len(sheet) {
		return true
	}
	for i, r := range sheet {
		if i == 0 && unicode.IsDigit(r) {
			return true
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return true
		}
	}
	return false
}

// quoteSheet returns the sheet name as it must appear before '!'.
func quoteSheet(sheet string) string {
	if !needsQuoting(sheet) {
		return sheet
	}
	return string(charApostrophe) + strings.ReplaceAll(sheet, "'", "''") + string(charApostrophe)
}

// Join concatenates token source text.
func Join(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Value)
	}
	return b.String()
}
