// Package parser is the toy statement parser spec.md §1 calls out as a
// real, in-scope collaborator of the REPL (excluded only from the
// engine itself): it turns one line of input into an Insert{id, name,
// email} or Select command.
//
// spec.md's own description of this component — "toy" — and its
// grammar — two keywords, three positional fields — is exactly the
// shape github.com/alecthomas/participle/v2 is built for: a grammar
// expressed as tagged Go structs rather than a hand-rolled
// strings.Fields/sscanf parser. FocuswithJustin-JuniperBible uses the
// same library (core/ir, contrib/tool/juniper/src/pkg/sword) for
// small tagged-struct grammars; this package borrows that idiom.
package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"minisql/internal/row"
)

// ErrSyntax is returned when a line cannot be parsed as insert or
// select at all.
var ErrSyntax = errors.New("Syntax error. Could not parse statement.")

// ErrUnrecognizedKeyword is returned when the first token is not a
// known statement keyword.
type ErrUnrecognizedKeyword struct {
	Line string
}

func (e *ErrUnrecognizedKeyword) Error() string {
	return fmt.Sprintf("Unrecognized keyword at start of '%s'.", e.Line)
}

// ErrNegativeID is returned when an insert's id is negative.
var ErrNegativeID = errors.New("ID must be positive.")

// ErrStringTooLong is returned when username exceeds row.UsernameMaxLen
// or email exceeds row.EmailMaxLen.
var ErrStringTooLong = errors.New("String is too long.")

// Insert is the parsed form of `insert <username> <id> <email>`. All
// three positional fields are plain whitespace-delimited tokens, same
// as the original's strtok(buffer, " ") split: the grammar places no
// restriction on what a username or email looks like, so IDToken is
// captured as a raw token too and converted with strconv.Atoi after
// parsing (mirroring the original's atoi(id_string)) rather than
// forcing the lexer to recognize it as a numeric token up front. A
// dedicated Int token type would otherwise steal purely-numeric
// usernames away from the Username field, since the lexer assigns
// each token exactly one type before the grammar ever runs.
//
//nolint:govet // participle grammar tags are not standard struct tags
type Insert struct {
	Username string `"insert" @Word`
	IDToken  string `@Word`
	Email    string `@Word`
	ID       int
}

// Select is the parsed form of the bare `select` keyword. Its only field
// holds the matched keyword; its presence in a Statement is the whole
// signal.
//
//nolint:govet // participle grammar tags are not standard struct tags
type Select struct {
	Keyword string `@"select"`
}

// Statement is the parser's sum type: exactly one of Insert or Select
// is non-nil on success.
//
//nolint:govet // participle grammar tags are not standard struct tags
type Statement struct {
	Insert *Insert `  @@`
	Select *Select `| @@`
}

var grammarLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `\b(insert|select)\b`},
	{Name: "Word", Pattern: `[^\s]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var grammar = participle.MustBuild[Statement](
	participle.Lexer(grammarLexer),
	participle.Elide("Whitespace"),
)

// Parse parses one line of REPL input (already known not to be a
// meta-command or an `Ada `-prefixed assistant line) into a Row-bearing
// Insert or a bare Select, validating the field-length and sign
// constraints spec.md §6 lists.
func Parse(line string) (*Statement, error) {
	stmt, err := grammar.ParseString("", line)
	if err != nil {
		return nil, ErrSyntax
	}

	if stmt.Insert != nil {
		id, convErr := strconv.Atoi(stmt.Insert.IDToken)
		if convErr != nil {
			return nil, ErrSyntax
		}
		stmt.Insert.ID = id
		if stmt.Insert.ID < 0 {
			return nil, ErrNegativeID
		}
		if len(stmt.Insert.Username) > row.UsernameMaxLen {
			return nil, ErrStringTooLong
		}
		if len(stmt.Insert.Email) > row.EmailMaxLen {
			return nil, ErrStringTooLong
		}
	}

	return stmt, nil
}

// UnrecognizedKeyword builds the §6 "Unrecognized keyword..." message
// for a line whose first token isn't insert/select at all (distinct
// from a syntax error in an otherwise-recognized statement).
func UnrecognizedKeyword(line string) error {
	return &ErrUnrecognizedKeyword{Line: line}
}
