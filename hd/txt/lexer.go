package txt

import (
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

const (
	TOKEN_WORD = iota
	TOKEN_STRING
	TOKEN_OPEN
	TOKEN_CLOSE
	TOKEN_END
	TOKEN_NEWLINE
)

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	lexer.Add([]byte(`//[^\n]*`), skip)
	lexer.Add([]byte("\"[^\"\r\n]*\""), getToken(TOKEN_STRING))
	lexer.Add([]byte(`\{`), getToken(TOKEN_OPEN))
	lexer.Add([]byte(`\}`), getToken(TOKEN_CLOSE))
	lexer.Add([]byte(`;`), getToken(TOKEN_END))
	lexer.Add([]byte(`(\n|\r)+`), getToken(TOKEN_NEWLINE))
	lexer.Add([]byte("[ \t\f\v]+"), skip)
	lexer.Add([]byte("[^ \t\f\v\r\n{};\"]+"), getToken(TOKEN_WORD))
	if err := lexer.Compile(); err != nil {
		panic(err)
	}
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(scan *lexmachine.Scanner, match *machines.Match) (interface{}, error) {
	return nil, nil
}
