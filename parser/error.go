package parser

import (
	"fmt"
	"nilan/token"
)

// SyntaxError is raised on the first unexpected token. The parser has no
// recovery path: ParseProgram writes the message to the diagnostic sink and
// calls onFatal, which the driver sets to abort the process (see Parser).
type SyntaxError struct {
	Location token.Location
	Message  string
}

func CreateSyntaxError(loc token.Location, message string) SyntaxError {
	return SyntaxError{Location: loc, Message: message}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%s ERROR: %s", e.Location, e.Message)
}
