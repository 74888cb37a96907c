package parser

import "errors"

// FormatMessage is the one message every parse failure carries.
// It does not name the field that failed.
const FormatMessage = "Message format is not valid. Expected format: \n   " +
	"\"InstructionMessage <InstructionType> <ProductCode> <Quantity> <UOM> <Timestamp>\"\n" +
	"Timestamp must use the format: \"yyyy-MM-dd'T'HH:mm:ss.SSS'Z'\".\n" +
	"Message must end with a newline character."

// ErrCodeFormat is the code journaled for parse rejections.
const ErrCodeFormat = "E100"

// ParseError reports a line that does not match the wire grammar or whose
// tokens cannot be converted.
type ParseError struct {
	// Line is the raw input as received.
	Line string
}

// Error implements the error interface. The text is always FormatMessage.
func (e *ParseError) Error() string {
	return FormatMessage
}

// Code returns ErrCodeFormat.
func (e *ParseError) Code() string {
	return ErrCodeFormat
}

// IsParseError returns true if err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
