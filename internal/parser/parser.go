// Package parser turns raw wire lines into instructions.
//
// The grammar is strict and whitespace-sensitive:
//
//	InstructionMessage <A|B|C|D> <ProductCode> <Quantity> <UOM> <Timestamp>\n
//
// Product code shape is only checked syntactically here; the validator
// enforces its semantic form.
package parser

import (
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/roach88/instrq/internal/message"
)

var errTimestampShape = errors.New("timestamp does not match yyyy-MM-dd'T'HH:mm:ss.SSS'Z'")

var (
	lineRegex      = regexp.MustCompile(`^InstructionMessage ([A-D]) ([A-Za-z0-9]+) (\d+) (\d+) (\S+)\n$`)
	timestampRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`)
)

// Submatch indexes into lineRegex.
const (
	typeIndex = iota + 1
	productCodeIndex
	quantityIndex
	uomIndex
	timestampIndex
)

// Parser converts wire lines into instructions.
// The zero value is not usable; call New.
type Parser struct {
	loc *time.Location
}

// Option configures a Parser.
type Option func(*Parser)

// WithLocation sets the location timestamps are read in.
// Defaults to time.Local, the same calendar the validator's epoch bound uses.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{loc: time.Local}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse converts one line into an instruction.
// Any grammar or conversion failure returns a *ParseError.
func (p *Parser) Parse(line string) (message.Instruction, error) {
	m := lineRegex.FindStringSubmatch(line)
	if m == nil {
		return message.Instruction{}, &ParseError{Line: line}
	}

	typ, ok := message.ParseType(m[typeIndex])
	if !ok {
		return message.Instruction{}, &ParseError{Line: line}
	}

	quantity, err := parseInt32(m[quantityIndex])
	if err != nil {
		return message.Instruction{}, &ParseError{Line: line}
	}

	uom, err := parseInt32(m[uomIndex])
	if err != nil {
		return message.Instruction{}, &ParseError{Line: line}
	}

	ts, err := p.parseTimestamp(m[timestampIndex])
	if err != nil {
		return message.Instruction{}, &ParseError{Line: line}
	}

	return message.Instruction{
		Type:        typ,
		ProductCode: m[productCodeIndex],
		Quantity:    quantity,
		UOM:         uom,
		Timestamp:   ts,
	}, nil
}

// Parse converts a line using a default Parser.
func Parse(line string) (message.Instruction, error) {
	return New().Parse(line)
}

// parseInt32 keeps wire integers within the 32-bit range the format allows.
func parseInt32(s string) (int, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (p *Parser) parseTimestamp(s string) (time.Time, error) {
	if !timestampRegex.MatchString(s) {
		return time.Time{}, errTimestampShape
	}
	return time.ParseInLocation(message.TimestampLayout, s, p.loc)
}
