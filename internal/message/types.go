package message

import (
	"fmt"
	"time"
)

// Type is the instruction type tag. The set is closed.
type Type int

const (
	TypeA Type = iota + 1
	TypeB
	TypeC
	TypeD
)

// Types lists every instruction type in declaration order.
var Types = []Type{TypeA, TypeB, TypeC, TypeD}

// String returns the single-letter wire form of the type.
func (t Type) String() string {
	switch t {
	case TypeA:
		return "A"
	case TypeB:
		return "B"
	case TypeC:
		return "C"
	case TypeD:
		return "D"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Valid reports whether t is one of the four known types.
func (t Type) Valid() bool {
	return t >= TypeA && t <= TypeD
}

// Priority returns the tier the type is served at.
// Unknown types sort after every known tier.
func (t Type) Priority() Priority {
	switch t {
	case TypeA:
		return PriorityHigh
	case TypeB:
		return PriorityMedium
	case TypeC, TypeD:
		return PriorityLow
	default:
		return priorityUnknown
	}
}

// ParseType converts a wire letter into a Type.
func ParseType(s string) (Type, bool) {
	switch s {
	case "A":
		return TypeA, true
	case "B":
		return TypeB, true
	case "C":
		return TypeC, true
	case "D":
		return TypeD, true
	default:
		return 0, false
	}
}

// Priority is a coarse ranking tier. Lower values are served first.
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3

	priorityUnknown Priority = 4
)

// String returns the tier name.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// TimestampLayout is the wire layout of an instruction timestamp
// (yyyy-MM-dd'T'HH:mm:ss.SSS'Z'). The trailing Z is a literal, not a zone.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Head is the literal token every wire line starts with.
const Head = "InstructionMessage"

// Instruction is one structured unit of work derived from a single line.
type Instruction struct {
	Type        Type
	ProductCode string
	Quantity    int
	UOM         int
	Timestamp   time.Time
}

// Priority returns the tier of the instruction's type.
func (i Instruction) Priority() Priority {
	return i.Type.Priority()
}

// Equal reports whether all five fields are equal.
// Timestamps are compared as instants.
func (i Instruction) Equal(o Instruction) bool {
	return i.Type == o.Type &&
		i.ProductCode == o.ProductCode &&
		i.Quantity == o.Quantity &&
		i.UOM == o.UOM &&
		i.Timestamp.Equal(o.Timestamp)
}

// Format renders the instruction as a wire line, including the trailing newline.
func Format(i Instruction) string {
	return fmt.Sprintf("%s %s %s %d %d %s\n",
		Head, i.Type, i.ProductCode, i.Quantity, i.UOM, i.Timestamp.Format(TimestampLayout))
}

// String implements fmt.Stringer without the trailing newline.
func (i Instruction) String() string {
	s := Format(i)
	return s[:len(s)-1]
}

// Object returns the instruction as a map suitable for MarshalCanonical.
func (i Instruction) Object() map[string]any {
	return map[string]any{
		"type":         i.Type.String(),
		"priority":     int(i.Priority()),
		"product_code": i.ProductCode,
		"quantity":     i.Quantity,
		"uom":          i.UOM,
		"timestamp":    i.Timestamp.Format(TimestampLayout),
	}
}
