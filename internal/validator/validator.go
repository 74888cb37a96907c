// Package validator enforces domain constraints on parsed instructions.
//
// Rules run in a fixed order (product code, quantity, uom, timestamp) and
// the first failure is returned. Validation never mutates its input.
package validator

import (
	"fmt"
	"regexp"
	"time"

	"github.com/roach88/instrq/internal/message"
)

// Field bounds.
const (
	MinQuantity = 1
	MinUOM      = 0
	MaxUOM      = 255
)

const (
	msgProductCode = "Product code is not valid. Expected value: two uppercase letters followed by two digits."
	msgQuantity    = "Quantity is not valid. Expected value: positive integer number."
	msgUOM         = "Uom is not valid. Expected value: integer number between %d and %d inclusively."
	msgTimestamp   = "Timestamp is not valid. Expected value: timestamp being greater than unix epoch " +
		"and less or equal than current date time."
)

var productCodeRegex = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}$`)

// epoch is instant zero. Parsed timestamps carry the local calendar, so
// comparing instants is comparing local wall times.
var epoch = time.Unix(0, 0)

// Validator checks instructions against the field rules.
type Validator struct {
	now func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithNow replaces the wall clock used for the future-timestamp bound.
func WithNow(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// New creates a Validator reading time.Now at each call.
func New(opts ...Option) *Validator {
	v := &Validator{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns nil if inst satisfies every rule, otherwise a
// *ValidationError for the first rule it breaks.
func (v *Validator) Validate(inst message.Instruction) error {
	if err := validateProductCode(inst.ProductCode); err != nil {
		return err
	}
	if err := validateQuantity(inst.Quantity); err != nil {
		return err
	}
	if err := validateUOM(inst.UOM); err != nil {
		return err
	}
	return validateTimestamp(inst.Timestamp, v.now())
}

func validateProductCode(code string) error {
	if !productCodeRegex.MatchString(code) {
		return &ValidationError{Field: "product_code", Message: msgProductCode, Code: ErrProductCode}
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < MinQuantity {
		return &ValidationError{Field: "quantity", Message: msgQuantity, Code: ErrQuantity}
	}
	return nil
}

func validateUOM(uom int) error {
	if uom < MinUOM || uom > MaxUOM {
		return &ValidationError{
			Field:   "uom",
			Message: fmt.Sprintf(msgUOM, MinUOM, MaxUOM),
			Code:    ErrUOM,
		}
	}
	return nil
}

func validateTimestamp(ts, now time.Time) error {
	if !ts.After(epoch) || ts.After(now) {
		return &ValidationError{Field: "timestamp", Message: msgTimestamp, Code: ErrTimestamp}
	}
	return nil
}
