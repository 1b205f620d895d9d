package composer

import (
	"fmt"
	"strings"
)

// Class is a character class that can be enabled for a password.
type Class uint8

const (
	Digit Class = iota + 1
	Upper
	Lower
	Symbol
)

const (
	digitChars  = "0123456789"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	symbolChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// AllClasses returns every class in canonical order.
func AllClasses() []Class {
	return []Class{Digit, Upper, Lower, Symbol}
}

// Valid reports whether c is one of the defined classes.
func (c Class) Valid() bool {
	return c >= Digit && c <= Symbol
}

// Alphabet returns the fixed set of characters belonging to the class.
// It returns an empty string for an undefined class.
func (c Class) Alphabet() string {
	switch c {
	case Digit:
		return digitChars
	case Upper:
		return upperChars
	case Lower:
		return lowerChars
	case Symbol:
		return symbolChars
	default:
		return ""
	}
}

// String returns the wire name of the class.
func (c Class) String() string {
	switch c {
	case Digit:
		return "digit"
	case Upper:
		return "upper"
	case Lower:
		return "lower"
	case Symbol:
		return "symbol"
	default:
		return fmt.Sprintf("Class(%d)", c)
	}
}

// Label returns the human readable name used in terminal output.
func (c Class) Label() string {
	switch c {
	case Digit:
		return "Digits"
	case Upper:
		return "Uppercase Characters"
	case Lower:
		return "Lowercase Characters"
	case Symbol:
		return "Special Symbols"
	default:
		return c.String()
	}
}

// Contains reports whether b is in the class alphabet.
func (c Class) Contains(b byte) bool {
	alphabet := c.Alphabet()
	return alphabet != "" && strings.IndexByte(alphabet, b) >= 0
}

// ClassOf returns the class whose alphabet holds b.
func ClassOf(b byte) (Class, bool) {
	for _, c := range AllClasses() {
		if c.Contains(b) {
			return c, true
		}
	}
	return 0, false
}

// ParseClass converts a class name into a Class. Matching is case-insensitive
// and accepts both the singular wire names and their plural forms.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "digit", "digits":
		return Digit, nil
	case "upper", "uppercase":
		return Upper, nil
	case "lower", "lowercase":
		return Lower, nil
	case "symbol", "symbols":
		return Symbol, nil
	default:
		return 0, fmt.Errorf("unknown character class %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Class) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid character class %d", c)
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Class) UnmarshalText(text []byte) error {
	parsed, err := ParseClass(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// normalizeClasses collapses duplicates and returns the set in canonical order.
func normalizeClasses(classes []Class) ([]Class, error) {
	var seen [Symbol + 1]bool
	for _, c := range classes {
		if !c.Valid() {
			return nil, invalidf("unknown character class %d", c)
		}
		seen[c] = true
	}

	out := make([]Class, 0, len(classes))
	for _, c := range AllClasses() {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out, nil
}
