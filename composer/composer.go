// Package composer builds random passwords that contain at least one
// character from every selected character class.
// Generators are safe for concurrent use when their Source is.
package composer

import (
	"fmt"
	"strings"
)

// Request describes the password to compose.
type Request struct {
	Length  int
	Classes []Class
}

// Result is a composed password together with the number of characters
// drawn from each enabled class.
type Result struct {
	Password string
	Counts   map[Class]int
}

// Generator composes passwords from a bound random source.
type Generator interface {
	Compose(req Request) (Result, error)
}

type generator struct {
	src Source
}

// New returns a Generator that draws from src. A nil src uses crypto/rand.
func New(src Source) Generator {
	if src == nil {
		src = NewCryptoSource()
	}
	return &generator{src: src}
}

func (g *generator) Compose(req Request) (Result, error) {
	return Compose(g.src, req)
}

// Validate checks a request without consuming randomness and returns the
// enabled classes in canonical order.
func Validate(req Request) ([]Class, error) {
	if req.Length <= 0 {
		return nil, invalidf("length must be a positive integer, got %d", req.Length)
	}
	if len(req.Classes) == 0 {
		return nil, invalidf("at least one character class must be selected")
	}

	classes, err := normalizeClasses(req.Classes)
	if err != nil {
		return nil, err
	}
	if req.Length < len(classes) {
		return nil, invalidf("length %d is too short to include one of each of the %d selected classes",
			req.Length, len(classes))
	}
	return classes, nil
}

// Compose builds a password for req using src.
//
// One character is drawn from every enabled class, the remainder is drawn
// uniformly from the union of the enabled alphabets, and the whole buffer is
// then shuffled so mandatory characters carry no positional signal.
func Compose(src Source, req Request) (Result, error) {
	classes, err := Validate(req)
	if err != nil {
		return Result{}, err
	}

	var sb strings.Builder
	for _, c := range classes {
		sb.WriteString(c.Alphabet())
	}
	alphabet := sb.String()

	buf := make([]byte, 0, req.Length)
	for _, c := range classes {
		ch, err := pick(src, c.Alphabet())
		if err != nil {
			return Result{}, err
		}
		buf = append(buf, ch)
	}
	for len(buf) < req.Length {
		ch, err := pick(src, alphabet)
		if err != nil {
			return Result{}, err
		}
		buf = append(buf, ch)
	}

	if err := shuffle(src, buf); err != nil {
		return Result{}, err
	}

	return Result{
		Password: string(buf),
		Counts:   Count(buf, classes),
	}, nil
}

// Count tallies how many bytes of s fall in each of the given classes.
// Every class in classes gets a key, even when its count is zero.
func Count[T ~string | ~[]byte](s T, classes []Class) map[Class]int {
	counts := make(map[Class]int, len(classes))
	for _, c := range classes {
		counts[c] = 0
	}
	for i := 0; i < len(s); i++ {
		c, ok := ClassOf(s[i])
		if !ok {
			continue
		}
		if _, enabled := counts[c]; enabled {
			counts[c]++
		}
	}
	return counts
}

func pick(src Source, alphabet string) (byte, error) {
	i, err := src.IntN(len(alphabet))
	if err != nil {
		return 0, fmt.Errorf("draw character: %w", err)
	}
	return alphabet[i], nil
}

// shuffle is a Fisher-Yates shuffle driven by src.
func shuffle(src Source, b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		j, err := src.IntN(i + 1)
		if err != nil {
			return fmt.Errorf("shuffle: %w", err)
		}
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
