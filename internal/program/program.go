// Package program holds the built-in RISC-V instruction list and helpers
// for reading word lists supplied on the command line.
package program

import (
	"fmt"
	"strconv"
	"strings"
)

// Word is a single 32-bit instruction encoding. Its bit layout is opaque here.
type Word uint32

// DefaultOutput is the file written when no output path is given.
const DefaultOutput = "test.bin"

var defaultWords = []Word{
	// Main
	0x00C000EF, // jal x1, 12
	0x06300113, // addi x2, x0, 99
	0x00000063, // beq x0, x0, 0 (infinite loop)

	// Function (address 12)
	0x04D00193, // addi x3, x0, 77
	0x00008067, // jalr x0, 0(x1)
}

// Default returns a copy of the built-in program.
func Default() []Word {
	out := make([]Word, len(defaultWords))
	copy(out, defaultWords)
	return out
}

// Values widens words to the encoder's input type.
func Values(words []Word) []uint64 {
	out := make([]uint64, len(words))
	for i, w := range words {
		out[i] = uint64(w)
	}
	return out
}

// ParseError reports a word that is not an integer literal.
type ParseError struct {
	Index int
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("word %d: invalid value %q: %v", e.Index, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseWords parses Go integer literals (0x, 0b, 0o, decimal, with optional
// underscores). Range is not checked here beyond what fits in a uint64; the
// encoder rejects anything wider than 32 bits.
func ParseWords(inputs []string) ([]uint64, error) {
	out := make([]uint64, 0, len(inputs))
	for i, in := range inputs {
		s := strings.TrimSpace(in)
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return nil, &ParseError{Index: i, Input: in, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}
