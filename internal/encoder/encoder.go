// Package encoder packs instruction words into a flat little-endian binary
// image and writes that image to disk.
//
// The image has no header or footer: word i occupies bytes [4i, 4i+4),
// least-significant byte first.
package encoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"rvbin/internal/program"
)

// WordSize is the number of bytes each word occupies in the image.
const WordSize = 4

var (
	// ErrIO matches any *IOError.
	ErrIO = errors.New("i/o error")
	// ErrRange matches any *RangeError.
	ErrRange = errors.New("value out of range for 32-bit word")
	// ErrTruncated is returned by Unpack for input that is not a whole number of words.
	ErrTruncated = errors.New("image length is not a multiple of 4")
)

// RangeError reports a value that does not fit in an unsigned 32-bit word.
type RangeError struct {
	Index int
	Value uint64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("word %d: %#x does not fit in 32 bits", e.Index, e.Value)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrRange
}

// IOError reports a failure while creating, writing or closing the output.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// Check returns a *RangeError for the first value wider than 32 bits.
func Check(values []uint64) error {
	for i, v := range values {
		if v > math.MaxUint32 {
			return &RangeError{Index: i, Value: v}
		}
	}
	return nil
}

// Pack encodes values into a single image. Nothing is encoded if any value
// is out of range.
func Pack(values []uint64) ([]byte, error) {
	if err := Check(values); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, len(values)*WordSize)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
	}
	return buf, nil
}

// Encode packs values and writes the image to w.
func Encode(w io.Writer, values []uint64) (int, error) {
	buf, err := Pack(values)
	if err != nil {
		return 0, err
	}
	return w.Write(buf)
}

// Unpack decodes an image back into words.
func Unpack(data []byte) ([]program.Word, error) {
	if len(data)%WordSize != 0 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrTruncated, len(data))
	}
	words := make([]program.Word, 0, len(data)/WordSize)
	for off := 0; off < len(data); off += WordSize {
		words = append(words, program.Word(binary.LittleEndian.Uint32(data[off:])))
	}
	return words, nil
}

// syncFile is replaced in tests to simulate a failing device.
var syncFile = (*os.File).Sync

// WriteFile creates or truncates path and writes the packed image to it.
// It returns the size of the file on disk once it is closed. On any failure
// after the file was created, the partial file is removed.
func WriteFile(path string, values []uint64) (size int64, err error) {
	if err = Check(values); err != nil {
		return 0, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, &IOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if err == nil {
			return
		}
		// Leave devices and pipes in place.
		fi, statErr := os.Lstat(path)
		f.Close()
		if statErr == nil && fi.Mode().IsRegular() {
			os.Remove(path)
		}
	}()

	n, err := Encode(f, values)
	if err != nil {
		return 0, &IOError{Op: "write", Path: path, Err: err}
	}
	if err = syncFile(f); err != nil {
		return 0, &IOError{Op: "sync", Path: path, Err: err}
	}
	if err = f.Close(); err != nil {
		return 0, &IOError{Op: "close", Path: path, Err: err}
	}

	fi, err := os.Stat(path)
	if err != nil {
		return 0, &IOError{Op: "stat", Path: path, Err: err}
	}
	if fi.Size() != int64(n) {
		err = &IOError{Op: "write", Path: path, Err: io.ErrShortWrite}
		return 0, err
	}
	return fi.Size(), nil
}
