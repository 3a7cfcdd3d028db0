package emulator

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"rvbin/internal/encoder"
	"rvbin/internal/program"
)

// MemorySize is the RAM given to a machine by default: 1 MiB.
const MemorySize = 1 << 20

// ErrImageTooLarge is returned when a program does not fit in memory.
var ErrImageTooLarge = errors.New("program image larger than memory")

// Memory is flat byte-addressed RAM starting at address 0. Reads outside the
// RAM return 0 and writes outside it are dropped.
type Memory struct {
	data []byte
}

func NewMemory(size int) *Memory {
	return &Memory{data: make([]byte, size)}
}

func (m *Memory) Read(addr uint32) byte {
	if uint64(addr) >= uint64(len(m.data)) {
		return 0
	}
	return m.data[addr]
}

func (m *Memory) Write(addr uint32, value byte) {
	if uint64(addr) >= uint64(len(m.data)) {
		return
	}
	m.data[addr] = value
}

// ReadWord reads a little-endian word. Words straddling the end of RAM read
// their missing bytes as 0.
func (m *Memory) ReadWord(addr uint32) uint32 {
	if uint64(addr)+4 <= uint64(len(m.data)) {
		return binary.LittleEndian.Uint32(m.data[addr:])
	}
	return uint32(m.Read(addr)) |
		uint32(m.Read(addr+1))<<8 |
		uint32(m.Read(addr+2))<<16 |
		uint32(m.Read(addr+3))<<24
}

func (m *Memory) WriteWord(addr uint32, value uint32) {
	for i := uint32(0); i < 4; i++ {
		m.Write(addr+i, byte(value>>(8*i)))
	}
}

// Load copies words into memory starting at address 0.
func (m *Memory) Load(words []program.Word) error {
	if len(words)*encoder.WordSize > len(m.data) {
		return fmt.Errorf("%w: %d bytes, memory is %d bytes", ErrImageTooLarge, len(words)*encoder.WordSize, len(m.data))
	}
	for i, w := range words {
		binary.LittleEndian.PutUint32(m.data[i*encoder.WordSize:], uint32(w))
	}
	return nil
}

// LoadFile reads a flat image written by encoder.WriteFile and loads it at
// address 0. It returns the number of words loaded.
func (m *Memory) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, &encoder.IOError{Op: "read", Path: path, Err: err}
	}
	words, err := encoder.Unpack(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if err := m.Load(words); err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return len(words), nil
}
