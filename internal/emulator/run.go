package emulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// DefaultMaxSteps bounds a run so that programs ending in a tight loop still
// terminate.
const DefaultMaxSteps = 1000

// StopReason says why Run returned.
type StopReason int

const (
	StopZeroWord StopReason = iota // the word at PC is 0x00000000
	StopStepLimit
	StopHalt // ECALL or EBREAK
)

func (r StopReason) String() string {
	switch r {
	case StopZeroWord:
		return "zero word"
	case StopStepLimit:
		return "step limit"
	case StopHalt:
		return "halt"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Result summarises a Run.
type Result struct {
	Steps  int
	Reason StopReason
}

// Run executes from the current PC until it reaches a zero word, a halting
// system instruction or maxSteps executed instructions. An illegal
// instruction stops the run with an error; the registers keep the state
// reached before it.
func (c *CPU) Run(maxSteps int) (Result, error) {
	var res Result
	for res.Steps < maxSteps {
		if c.fetch() == 0 {
			res.Reason = StopZeroWord
			return res, nil
		}
		err := c.Step()
		if errors.Is(err, ErrHalt) {
			res.Steps++
			res.Reason = StopHalt
			return res, nil
		}
		if err != nil {
			return res, err
		}
		res.Steps++
	}
	res.Reason = StopStepLimit
	return res, nil
}

// BenchResult reports emulator throughput.
type BenchResult struct {
	Steps   uint64
	Elapsed time.Duration
}

// MIPS is millions of instructions executed per second.
func (b BenchResult) MIPS() float64 {
	if b.Elapsed <= 0 {
		return 0
	}
	return float64(b.Steps) / b.Elapsed.Seconds() / 1e6
}

// benchCheckInterval is how many steps run between clock checks.
const benchCheckInterval = 100000

// Benchmark runs "jal x0, 0" on a fresh machine for about d, or until ctx is
// done, and reports how many instructions were executed.
func Benchmark(ctx context.Context, d time.Duration) (BenchResult, error) {
	mem := NewMemory(MemorySize)
	mem.WriteWord(0, 0x0000006F) // jal x0, 0
	cpu := NewCPU(mem)

	start := time.Now()
	var steps uint64
	for {
		if err := cpu.Step(); err != nil {
			return BenchResult{Steps: steps, Elapsed: time.Since(start)}, err
		}
		steps++

		if steps%benchCheckInterval == 0 {
			elapsed := time.Since(start)
			if elapsed >= d {
				return BenchResult{Steps: steps, Elapsed: elapsed}, nil
			}
			if err := ctx.Err(); err != nil {
				return BenchResult{Steps: steps, Elapsed: elapsed}, err
			}
		}
	}
}

// Dump writes PC and all 32 registers, four per line.
func (c *CPU) Dump(w io.Writer) {
	fmt.Fprintf(w, "   PC : 0x%08x\n\n", c.PC)
	for i, r := range c.Regs {
		fmt.Fprintf(w, "   x%d : 0x%08x", i, r)
		if (i+1)%4 == 0 {
			fmt.Fprintln(w)
		} else {
			fmt.Fprint(w, "   ")
		}
	}
}
