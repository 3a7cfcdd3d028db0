package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"rvbin/internal/emulator"
	"rvbin/internal/logging"
	rvlog "rvbin/internal/rvbin/log"
	"rvbin/internal/rvbin/styles"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Execute a binary image on the built-in RV32I emulator",
		Long: `Run loads a flat little-endian image at address 0 of a 1 MiB RAM and
executes it until it reaches a zero word, ECALL/EBREAK, or the step limit,
then prints the program counter and all registers.`,
		Example: `
# Run the file written by rvbin
rvbin run test.bin

# Trace each instruction and measure throughput for two seconds
rvbin run -d test.bin --bench 2s
  `,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}

	runCmd.Flags().Int("max-steps", emulator.DefaultMaxSteps, "Stop after this many instructions")
	runCmd.Flags().Duration("bench", 0, "Also run a throughput benchmark for this long")
	return runCmd
}

func runRun(cmd *cobra.Command, args []string) error {
	if _, err := ResolveCwd(cmd); err != nil {
		return err
	}

	path := "test.bin"
	if len(args) > 0 {
		path = args[0]
	}
	maxSteps, _ := cmd.Flags().GetInt("max-steps")
	if maxSteps < 0 {
		return fmt.Errorf("--max-steps must not be negative")
	}
	bench, _ := cmd.Flags().GetDuration("bench")

	debug, _ := cmd.Flags().GetBool("debug")
	debug = debug || logging.IsDebug()
	rvlog.Setup(debug)
	logger := logging.NewLogger()
	defer logger.Close()
	if debug {
		logger.SetLevel(log.DebugLevel)
	}

	mem := emulator.NewMemory(emulator.MemorySize)
	n, err := mem.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	logger.Debug("Loaded image", "file", path, "words", n)

	cpu := emulator.NewCPU(mem)
	cpu.Logger = logger.Logger

	out := cmd.OutOrStdout()
	res, runErr := cpu.Run(maxSteps)
	printDump(out, cpu, res, isTerminal(out))
	if runErr != nil {
		return fmt.Errorf("emulation stopped after %d steps: %w", res.Steps, runErr)
	}

	if bench > 0 {
		br, err := emulator.Benchmark(cmd.Context(), bench)
		if err != nil {
			return fmt.Errorf("benchmark interrupted: %w", err)
		}
		logger.Debug("Benchmark done", "steps", br.Steps, "elapsed", br.Elapsed)
		fmt.Fprintf(out, "Performance: %.2f MIPS\n", br.MIPS())
	}
	return nil
}

func printDump(w io.Writer, cpu *emulator.CPU, res emulator.Result, styled bool) {
	rule := strings.Repeat("-", 64)
	title := "RISC-V CORE DUMP"
	if styled {
		rule = styles.Muted.Render(rule)
		title = styles.Path.Render(title)
	}
	fmt.Fprintf(w, "Stopped after %d steps (%s)\n", res.Steps, res.Reason)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "   "+title)
	fmt.Fprintln(w, rule)
	cpu.Dump(w)
}
