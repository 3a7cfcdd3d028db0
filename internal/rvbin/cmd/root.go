package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"rvbin/internal/config"
	"rvbin/internal/encoder"
	"rvbin/internal/logging"
	"rvbin/internal/program"
	rvlog "rvbin/internal/rvbin/log"
	"rvbin/internal/rvbin/styles"
)

// NewRootCommand builds the rvbin command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rvbin",
		Short: "Write RISC-V instruction words to a flat binary file",
		Long: `rvbin writes a list of 32-bit RISC-V instruction words to a raw binary file,
each word stored little-endian, with no header or padding.
Without flags it writes the built-in test program to test.bin.`,
		Example: `
# Write the built-in program to test.bin
rvbin

# Write to another file
rvbin -o boot.bin

# Write your own words
rvbin -w 0x00000013 -w 0x00008067 -o nop-ret.bin
  `,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runRoot,
	}

	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")

	rootCmd.Flags().StringP("output", "o", program.DefaultOutput, "Output file")
	rootCmd.Flags().StringSliceP("word", "w", nil, "Instruction word (repeatable, replaces the built-in program)")
	rootCmd.Flags().String("config", "", "JSON config file (run \"rvbin schema\" for its format)")

	rootCmd.AddCommand(newSchemaCmd())
	rootCmd.AddCommand(newRunCmd())
	return rootCmd
}

func runRoot(cmd *cobra.Command, args []string) error {
	if _, err := ResolveCwd(cmd); err != nil {
		return err
	}

	opts, err := resolveOptions(cmd)
	if err != nil {
		return err
	}

	debug := opts.Debug || logging.IsDebug()
	rvlog.Setup(debug)
	logger := logging.NewLogger()
	defer logger.Close()
	if debug {
		logger.SetLevel(log.DebugLevel)
	}

	values, err := wordValues(opts.Words)
	if err != nil {
		return err
	}

	logger.Debug("Writing program", "words", len(values), "output", opts.Output)
	for i, v := range values {
		logger.Debug("Word", "index", i, "value", fmt.Sprintf("%#010x", v))
	}

	size, err := encoder.WriteFile(opts.Output, values)
	if err != nil {
		slog.Debug("Write failed", "output", opts.Output, "error", err)
		return fmt.Errorf("failed to write %s: %w", opts.Output, err)
	}

	out := cmd.OutOrStdout()
	printSummary(out, opts.Output, size, isTerminal(out))
	return nil
}

// resolveOptions merges the config file (if any) with flags; flags win.
func resolveOptions(cmd *cobra.Command) (config.Config, error) {
	var opts config.Config

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return opts, err
		}
		opts = *cfg
	}

	if opts.Output == "" || cmd.Flags().Changed("output") {
		opts.Output, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("word") {
		opts.Words, _ = cmd.Flags().GetStringSlice("word")
	}
	if cmd.Flags().Changed("debug") {
		opts.Debug, _ = cmd.Flags().GetBool("debug")
	}
	if opts.Output == "" {
		return opts, fmt.Errorf("output path must not be empty")
	}
	return opts, nil
}

func wordValues(words []string) ([]uint64, error) {
	if len(words) == 0 {
		return program.Values(program.Default()), nil
	}
	return program.ParseWords(words)
}

func printSummary(w io.Writer, path string, size int64, styled bool) {
	if !styled {
		fmt.Fprintf(w, "Successfully created %s (%d bytes)\n", path, size)
		return
	}
	fmt.Fprintln(w,
		styles.Muted.Render("Successfully created ")+
			styles.Path.Render(path)+
			styles.Muted.Render(" (")+
			styles.Count.Render(fmt.Sprintf("%d bytes", size))+
			styles.Muted.Render(")"))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func Execute() {
	rootCmd := NewRootCommand()

	// fang renders errors and help with its own styling, which only makes
	// sense on a terminal.
	if !term.IsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %w", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return cwd, nil
}
