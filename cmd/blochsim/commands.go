package main

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/quantum"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/internal/modules/replay"
	"github.com/OwenQuipo/Bloch-Sphere-Visualizer/pkg/logger"
)

type replayOptions struct {
	step   int
	seed   int64
	strict bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:          "blochsim",
		Short:        "Replay Bloch sphere circuits from the command line",
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log replay decisions to stderr")

	newLogger := func() zerolog.Logger {
		level := "warn"
		if verbose {
			level = "debug"
		}
		return logger.New(logger.Config{Level: level, Pretty: true})
	}

	rootCmd.AddCommand(newReplayCmd(newLogger), newGatesCmd())
	return rootCmd
}

func newReplayCmd(newLogger func() zerolog.Logger) *cobra.Command {
	opts := replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Replay a circuit file and print the state at a step",
		Long: `Replay reads a circuit in YAML or JSON, replays it up to --step
(the last step by default, -1 for the initial states) and prints each
qubit's state, Bloch vector, purity and latest outcome.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCircuit(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("step") {
				opts.step = c.Steps - 1
			}
			if !cmd.Flags().Changed("seed") {
				opts.seed = time.Now().UnixNano()
			}
			return runReplay(cmd.OutOrStdout(), newLogger(), c, opts)
		},
	}

	cmd.Flags().IntVar(&opts.step, "step", 0, "Step to replay up to (-1 for initial states)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Seed for measurement sampling")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Fail on unknown gate identifiers")
	return cmd
}

func newGatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gates",
		Short: "List the gate catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printGates(cmd.OutOrStdout(), quantum.NewCatalog())
		},
	}
}

// loadCircuit parses path as YAML, which also accepts JSON documents.
func loadCircuit(path string) (*replay.Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read circuit file: %w", err)
	}
	var c replay.Circuit
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse circuit file %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Normalize()
	return &c, nil
}

func runReplay(out io.Writer, log zerolog.Logger, c *replay.Circuit, opts replayOptions) error {
	engine := replay.NewEngine(
		quantum.NewCatalog(),
		log,
		replay.WithStrictGates(opts.strict),
		replay.WithSampler(rand.New(rand.NewSource(opts.seed))),
	)

	res, err := engine.Replay(replay.NewContext(), c, opts.step)
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}
	printResult(out, res)
	return nil
}

func printResult(out io.Writer, res *replay.Result) {
	fmt.Fprintf(out, "step %d, tracked pair (%d,%d)\n\n", res.Step, res.Pair.A, res.Pair.B)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUBIT\tSTATE\tBLOCH\tPURITY\tOUTCOME")
	for q, st := range res.States {
		b := res.Bloch[q]
		outcome := "-"
		if m := res.Measured[q]; m != nil {
			outcome = fmt.Sprintf("%d", *m)
		}
		fmt.Fprintf(tw, "q%d\t%s\t(%.3f, %.3f, %.3f)\t%.3f\t%s\n",
			q, formatState(st), b.X, b.Y, b.Z, res.Purities[q], outcome)
	}
	tw.Flush()

	fmt.Fprintln(out)
	if res.Entangled {
		fmt.Fprintf(out, "entangled: yes (%s)\n", res.BellLabel)
	} else {
		fmt.Fprintln(out, "entangled: no")
	}
	fmt.Fprintf(out, "correlations: XX=%.3f YY=%.3f ZZ=%.3f\n",
		res.Correlations.XX, res.Correlations.YY, res.Correlations.ZZ)
	if res.Approximated > 0 {
		fmt.Fprintf(out, "approximated CX: %d\n", res.Approximated)
	}
}

func formatState(st quantum.State) string {
	switch s := st.(type) {
	case quantum.Pure:
		return fmt.Sprintf("%s|0⟩ + %s|1⟩", formatComplex(s.Alpha), formatComplex(s.Beta))
	default:
		return "mixed"
	}
}

func formatComplex(z complex128) string {
	re, im := real(z), imag(z)
	if math.Abs(im) < quantum.Epsilon {
		return fmt.Sprintf("%.3f", re)
	}
	if math.Abs(re) < quantum.Epsilon {
		return fmt.Sprintf("%.3fi", im)
	}
	return fmt.Sprintf("(%.3f%+.3fi)", re, im)
}

func printGates(out io.Writer, catalog *quantum.Catalog) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GATE\tINVERSE\tAXIS\tANGLE")
	for _, name := range catalog.Names() {
		g, err := catalog.Resolve(name)
		if err != nil {
			return err
		}
		inv, ok := catalog.Inverse(name)
		if !ok {
			inv = "-"
		}
		axis := "-"
		if !g.IsMeasurement() {
			axis = fmt.Sprintf("(%.3f, %.3f, %.3f)", g.Axis.X, g.Axis.Y, g.Axis.Z)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.4g\n", name, inv, axis, g.Angle)
	}
	return tw.Flush()
}
