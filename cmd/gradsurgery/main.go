// Package main provides the gradsurgery CLI.
//
// It solves one combination from the command line, which is handy for checking
// how a set of loss values and gradients would be mixed:
//
//	gradsurgery solve -mode loss+ l_d:0.7:1,0,2 l_cov:0.1:0,1,-1
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/gradsurgery/surgery"
)

const version = "v0.1.0"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "gradsurgery %s\n", version)
		return nil
	case "solve":
		return solve(args[1:], stdout, stderr)
	default:
		usage(stdout)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "gradsurgery - multi-objective gradient combination")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version    Show version")
	fmt.Fprintln(w, "  solve      Combine objectives given as kind:loss:g1,g2,...")
}

func solve(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("solve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	mode := fs.String("mode", "loss+", "normalization mode: loss, loss+, l2, none")
	iters := fs.Int("iters", 250, "maximum solver iterations")
	stop := fs.Float64("stop", 1e-5, "solver convergence threshold")
	verbose := fs.Bool("v", false, "log numeric warnings")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := surgery.ParseMode(*mode)
	if err != nil {
		return err
	}

	objectives := make([]surgery.Objective[float64], 0, fs.NArg())
	for _, arg := range fs.Args() {
		o, err := parseObjective(arg)
		if err != nil {
			return err
		}
		objectives = append(objectives, o)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelWarn
	}
	combiner := surgery.NewCombiner[float64](surgery.Config{
		Mode:   m,
		Solver: surgery.SolverConfig{MaxIter: *iters, StopCrit: *stop},
		Logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	})

	res, err := combiner.Combine(objectives)
	if err != nil {
		return err
	}

	for i, k := range res.Kinds {
		fmt.Fprintf(stdout, "%-8s weight=%.6f factor=%.6g\n", k, res.Weights[i], res.Factors[k])
	}
	fmt.Fprintf(stdout, "min_norm=%.6g\n", res.MinNorm)
	fmt.Fprintf(stdout, "combined=%v\n", res.Gradients[0].Data())
	return nil
}

// parseObjective parses "kind:loss:g1,g2,...".
func parseObjective(s string) (surgery.Objective[float64], error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return surgery.Objective[float64]{}, fmt.Errorf("objective %q: want kind:loss:g1,g2,...", s)
	}

	loss, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return surgery.Objective[float64]{}, fmt.Errorf("objective %q: loss: %w", s, err)
	}

	fields := strings.Split(parts[2], ",")
	values := make([]float64, len(fields))
	for i, f := range fields {
		values[i], err = strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return surgery.Objective[float64]{}, fmt.Errorf("objective %q: gradient %d: %w", s, i, err)
		}
	}

	v, err := surgery.NewVector(0, "g", surgery.Shape{len(values)}, values)
	if err != nil {
		return surgery.Objective[float64]{}, err
	}
	return surgery.Objective[float64]{
		Kind:  surgery.CustomKind(parts[0]),
		Loss:  loss,
		Grads: surgery.Set[float64]{v},
	}, nil
}
