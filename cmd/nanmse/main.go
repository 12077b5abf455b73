// Package main provides the nanmse CLI for evaluating the NaN-tolerant MSE
// loss on arrays stored as text.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/born-ml/born-expansion/internal/dataio"
	"github.com/born-ml/born-expansion/loss"
	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/tensor"
	syscpu "golang.org/x/sys/cpu"
)

const version = "v0.1.0"

var errUsage = errors.New("usage")

func main() {
	log.SetFlags(0)
	log.SetPrefix("nanmse: ")

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("%v", err)
	}
}

func run(args []string, w io.Writer) error {
	if len(args) == 0 {
		printUsage(w)
		return nil
	}

	switch args[0] {
	case "version":
		printVersion(w)
		return nil
	case "eval":
		return runEval(args[1:], w)
	case "help", "-h", "-help", "--help":
		printUsage(w)
		return nil
	default:
		printUsage(w)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "nanmse - NaN-tolerant mean squared error")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version                              Show version and CPU features")
	fmt.Fprintln(w, "  eval [flags] PREDICTIONS TARGETS     Evaluate the loss on two array files")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Files may be compressed (.zst, .s2, .lz4, .gz).")
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "nanmse %s\n", version)
	fmt.Fprintf(w, "Go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "Features: %s\n", cpuFeatures())
}

func cpuFeatures() string {
	var features []string
	switch runtime.GOARCH {
	case "amd64", "386":
		if syscpu.X86.HasAVX2 {
			features = append(features, "avx2")
		}
		if syscpu.X86.HasAVX512F {
			features = append(features, "avx512f")
		}
		if syscpu.X86.HasFMA {
			features = append(features, "fma")
		}
	case "arm64":
		if syscpu.ARM64.HasASIMD {
			features = append(features, "asimd")
		}
		if syscpu.ARM64.HasFPHP {
			features = append(features, "fphp")
		}
	}
	if len(features) == 0 {
		return "none"
	}
	return strings.Join(features, " ")
}

func runEval(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(w)
	reduction := fs.String("reduction", string(loss.DefaultReduction), "Reduction: none, mean or sum")
	dtype := fs.String("dtype", "float32", "Element type: float32 or float64")
	withGrad := fs.Bool("grad", false, "Also print the gradient with respect to the predictions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("%w: eval needs PREDICTIONS and TARGETS, got %d arguments", errUsage, fs.NArg())
	}

	r, err := loss.ParseReduction(*reduction)
	if err != nil {
		return err
	}

	pred, err := dataio.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	target, err := dataio.ReadFile(fs.Arg(1))
	if err != nil {
		return err
	}
	if !slices.Equal(pred.Shape, target.Shape) {
		return fmt.Errorf("shape mismatch: predictions %v, targets %v", pred.Shape, target.Shape)
	}

	fmt.Fprintf(w, "predictions: %s shape=%v xxh64=%016x\n", fs.Arg(0), pred.Shape, pred.Checksum)
	fmt.Fprintf(w, "targets:     %s shape=%v xxh64=%016x missing=%d\n", fs.Arg(1), target.Shape, target.Checksum, target.CountNaN())
	fmt.Fprintf(w, "valid:       %d/%d\n", countValidPairs(pred.Values, target.Values), pred.NumElements())

	switch *dtype {
	case "float32":
		return evaluate(w, r, pred.Shape, pred.Float32(), target.Float32(), *withGrad)
	case "float64":
		return evaluate(w, r, pred.Shape, pred.Float64(), target.Float64(), *withGrad)
	default:
		return fmt.Errorf("%w: unsupported dtype %q", errUsage, *dtype)
	}
}

func evaluate[T loss.Float](w io.Writer, r loss.Reduction, shape []int, predValues, targetValues []T, withGrad bool) error {
	backend := cpu.New()

	criterion, err := loss.NewNanMSELoss[T](r, backend)
	if err != nil {
		return err
	}

	predictions, err := tensor.FromSlice(predValues, tensor.Shape(shape), backend)
	if err != nil {
		return fmt.Errorf("predictions: %w", err)
	}
	targets, err := tensor.FromSlice(targetValues, tensor.Shape(shape), backend)
	if err != nil {
		return fmt.Errorf("targets: %w", err)
	}

	out := criterion.Forward(predictions, targets)
	if r == loss.ReductionNone {
		fmt.Fprintf(w, "loss:        %v (%s)\n", out.Data(), r)
	} else {
		fmt.Fprintf(w, "loss:        %v (%s)\n", out.Data()[0], r)
	}

	if withGrad {
		grad := criterion.Backward(predictions, targets)
		fmt.Fprintf(w, "grad:        %v\n", grad.Data())
	}
	return nil
}

func countValidPairs(pred, target []float64) int {
	n := 0
	for i := range pred {
		if !math.IsNaN(pred[i]) && !math.IsNaN(target[i]) {
			n++
		}
	}
	return n
}
