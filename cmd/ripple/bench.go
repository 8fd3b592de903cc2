package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ripple-ui/ripple/pkg/ripple"
)

func benchCmd() *cobra.Command {
	var (
		iterations int
		width      int
		depth      int
		scenario   string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run built-in propagation benchmarks",
		Long: `Run the engine's built-in benchmark scenarios and print throughput.

Scenarios:

  diamond - one signal fanning into two memos joined by one effect
  fanout  - one signal observed by N independent effects
  chain   - a memo chain of depth N ending in one effect
  batch   - N signals written in one batch, observed by one effect`,
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner()

			scenarios := map[string]func(int, int, int) time.Duration{
				"diamond": benchDiamond,
				"fanout":  benchFanout,
				"chain":   benchChain,
				"batch":   benchBatch,
			}

			run := func(name string) error {
				fn, ok := scenarios[name]
				if !ok {
					return fmt.Errorf("unknown scenario %q", name)
				}
				elapsed := fn(iterations, width, depth)
				perOp := elapsed / time.Duration(iterations)
				success("%-8s %d iterations in %v (%v/op)", name, iterations, elapsed.Round(time.Millisecond), perOp)
				return nil
			}

			if scenario != "all" {
				return run(scenario)
			}
			for _, name := range []string{"diamond", "fanout", "chain", "batch"} {
				if err := run(name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 100000, "Writes per scenario")
	cmd.Flags().IntVarP(&width, "width", "w", 100, "Fan-out width / batch size")
	cmd.Flags().IntVarP(&depth, "depth", "d", 50, "Memo chain depth")
	cmd.Flags().StringVarP(&scenario, "scenario", "s", "all", "Scenario to run (diamond|fanout|chain|batch|all)")

	return cmd
}

func benchDiamond(iterations, _, _ int) time.Duration {
	var elapsed time.Duration
	root := ripple.CreateRoot(func() {
		source := ripple.NewSignal(0)
		left := ripple.NewMemo(func() int { return source.Get() + 1 })
		right := ripple.NewMemo(func() int { return source.Get() * 2 })

		sink := 0
		ripple.CreateEffect(func() ripple.Cleanup {
			sink = left.Get() + right.Get()
			return nil
		})
		_ = sink

		start := time.Now()
		for i := 1; i <= iterations; i++ {
			source.Set(i)
		}
		elapsed = time.Since(start)
	})
	root.Dispose()
	return elapsed
}

func benchFanout(iterations, width, _ int) time.Duration {
	var elapsed time.Duration
	root := ripple.CreateRoot(func() {
		source := ripple.NewSignal(0)

		sinks := make([]int, width)
		for i := 0; i < width; i++ {
			i := i
			ripple.CreateEffect(func() ripple.Cleanup {
				sinks[i] = source.Get()
				return nil
			})
		}

		start := time.Now()
		for i := 1; i <= iterations; i++ {
			source.Set(i)
		}
		elapsed = time.Since(start)
	})
	root.Dispose()
	return elapsed
}

func benchChain(iterations, _, depth int) time.Duration {
	var elapsed time.Duration
	root := ripple.CreateRoot(func() {
		source := ripple.NewSignal(0)

		read := source.Get
		for i := 0; i < depth; i++ {
			prev := read
			m := ripple.NewMemo(func() int { return prev() + 1 })
			read = m.Get
		}

		sink := 0
		ripple.CreateEffect(func() ripple.Cleanup {
			sink = read()
			return nil
		})
		_ = sink

		start := time.Now()
		for i := 1; i <= iterations; i++ {
			source.Set(i)
		}
		elapsed = time.Since(start)
	})
	root.Dispose()
	return elapsed
}

func benchBatch(iterations, width, _ int) time.Duration {
	var elapsed time.Duration
	root := ripple.CreateRoot(func() {
		signals := make([]*ripple.Signal[int], width)
		for i := range signals {
			signals[i] = ripple.NewSignal(0)
		}

		sink := 0
		ripple.CreateEffect(func() ripple.Cleanup {
			total := 0
			for _, s := range signals {
				total += s.Get()
			}
			sink = total
			return nil
		})
		_ = sink

		start := time.Now()
		for i := 1; i <= iterations; i++ {
			ripple.Batch(func() {
				for _, s := range signals {
					s.Set(i)
				}
			})
		}
		elapsed = time.Since(start)
	})
	root.Dispose()
	return elapsed
}
