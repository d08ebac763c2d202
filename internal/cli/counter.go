package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pumped-fn/tinystore"
)

// CounterOptions holds flags for the counter command.
type CounterOptions struct {
	Start int
	Steps int
	Add   int
	Async time.Duration
}

// NewCounterCommand creates the counter command.
func NewCounterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CounterOptions{}

	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Drive a counter store through its reducers",
		Long: `Creates a counter store with increment, decrement and add reducers,
prints every transition, dispatches the requested actions and resets.

With --async the add step is computed on a separate goroutine after the
given delay, showing the pending state.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCounter(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Start, "start", 0, "initial counter value")
	cmd.Flags().IntVarP(&opts.Steps, "steps", "n", 3, "number of increments")
	cmd.Flags().IntVar(&opts.Add, "add", 10, "amount passed to the add action")
	cmd.Flags().DurationVar(&opts.Async, "async", 0, "compute the add step asynchronously after this delay")

	return cmd
}

func counterReducers(delay time.Duration) tinystore.Reducers[int] {
	add := tinystore.ReduceWith(func(n, by int) int { return n + by })
	if delay > 0 {
		add = func(prev int, args ...any) tinystore.Resolvable[int] {
			if len(args) < 1 {
				return tinystore.Fail[int](fmt.Errorf("add expects an amount"))
			}
			by, err := tinystore.SafeTypeAssertion[int](args[0])
			if err != nil {
				return tinystore.Fail[int](err)
			}
			return tinystore.GoAsync(func() (int, error) {
				time.Sleep(delay)
				return prev + by, nil
			})
		}
	}

	return tinystore.Reducers[int]{
		"increment": tinystore.Reduce(func(n int) int { return n + 1 }),
		"decrement": tinystore.Reduce(func(n int) int { return n - 1 }),
		"add":       add,
	}
}

func runCounter(rootOpts *RootOptions, opts *CounterOptions, cmd *cobra.Command) error {
	r, err := newRegistry(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer r.Dispose()

	out := cmd.OutOrStdout()

	s, err := tinystore.Create(r, tinystore.Params[int]{
		ID:      "counter",
		Default: tinystore.Immediate(opts.Start),
	}).Use(counterReducers(opts.Async)).Load()
	if err != nil {
		return err
	}

	s.Subscribe(func(v int, status tinystore.Status) {
		fmt.Fprintf(out, "%s %d\n", status, v)
	})

	v, err := s.Value()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "start %d\n", v)

	for i := 0; i < opts.Steps; i++ {
		if err := s.Dispatch("increment"); err != nil {
			return err
		}
	}
	if err := s.Dispatch("add", opts.Add); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Async+5*time.Second)
	defer cancel()
	v, err = s.Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "final %d\n", v)

	s.Reset()
	v, _ = s.Peek()
	fmt.Fprintf(out, "reset %d\n", v)

	return nil
}
