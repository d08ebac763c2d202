package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pumped-fn/tinystore"
)

// DerivedOptions holds flags for the derived command.
type DerivedOptions struct {
	Price    float64
	Quantity int
	Restock  int
	Delay    time.Duration
}

// NewDerivedCommand creates the derived command.
func NewDerivedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DerivedOptions{}

	cmd := &cobra.Command{
		Use:   "derived",
		Short: "Derive a total from price and quantity stores",
		Long: `Builds price and quantity stores and a total store derived from both,
then restocks the quantity asynchronously. The total stays pending until the
restock settles and is recomputed once.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDerived(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Price, "price", 2.5, "unit price")
	cmd.Flags().IntVar(&opts.Quantity, "quantity", 4, "initial quantity")
	cmd.Flags().IntVar(&opts.Restock, "restock", 6, "quantity after the async restock")
	cmd.Flags().DurationVar(&opts.Delay, "delay", 50*time.Millisecond, "restock delay")

	return cmd
}

func runDerived(rootOpts *RootOptions, opts *DerivedOptions, cmd *cobra.Command) error {
	r, err := newRegistry(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer r.Dispose()

	out := cmd.OutOrStdout()

	price := tinystore.Create(r, tinystore.Params[float64]{ID: "price", Default: tinystore.Immediate(opts.Price)})
	quantity := tinystore.Create(r, tinystore.Params[int]{ID: "quantity", Default: tinystore.Immediate(opts.Quantity)})

	calls := 0
	total, err := tinystore.Derive2(r, price, quantity, func(p float64, q int) tinystore.Resolvable[float64] {
		calls++
		return tinystore.Immediate(p * float64(q))
	}, tinystore.WithDeriveID("total")).Load()
	if err != nil {
		return err
	}

	v, err := total.Value()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "total %.2f\n", v)

	q, err := quantity.Load()
	if err != nil {
		return err
	}
	restock := opts.Restock
	delay := opts.Delay
	q.Write(tinystore.GoAsync(func() (int, error) {
		time.Sleep(delay)
		return restock, nil
	}))
	fmt.Fprintf(out, "status %s\n", total.Status())

	ctx, cancel := context.WithTimeout(cmd.Context(), delay+5*time.Second)
	defer cancel()
	if res := total.Poll(); res.IsPending() {
		if err := res.Handle.Wait(ctx); err != nil {
			return err
		}
	}
	v, err = total.Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "total %.2f\n", v)
	fmt.Fprintf(out, "loader calls %d\n", calls)
	fmt.Fprintf(out, "dependents of quantity %v\n", r.Dependents("quantity"))

	return nil
}
