package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MarcGrol/shopfront/lib/myerrors"
	"github.com/MarcGrol/shopfront/services/cart"
	"github.com/MarcGrol/shopfront/services/storefront"
)

type cartView struct {
	Mode     cart.Mode       `json:"mode"`
	Items    []cart.LineItem `json:"items"`
	Subtotal int64           `json:"subtotal"`
}

func newCartCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and change the cart",
	}
	cmd.AddCommand(
		newCartListCmd(opts),
		newCartAddCmd(opts),
		newCartQuantityCmd(opts),
		newCartRemoveCmd(opts),
		newCartSelectCmd(opts),
		newCartCountCmd(opts),
	)
	return cmd
}

func newCartListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the lines in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, showCart)
		},
	}
}

func newCartAddCmd(opts *options) *cobra.Command {
	req := cart.AddItemRequest{}

	cmd := &cobra.Command{
		Use:   "add <sku>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.SkuID = args[0]
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				err := sf.Cart.Add(c, req)
				if err != nil {
					return nil, nil, err
				}
				return showCart(c, sf)
			})
		},
	}
	cmd.Flags().IntVarP(&req.Quantity, "qty", "q", 1, "Quantity")
	cmd.Flags().StringVar(&req.ShopID, "shop", "", "Shop that sells the product")
	cmd.Flags().StringVar(&req.Name, "name", "", "Product name shown in the anonymous cart")
	cmd.Flags().Int64Var(&req.Price, "price", 0, "Unit price in minor units, for the anonymous cart")

	return cmd
}

func newCartQuantityCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "qty <sku> <quantity>",
		Short: "Change the quantity of a line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return myerrors.NewInvalidInputErrorf("quantity %q is not a number", args[1])
			}
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				err := sf.Cart.UpdateQuantity(c, args[0], quantity)
				if err != nil {
					return nil, nil, err
				}
				// send now instead of waiting for the debounce
				sf.Cart.Flush()
				return showCart(c, sf)
			})
		},
	}
}

func newCartRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <sku>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				err := sf.Cart.Remove(c, args[0])
				if err != nil {
					return nil, nil, err
				}
				return showCart(c, sf)
			})
		},
	}
}

func newCartSelectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "select <sku>",
		Short: "Toggle whether a line takes part in checkout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				err := sf.Cart.ToggleSelection(c, args[0])
				if err != nil {
					return nil, nil, err
				}
				return showCart(c, sf)
			})
		},
	}
}

func newCartCountCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show the number of items in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				count, err := sf.Cart.Count(c)
				if err != nil {
					return nil, nil, err
				}
				return map[string]int{"count": count}, func(w io.Writer) {
					fmt.Fprintln(w, count)
				}, nil
			})
		},
	}
}

func showCart(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
	items, err := sf.Cart.Items(c)
	if err != nil {
		return nil, nil, err
	}
	subtotal, err := sf.Cart.SelectedSubtotal(c)
	if err != nil {
		return nil, nil, err
	}

	view := cartView{
		Mode:     sf.Cart.Mode(c),
		Items:    items,
		Subtotal: subtotal,
	}
	return view, func(w io.Writer) {
		writeLines(w, view.Items)
		fmt.Fprintf(w, "Selected subtotal: %s (%s cart)\n", formatAmount(view.Subtotal), view.Mode)
	}, nil
}

func writeLines(w io.Writer, items []cart.LineItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEL\tSKU\tNAME\tQTY\tPRICE\tTOTAL")
	for _, item := range items {
		selected := " "
		if item.Selected {
			selected = "x"
		}
		quantity := strconv.Itoa(item.Quantity)
		if item.Pending {
			quantity += "*"
		}
		fmt.Fprintf(tw, "[%s]\t%s\t%s\t%s\t%s\t%s\n", selected, item.SkuID, item.Name, quantity, formatAmount(item.Price), formatAmount(item.Total()))
	}
	_ = tw.Flush()
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
