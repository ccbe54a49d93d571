package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MarcGrol/shopfront/services/checkout"
	"github.com/MarcGrol/shopfront/services/checkout/pricing"
	"github.com/MarcGrol/shopfront/services/storefront"
)

func newCheckoutCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Turn the selected cart lines into an order",
	}
	cmd.AddCommand(
		newCheckoutBeginCmd(opts),
		newCheckoutShowCmd(opts),
		newCheckoutVouchersCmd(opts),
		newCheckoutAbandonCmd(opts),
		newCheckoutPlaceCmd(opts),
	)
	return cmd
}

func newCheckoutBeginCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "begin",
		Short: "Freeze the selected lines for checkout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				snapshot, err := sf.BeginCheckout(c)
				if err != nil {
					return nil, nil, err
				}
				return snapshot, snapshotPrinter(snapshot), nil
			})
		},
	}
}

func newCheckoutShowCmd(opts *options) *cobra.Command {
	vouchers := []string{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the lines being checked out and what the order would cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				quote, err := sf.Checkout.Quote(c, vouchers)
				if err != nil {
					return nil, nil, err
				}
				return quote, func(w io.Writer) {
					writeLines(w, quote.Snapshot.Items)
					writeTotals(w, quote.Totals)
				}, nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&vouchers, "voucher", nil, "Voucher code to price in, repeatable")

	return cmd
}

func newCheckoutVouchersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "vouchers",
		Short: "List the vouchers and what they take off the checkout in progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				offers, err := sf.Checkout.Offers(c)
				if err != nil {
					return nil, nil, err
				}
				return offers, func(w io.Writer) {
					if len(offers) == 0 {
						fmt.Fprintln(w, "No vouchers available")
						return
					}
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "CODE\tNAME\tDISCOUNT\tELIGIBLE")
					for _, offer := range offers {
						eligible := "no"
						if offer.Eligible {
							eligible = "yes"
						}
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", offer.Voucher.Code, offer.Voucher.Name, formatAmount(offer.Discount), eligible)
					}
					_ = tw.Flush()
				}, nil
			})
		},
	}
}

func newCheckoutAbandonCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "abandon",
		Short: "Drop the checkout in progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				err := sf.Checkout.Abandon(c)
				if err != nil {
					return nil, nil, err
				}
				return map[string]bool{"abandoned": true}, func(w io.Writer) {
					fmt.Fprintln(w, "Checkout abandoned")
				}, nil
			})
		},
	}
}

func newCheckoutPlaceCmd(opts *options) *cobra.Command {
	req := checkout.PlaceOrderRequest{}

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Place the order, shipped to your default address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				address, err := sf.Profile.DefaultAddress(c)
				if err != nil {
					return nil, nil, fmt.Errorf("error looking up shipping address: %w", err)
				}
				req.ShippingAddress = address.ShippingAddress()

				confirmation, err := sf.Checkout.PlaceOrder(c, req)
				if err != nil {
					return nil, nil, err
				}
				return confirmation, func(w io.Writer) {
					fmt.Fprintf(w, "Order %s placed, total %s\n", confirmation.OrderCode, formatAmount(confirmation.GrandTotal))
					if confirmation.Discount > 0 {
						fmt.Fprintf(w, "Discount %s\n", formatAmount(confirmation.Discount))
					}
					if confirmation.PaymentURL != "" {
						fmt.Fprintf(w, "Pay at %s\n", confirmation.PaymentURL)
					}
				}, nil
			})
		},
	}
	cmd.Flags().StringVar(&req.PaymentMethod, "payment", "COD", "Payment method")
	cmd.Flags().StringSliceVar(&req.Vouchers, "voucher", nil, "Voucher code, repeatable")
	cmd.Flags().StringVar(&req.Note, "note", "", "Note for the shop")

	return cmd
}

func snapshotPrinter(snapshot checkout.Snapshot) func(w io.Writer) {
	return func(w io.Writer) {
		writeLines(w, snapshot.Items)
		fmt.Fprintf(w, "Subtotal: %s\n", formatAmount(snapshot.Subtotal))
	}
}

func writeTotals(w io.Writer, totals pricing.Totals) {
	fmt.Fprintf(w, "Subtotal: %s\n", formatAmount(totals.Subtotal))
	fmt.Fprintf(w, "Shipping: %s\n", formatAmount(totals.ShippingFee))
	if totals.Discount() > 0 {
		fmt.Fprintf(w, "Discount: -%s\n", formatAmount(totals.Discount()))
	}
	fmt.Fprintf(w, "Total: %s\n", formatAmount(totals.GrandTotal))
}
