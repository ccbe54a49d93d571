package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MarcGrol/shopfront/services/checkout/orderclient"
	"github.com/MarcGrol/shopfront/services/storefront"
)

func newOrdersCmd(opts *options) *cobra.Command {
	params := orderclient.ListOrdersParams{}
	var status string

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" {
				parsed, err := orderclient.ParseOrderStatus(status)
				if err != nil {
					return err
				}
				params.Status = parsed
			}
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				page, err := sf.Checkout.ListOrders(c, params)
				if err != nil {
					return nil, nil, err
				}
				return page, func(w io.Writer) {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "CODE\tSTATUS\tTOTAL\tCREATED")
					for _, summary := range page.Data {
						order := summary.Order
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", order.OrderCode, order.Status, formatAmount(order.GrandTotal), order.CreatedAt.Format(time.DateTime))
					}
					_ = tw.Flush()
					fmt.Fprintf(w, "Page %d of %d\n", page.CurrentPage, page.TotalPages)
				}, nil
			})
		},
	}
	cmd.Flags().IntVar(&params.Page, "page", 0, "Page number, starting at 1")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "Orders per page")
	cmd.Flags().StringVar(&status, "status", "", "Only orders with this status")

	return cmd
}

func newProfileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your profile and addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				profile, err := sf.Profile.GetProfile(c)
				if err != nil {
					return nil, nil, err
				}
				addresses, err := sf.Profile.GetAddresses(c)
				if err != nil {
					return nil, nil, err
				}
				result := map[string]any{
					"profile":   profile,
					"addresses": addresses,
				}
				return result, func(w io.Writer) {
					fmt.Fprintf(w, "%s <%s>\n", profile.Name, profile.Email)
					for _, address := range addresses {
						marker := " "
						if address.IsDefault {
							marker = "*"
						}
						fmt.Fprintf(w, "%s %s, %s %s\n", marker, address.Address, address.PostalCode, address.City)
					}
				}, nil
			})
		},
	}
}
