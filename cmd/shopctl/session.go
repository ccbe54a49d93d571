package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/MarcGrol/shopfront/services/cart"
	"github.com/MarcGrol/shopfront/services/session"
	"github.com/MarcGrol/shopfront/services/storefront"
)

type loginResult struct {
	Session   session.Status       `json:"session"`
	Migration cart.MigrationReport `json:"migration"`
}

type statusResult struct {
	Session session.Status `json:"session"`
	Mode    cart.Mode      `json:"mode"`
	Items   int            `json:"items"`
}

func newLoginCmd(opts *options) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and move the anonymous cart to your account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				status, report, err := sf.Login(c, args[0], password)
				if err != nil {
					return nil, nil, err
				}
				result := loginResult{Session: status, Migration: report}
				return result, func(w io.Writer) {
					fmt.Fprintf(w, "Logged in as %s, session valid for %s\n", status.Subject, status.Remaining.Round(time.Second))
					if len(report.Migrated) > 0 {
						fmt.Fprintf(w, "Moved %d line(s) to your cart\n", len(report.Migrated))
					}
					for _, failure := range report.Failed {
						fmt.Fprintf(w, "Not moved: %s (%s)\n", failure.Item.SkuID, failure.Reason)
					}
				}, nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				err := sf.Logout(c)
				if err != nil {
					return nil, nil, err
				}
				return sf.Session.Status(c), func(w io.Writer) {
					fmt.Fprintln(w, "Logged out")
				}, nil
			})
		},
	}
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and cart status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(c context.Context, sf *storefront.Storefront) (any, func(w io.Writer), error) {
				count, err := sf.Cart.Count(c)
				if err != nil {
					return nil, nil, err
				}
				result := statusResult{
					Session: sf.Session.Status(c),
					Mode:    sf.Cart.Mode(c),
					Items:   count,
				}
				return result, func(w io.Writer) {
					if result.Session.Authenticated {
						fmt.Fprintf(w, "Session: %s, expires in %s\n", result.Session.Subject, result.Session.Remaining.Round(time.Second))
					} else {
						fmt.Fprintln(w, "Session: anonymous")
					}
					fmt.Fprintf(w, "Cart:    %s, %d item(s)\n", result.Mode, result.Items)
				}, nil
			})
		},
	}
}
