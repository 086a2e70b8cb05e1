package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/fatflowers/backoffice/internal/app"
	"github.com/fatflowers/backoffice/internal/app/service/account"
	"github.com/fatflowers/backoffice/internal/app/service/subscription"
	"github.com/fatflowers/backoffice/internal/models"
)

const adminPasswordEnv = "BACKOFFICE_ADMIN_PASSWORD"

// services is what the commands need from the fx graph.
type services struct {
	Accounts      *account.Service
	Subscriptions *subscription.Service
}

// runCore starts the core graph (which migrates the schema), runs fn and stops.
// Only the constructors behind targets are invoked.
func runCore(ctx context.Context, fn func(ctx context.Context) error, targets ...any) error {
	a := fx.New(app.CoreModule, fx.NopLogger, fx.Populate(targets...))
	startCtx, cancel := context.WithTimeout(ctx, app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	runErr := fn(ctx)

	stopCtx, cancel2 := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
	defer cancel2()
	return errors.Join(runErr, a.Stop(stopCtx))
}

func withServices(ctx context.Context, fn func(ctx context.Context, s services) error) error {
	var s services
	return runCore(ctx, func(ctx context.Context) error { return fn(ctx, s) }, &s.Accounts, &s.Subscriptions)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "backofficectl",
		Short:         "Back office maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCommand(), newSeedCommand(), newSubscriptionsCommand())
	return root
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCore(cmd.Context(), func(context.Context) error {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}

func newSeedCommand() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin role and a first admin user",
		Long:  "Creates the admin role and an admin user when missing. The password may come from " + adminPasswordEnv + ".",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv(adminPasswordEnv)
			}
			if email == "" || password == "" {
				return errors.New("--email and a password are required")
			}
			return withServices(cmd.Context(), func(ctx context.Context, s services) error {
				u, err := s.Accounts.Seed(ctx, name, email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "admin user %d <%s>\n", u.ID, u.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "admin display name")
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password (default $"+adminPasswordEnv+")")
	return cmd
}

func newSubscriptionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "Inspect subscriptions",
	}
	var userID int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List a user's subscriptions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID <= 0 {
				return errors.New("--user must be a positive id")
			}
			return withServices(cmd.Context(), func(ctx context.Context, s services) error {
				if _, err := s.Accounts.GetUser(ctx, userID); err != nil {
					return err
				}
				rows, err := s.Subscriptions.ListByUser(ctx, userID)
				if err != nil {
					return err
				}
				return printSubscriptions(cmd.OutOrStdout(), rows, s.Subscriptions.Now())
			})
		},
	}
	list.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.AddCommand(list)
	return cmd
}

func printSubscriptions(out io.Writer, rows []*models.SubscriptionView, now time.Time) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRODUCT\tOPTION\tPRICE\tEXPIRED_AT\tACTIVE\tRENEWS")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\t%t\n",
			r.ID, r.ProductTypeName, r.PricingOptionName, r.Price.StringFixed(2),
			r.ExpiredAt.Format(time.RFC3339), r.IsActiveAt(now), r.WillRenew())
	}
	return w.Flush()
}
