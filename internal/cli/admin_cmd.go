// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/evo-tui/internal/api"
)

// requireRole checks the role carried by the token before calling the
// backend. Tokens without a role claim are left for the backend to judge.
func requireRole(app *App, role string) error {
	if err := app.requireSession(); err != nil {
		return err
	}
	if have := app.Session.Claims().Role; have != "" && have != role {
		return errors.Wrapf(api.ErrForbidden, "%s required", role)
	}
	return nil
}

// =============================================================================
// TENANT ADMIN
// =============================================================================

func newAdminCommand(appFn func() *App, opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage your organisation (tenant admins)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return requireRole(appFn(), api.RoleTenantAdmin)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "users",
			Short: "List the users of your organisation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app := appFn()
				ctx, cancel := app.ctx(cmd.Context())
				defer cancel()
				users, err := app.Client.TenantUsers(ctx)
				if err != nil {
					return err
				}
				if opts.JSON {
					return printJSON(cmd.OutOrStdout(), "admin users", users)
				}
				return printTenantUsers(cmd.OutOrStdout(), users)
			},
		},
		newInviteCommand(appFn),
		&cobra.Command{
			Use:   "metrics",
			Short: "Show plan and usage for your organisation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app := appFn()
				ctx, cancel := app.ctx(cmd.Context())
				defer cancel()
				m, err := app.Client.TenantMetrics(ctx)
				if err != nil {
					return err
				}
				if opts.JSON {
					return printJSON(cmd.OutOrStdout(), "admin metrics", m)
				}
				printTenantMetrics(cmd.OutOrStdout(), m)
				return nil
			},
		},
	)
	return cmd
}

func newInviteCommand(appFn func() *App) *cobra.Command {
	var req api.InviteRequest
	cmd := &cobra.Command{
		Use:     "invite",
		Short:   "Invite a user to your organisation",
		Example: `  evo admin invite --email sam@acme.test --name "Sam Lee" --role TENANT_ADMIN`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Email == "" {
				return NewValidationErrorWithExample("--email", "", "required", "--email sam@acme.test")
			}
			app := appFn()
			ctx, cancel := app.ctx(cmd.Context())
			defer cancel()
			if err := app.Client.InviteUser(ctx, req); err != nil {
				return err
			}
			log.WithField("email", req.Email).Info("user invited")
			fmt.Fprintf(cmd.OutOrStdout(), "%s Invitation sent to %s\n", SuccessStyle.Render("[OK]"), req.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Email of the new user")
	cmd.Flags().StringVarP(&req.FullName, "name", "n", "", "Full name")
	cmd.Flags().StringVarP(&req.Role, "role", "r", api.RoleEmployee, "EMPLOYEE or TENANT_ADMIN")
	return cmd
}

func printTenantUsers(out io.Writer, users []api.TenantUser) error {
	if len(users) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No users."))
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tMESSAGES")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, truncateString(u.FullName, 24), u.Email, u.Role,
			formatNumber(u.MessagesUsed))
	}
	return tw.Flush()
}

func printTenantMetrics(out io.Writer, m *api.TenantMetrics) {
	fmt.Fprintln(out, TitleStyle.Render("Organisation"))
	fmt.Fprintln(out, RenderField("Plan", m.SubscriptionPlan))
	fmt.Fprintln(out, RenderField("Users", formatNumber(m.CurrentUsers)))
	fmt.Fprintln(out, RenderField("Messages this month", formatNumber(m.MessagesThisMonth)+" of "+limitText(m.MaxMessagesPerMonth)))
}

func limitText(limit int) string {
	if limit <= 0 {
		return "unlimited"
	}
	return formatNumber(limit)
}

// =============================================================================
// SUPER ADMIN
// =============================================================================

func newSuperCommand(appFn func() *App, opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "super",
		Short: "Manage the platform (super admins)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return requireRole(appFn(), api.RoleSuperAdmin)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "tenants",
			Short: "List every tenant",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app := appFn()
				ctx, cancel := app.ctx(cmd.Context())
				defer cancel()
				tenants, err := app.Client.Tenants(ctx)
				if err != nil {
					return err
				}
				if opts.JSON {
					return printJSON(cmd.OutOrStdout(), "super tenants", tenants)
				}
				return printTenants(cmd.OutOrStdout(), tenants)
			},
		},
		newCreateTenantCommand(appFn, opts),
		&cobra.Command{
			Use:   "metrics",
			Short: "Show platform totals",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app := appFn()
				ctx, cancel := app.ctx(cmd.Context())
				defer cancel()
				m, err := app.Client.PlatformMetrics(ctx)
				if err != nil {
					return err
				}
				if opts.JSON {
					return printJSON(cmd.OutOrStdout(), "super metrics", m)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, TitleStyle.Render("Platform"))
				fmt.Fprintln(out, RenderField("Tenants", formatNumber(m.TotalTenants)))
				fmt.Fprintln(out, RenderField("Active tenants", formatNumber(m.ActiveTenants)))
				fmt.Fprintln(out, RenderField("Users", formatNumber(m.TotalUsers)))
				return nil
			},
		},
	)
	return cmd
}

func newCreateTenantCommand(appFn func() *App, opts *Options) *cobra.Command {
	var req api.CreateTenantRequest
	cmd := &cobra.Command{
		Use:     "create-tenant",
		Short:   "Create a tenant",
		Example: `  evo super create-tenant --name "Acme Inc" --domain acme.test`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Name == "" {
				return NewValidationErrorWithExample("--name", "", "required", `--name "Acme Inc"`)
			}
			if req.Domain == "" {
				return NewValidationErrorWithExample("--domain", "", "required", "--domain acme.test")
			}
			app := appFn()
			ctx, cancel := app.ctx(cmd.Context())
			defer cancel()
			t, err := app.Client.CreateTenant(ctx, req)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"tenant": t.ID.String(), "domain": t.Domain}).Info("tenant created")
			if opts.JSON {
				return printJSON(cmd.OutOrStdout(), "super create-tenant", t)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Created tenant %s (%s)\n", SuccessStyle.Render("[OK]"), t.Name, t.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Name, "name", "n", "", "Tenant name")
	cmd.Flags().StringVarP(&req.Domain, "domain", "d", "", "Email domain of the tenant")
	return cmd
}

func printTenants(out io.Writer, tenants []api.Tenant) error {
	if len(tenants) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No tenants."))
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDOMAIN\tPLAN\tSTATUS\tMESSAGES")
	for _, t := range tenants {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, truncateString(t.Name, 24), t.Domain,
			t.SubscriptionPlan, RenderStatus(t.Status()),
			formatNumber(t.MessagesUsed)+"/"+limitText(t.MaxMessagesPerMonth))
	}
	return tw.Flush()
}
