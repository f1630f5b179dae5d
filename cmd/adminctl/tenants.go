package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/teresa-solution/tenant-order-service/internal/client"
	"github.com/teresa-solution/tenant-order-service/internal/model"
)

func (a *app) tenantsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tenants",
		Aliases: []string{"tenant"},
		Short:   "Manage tenants",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, all := listOptions(cmd)
			if all {
				tenants, err := a.client().ListAllTenants(cmd.Context(), opts.Limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tenants)
			}
			page, err := a.client().ListTenants(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	addListFlags(list)

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := a.client().GetTenant(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tenant)
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant from flags or a JSON payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in client.TenantInput
			if err := readPayload(cmd, &in); err != nil {
				return err
			}
			if name, _ := cmd.Flags().GetString("name"); name != "" {
				in.Name = name
			}
			if email, _ := cmd.Flags().GetString("email"); email != "" {
				in.Email = email
			}
			if plan, _ := cmd.Flags().GetString("plan"); plan != "" {
				in.Plan = model.TenantPlan(plan)
			}
			tenant, err := a.client().CreateTenant(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tenant)
		},
	}
	create.Flags().String("name", "", "tenant name")
	create.Flags().String("email", "", "tenant email")
	create.Flags().String("plan", "", "FREE, BASIC, PREMIUM or ENTERPRISE")
	addPayloadFlags(create)

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Apply a partial update given as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.TenantPatch
			if err := readPayload(cmd, &patch); err != nil {
				return err
			}
			tenant, err := a.client().UpdateTenant(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tenant)
		},
	}
	addPayloadFlags(update)

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().DeleteTenant(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
		},
	}

	cmd.AddCommand(list, get, create, update, del,
		a.tenantStatusCommand("activate", "Activate a tenant", (*client.Client).ActivateTenant),
		a.tenantStatusCommand("suspend", "Suspend a tenant", (*client.Client).SuspendTenant),
	)
	return cmd
}

func (a *app) tenantStatusCommand(use, short string, apply func(*client.Client, context.Context, string) (model.Tenant, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := apply(a.client(), cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tenant)
		},
	}
}
