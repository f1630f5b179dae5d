package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/teresa-solution/tenant-order-service/internal/client"
	"github.com/teresa-solution/tenant-order-service/internal/model"
)

func (a *app) ordersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "Manage orders",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List orders, optionally by tenant or status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, _ := cmd.Flags().GetString("tenant")
			status, _ := cmd.Flags().GetString("status")
			filter := client.OrderFilter{TenantID: tenantID, Status: model.OrderStatus(status)}

			opts, all := listOptions(cmd)
			if all {
				orders, err := a.client().ListAllOrders(cmd.Context(), filter, opts.Limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), orders)
			}
			page, err := a.client().ListOrders(cmd.Context(), filter, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	list.Flags().String("tenant", "", "only orders of this tenant")
	list.Flags().String("status", "", "only orders in this status")
	addListFlags(list)

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := a.client().GetOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), order)
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an order from a JSON payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in client.OrderInput
			if err := readPayload(cmd, &in); err != nil {
				return err
			}
			if tenantID, _ := cmd.Flags().GetString("tenant"); tenantID != "" {
				in.TenantID = tenantID
			}
			if in.TenantID == "" && len(in.Items) == 0 {
				return errors.New("an order payload is required (--data or --file)")
			}
			order, err := a.client().CreateOrder(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), order)
		},
	}
	create.Flags().String("tenant", "", "tenant id, overrides the payload")
	addPayloadFlags(create)

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().DeleteOrder(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
		},
	}

	cmd.AddCommand(list, get, create, del,
		a.orderStatusCommand("confirm", "Mark an order CONFIRMED", (*client.Client).ConfirmOrder),
		a.orderStatusCommand("process", "Mark an order PROCESSING", (*client.Client).ProcessOrder),
		a.orderStatusCommand("ship", "Mark an order SHIPPED", (*client.Client).ShipOrder),
		a.orderStatusCommand("deliver", "Mark an order DELIVERED", (*client.Client).DeliverOrder),
		a.orderStatusCommand("cancel", "Mark an order CANCELLED", (*client.Client).CancelOrder),
		a.orderStatusCommand("pay", "Mark an order as paid", (*client.Client).MarkAsPaid),
	)
	return cmd
}

func (a *app) orderStatusCommand(use, short string, apply func(*client.Client, context.Context, string) (model.Order, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := apply(a.client(), cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), order)
		},
	}
}
