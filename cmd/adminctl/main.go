package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/teresa-solution/tenant-order-service/internal/client"
	"github.com/teresa-solution/tenant-order-service/internal/config"
)

var globalOptions = []config.Opt{
	{Flag: "api-url", Default: "http://localhost:8080", Desc: "base URL of the API"},
	{Flag: "token", Default: "", Desc: "bearer token (or SAAS_TOKEN)"},
	{Flag: "timeout", Default: 30 * time.Second, Desc: "request timeout"},
	{Flag: "retries", Default: 2, Desc: "retries of GET, PUT and DELETE on transport errors"},
}

type app struct {
	v *viper.Viper
}

func (a *app) client() *client.Client {
	var tokens client.TokenProvider
	if token := a.v.GetString("token"); token != "" {
		tokens = client.StaticToken(token)
	}
	return client.New(a.v.GetString("api-url"), tokens,
		client.WithTimeout(a.v.GetDuration("timeout")),
		client.WithRetries(a.v.GetInt("retries")),
	)
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	a := &app{v: v}
	root := &cobra.Command{
		Use:           "adminctl",
		Short:         "Operate tenants and orders through the API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.BindOptions(root.PersistentFlags(), v, globalOptions)

	root.AddCommand(a.tenantsCommand(), a.ordersCommand(), a.dashboardCommand())
	return root
}

func (a *app) dashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show tenant and order totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.client().DashboardStats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readPayload decodes JSON from --data, or from --file where "-" is stdin
func readPayload(cmd *cobra.Command, dst any) error {
	data, _ := cmd.Flags().GetString("data")
	file, _ := cmd.Flags().GetString("file")

	var raw []byte
	switch {
	case data != "":
		raw = []byte(data)
	case file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		raw = b
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		raw = b
	default:
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

func addPayloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("data", "d", "", "JSON payload")
	cmd.Flags().StringP("file", "f", "", "read JSON payload from file, - for stdin")
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", 0, "page size (server default when 0)")
	cmd.Flags().String("cursor", "", "lastEvaluatedKey of the previous page")
	cmd.Flags().Bool("all", false, "follow cursors and print every record")
}

func listOptions(cmd *cobra.Command) (client.ListOptions, bool) {
	limit, _ := cmd.Flags().GetInt("limit")
	cursor, _ := cmd.Flags().GetString("cursor")
	all, _ := cmd.Flags().GetBool("all")
	return client.ListOptions{Limit: limit, Cursor: cursor}, all
}

func main() {
	if err := newRootCommand(config.NewViper()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
