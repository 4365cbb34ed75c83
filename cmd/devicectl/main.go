// devicectl manages Entra ID devices through the Microsoft Graph API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/entra-tools/devicectl/internal/azure"
	"github.com/entra-tools/devicectl/internal/config"
	"github.com/entra-tools/devicectl/internal/graph"
	"github.com/entra-tools/devicectl/internal/observe"
	"github.com/entra-tools/devicectl/internal/odata"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	flagSelect  []string
	flagFilter  string
	flagSearch  string
	flagOrderBy []string
	flagTop     int
	flagAll     bool
	flagOutput  string
	flagVerbose bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "devicectl",
		Short: "Manage Entra ID devices through the Microsoft Graph API",
		Long: `devicectl lists, inspects and deletes directory devices, and retrieves
Intune LAPS passwords, using an Entra ID application with the
client-credentials flow.

Credentials are read from AAD_TENANT_ID, AAD_CLIENT_ID and
AAD_CLIENT_SECRET.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging()
		},
	}

	root.PersistentFlags().StringVarP(&flagOutput, "output", "o", "json", "output format: json or yaml")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(listCmd(), getCmd(), deleteCmd(), ownedCmd(), lapsCmd())
	return root
}

func configureLogging() {
	log.Logger = log.
		Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel)

	if flagVerbose {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}

// queryFlags registers the OData query options shared by the list commands.
func queryFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&flagSelect, "select", nil, "properties to return")
	cmd.Flags().StringVar(&flagFilter, "filter", "", "OData $filter expression")
	cmd.Flags().StringVar(&flagSearch, "search", "", "OData $search expression")
	cmd.Flags().StringSliceVar(&flagOrderBy, "orderby", nil, "properties to sort by")
	cmd.Flags().IntVar(&flagTop, "top", 0, "maximum number of objects (1..999)")
	cmd.Flags().BoolVar(&flagAll, "all", false, "follow continuation links and return every object")
}

func query() odata.Query {
	return odata.Query{
		Select:  flagSelect,
		Filter:  flagFilter,
		Search:  flagSearch,
		OrderBy: flagOrderBy,
		Top:     flagTop,
		All:     flagAll,
	}
}

func newClient(ctx context.Context) (*graph.Client, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("configuration load failed: %w", err)
	}

	httpClient := &http.Client{
		Transport: observe.HTTPTransport(configureHTTPTransport(cfg.Client), cfg.Observe),
		Timeout:   time.Duration(cfg.Client.TimeoutSeconds) * time.Second,
	}

	tokens := azure.NewTokenSource(cfg.Azure, azure.WithHTTPClient(httpClient))

	opts := []graph.Option{
		graph.WithHTTPClient(httpClient),
		graph.WithRateLimit(cfg.Client.RequestsPerSecond, cfg.Client.RequestBurst),
	}
	if cfg.Azure.GraphURL != "" {
		opts = append(opts, graph.WithBaseURL(cfg.Azure.GraphURL))
	}

	return graph.New(tokens, opts...), nil
}

func configureHTTPTransport(cfg config.ClientConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = cfg.OutgoingHTTPMaxIdleConns
	transport.MaxConnsPerHost = cfg.OutgoingHTTPMaxConnsPerHost

	return transport
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List directory devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			devices, err := client.ListDevices(cmd.Context(), query())
			if err != nil {
				return err
			}

			return write(cmd, devices)
		},
	}
	queryFlags(cmd)
	return cmd
}

func getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <device-id>",
		Short: "Show a single device by object id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			device, err := client.GetDevice(cmd.Context(), args[0], odata.Query{Select: flagSelect})
			if err != nil {
				return err
			}

			return write(cmd, device)
		},
	}
	cmd.Flags().StringSliceVar(&flagSelect, "select", nil, "properties to return")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <device-id>",
		Short: "Delete a device by object id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			if err := client.DeleteDevice(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func ownedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owned <user-id>",
		Short: "List the devices owned by a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			devices, err := client.ListOwnedDevices(cmd.Context(), args[0], query())
			if err != nil {
				return err
			}

			return write(cmd, devices)
		},
	}
	queryFlags(cmd)
	return cmd
}

func lapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "laps <device-id>",
		Short: "Show the current local administrator password for an Intune device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			password, ok, err := client.LocalAdminPassword(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if !ok {
				return fmt.Errorf("no local administrator password stored for device %s", args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), password)
			return nil
		},
	}
}

// write encodes v to the command's stdout in the selected output format.
func write(cmd *cobra.Command, v any) error {
	switch flagOutput {
	case "yaml":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(v)
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format: %s", flagOutput)
	}
}
