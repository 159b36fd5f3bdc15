package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hostelctl/hostelctl/internal/api"
	"github.com/hostelctl/hostelctl/internal/cli"
	"github.com/hostelctl/hostelctl/internal/common"
	"github.com/hostelctl/hostelctl/internal/config"
	"github.com/hostelctl/hostelctl/internal/listing"
)

var version = "dev"

// rootEnv carries state resolved once per invocation.
type rootEnv struct {
	v       *viper.Viper
	cfg     *config.Config
	cfgFile string
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	env := &rootEnv{v: v}

	cmd := &cobra.Command{
		Use:   "hostelctl",
		Short: "🏠 Manage PG and hostel records from the terminal",
		Long: `hostelctl talks to the PG management API: browse and filter rent payments,
expenses, tenants, visitors, rooms and beds, export any list, and keep an eye
on the dashboard figures for the selected PG location.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: env.initConfig,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&env.cfgFile, "config", "", "config file (default: $HOME/.config/hostelctl/config.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	cmd.PersistentFlags().String("base-url", "", "PG API base URL")

	_ = v.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", cmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("api.base_url", cmd.PersistentFlags().Lookup("base-url"))

	expenses := screenCmd(env, listing.Expenses, true)
	expenses.AddCommand(expensesAddCmd(env), expensesDeleteCmd(env))

	visitors := screenCmd(env, listing.Visitors, true)
	visitors.AddCommand(visitorsAddCmd(env))

	tenants := screenCmd(env, listing.Tenants, true)
	tenants.AddCommand(tenantsShowCmd(env))

	cmd.AddCommand(
		screenCmd(env, listing.RentPayments, true),
		screenCmd(env, listing.AdvancePayments, true),
		screenCmd(env, listing.RefundPayments, true),
		expenses,
		tenants,
		visitors,
		screenCmd(env, listing.Rooms, true),
		screenCmd(env, listing.Beds, true),
		screenCmd(env, listing.EmployeeSalaries, true),
		screenCmd(env, listing.Organizations, false),
		authCmd(env),
		locationCmd(env),
		sheetsCmd(env),
		dashboardCmd(env),
		versionCmd(),
	)

	return cmd
}

func main() {
	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx, stop := interrupts.HandleInterrupts(context.Background())

	err := newRootCmd(viper.New()).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(errorMessage(err)))
		os.Exit(1)
	}
}

func (e *rootEnv) initConfig(_ *cobra.Command, _ []string) error {
	if e.cfgFile != "" {
		e.v.SetConfigFile(e.cfgFile)
	} else {
		e.v.AddConfigPath(config.Dir())
		e.v.AddConfigPath(".")
		e.v.SetConfigName("config")
		e.v.SetConfigType("yaml")
	}

	e.v.SetEnvPrefix("HOSTEL")
	e.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	e.v.AutomaticEnv()

	if err := e.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	cfg, err := config.Load(e.v)
	if err != nil {
		return err
	}
	e.cfg = cfg

	if err := common.SetupLogger(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

// errorMessage picks the line shown to the user for a failed command.
func errorMessage(err error) string {
	var userErr *common.UserError
	switch {
	case errors.As(err, &userErr):
		return userErr.Error()
	case api.Classify(err) != api.KindUnknown,
		errors.Is(err, common.ErrNotAuthenticated),
		errors.Is(err, common.ErrSessionExpired),
		errors.Is(err, context.Canceled):
		return api.UserMessage(err)
	default:
		return err.Error()
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "hostelctl", version)
		},
	}
}
