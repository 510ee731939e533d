package main

import (
	"fmt"
	"os"

	"plugin-endpoints/pkg/config"
	"plugin-endpoints/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const serviceName = "plugin-endpoints"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions 所有子命令共享的配置
type rootOptions struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.EndpointConfig
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Authenticated plugin download endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.LoadConfig(opts.v, opts.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger.Init(cfg.Log.Level)
			opts.cfg = cfg
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.cfgFile, "config", "c", "", "Config file (default ./config.yaml)")
	flags.String("port", ":8080", "Listening address")
	flags.String("auth-code", "", "Shared secret expected in the auth parameter")
	flags.String("plugins-dir", "./plugins", "Plugin installation root")
	flags.String("db-path", "./endpoint_data.db", "Path to SQLite database file")
	flags.String("store", "local", "Archive store: local or minio")
	flags.String("log-level", "info", "Log level")
	bindFlags(opts.v, flags, map[string]string{
		"port":        "server.port",
		"auth-code":   "auth.code",
		"plugins-dir": "host.plugins_dir",
		"db-path":     "host.db_path",
		"store":       "archive.store",
		"log-level":   "log.level",
	})

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newSweepCommand(opts))
	cmd.AddCommand(newPluginsCommand(opts))
	cmd.AddCommand(newPackageCommand(opts))
	return cmd
}

// bindFlags 把命令行参数绑定到 viper key, 仅在显式传入时覆盖配置
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}
