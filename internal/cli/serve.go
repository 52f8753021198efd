package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toyz/mbean/internal/directory"
	"github.com/toyz/mbean/pkg/mbean"
	"github.com/toyz/mbean/pkg/mbean/adapters"
	"github.com/toyz/mbean/pkg/mbean/remote"
	"github.com/toyz/mbean/pkg/mbean/runtimebean"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		host, port, prefix, adapter string
		publish                     bool
		redisAddr, node             string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the runtime bean of this process over HTTP",
		Long: `Register the Go runtime bean and serve the management endpoints until
interrupted. With --directory the bean names are also published to Redis so
other nodes can discover them.`,
		Example: `  mbean serve --port 9090 --adapter gin
  mbean serve --directory --redis-addr localhost:6379 --node api-1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := a.config.Server
			flags := cmd.Flags()
			if flags.Changed("host") {
				server.Host = host
			}
			if flags.Changed("port") {
				server.Port = port
			}
			if flags.Changed("prefix") {
				server.Prefix = prefix
			}
			if flags.Changed("adapter") {
				server.Adapter = adapter
			}

			dir := a.config.Directory
			if flags.Changed("directory") {
				dir.Enabled = publish
			}
			if flags.Changed("redis-addr") {
				dir.Addr = redisAddr
			}
			if flags.Changed("node") {
				dir.Node = node
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, server, dir)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&host, "host", "", "host to bind")
	flags.StringVar(&port, "port", "", "port to listen on")
	flags.StringVar(&prefix, "prefix", "", "path the endpoints are mounted under")
	flags.StringVar(&adapter, "adapter", "", "web framework: echo, gin, fiber, chi")
	flags.BoolVar(&publish, "directory", false, "publish bean names to Redis")
	flags.StringVar(&redisAddr, "redis-addr", "", "Redis address for the directory")
	flags.StringVar(&node, "node", "", "node name in the directory (default hostname)")

	return cmd
}

func (a *app) serve(ctx context.Context, config ServerConfig, dir DirectoryConfig) error {
	var beans mbean.Server = mbean.NewInMemoryServer()

	if dir.Enabled {
		redisConfig := directory.DefaultRedisConfig()
		redisConfig.Addr = dir.Addr
		if dir.Node != "" {
			redisConfig.Node = dir.Node
		}
		if dir.Prefix != "" {
			redisConfig.Prefix = dir.Prefix
		}
		d, err := directory.NewWithConfig(beans, redisConfig, a.logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := d.Close(); err != nil {
				a.diag.Warn("withdrawing from directory failed: %v", err)
			}
		}()
		beans = d
		a.diag.Progress("Publishing beans to %s as node %s", redisConfig.Addr, d.Node())
	}

	bean, err := runtimebean.Expose(
		mbean.WithServer(beans),
		mbean.WithNames(mbean.NewNameRegistry()),
		mbean.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer func() { _ = bean.Unregister() }()
	a.diag.Progress("Registered %s", bean.Name())

	web, err := adapters.New(config.Adapter)
	if err != nil {
		return err
	}
	server := remote.NewServer(&remote.ServerConfig{
		Host:            config.Host,
		Port:            config.Port,
		Prefix:          config.Prefix,
		ShutdownTimeout: config.ShutdownTimeout,
	}, remote.NewHandler(beans, a.logger), web)

	a.diag.Info("Serving %s on %s:%s%s", web.Name(), config.Host, config.Port, config.Prefix)
	if err := server.Start(ctx); err != nil {
		return err
	}
	a.diag.Success("Stopped")
	return nil
}
