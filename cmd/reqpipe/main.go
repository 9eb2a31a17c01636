// Command reqpipe sends the configured GET requests through a request
// pipeline and reports failures on the event bus, optionally forwarding them
// to Kafka and streaming them over server-sent events.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/kbukum/reqpipe/bootstrap"
	"github.com/kbukum/reqpipe/config"
)

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	envFile := flag.String("env", "", "path to a .env file")
	strict := flag.Bool("strict", false, "fail startup unless every component reports healthy")
	flag.Parse()

	if err := run(*configFile, *envFile, *strict); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configFile, envFile string, strict bool) error {
	var opts []config.LoaderOption
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}

	var cfg AppConfig
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var appOpts []bootstrap.Option
	if strict {
		appOpts = append(appOpts, bootstrap.WithRequireHealthy())
	}
	app, err := bootstrap.NewApp(&cfg, appOpts...)
	if err != nil {
		return err
	}

	ctx := context.Background()
	svc, err := wire(ctx, app)
	if err != nil {
		return fmt.Errorf("wire: %w", err)
	}
	return app.RunTask(ctx, svc.run)
}
