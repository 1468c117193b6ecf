// mempoolctl is a standalone operator tool for exercising a mempool
// instance: submit extrinsics, inspect occupancy, and watch the readiness
// sweep, mirroring the teacher's cmd/evm-node entrypoint convention
// (an App with init-time flag/command wiring and a Before hook that builds
// the runtime state every subcommand shares).
package main

import (
	"fmt"
	"os"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"

	"github.com/luxfi/mempool/chainapi"
	"github.com/luxfi/mempool/config"
	"github.com/luxfi/mempool/metrics"
	"github.com/luxfi/mempool/pool"
	"github.com/luxfi/mempool/verifier"
)

const clientIdentifier = "mempoolctl"

var app = &cli.App{
	Name:    clientIdentifier,
	Usage:   "operate a standalone mempool instance",
	Version: "1.0.0",
}

// runtimeState bundles everything a subcommand needs. Built once in app.Before
// from merged configuration, shared by every command in this process.
type runtimeState struct {
	cfg   config.Config
	pool  *pool.Pool
	api   *devChain
	at    chainapi.CheckedBlockID
	verif *verifier.Verifier
}

var rt *runtimeState

func init() {
	fs := pflag.NewFlagSet(clientIdentifier, pflag.ContinueOnError)
	config.BindFlags(fs)

	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "path to a YAML/TOML/JSON config file"},
		&cli.IntFlag{Name: "max-count", Usage: "maximum resident transaction count (0 = unbounded)"},
		&cli.Int64Flag{Name: "max-bytes", Usage: "maximum resident byte total (0 = unbounded)"},
		&cli.IntFlag{Name: "max-per-sender", Usage: "optional per-sender soft cap (0 = unbounded)"},
	}

	app.Before = func(c *cli.Context) error {
		logger := log.New()

		cfg, err := config.Load(c.String("config"), fs)
		if err != nil {
			return err
		}
		if c.IsSet("max-count") {
			cfg.MaxCount = c.Int("max-count")
		}
		if c.IsSet("max-bytes") {
			cfg.MaxBytes = c.Int64("max-bytes")
		}
		if c.IsSet("max-per-sender") {
			cfg.MaxPerSender = c.Int("max-per-sender")
		}

		met := metrics.New(prometheus.NewRegistry(), "mempoolctl")
		p := pool.New(cfg.PoolConfig(), logger, met)
		api := newDevChain()
		at, err := api.CheckID(c.Context, chainapi.BlockID{Number: 0})
		if err != nil {
			return err
		}

		v := verifier.New(api, noopChecker{}, logger, p.Seq())

		rt = &runtimeState{cfg: cfg, pool: p, api: api, at: at, verif: v}
		return nil
	}

	app.Commands = []*cli.Command{submitCommand, statusCommand, watchCommand}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
