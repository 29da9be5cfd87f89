// Command devcheck validates network device state over SSH: software
// version, OSPF adjacencies, and ACL hit counters, across a configured
// device fleet.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netsight-labs/probewatch/config"
	"github.com/netsight-labs/probewatch/devicecheck"
	"github.com/netsight-labs/probewatch/logging"
)

var errChecksFailed = errors.New("one or more device checks failed")

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "devcheck",
		Short:         "Validate device software, OSPF adjacencies, and ACL counters",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: config.yaml if present)")
	return root
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateDevices(); err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	dial := func(d devicecheck.Device) (devicecheck.CommandRunner, error) {
		return devicecheck.Dial(d)
	}
	fleet := devicecheck.NewFleet(dial,
		devicecheck.WithConcurrency(cfg.Check.Concurrency),
		devicecheck.WithACLName(cfg.Check.ACL),
		devicecheck.WithFleetLogger(logger),
	)

	reports := fleet.Run(ctx, cfg.Devices)

	failed := false
	for _, r := range reports {
		if r.Err != nil {
			logger.Error().Err(r.Err).Str("device", r.Device).Msg("device check errored")
			failed = true
			continue
		}
		for _, res := range r.Results {
			logger.Info().
				Str("device", r.Device).
				Str("check", res.Check).
				Str("status", string(res.Status)).
				Str("detail", res.Detail).
				Msg("check result")
			if res.Status != devicecheck.StatusPass {
				failed = true
			}
		}
	}

	if failed {
		return errChecksFailed
	}
	logger.Info().Int("devices", len(reports)).Msg("all checks passed")
	return nil
}
