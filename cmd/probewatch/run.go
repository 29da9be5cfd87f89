package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/netsight-labs/probewatch/apiclient"
	"github.com/netsight-labs/probewatch/config"
	"github.com/netsight-labs/probewatch/logging"
	"github.com/netsight-labs/probewatch/report"
	"github.com/netsight-labs/probewatch/synthetic"
)

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateMonitor(); err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	logger.Info().Str("test_name", cfg.Test.Name).Str("target", cfg.Test.Target).Msg("starting test automation")

	svc := synthetic.NewService(newClient(cfg, logger), logger)

	agent, err := svc.FirstAgent(ctx)
	if err != nil {
		return fmt.Errorf("no usable agent: %w", err)
	}

	spec := synthetic.NewHTTPServerSpec(cfg.Test.Name, cfg.Test.Target, agent.AgentID)
	if cfg.Test.Interval > 0 {
		spec.Interval = cfg.Test.Interval
	}

	test, created, err := svc.EnsureTest(ctx, spec)
	if err != nil {
		return fmt.Errorf("ensuring test: %w", err)
	}

	if created {
		wait := cfg.Test.WaitForFirstResult
		logger.Info().Dur("wait", wait).Msg("waiting for the first result to become available")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	results, raw, err := svc.Results(ctx, test.TestID)
	if err != nil {
		return fmt.Errorf("fetching results: %w", err)
	}

	summary, err := report.Summary(cfg.Test.Name, cfg.Test.Target, results)
	if err != nil {
		logger.Warn().Err(err).Msg("no results available for analysis")
	} else {
		logger.Info().Msg("\n" + summary)
	}

	path, err := report.Write(cfg.Report.Dir, cfg.Test.Name, raw)
	if err != nil {
		// The run already produced its summary; a report write failure
		// is logged but does not fail the run.
		logger.Error().Err(err).Msg("failed to save report")
		return nil
	}
	logger.Info().Str("path", path).Msg("report saved")
	return nil
}

func newClient(cfg *config.Config, logger zerolog.Logger) *apiclient.Client {
	httpCfg := apiclient.DefaultConfig()
	httpCfg.Timeout = cfg.API.Timeout

	opts := []apiclient.Option{
		apiclient.WithConfig(httpCfg),
		apiclient.WithBaseURL(cfg.API.BaseURL),
		apiclient.WithBearerToken(cfg.API.Token),
		apiclient.WithServiceName("probewatch"),
		apiclient.WithLogger(logger),
		apiclient.WithRetryConfig(apiclient.RetryConfig{
			MaxAttempts:     uint(cfg.API.MaxAttempts),
			InitialInterval: cfg.API.InitialInterval,
			MaxInterval:     cfg.API.MaxInterval,
		}),
		apiclient.WithRateLimitConfig(apiclient.RateLimitConfig{
			ResetHeader:  cfg.API.ResetHeader,
			FallbackWait: cfg.API.FallbackWait,
		}),
		apiclient.WithBreaker(apiclient.DefaultBreakerConfig()),
	}
	if cfg.API.RequestsPerSecond > 0 {
		opts = append(opts, apiclient.WithThrottle(apiclient.ThrottleConfig{
			RequestsPerSecond: cfg.API.RequestsPerSecond,
			Burst:             cfg.API.Burst,
			WaitOnLimit:       true,
		}))
	}
	return apiclient.New(opts...)
}
