/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"time"

	"cnwire/aggregate"
	"cnwire/config"
	"cnwire/models"
	"cnwire/publish"
	"cnwire/sources"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// fetchCmd is the explicit form of the pipeline run; the bare invocation
// does the same thing.
func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch all sources and publish the merged feed",
		Description: `Polls every enabled source once, merges what they return and publishes
the result atomically to the output path.

A source that fails logs a warning and contributes nothing to this run;
the run still publishes. Only a failure to merge or publish makes the
run exit non-zero.`,
		Action: runPipeline,
	}
}

func runPipeline(ctx *cli.Context) error {
	run := uuid.New().String()
	start := time.Now()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"run":    run,
		"output": cfg.Output,
		"merge":  cfg.Merge,
	}).Info("starting run")

	srcs := sources.FromConfig(cfg)
	results := aggregate.Fetch(ctx.Context, srcs, cfg.Timeout.Duration)
	records := aggregate.Merge(results)

	if cfg.Merge == config.MergeCombine {
		previous, err := publish.ReadSnapshot(cfg.Output)
		if err != nil {
			log.Warn("ignoring unreadable previous artifact: ", err)
		}
		records = aggregate.Combine(records, previous, cfg.MaxItems)
	}

	if err := publish.Write(cfg.Output, records); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	log.WithFields(log.Fields{
		"run":      run,
		"records":  len(records),
		"degraded": lo.CountBy(results, models.FetchResult.Degraded),
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Info("run complete")

	if gateway := ctx.String("pushgateway"); gateway != "" {
		pushMetrics(gateway)
	}
	return nil
}

// pushMetrics hands the run's metrics to a Pushgateway. The pipeline is too
// short-lived to be scraped, so push is the only delivery that reaches it.
// A failed push is reported but never fails a run that already published.
func pushMetrics(gateway string) {
	err := push.New(gateway, "cnwire").
		Gatherer(prometheus.DefaultGatherer).
		Push()
	if err != nil {
		log.Warn("could not push metrics: ", err)
		return
	}
	log.WithField("gateway", gateway).Info("pushed run metrics")
}
