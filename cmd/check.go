/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"cnwire/aggregate"
	"cnwire/models"
	"cnwire/sources"

	"github.com/cqroot/prompt"
	"github.com/cqroot/prompt/input"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
)

// checkCmd is the dry run: fetch and report, publish nothing.
func checkCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Fetch sources without publishing anything",
		Description: `Runs the fetch stage only and prints a summary of what every source
returned. Nothing is written to disk.

Useful for verifying connectivity, the proxy setting and the xueqiu
session token before wiring the binary into a scheduler.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Check a single source by id (cailian, sina, cninfo, xueqiu)",
			},
			&cli.IntFlag{
				Name:  "show",
				Value: 3,
				Usage: "Records to print per source",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			// Checking the xueqiu token is the main reason to run this
			// command, so offer to type one in when it is missing and
			// stdin is a terminal.
			if cfg.Xueqiu.Token == "" && !cfg.Xueqiu.Disabled && stdinIsTerminal() {
				token, err := prompt.New().Ask("Xueqiu token (empty to skip):").
					Input("", input.WithEchoMode(input.EchoNone))
				if err != nil {
					return err
				}
				cfg.Xueqiu.Token = token
			}

			srcs := sources.FromConfig(cfg)
			if id := ctx.String("source"); id != "" {
				srcs = lo.Filter(srcs, func(src sources.Source, _ int) bool {
					return src.Name() == id
				})
				if len(srcs) == 0 {
					return fmt.Errorf("unknown or disabled source %q", id)
				}
			}

			results := aggregate.Fetch(ctx.Context, srcs, cfg.Timeout.Duration)
			for _, result := range results {
				if result.Degraded() {
					fmt.Printf("%-8s degraded: %v\n", result.Source, result.Err)
					continue
				}
				fmt.Printf("%-8s %d records in %s\n", result.Source, len(result.Records), result.Elapsed.Round(time.Millisecond))
				for i, record := range result.Records {
					if i >= ctx.Int("show") {
						break
					}
					fmt.Printf("  %s  %s\n      %s\n", record.PubDate.Format(time.RFC3339), record.TitleZh, record.Link)
				}
			}

			if len(results) > 0 && lo.EveryBy(results, models.FetchResult.Degraded) {
				return fmt.Errorf("all %d checked sources degraded", len(results))
			}
			return nil
		},
	}
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
