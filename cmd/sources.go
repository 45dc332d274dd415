/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"cnwire/config"

	"github.com/urfave/cli/v2"
)

// sourcesCmd lists the configured upstreams.
func sourcesCmd() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "Print the effective source configuration",
		Description: `Prints every source in pipeline order with its enabled state, limit and
endpoint, after applying the config file and environment.

The pipeline order is fixed: it decides which copy of a duplicated
record wins and how records with equal timestamps are ordered.`,
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			rows := []struct {
				id       string
				disabled bool
				limit    int
				endpoint string
			}{
				{"cailian", cfg.Cailian.Disabled, cfg.Cailian.Limit, cfg.Cailian.BaseURL},
				{"sina", cfg.Sina.Disabled, cfg.Sina.Limit, cfg.Sina.FeedURL},
				{"cninfo", cfg.Cninfo.Disabled, cfg.Cninfo.Limit, cfg.Cninfo.Endpoint},
				{"xueqiu", cfg.Xueqiu.Disabled, cfg.Xueqiu.Limit, cfg.Xueqiu.Endpoint},
			}
			for _, row := range rows {
				state := "enabled"
				if row.disabled {
					state = "disabled"
				}
				fmt.Printf("%-8s %-9s limit=%-4d %s\n", row.id, state, row.limit, row.endpoint)
			}
			return nil
		},
	}
}
