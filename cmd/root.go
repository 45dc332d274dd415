/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"cnwire/config"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "cnwire",
		Usage: "Aggregate Chinese financial news into one JSON feed",
		Description: `cnwire polls four upstream services: the Cailianshe telegraph wire,
		Sina Finance's market news feed, the cninfo disclosure registry and
		the Xueqiu community feed. What they return is normalized into one
		record shape, merged, deduplicated, ordered newest first and
		published atomically as a JSON array.

		Running cnwire with no command runs the whole pipeline once;
		schedule it with cron or a systemd timer.

		Flags can generally be set via environment variables, e.g.:

		--output => CNWIRE_OUTPUT=/var/lib/cnwire/news.json
		--xueqiu-token => XQ_TOKEN=...
		`,
		Flags: pipelineFlags(),
		Commands: []*cli.Command{
			fetchCmd(),
			checkCmd(),
			sourcesCmd(),
		},
		Action: runPipeline,
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// pipelineFlags sit on the app so the bare invocation accepts them; the
// subcommands read them through the context lineage.
func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "cnwire.toml",
			Usage:   "Path to the TOML configuration file",
			EnvVars: []string{"CNWIRE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Value:   config.DefaultOutput,
			Usage:   "Path of the published JSON artifact",
			EnvVars: []string{"CNWIRE_OUTPUT", "NEWS_JSON_PATH"},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Value:   config.DefaultTimeout,
			Usage:   "Per-source fetch deadline",
			EnvVars: []string{"CNWIRE_TIMEOUT"},
		},
		&cli.StringFlag{
			Name:    "merge",
			Usage:   "Publish policy: replace the artifact or combine it with the previous snapshot",
			EnvVars: []string{"CNWIRE_MERGE"},
		},
		&cli.StringFlag{
			Name:    "proxy",
			Usage:   "Proxy URL for all upstream requests",
			EnvVars: []string{"CNWIRE_PROXY", "NEWS_PROXY"},
		},
		&cli.StringFlag{
			Name:    "xueqiu-token",
			Usage:   "Xueqiu session token, sent as the xq_a_token cookie",
			EnvVars: []string{"CNWIRE_XUEQIU_TOKEN", "XQ_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "pushgateway",
			Usage:   "Prometheus Pushgateway URL to push run metrics to",
			EnvVars: []string{"CNWIRE_PUSHGATEWAY"},
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Log at debug level, including individual dropped records",
			EnvVars: []string{"CNWIRE_DEBUG"},
		},
	}
}

// loadConfig resolves the effective configuration: compiled-in defaults,
// then the TOML file, then every flag set explicitly or via environment.
// The xueqiu token comes from the flag or environment only; the config file
// is meant to be committed and stays secret-free.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	if ctx.Bool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	var cfg *config.Config
	var err error
	if ctx.IsSet("config") {
		cfg, err = config.LoadConfig(ctx.String("config"))
	} else {
		cfg, err = config.Load(ctx.String("config"))
	}
	if err != nil {
		return nil, err
	}

	if ctx.IsSet("output") {
		cfg.Output = ctx.String("output")
	}
	if ctx.IsSet("timeout") {
		cfg.Timeout = config.Duration{Duration: ctx.Duration("timeout")}
	}
	if ctx.IsSet("merge") {
		cfg.Merge = ctx.String("merge")
	}
	if ctx.IsSet("proxy") {
		cfg.Proxy = ctx.String("proxy")
	}
	if token := ctx.String("xueqiu-token"); token != "" {
		cfg.Xueqiu.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
