package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"vmrepl/buildinfo"
	"vmrepl/config"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "vmrepl",
		Usage:   "interactive interpreter console",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Action:  runAction,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Start the console (default)",
				Action: runAction,
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration as YAML",
				Action: configAction,
			},
			{
				Name:   "version",
				Usage:  "Print build information",
				Action: versionAction,
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
		},
		&cli.StringFlag{
			Name:  "engine",
			Usage: "Interpreter: shell",
		},
		&cli.StringFlag{
			Name:  "ui",
			Usage: "User interface: simple or gui",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Log file; empty logs to stderr",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve Prometheus metrics on this address",
		},
		&cli.BoolFlag{
			Name:  "timing",
			Usage: "Print how long every statement took",
		},
	}
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"engine":       "engine",
	"ui":           "ui",
	"log-file":     "log.file",
	"log-level":    "log.level",
	"metrics-addr": "metrics.addr",
	"timing":       "debug.timing",
}

// flagOverrides returns the configuration keys set on the command line.
func flagOverrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	for flag, key := range flagKeys {
		if !c.IsSet(flag) {
			continue
		}
		if flag == "timing" {
			m[key] = c.Bool(flag)
		} else {
			m[key] = c.String(flag)
		}
	}
	return m
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(c.String("config"), flagOverrides(c))
}

func configAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = c.App.Writer.Write(out)
	return err
}

func versionAction(c *cli.Context) error {
	out, err := yaml.Marshal(buildinfo.Get())
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(out)
	return err
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	return run(c.Context, cfg)
}
