package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/luciancaetano/questnet/internal/config"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the YAML config file",
		EnvVars: []string{"QUESTNET_CONFIG"},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Usage:       "run the server",
		Description: "Accepts WebSocket connections and relays messages between them.",
		Action:      serve,
		Flags:       []cli.Flag{configFlag()},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:        "config",
		Usage:       "print the effective configuration",
		Description: "Loads defaults, the config file and the environment, then prints the result as YAML.",
		Action:      printConfig,
		Flags:       []cli.Flag{configFlag()},
	}
}

func printConfig(c *cli.Context) error {
	cfg, err := config.LoadAndValidate(c.String("config"))
	if err != nil {
		return err
	}

	out, err := cfg.Dump()
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	_, err = c.App.Writer.Write(out)
	return err
}
