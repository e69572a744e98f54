// Command questnetd runs a standalone questnet server that welcomes players
// and relays every message to everyone online.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/luciancaetano/questnet/internal/version"
)

func main() {
	if err := app().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "questnetd error: %v\n", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	app := cli.NewApp()
	app.Name = "questnetd"
	app.Usage = "questnet game connection server"
	app.Version = version.String()
	app.Flags = []cli.Flag{configFlag()}
	app.Commands = []*cli.Command{
		serveCommand(),
		configCommand(),
	}
	app.Action = serve

	return app
}
