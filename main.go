package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"heartapi/cmd"
)

func main() {
	app := &cli.Command{
		Name:  "heartapi",
		Usage: "Heart disease prediction API",
		Commands: []*cli.Command{
			cmd.NewServeCommand(),
			cmd.NewCheckCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
