package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "vault"
	app.Usage = "personal notes held on the note ledger"
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Commands = []cli.Command{
		{
			Name:      "keygen",
			Usage:     "write a new ed25519 keypair file",
			ArgsUsage: "PATH",
			Action:    runKeygen,
		},
		{
			Name:   "serve",
			Usage:  "run the vault server",
			Action: runServe,
		},
		{
			Name:  "list",
			Usage: "print the notes owned by the configured identity",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "content, c",
					Usage: " include note content",
				},
			},
			Action: runList,
		},
		{
			Name:  "watch",
			Usage: "follow vault events mirrored to NATS",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "subject, s",
					Value: "events.>",
					Usage: " NATS `SUBJECT` filter",
				},
			},
			Action: runWatch,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}
