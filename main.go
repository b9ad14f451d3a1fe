package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"welcomer/cmd"
	"welcomer/database"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	// Optional .env for local development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to load .env file")
	}
	cmd.SetupLogging(os.Getenv("LOG_LEVEL"), os.Getenv("ENVIRONMENT"))

	app := &cli.App{
		Name:   "welcomer",
		Usage:  "Discord bot that greets new members with a message and a personalised image",
		Action: runBot,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "connect to Discord and start greeting members",
				Action: runBot,
			},
			newMigrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runBot(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("Received shutdown signal, shutting down gracefully...")
	}()

	if err := cmd.Run(ctx); err != nil {
		return fmt.Errorf("application error: %w", err)
	}
	return nil
}

func newMigrateCommand() *cli.Command {
	databaseURL := func(c *cli.Context) (string, error) {
		url := c.String("database-url")
		if url == "" {
			return "", fmt.Errorf("DATABASE_URL is required")
		}
		return database.ConstructDatabaseURL(url, c.String("database-name")), nil
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "database-url", EnvVars: []string{"DATABASE_URL"}, Usage: "PostgreSQL connection URL"},
			&cli.StringFlag{Name: "database-name", EnvVars: []string{"DATABASE_NAME"}, Usage: "database name, replaces the one in the URL"},
		},
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(c *cli.Context) error {
					url, err := databaseURL(c)
					if err != nil {
						return err
					}
					return database.MigrateUp(url)
				},
			},
			{
				Name:      "down",
				Usage:     "roll back migrations",
				ArgsUsage: "[steps]",
				Action: func(c *cli.Context) error {
					url, err := databaseURL(c)
					if err != nil {
						return err
					}
					steps := 1
					if c.Args().Present() {
						steps, err = strconv.Atoi(c.Args().First())
						if err != nil || steps < 1 {
							return fmt.Errorf("steps must be a positive number, got %q", c.Args().First())
						}
					}
					return database.MigrateDown(url, steps)
				},
			},
			{
				Name:  "status",
				Usage: "show the current migration version",
				Action: func(c *cli.Context) error {
					url, err := databaseURL(c)
					if err != nil {
						return err
					}
					status, err := database.GetMigrationStatus(url)
					if err != nil {
						return err
					}
					if !status.Applied {
						fmt.Println("No migrations applied")
						return nil
					}
					fmt.Printf("Version: %d, dirty: %t\n", status.Version, status.Dirty)
					return nil
				},
			},
		},
	}
}
