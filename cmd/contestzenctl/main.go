package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nischalstumbeti/contestzen/internal/app/bootstrap"
	"github.com/nischalstumbeti/contestzen/internal/application"
)

func main() {
	app := &cli.App{
		Name:  "contestzenctl",
		Usage: "operator tasks for a ContestZen deployment",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "configs/default.yaml",
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"CONTESTZEN_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			adminCommand(),
			exportCommand(),
			purgeCodesCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func openRuntime(c *cli.Context) (*bootstrap.Runtime, error) {
	return bootstrap.NewRuntime(c.Context, c.String("config"),
		bootstrap.WithAutoMigrate(false),
		bootstrap.WithLogHandler(func(level slog.Level) slog.Handler {
			return newConsoleHandler(os.Stderr, level)
		}),
	)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply the embedded database schema",
		Action: func(c *cli.Context) error {
			rt, err := openRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Migrate(c.Context); err != nil {
				return err
			}
			color.Green("schema is up to date")
			return nil
		},
	}
}

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "manage back-office accounts",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create a superadmin without an existing session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", EnvVars: []string{"CONTESTZEN_ADMIN_PASSWORD"}, Usage: "prefer the environment variable over the flag"},
					&cli.StringFlag{Name: "government", Value: "state"},
					&cli.StringFlag{Name: "phone"},
					&cli.StringFlag{Name: "department"},
					&cli.StringFlag{Name: "place"},
				},
				Action: func(c *cli.Context) error {
					if c.String("password") == "" {
						return errors.New("a password is required (set CONTESTZEN_ADMIN_PASSWORD)")
					}
					rt, err := openRuntime(c)
					if err != nil {
						return err
					}
					defer rt.Close()

					admin, err := rt.Service().BootstrapSuperadmin(c.Context, application.CreateAdminRequest{
						Name:       c.String("name"),
						Email:      c.String("email"),
						Phone:      c.String("phone"),
						Department: c.String("department"),
						Government: c.String("government"),
						Place:      c.String("place"),
						Password:   c.String("password"),
					})
					if err != nil {
						return err
					}
					fmt.Printf("%s %s (%s)\n", color.GreenString("created superadmin"), admin.Email, admin.ID)
					return nil
				},
			},
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the participants workbook to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "output path, defaults to the dated export file name"},
		},
		Action: func(c *cli.Context) error {
			rt, err := openRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := c.String("out")
			if out == "" {
				out = rt.Service().ExportFileName()
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := rt.Service().ExportUsers(c.Context, f); err != nil {
				_ = f.Close()
				_ = os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", color.GreenString("wrote"), out)
			return nil
		},
	}
}

func purgeCodesCommand() *cli.Command {
	return &cli.Command{
		Name:  "purge-codes",
		Usage: "delete expired and consumed one-time codes",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "batch-size", Value: 500},
		},
		Action: func(c *cli.Context) error {
			rt, err := openRuntime(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			batch := c.Int("batch-size")
			if batch <= 0 {
				return errors.New("batch-size must be positive")
			}
			var total int64
			for {
				n, err := rt.Service().PurgeExpiredCodes(c.Context, batch)
				if err != nil {
					return err
				}
				total += n
				if n < int64(batch) {
					break
				}
			}
			fmt.Printf("%s %d codes\n", color.GreenString("purged"), total)
			return nil
		},
	}
}
