package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	service "github.com/okian/heroes/internal/app"
	"github.com/okian/heroes/pkg/logger"
)

var errSeedIncomplete = errors.New("some heroes were not created")

func (c *cli) seedCommand() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Create every hero listed in a YAML file",
		Long: `seed reads a YAML document of the form

  heroes:
    - Mr. Nice
    - Narco

and creates each hero through the backend using a pool of workers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			heroes, err := service.LoadSeedFile(args[0])
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = c.cfg.SeedWorkers
			}
			s, err := c.newSession()
			if err != nil {
				return err
			}
			report, err := service.Seed(cmd.Context(), s.client, heroes, workers, logger.Named("seed"))
			if err != nil {
				return err
			}
			// failures are in the report; the client's own diagnostics only get printed
			_ = c.finish(s)

			if c.format == formatJSON {
				if err := c.printJSON(report); err != nil {
					return err
				}
			} else {
				if err := c.printHeroes(report.Created); err != nil {
					return err
				}
				if len(report.Failed) > 0 {
					tw := tabwriter.NewWriter(c.errOut, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "SEQ\tNAME\tERROR")
					for _, f := range report.Failed {
						fmt.Fprintf(tw, "%d\t%s\t%s\n", f.Seq, f.Name, f.Error)
					}
					if err := tw.Flush(); err != nil {
						return err
					}
				}
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%w: %d of %d", errSeedIncomplete, len(report.Failed), len(heroes))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of workers (defaults to seed_workers)")
	return cmd
}
