package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/nulzo/polymage/internal/cli"
	"github.com/nulzo/polymage/internal/store"
	"github.com/nulzo/polymage/internal/store/sqlite"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show invocations recorded by the gateway",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().String("db", "", "History database (default: store.path)")
	historyCmd.Flags().IntP("limit", "n", 20, "Number of invocations to show")
	historyCmd.Flags().Bool("stats", false, "Aggregate per platform and model")
	historyCmd.Flags().Bool("json", false, "Print JSON instead of a table")
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = app.cfg.Store.Path
	}
	if path == "" {
		return errors.New("no history database: set store.path or pass --db")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	stats, _ := cmd.Flags().GetBool("stats")
	asJSON, _ := cmd.Flags().GetBool("json")

	repo, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer repo.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	if stats {
		rows, err := repo.Invocations().Stats(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			if rows == nil {
				rows = []store.ModelStats{}
			}
			cli.PrettyPrint(rows)
			return nil
		}
		fmt.Fprintln(w, cli.Style("PLATFORM\tMODEL\tTOTAL\tFAILURES\tAVG LATENCY", cli.Bold))
		for _, s := range rows {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.0fms\n", s.Platform, s.Model, s.Total, s.Failures, s.AvgLatencyMS)
		}
		return w.Flush()
	}

	rows, err := repo.Invocations().Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if asJSON {
		if rows == nil {
			rows = []store.Invocation{}
		}
		cli.PrettyPrint(rows)
		return nil
	}
	fmt.Fprintln(w, cli.Style("TIME\tPLATFORM\tMODEL\tCAPABILITY\tSTATUS\tLATENCY", cli.Bold))
	for _, inv := range rows {
		status := cli.Style(fmt.Sprint(inv.StatusCode), cli.Green)
		if inv.StatusCode >= 400 {
			status = cli.Style(fmt.Sprint(inv.StatusCode), cli.Red)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%dms\n",
			inv.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			inv.Platform, inv.Model, inv.Capability, status, inv.LatencyMS)
	}
	return w.Flush()
}
