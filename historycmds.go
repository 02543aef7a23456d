package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/TxnLab/farm/internal/lib/journal"
)

func GetHistoryCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"h"},
		Usage:   "List journaled operations",
		Action:  History,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "op",
				Usage: "Only operations of this kind, ie: deposit",
			},
			&cli.StringFlag{
				Name:  "caller",
				Usage: "Only operations performed as this account",
			},
			&cli.BoolFlag{
				Name:  "failed",
				Usage: "Only operations that were rejected",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Show at most this many of the most recent operations",
				Value: 50,
			},
		},
	}
}

func History(ctx context.Context, command *cli.Command) error {
	entries, err := App.journal.History(ctx, journal.Filter{
		Op:         command.String("op"),
		Caller:     command.String("caller"),
		FailedOnly: command.Bool("failed"),
		Limit:      int(command.Int("limit")),
	})
	if err != nil {
		return err
	}

	out := new(strings.Builder)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Recorded\tClock\tOperation\tCaller\tArgs\tOutcome\t")
	for _, e := range entries {
		args, _ := json.Marshal(e.Args)
		outcome := "ok"
		if e.Failed() {
			outcome = e.Err
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t\n", e.Recorded.UTC().Format(time.RFC3339), e.Clock, e.Op, e.Caller,
			args, outcome)
	}
	tw.Flush()
	fmt.Print(out.String())
	return nil
}
