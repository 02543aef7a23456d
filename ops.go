package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/TxnLab/farm/internal/lib/bank"
	"github.com/TxnLab/farm/internal/lib/farm"
	"github.com/TxnLab/farm/internal/lib/journal"
	"github.com/TxnLab/farm/internal/lib/misc"
)

// numbers formats amounts with digit grouping in tables.
var numbers = message.NewPrinter(language.English)

// session is the farm and bank loaded for one command.
type session struct {
	state *LocalState
	farm  *farm.Farm
	bank  *bank.Ledger
}

func (ac *FarmApp) load() (*session, error) {
	state, err := LoadState(ac.statePath)
	if err != nil {
		return nil, err
	}
	f, ledger, err := state.Open(ac.logger)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", ac.statePath, err)
	}
	return &session{state: state, farm: f, bank: ledger}, nil
}

// mutate runs fn against the loaded farm, journals the outcome and persists the new state only when fn
// succeeded.
func (ac *FarmApp) mutate(ctx context.Context, op, caller string, args map[string]any, fn func(s *session) error) error {
	s, err := ac.load()
	if err != nil {
		return err
	}
	opErr := fn(s)

	entry := journal.Entry{Clock: s.farm.Clock(), Op: op, Caller: caller, Args: args}
	if opErr != nil {
		entry.Err = opErr.Error()
	}
	if _, err = ac.journal.Record(ctx, entry); err != nil {
		misc.Warnf(ac.logger, "journal write of %s failed: %v", op, err)
	}
	if opErr != nil {
		return opErr
	}
	s.state.Capture(s.farm, s.bank)
	return SaveState(ac.statePath, s.state)
}

func asFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "as",
		Usage:    "Account the operation is performed as",
		Sources:  cli.EnvVars("FARM_AS"),
		Required: true,
	}
}

func clockFlag() cli.Flag {
	return &cli.UintFlag{
		Name:     "clock",
		Usage:    "External clock (tick) the operation happens at. Must not be lower than the last one used",
		Required: true,
	}
}

func poolFlag() cli.Flag {
	return &cli.UintFlag{
		Name:     "pool",
		Usage:    "Pool ID (the number in 'pool list')",
		Required: true,
	}
}

func amountFlag(usage string) cli.Flag {
	return &cli.UintFlag{
		Name:     "amount",
		Usage:    usage,
		Required: true,
	}
}
