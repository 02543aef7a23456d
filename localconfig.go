package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/TxnLab/farm/internal/lib/bank"
	"github.com/TxnLab/farm/internal/lib/farm"
)

var ErrNotInitialized = errors.New("farm not initialized, run 'farm init' first")

// LocalState is everything persisted between CLI invocations: the farm ledger and the in-memory bank it
// settles against.
type LocalState struct {
	RewardAsset string                       `json:"rewardAsset"`
	Farm        farm.State                   `json:"farm"`
	Balances    map[string]map[string]uint64 `json:"balances"`
}

func StateFilename() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, "farm", "state.json"), nil
}

// JournalFilename is the default journal location for a state file.
func JournalFilename(statePath string) string {
	return filepath.Join(filepath.Dir(statePath), "journal.db")
}

// SaveState writes state to path by first writing a temp file in the same directory and then renaming it over
// the old file, so a failed write never leaves a partial state behind.
func SaveState(path string, state *LocalState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0775); err != nil {
		return fmt.Errorf("error making directory:%s, error:%w", filepath.Dir(path), err)
	}
	temp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(temp)
	encoder.SetIndent("", "  ")
	if err = encoder.Encode(state); err != nil {
		_ = temp.Close()
		_ = os.Remove(temp.Name())
		return fmt.Errorf("error saving state: %w", err)
	}
	if err = temp.Close(); err != nil {
		_ = os.Remove(temp.Name())
		return err
	}
	if err = os.Rename(temp.Name(), path); err != nil {
		return err
	}
	slog.Debug("state saved", "file", path)
	return nil
}

func LoadState(path string) (*LocalState, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, err
	}
	defer file.Close()

	var state LocalState
	if err = json.NewDecoder(file).Decode(&state); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &state, nil
}

// Open rebuilds the live farm and bank from the persisted state.
func (s *LocalState) Open(logger *slog.Logger) (*farm.Farm, *bank.Ledger, error) {
	ledger := bank.Restore(s.Balances)
	f, err := farm.Restore(s.Farm, farm.Deps{
		Custody:  bank.NewCustody(ledger, s.Farm.Config.Custody),
		Issuer:   bank.NewIssuer(ledger, s.RewardAsset),
		Reverter: ledger,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return f, ledger, nil
}

// Capture replaces the persisted state with the current farm and bank.
func (s *LocalState) Capture(f *farm.Farm, ledger *bank.Ledger) {
	s.Farm = f.Snapshot()
	s.Balances = ledger.Balances()
}
