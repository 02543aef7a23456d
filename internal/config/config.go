// Package config loads the genesis configuration a farm is initialized from.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/TxnLab/farm/internal/lib/farm"
)

const (
	DefaultRewardAsset = "REWARD"
	DefaultCustody     = "farm"
)

var ErrInvalidGenesis = errors.New("invalid genesis")

// Genesis describes a new farm: its emission schedule, privileged accounts, the pools to create and the
// balances to seed into the in-memory bank.
type Genesis struct {
	RewardAsset    string        `yaml:"rewardAsset"`
	RewardPerTick  uint64        `yaml:"rewardPerTick"`
	StartClock     uint64        `yaml:"startClock"`
	Owner          string        `yaml:"owner"`
	DevBeneficiary string        `yaml:"devBeneficiary"`
	FeeBeneficiary string        `yaml:"feeBeneficiary"`
	Custody        string        `yaml:"custody"`
	Pools          []GenesisPool `yaml:"pools"`
	// Faucet maps account -> asset -> amount credited at init.
	Faucet map[string]map[string]uint64 `yaml:"faucet"`
}

type GenesisPool struct {
	Asset         string `yaml:"asset"`
	AllocWeight   uint64 `yaml:"allocWeight"`
	DepositFeeBps uint64 `yaml:"depositFeeBps"`
}

// Load reads the genesis file at path (no file when path is empty), then applies FARM_* environment
// overrides and defaults, and validates the result.
func Load(path string) (Genesis, error) {
	var g Genesis
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Genesis{}, fmt.Errorf("reading genesis: %w", err)
		}
		if g, err = Parse(data); err != nil {
			return Genesis{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := g.applyEnv(os.LookupEnv); err != nil {
		return Genesis{}, err
	}
	g.ApplyDefaults()
	if err := g.Validate(); err != nil {
		return Genesis{}, err
	}
	return g, nil
}

// Parse decodes a YAML genesis document, rejecting unknown keys.
func Parse(data []byte) (Genesis, error) {
	var g Genesis
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil && !errors.Is(err, io.EOF) {
		return Genesis{}, fmt.Errorf("%w: %w", ErrInvalidGenesis, err)
	}
	return g, nil
}

func (g *Genesis) applyEnv(lookup func(string) (string, bool)) error {
	for _, o := range []struct {
		env string
		num *uint64
		str *string
	}{
		{env: "FARM_REWARD_PER_TICK", num: &g.RewardPerTick},
		{env: "FARM_START_CLOCK", num: &g.StartClock},
		{env: "FARM_OWNER", str: &g.Owner},
		{env: "FARM_DEV", str: &g.DevBeneficiary},
		{env: "FARM_FEE", str: &g.FeeBeneficiary},
	} {
		val, ok := lookup(o.env)
		if !ok || val == "" {
			continue
		}
		if o.str != nil {
			*o.str = val
			continue
		}
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidGenesis, o.env, val, err)
		}
		*o.num = n
	}
	return nil
}

// ApplyDefaults fills unset fields. Beneficiaries default to the owner.
func (g *Genesis) ApplyDefaults() {
	if g.RewardAsset == "" {
		g.RewardAsset = DefaultRewardAsset
	}
	if g.Custody == "" {
		g.Custody = DefaultCustody
	}
	if g.DevBeneficiary == "" {
		g.DevBeneficiary = g.Owner
	}
	if g.FeeBeneficiary == "" {
		g.FeeBeneficiary = g.Owner
	}
}

func (g Genesis) Validate() error {
	if g.Owner == "" {
		return fmt.Errorf("%w: owner must be set", ErrInvalidGenesis)
	}
	if g.Custody == g.Owner || g.Custody == g.DevBeneficiary || g.Custody == g.FeeBeneficiary {
		return fmt.Errorf("%w: custody account %q must not be a privileged account", ErrInvalidGenesis, g.Custody)
	}
	for i, p := range g.Pools {
		if p.Asset == "" {
			return fmt.Errorf("%w: pool %d has no asset", ErrInvalidGenesis, i)
		}
		if p.Asset == g.RewardAsset {
			return fmt.Errorf("%w: pool %d stakes the reward asset", ErrInvalidGenesis, i)
		}
		if p.DepositFeeBps > farm.MaxDepositFeeBps {
			return fmt.Errorf("%w: pool %d fee %d bps", ErrInvalidGenesis, i, p.DepositFeeBps)
		}
	}
	return nil
}

// FarmConfig is the farm configuration for this genesis. The total weight is derived once pools are added.
func (g Genesis) FarmConfig() farm.Config {
	return farm.Config{
		RewardPerTick:  g.RewardPerTick,
		StartClock:     g.StartClock,
		Owner:          g.Owner,
		DevBeneficiary: g.DevBeneficiary,
		FeeBeneficiary: g.FeeBeneficiary,
		Custody:        g.Custody,
	}
}

// Write encodes g as YAML to path.
func (g Genesis) Write(path string) error {
	data, err := yaml.Marshal(g)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
