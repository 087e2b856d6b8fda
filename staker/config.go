// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/BunsDev/avalanche-teleporter/tele"
)

// Config is the process-wide manager configuration, fixed at construction.
// Stake bounds are expressed in weight units, the unit carried in
// cross-chain messages. InitialStake is a collateral value and must be an
// exact multiple of tele.WeightFactor.
type Config struct {
	SubnetID           tele.Bytes32
	MinimumStakeWeight uint64
	MaximumStakeWeight uint64
	MaximumHourlyChurn uint64 // percent of the initial stake, per rolling hour
	InitialStake       *big.Int
}

// Validate checks internal consistency.
func (c *Config) Validate() error {
	if c.SubnetID.IsZero() {
		return errors.New("subnet id must not be zero")
	}
	if c.MinimumStakeWeight == 0 {
		return errors.New("minimum stake weight must be positive")
	}
	if c.MaximumStakeWeight < c.MinimumStakeWeight {
		return errors.New("maximum stake weight below minimum")
	}
	if c.MaximumHourlyChurn > 100 {
		return errors.New("hourly churn percent above 100")
	}
	if c.InitialStake == nil || c.InitialStake.Sign() <= 0 {
		return errors.New("initial stake must be positive")
	}
	if new(big.Int).Mod(c.InitialStake, tele.WeightFactor).Sign() != 0 {
		return errors.New("initial stake must be a multiple of the weight factor")
	}
	return nil
}

// fileConfig is the yaml shape of Config.
type fileConfig struct {
	SubnetID           string `yaml:"subnetID"`
	MinimumStakeWeight uint64 `yaml:"minimumStakeWeight"`
	MaximumStakeWeight uint64 `yaml:"maximumStakeWeight"`
	MaximumHourlyChurn uint64 `yaml:"maximumHourlyChurn"`
	InitialStake       string `yaml:"initialStake"` // decimal, collateral units
}

// LoadConfig reads and validates a yaml config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	subnetID, err := tele.ParseBytes32(fc.SubnetID)
	if err != nil {
		return nil, errors.Wrap(err, "parse subnetID")
	}
	initialStake, ok := new(big.Int).SetString(fc.InitialStake, 10)
	if !ok {
		return nil, errors.New("parse initialStake: not a decimal number")
	}

	cfg := &Config{
		SubnetID:           subnetID,
		MinimumStakeWeight: fc.MinimumStakeWeight,
		MaximumStakeWeight: fc.MaximumStakeWeight,
		MaximumHourlyChurn: fc.MaximumHourlyChurn,
		InitialStake:       initialStake,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
