// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BunsDev/avalanche-teleporter/tele"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
subnetID: "0x0000000000000000000000000000000000000000000000000000000000000001"
minimumStakeWeight: 5
maximumStakeWeight: 500
maximumHourlyChurn: 20
initialStake: "100000000000000"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, tele.MustParseBytes32("0x0000000000000000000000000000000000000000000000000000000000000001"), cfg.SubnetID)
	assert.Equal(t, uint64(5), cfg.MinimumStakeWeight)
	assert.Equal(t, uint64(500), cfg.MaximumStakeWeight)
	assert.Equal(t, uint64(20), cfg.MaximumHourlyChurn)
	assert.Equal(t, big.NewInt(100_000_000_000_000), cfg.InitialStake)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"zero subnet": `
subnetID: "0x0000000000000000000000000000000000000000000000000000000000000000"
minimumStakeWeight: 5
maximumStakeWeight: 500
maximumHourlyChurn: 20
initialStake: "1000000000000"
`,
		"max below min": `
subnetID: "0x0000000000000000000000000000000000000000000000000000000000000001"
minimumStakeWeight: 5
maximumStakeWeight: 4
maximumHourlyChurn: 20
initialStake: "1000000000000"
`,
		"fractional initial stake": `
subnetID: "0x0000000000000000000000000000000000000000000000000000000000000001"
minimumStakeWeight: 5
maximumStakeWeight: 500
maximumHourlyChurn: 20
initialStake: "1000000000001"
`,
		"churn above 100": `
subnetID: "0x0000000000000000000000000000000000000000000000000000000000000001"
minimumStakeWeight: 5
maximumStakeWeight: 500
maximumHourlyChurn: 101
initialStake: "1000000000000"
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}
