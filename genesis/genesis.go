// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakevault/asset"
	"github.com/vechain/stakevault/thor"
	"github.com/vechain/stakevault/timelock"
)

// Genesis describes the initial ledger: the tokens, their holders and the vault.
type Genesis struct {
	Assets []Asset `yaml:"assets"`
	Vault  Vault   `yaml:"vault"`
}

// Asset is a token and its initial allocation.
type Asset struct {
	Address    thor.Address `yaml:"address"`
	asset.Info `yaml:",inline"`
	Balances   []Balance `yaml:"balances"`
}

type Balance struct {
	Address thor.Address          `yaml:"address"`
	Amount  *math.HexOrDecimal256 `yaml:"amount"`
	// Approve pre-approves the vault to pull the whole amount.
	Approve bool `yaml:"approve,omitempty"`
}

// Vault is the vault configuration applied at genesis.
type Vault struct {
	Address        thor.Address    `yaml:"address"`
	Owner          thor.Address    `yaml:"owner"`
	PrincipalAsset thor.Address    `yaml:"principalAsset"`
	RewardAsset    thor.Address    `yaml:"rewardAsset"`
	AprRate        uint64          `yaml:"aprRate"`
	Policy         timelock.Policy `yaml:"policy"`
	// RewardReserve is minted to the vault in the reward asset.
	RewardReserve *math.HexOrDecimal256 `yaml:"rewardReserve"`
}

// Load reads a yaml genesis file.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	return Parse(data)
}

// Parse decodes and validates a yaml genesis. A zero policy takes the defaults.
func Parse(data []byte) (*Genesis, error) {
	var gen Genesis
	if err := yaml.Unmarshal(data, &gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	if gen.Vault.Policy == (timelock.Policy{}) {
		gen.Vault.Policy = timelock.Default()
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// Validate checks the genesis is self-consistent.
func (g *Genesis) Validate() error {
	seen := make(map[thor.Address]bool)
	for i, a := range g.Assets {
		if a.Address.IsZero() {
			return fmt.Errorf("assets[%d]: address required", i)
		}
		if seen[a.Address] {
			return fmt.Errorf("assets[%d]: duplicated address %v", i, a.Address)
		}
		seen[a.Address] = true
		for j, b := range a.Balances {
			if b.Amount == nil || (*big.Int)(b.Amount).Sign() < 1 {
				return fmt.Errorf("assets[%d].balances[%d]: amount must be a positive integer", i, j)
			}
		}
	}

	v := g.Vault
	switch {
	case v.Address.IsZero():
		return errors.New("vault.address required")
	case seen[v.Address]:
		return errors.New("vault.address collides with an asset")
	case v.Owner.IsZero():
		return errors.New("vault.owner required")
	case !seen[v.PrincipalAsset]:
		return fmt.Errorf("vault.principalAsset: unknown asset %v", v.PrincipalAsset)
	case !seen[v.RewardAsset]:
		return fmt.Errorf("vault.rewardAsset: unknown asset %v", v.RewardAsset)
	case v.RewardReserve != nil && (*big.Int)(v.RewardReserve).Sign() < 0:
		return errors.New("vault.rewardReserve must not be negative")
	}
	return errors.WithMessage(v.Policy.Validate(), "vault.policy")
}

// ID identifies the genesis content.
func (g *Genesis) ID() (thor.Bytes32, error) {
	data, err := yaml.Marshal(g)
	if err != nil {
		return thor.Bytes32{}, err
	}
	return thor.Blake2b([]byte("stakevault-genesis"), data), nil
}
