// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakevault/genesis"
	"github.com/vechain/stakevault/log"
	"github.com/vechain/stakevault/logdb"
	"github.com/vechain/stakevault/lvldb"
	"github.com/vechain/stakevault/thor"
)

func initLogger(ctx *cli.Context) (*slog.LevelVar, error) {
	verbosity, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		return nil, errors.WithMessage(err, verbosityFlag.Name)
	}
	var level slog.LevelVar
	level.Set(log.FromVerbosity(verbosity))

	useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	handler, err := log.NewHandler(os.Stderr, ctx.String(logFormatFlag.Name), &level, useColor)
	if err != nil {
		return nil, errors.WithMessage(err, logFormatFlag.Name)
	}
	log.SetDefault(handler)
	return &level, nil
}

func loadGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	path := ctx.String(configFlag.Name)
	if path == "" {
		return nil, fmt.Errorf("genesis file required, use --%s to specify or run the solo sub-command", configFlag.Name)
	}
	return genesis.Load(path)
}

func makeDataDir(ctx *cli.Context) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", fmt.Errorf("unable to infer default data dir, use --%s to specify", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	return dataDir, nil
}

func makeInstanceDir(ctx *cli.Context, genesisID thor.Bytes32) (string, error) {
	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return "", err
	}

	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", genesisID.Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create instance dir [%v]", instanceDir)
	}
	return instanceDir, nil
}

func openMainDB(ctx *cli.Context, dataDir string) (*lvldb.LevelDB, error) {
	cacheMB, err := readIntFromUInt64Flag(ctx.Uint64(cacheFlag.Name))
	if err != nil {
		return nil, errors.WithMessage(err, cacheFlag.Name)
	}
	cacheMB = normalizeCacheSize(cacheMB)
	logger.Debug("cache size(MB)", "size", cacheMB)

	// Ensure Go's GC ignores the database cache for trigger percentage
	gogc := math.Max(20, math.Min(100, 100/(float64(cacheMB)/1024)))
	logger.Debug("sanitize Go's GC trigger", "percent", int(gogc))
	debug.SetGCPercent(int(gogc))

	fdCache := suggestFDCache()
	logger.Debug("fd cache", "n", fdCache)

	dir := filepath.Join(dataDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: fdCache,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", dir)
	}
	return db, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() int {
	limit, err := fdlimit.Current()
	if err != nil {
		logger.Warn("failed to get fd limit", "err", err)
		return 500
	}
	if limit <= 1024 {
		logger.Warn("low fd limit, increase it if possible", "limit", limit)
	}

	n := limit / 2
	if n > 5120 {
		return 5120
	}
	return n
}

func openLogDB(dataDir string) (*logdb.LogDB, error) {
	dir := filepath.Join(dataDir, "logs.db")
	db, err := logdb.New(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open log database [%v]", dir)
	}
	return db, nil
}

func printStartupMessage(ledger *genesis.Ledger, gen *genesis.Genesis, dataDir string, apiURL string) {
	fmt.Printf(`Starting %v
    Genesis      [ %v ]
    Vault        [ %v ]
    Owner        [ %v ]
    Assets       [ %v / %v ]
    Instance dir [ %v ]
    API portal   [ %v ]
`,
		common.MakeName("StakeVault", fullVersion()),
		ledger.ID,
		gen.Vault.Address,
		gen.Vault.Owner,
		gen.Vault.PrincipalAsset, gen.Vault.RewardAsset,
		dataDir,
		apiURL)
}

func printSoloStartupMessage(ledger *genesis.Ledger, dataDir string, apiURL string) {
	tableHead := `
┌────────────────────────────────────────────┬────────────────────────────────────────────────────────────────────┐
│                   Address                  │                             Private Key                            │`
	tableContent := `
├────────────────────────────────────────────┼────────────────────────────────────────────────────────────────────┤
│ %v │ %v │`
	tableEnd := `
└────────────────────────────────────────────┴────────────────────────────────────────────────────────────────────┘`

	var tokens string
	for _, t := range ledger.Registry.Tokens() {
		tokens += fmt.Sprintf("\n    %-12v [ %v ]", t.Info().Symbol, t.Address())
	}

	info := fmt.Sprintf(`Starting %v
    Genesis     [ %v ]
    Vault       [ %v ]%v
    Data dir    [ %v ]
    API portal  [ %v ]`,
		common.MakeName("StakeVault solo", fullVersion()),
		ledger.ID,
		ledger.Vault.Address(),
		tokens,
		dataDir,
		apiURL)

	info += tableHead
	for _, a := range genesis.DevAccounts() {
		info += fmt.Sprintf(tableContent,
			a.Address,
			thor.BytesToBytes32(crypto.FromECDSA(a.PrivateKey)),
		)
	}
	info += tableEnd + "\r\n"

	fmt.Print(info)
}

const ntpCheckInterval = 10 * time.Minute

// followClockOffset reports the system clock offset to h until ctx is done.
func followClockOffset(ctx context.Context, h clockOffsetRecorder) {
	ticker := time.NewTicker(ntpCheckInterval)
	defer ticker.Stop()
	for {
		if offset, err := queryClockOffset(); err != nil {
			logger.Debug("failed to access NTP", "err", err)
		} else {
			h.ClockOffset(offset)
			if offset > maxClockOffset || offset < -maxClockOffset {
				logger.Warn("clock offset detected", "offset", common.PrettyDuration(offset))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
