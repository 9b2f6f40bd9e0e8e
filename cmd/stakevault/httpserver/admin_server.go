// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"log/slog"
	"sync/atomic"

	"github.com/vechain/stakevault/api/admin"
	"github.com/vechain/stakevault/health"
)

func StartAdminServer(
	addr string,
	logLevel *slog.LevelVar,
	apiLogs *atomic.Bool,
	h *health.Health,
) (string, func(), error) {
	url, stop, err := serve("admin API", addr, admin.New(logLevel, apiLogs, h))
	if err != nil {
		return "", nil, err
	}
	return url + "/admin", stop, nil
}
