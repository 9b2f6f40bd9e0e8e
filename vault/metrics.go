// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import "github.com/vechain/stakevault/metrics"

var (
	metricOpCount      = metrics.LazyLoadCounterVec("vault_op_count", []string{"op", "result"})
	metricOpDurationMs = metrics.LazyLoadHistogramVec("vault_op_duration_ms", []string{"op"}, metrics.Bucket10s)
)
