// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the keyed ledger shared by the vault and the assets.
// It follows the flow as bellow:
//
//	         o
//	         |
//	[ exec frame (ctx) ] <-- nested calls push checkpoints
//	         |
//	  [ stacked map ] -> [ journal ] -> [ batch ] -> [ kv store ]
//	         |
//	   [ kv store ]
//
// Only the outermost frame holds the lock and commits. A call carrying the
// frame in its context re-enters without locking and observes every write
// made so far by the outer call.
package state
