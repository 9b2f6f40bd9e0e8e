// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

type discardHandler struct{}

// DiscardHandler returns a no-op handler
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (h *discardHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return false
}

func (h *discardHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *discardHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return &discardHandler{}
}

// Output formats.
const (
	FormatTerminal = "terminal"
	FormatJSON     = "json"
	FormatLogfmt   = "logfmt"
)

// NewHandler returns a handler writing records at or above lvl to wr in the given format.
// lvl may be a *slog.LevelVar to change the level at runtime. useColor only applies to the
// terminal format.
func NewHandler(wr io.Writer, format string, lvl slog.Leveler, useColor bool) (slog.Handler, error) {
	var h slog.Handler
	switch format {
	case "", FormatTerminal:
		h = ethlog.NewTerminalHandlerWithLevel(wr, LevelTrace, useColor)
	case FormatJSON:
		h = ethlog.JSONHandlerWithLevel(wr, LevelTrace)
	case FormatLogfmt:
		h = ethlog.LogfmtHandlerWithLevel(wr, LevelTrace)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return &levelHandler{h, lvl}, nil
}

// levelHandler filters records below a level that may change.
type levelHandler struct {
	slog.Handler
	lvl slog.Leveler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.lvl.Level() && h.Handler.Enabled(ctx, level)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{h.Handler.WithAttrs(attrs), h.lvl}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{h.Handler.WithGroup(name), h.lvl}
}

// FromVerbosity maps the conventional 0-5 verbosity (crit..trace) to a level.
func FromVerbosity(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return LevelCrit
	case verbosity == 1:
		return LevelError
	case verbosity == 2:
		return LevelWarn
	case verbosity == 3:
		return LevelInfo
	case verbosity == 4:
		return LevelDebug
	default:
		return LevelTrace
	}
}
