// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	ethlog "github.com/ethereum/go-ethereum/log"
)

const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = 12
)

// Logger writes key/value pairs to the root handler.
type Logger interface {
	With(ctx ...any) Logger
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
	Enabled(ctx context.Context, level slog.Level) bool
}

// bumped on every SetDefault so package level loggers pick up the new handler.
var generation atomic.Uint64

// SetDefault replaces the root handler.
func SetDefault(h slog.Handler) {
	ethlog.SetDefault(ethlog.NewLogger(h))
	generation.Add(1)
}

// WithContext returns a logger which prefixes every record with ctx.
// It follows the root handler, so it is safe to create at package init.
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx: ctx}
}

// Root returns the root logger.
func Root() Logger {
	return &contextLogger{}
}

type contextLogger struct {
	ctx []any

	mu  sync.Mutex
	gen uint64
	l   ethlog.Logger
}

func (c *contextLogger) logger() ethlog.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()

	if g := generation.Load(); c.l == nil || c.gen != g {
		c.l = ethlog.Root().With(c.ctx...)
		c.gen = g
	}
	return c.l
}

func (c *contextLogger) With(ctx ...any) Logger {
	merged := make([]any, 0, len(c.ctx)+len(ctx))
	merged = append(merged, c.ctx...)
	return &contextLogger{ctx: append(merged, ctx...)}
}

func (c *contextLogger) Trace(msg string, ctx ...any) { c.logger().Trace(msg, ctx...) }
func (c *contextLogger) Debug(msg string, ctx ...any) { c.logger().Debug(msg, ctx...) }
func (c *contextLogger) Info(msg string, ctx ...any)  { c.logger().Info(msg, ctx...) }
func (c *contextLogger) Warn(msg string, ctx ...any)  { c.logger().Warn(msg, ctx...) }
func (c *contextLogger) Error(msg string, ctx ...any) { c.logger().Error(msg, ctx...) }
func (c *contextLogger) Crit(msg string, ctx ...any)  { c.logger().Crit(msg, ctx...) }

func (c *contextLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return c.logger().Enabled(ctx, level)
}

// package level helpers, mirroring go-ethereum's log package.

func Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { ethlog.Root().Error(msg, ctx...) }
