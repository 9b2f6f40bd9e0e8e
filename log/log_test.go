// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContextFollowsDefault(t *testing.T) {
	logger := WithContext("pkg", "test")

	var buf bytes.Buffer
	h, err := NewHandler(&buf, FormatJSON, LevelInfo, false)
	require.NoError(t, err)
	SetDefault(h)
	defer SetDefault(DiscardHandler())

	logger.Info("staked", "amount", 10)
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `"pkg":"test"`)
	assert.Contains(t, out, `"msg":"staked"`)
	assert.NotContains(t, out, "hidden")

	buf.Reset()
	logger.With("account", "alice").Warn("cooldown")
	assert.Contains(t, buf.String(), `"account":"alice"`)
	assert.Contains(t, buf.String(), `"pkg":"test"`)
}

func TestNewHandler(t *testing.T) {
	for _, format := range []string{"", FormatTerminal, FormatJSON, FormatLogfmt} {
		h, err := NewHandler(&bytes.Buffer{}, format, LevelInfo, false)
		assert.NoError(t, err, format)
		assert.True(t, h.Enabled(context.Background(), LevelWarn), format)
		assert.False(t, h.Enabled(context.Background(), LevelDebug), format)
	}
	_, err := NewHandler(&bytes.Buffer{}, "xml", LevelInfo, false)
	assert.Error(t, err)
}

func TestLevelVar(t *testing.T) {
	var lvl slog.LevelVar
	lvl.Set(LevelWarn)
	h, err := NewHandler(&bytes.Buffer{}, FormatTerminal, &lvl, false)
	require.NoError(t, err)
	assert.False(t, h.Enabled(context.Background(), LevelInfo))

	lvl.Set(LevelTrace)
	assert.True(t, h.Enabled(context.Background(), LevelTrace))
	assert.True(t, h.WithAttrs([]slog.Attr{slog.String("k", "v")}).Enabled(context.Background(), LevelDebug))
}

func TestFromVerbosity(t *testing.T) {
	assert.Equal(t, LevelCrit, FromVerbosity(-1))
	assert.Equal(t, LevelInfo, FromVerbosity(3))
	assert.Equal(t, LevelTrace, FromVerbosity(9))
}

func TestDiscardHandler(t *testing.T) {
	h := DiscardHandler()
	assert.False(t, h.Enabled(context.Background(), LevelCrit))
	assert.NotNil(t, h.WithAttrs(nil))
	assert.NotNil(t, h.WithGroup("g"))
}
