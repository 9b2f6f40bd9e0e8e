// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem(t *testing.T) {
	before := uint64(time.Now().Unix())
	now := System{}.Now()
	assert.GreaterOrEqual(t, now, before)
	assert.LessOrEqual(t, now, uint64(time.Now().Unix()))
}

func TestMock(t *testing.T) {
	var c Clock = NewMock(1000)
	m := c.(*Mock)

	assert.Equal(t, uint64(1000), c.Now())
	assert.Equal(t, uint64(4600), m.Add(3600))
	assert.Equal(t, uint64(4600), c.Now())

	m.Set(10)
	assert.Equal(t, uint64(10), c.Now())
}
