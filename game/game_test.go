// This file is part of go-mc/server project.
// Copyright (C) 2023.  Tnze
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"SectorShooter/world"
)

func testConfig(t *testing.T) Config {
	c, err := ReadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	return c
}

func TestNewGame(t *testing.T) {
	c := testConfig(t)
	c.LevelDir = t.TempDir()
	c.LevelName = "e1m1"

	levels := world.NewLevelProvider(c.LevelDir)
	require.NoError(t, levels.PutLevel("e1m1", []world.Wall{
		{A: world.Vec2{0, 50}, B: world.Vec2{100, 50}},
		{A: world.Vec2{50, 0}, B: world.Vec2{50, 40}},
	}))

	g, err := NewGame(zaptest.NewLogger(t), c)
	require.NoError(t, err)
	assert.Nil(t, g.overlay)

	st := g.World().Stats()
	assert.Equal(t, 3, st.Walls)
	assert.Equal(t, 1, st.Bodies)
	require.NoError(t, g.World().Validate())

	// стіни з файлу йдуть першими
	wall, ok := g.World().Wall(0)
	require.True(t, ok)
	assert.Equal(t, world.Vec2{0, 50}, wall.A)
	wall, ok = g.World().Wall(2)
	require.True(t, ok)
	assert.Equal(t, world.Vec2{100, 0}, wall.B)
}

func TestNewGame_MissingLevel(t *testing.T) {
	c := testConfig(t)
	c.LevelDir = t.TempDir()
	c.LevelName = "nope"

	_, err := NewGame(zaptest.NewLogger(t), c)
	assert.ErrorIs(t, err, world.ErrLevelNotExist)
}

func TestNewGame_BadSpawn(t *testing.T) {
	c := testConfig(t)
	c.Spawns = append(c.Spawns, Spawn{Kind: world.BodyMissile, HalfSize: [2]float64{-1, 1}})

	_, err := NewGame(zaptest.NewLogger(t), c)
	assert.ErrorIs(t, err, world.ErrInvalidBody)
}

func TestGame_Run(t *testing.T) {
	c := testConfig(t)
	c.TickRate = Limiter{Every: duration{time.Millisecond}, N: 1}
	c.OverlayAddress = "127.0.0.1:0"
	c.OverlayLimiter = Limiter{Every: duration{time.Second}, N: 1}

	g, err := NewGame(zaptest.NewLogger(t), c)
	require.NoError(t, err)
	require.NotNil(t, g.overlay)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	require.Eventually(t, func() bool { return g.World().Stats().Tick >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}
