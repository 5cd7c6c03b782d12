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
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"SectorShooter/overlay"
	"SectorShooter/world"
)

// Game збирає світ, рівень і оверлей з конфігу і крутить їх
type Game struct {
	log *zap.Logger

	config Config

	levels  world.LevelProvider
	world   *world.World
	overlay *overlay.Hub // nil якщо оверлей вимкнений
}

func NewGame(log *zap.Logger, config Config) (*Game, error) {
	levels := world.NewLevelProvider(config.LevelDir)
	w, err := createWorld(log, &levels, &config)
	if err != nil {
		return nil, err
	}

	g := &Game{
		log:    log.Named("game"),
		config: config,
		levels: levels,
		world:  w,
	}
	if config.OverlayAddress != "" {
		g.overlay = overlay.NewHub(log.Named("overlay"), config.OverlayLimiter.Limiter())
		w.AddViewer(g.overlay)
	}
	return g, nil
}

// World - світ гри, для запитів ззовні
func (g *Game) World() *world.World { return g.world }

// Йоу, чат! Зараз розберемо як створюється світ!
// createWorld бере стіни з файлу рівня, потім стіни з конфігу, і спавнить стартові тіла
func createWorld(logger *zap.Logger, levels *world.LevelProvider, config *Config) (*world.World, error) {
	w := world.New(logger.Named("world"), config.WorldConfig())

	var walls []world.Wall
	if config.LevelName != "" {
		lv, err := levels.GetLevel(config.LevelName)
		if err != nil {
			return nil, fmt.Errorf("load level: %w", err)
		}
		walls = lv
	}
	walls = append(walls, config.WallList()...)
	if err := w.LoadWalls(walls); err != nil {
		return nil, fmt.Errorf("load walls: %w", err)
	}

	for i, s := range config.Spawns {
		_, err := w.Spawn(s.Kind, s.Position, s.Velocity, s.HalfSize)
		if err != nil {
			return nil, fmt.Errorf("spawn #%d (%v): %w", i, s.Kind, err)
		}
	}

	st := w.Stats()
	logger.Info("World created",
		zap.String("level", config.LevelName),
		zap.Int("walls", st.Walls),
		zap.Int("bodies", st.Bodies),
		zap.Int("height", st.Height),
	)
	return w, nil
}

// Run крутить тіки і оверлей, поки не скасують ctx.
// Якщо один з них впав, зупиняємо й інший.
func (g *Game) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return g.world.Run(ctx, g.config.TickRate.Limiter())
	})
	if g.overlay != nil {
		eg.Go(func() error {
			if err := g.overlay.Serve(ctx, g.config.OverlayAddress); err != nil {
				return fmt.Errorf("overlay: %w", err)
			}
			return nil
		})
	}
	return eg.Wait()
}
