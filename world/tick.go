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

// Йоу, чат! Сьогодні ми розберемо як працює система тіків!
// Тік - це один крок симуляції: всі тіла зсуваються на свою швидкість,
// дерево дізнається про нові AABB, а ті, хто вилетів за карту, зникають.
// Раз на кілька тіків спостерігачі отримують свіжий знімок дерева.

package world

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Run крутить тіки, поки не скасують ctx. Темп задає limiter.
func (w *World) Run(ctx context.Context, limiter *rate.Limiter) error {
	w.log.Info("Tick loop start", zap.Float64("rate", float64(limiter.Limit())))
	defer w.log.Info("Tick loop stop")
	for {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		w.Tick()
	}
}

// Tick виконує один крок симуляції
func (w *World) Tick() {
	w.lock.Lock()
	w.ticks++
	n := w.ticks

	w.subtickMoveBodies()
	w.subtickDespawnOutside()
	if w.config.CheckInvariants {
		if err := w.tree.Validate(); err != nil {
			w.lock.Unlock()
			w.log.Panic("Collision tree is broken", zap.Uint64("tick", n), zap.Error(err))
		}
	}

	var snapshot *Snapshot
	if every := w.config.SnapshotEvery; every > 0 && n%uint64(every) == 0 && !w.viewers.empty() {
		snapshot = w.snapshot()
	}
	if n%256 == 0 {
		st := w.stats()
		w.log.Debug("Tick stats",
			zap.Uint64("tick", st.Tick),
			zap.Int("bodies", st.Bodies),
			zap.Int("nodes", st.Nodes),
			zap.Int("height", st.Height),
		)
	}
	w.lock.Unlock()

	// спостерігачі можуть бути повільними, тому знімок роздаємо без блокування світу
	if snapshot != nil {
		w.viewers.broadcast(snapshot)
	}
}

// subtickMoveBodies зсуває тіла на їх швидкість і оновлює листи дерева.
// Поки тіло лишається в своєму товстому AABB, дерево не змінюється.
func (w *World) subtickMoveBodies() {
	for _, b := range w.bodies {
		if b.Velocity == (Vec2{}) {
			continue
		}
		old := b.Position
		b.Position = b.Position.Add(b.Velocity)
		// позиція може бути скінченною, а pos±half вже переповнитись в Inf
		if !b.Position.IsValid() || !w.tree.UpdateBounds(b.handle, b.bounds()) {
			w.log.Info("Body move invalid",
				zap.Int32("id", b.EntityID),
				zap.Float64s("position", b.Position[:]),
			)
			b.Position = old
			b.Velocity = Vec2{}
		}
	}
}

// subtickDespawnOutside прибирає тіла, що вилетіли за межі світу
func (w *World) subtickDespawnOutside() {
	bounds := w.config.Bounds
	if bounds == (Box{}) {
		return
	}
	var gone []int32
	for id, b := range w.bodies {
		if !bounds.Touch(b.bounds()) {
			gone = append(gone, id)
		}
	}
	for _, id := range gone {
		w.despawn(id)
		w.log.Debug("Body left the world", zap.Int32("id", id))
	}
}
