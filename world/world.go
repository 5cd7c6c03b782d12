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

// Йоу, чат! Сьогодні ми розберемо як влаштований світ у нашій стрілялці!
// Світ тримає одне BVH дерево, в якому лежать і статичні стіни рівня,
// і всі тіла, що рухаються: гравці, монстри, ракети, частинки.
// Рух, видимість, хітскан і погляд ворогів - все питає саме це дерево.

package world

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"SectorShooter/world/internal/bvh"
)

// Геометричні типи світу. Це аліаси типів дерева, тож конвертації не потрібні.
type (
	Vec2 = bvh.Vec2[float64]
	Box  = bvh.AABB[float64]
)

// Ref - посилання на те, що знайшов запит: тіло (ID сутності) або стіну (індекс)
type (
	Ref     = bvh.Payload
	RefKind = bvh.PayloadKind
)

const (
	RefBody = bvh.KindObject
	RefWall = bvh.KindStaticEdge
)

var (
	// ErrWorldFull - в дереві скінчилися вузли (див. Config.NodeLimit)
	ErrWorldFull = errors.New("world: collision tree is full")
	// ErrInvalidBody - NaN/Inf в координатах або від'ємний розмір
	ErrInvalidBody = errors.New("world: invalid body geometry")
)

// World - колізійний світ. Одна горутина пише (тік і мутації),
// запити можуть йти паралельно з будь-яких горутин.
type World struct {
	log    *zap.Logger // логер для відлагодження
	config Config      // конфігурація світу

	lock    sync.RWMutex
	tree    *bvh.Tree
	walls   []Wall
	wallIDs []bvh.Handle
	bodies  map[int32]*Body
	ticks   uint64

	viewers viewerList // підписники на знімки дерева
}

// Config - налаштування світу
type Config struct {
	Thickness       float64 // наскільки розтовщуються AABB тіл
	NodeLimit       int     // максимум вузлів дерева, 0 - без обмеження
	Bounds          Box     // тіла, що вилетіли за ці межі, зникають. Нульовий Box - без меж
	CheckInvariants bool    // перевіряти дерево після кожного тіку
	SnapshotEvery   int     // як часто (в тіках) розсилати знімки, 0 - ніколи
}

// New створює порожній світ
func New(logger *zap.Logger, config Config) *World {
	var opts []bvh.Option
	if config.NodeLimit > 0 {
		opts = append(opts, bvh.WithNodeLimit(config.NodeLimit))
	}
	return &World{
		log:    logger,
		config: config,
		tree:   bvh.New(config.Thickness, opts...),
		bodies: make(map[int32]*Body),
	}
}

// BoxAround будує AABB з центром center і половинними розмірами half
func BoxAround(center, half Vec2) Box {
	return Box{Lower: center.Sub(half), Upper: center.Add(half)}
}

// LoadWalls додає статичні стіни рівня. Стіна з індексом i потрапляє
// в дерево з payload StaticEdge(i). Якщо хоч одна не влізла - жодна не додається.
func (w *World) LoadWalls(walls []Wall) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	first := len(w.walls)
	for i, wall := range walls {
		if !wall.A.IsValid() || !wall.B.IsValid() {
			w.rollbackWalls(first)
			return fmt.Errorf("wall %d: %w", first+i, ErrInvalidBody)
		}
		h, err := w.tree.Insert(wall.bounds(), bvh.StaticEdge(int32(first+i)))
		if err != nil {
			w.rollbackWalls(first)
			return fmt.Errorf("insert wall %d: %w", first+i, w.wrapTreeErr(err))
		}
		w.walls = append(w.walls, wall)
		w.wallIDs = append(w.wallIDs, h)
	}
	w.log.Info("Walls loaded",
		zap.Int("added", len(walls)),
		zap.Int("total", len(w.walls)),
		zap.Int("tree height", w.tree.Height()),
	)
	return nil
}

func (w *World) rollbackWalls(keep int) {
	for _, h := range w.wallIDs[keep:] {
		w.tree.Remove(h)
	}
	w.walls = w.walls[:keep]
	w.wallIDs = w.wallIDs[:keep]
}

func (w *World) wrapTreeErr(err error) error {
	if errors.Is(err, bvh.ErrAllocationFailed) {
		return fmt.Errorf("%w: %w", ErrWorldFull, err)
	}
	return err
}

// Reset прибирає всі стіни й тіла. Пам'ять дерева лишається для наступного рівня.
func (w *World) Reset() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.tree.ClearAll()
	w.walls = w.walls[:0]
	w.wallIDs = w.wallIDs[:0]
	clear(w.bodies)
	w.log.Debug("World reset")
}

// Spawn створює нове тіло і повертає його копію
func (w *World) Spawn(kind BodyKind, pos, vel, half Vec2) (Body, error) {
	b := &Body{EntityID: NewEntityID(), Kind: kind, Position: pos, Velocity: vel, HalfSize: half}
	if !b.IsValid() {
		return Body{}, ErrInvalidBody
	}

	w.lock.Lock()
	defer w.lock.Unlock()
	h, err := w.tree.Insert(b.bounds(), bvh.Object(b.EntityID))
	if err != nil {
		return Body{}, fmt.Errorf("spawn %v: %w", kind, w.wrapTreeErr(err))
	}
	b.handle = h
	w.bodies[b.EntityID] = b
	w.log.Debug("Spawn body", zap.Int32("id", b.EntityID), zap.Stringer("kind", kind))
	return *b, nil
}

// Despawn прибирає тіло. false - такого тіла немає.
func (w *World) Despawn(id int32) bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.despawn(id)
}

func (w *World) despawn(id int32) bool {
	b, ok := w.bodies[id]
	if !ok {
		return false
	}
	w.tree.Remove(b.handle)
	delete(w.bodies, id)
	return true
}

// Move телепортує тіло в pos
func (w *World) Move(id int32, pos Vec2) bool {
	if !pos.IsValid() {
		return false
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	b, ok := w.bodies[id]
	if !ok {
		return false
	}
	old := b.Position
	b.Position = pos
	if !w.tree.UpdateBounds(b.handle, b.bounds()) {
		w.log.Info("Body move invalid",
			zap.Int32("id", id),
			zap.Float64s("position", pos[:]),
		)
		b.Position = old
		return false
	}
	return true
}

// SetVelocity змінює швидкість тіла (одиниць за тік)
func (w *World) SetVelocity(id int32, vel Vec2) bool {
	if !vel.IsValid() {
		return false
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	b, ok := w.bodies[id]
	if ok {
		b.Velocity = vel
	}
	return ok
}

// Body повертає копію тіла
func (w *World) Body(id int32) (Body, bool) {
	w.lock.RLock()
	defer w.lock.RUnlock()
	b, ok := w.bodies[id]
	if !ok {
		return Body{}, false
	}
	return *b, true
}

// Wall повертає стіну за індексом
func (w *World) Wall(index int32) (Wall, bool) {
	w.lock.RLock()
	defer w.lock.RUnlock()
	if index < 0 || int(index) >= len(w.walls) {
		return Wall{}, false
	}
	return w.walls[index], true
}

// QueryBox записує в dst все, чий товстий AABB торкається box.
// Це кандидати для руху й видимості, точну перевірку робить викликач.
func (w *World) QueryBox(box Box, dst []Ref) int {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.tree.CullBox(box, dst)
}

// TraceCandidates записує в dst все, що може зачепити постріл from->to
func (w *World) TraceCandidates(from, to Vec2, dst []Ref) int {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.tree.CullTrace(from, to, dst)
}

// LineOfSight перевіряє чи жодна стіна не перетинає відрізок from->to
func (w *World) LineOfSight(from, to Vec2) bool {
	w.lock.RLock()
	defer w.lock.RUnlock()

	var small [64]Ref
	buf := small[:]
	for {
		n := w.tree.CullTrace(from, to, buf)
		for _, ref := range buf[:n] {
			if ref.Kind != RefWall {
				continue
			}
			if w.walls[ref.ID].Blocks(from, to) {
				return false
			}
		}
		if n < len(buf) {
			return true
		}
		// буфер заповнено, можливо не все влізло - пробуємо ширше
		buf = make([]Ref, 2*len(buf))
	}
}

// Stats - короткий стан світу для логів
type Stats struct {
	Tick   uint64
	Bodies int
	Walls  int
	Leaves int
	Nodes  int
	Height int
}

// Stats повертає поточну статистику
func (w *World) Stats() Stats {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.stats()
}

func (w *World) stats() Stats {
	return Stats{
		Tick:   w.ticks,
		Bodies: len(w.bodies),
		Walls:  len(w.walls),
		Leaves: w.tree.Len(),
		Nodes:  w.tree.NodeCount(),
		Height: w.tree.Height(),
	}
}

// Validate перевіряє внутрішню цілісність дерева
func (w *World) Validate() error {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.tree.Validate()
}
