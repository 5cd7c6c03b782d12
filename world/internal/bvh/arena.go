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

// Йоу, чат! Арена - це просто слайс вузлів плюс список вільних слотів.
// Головне правило: вказівник з At живе тільки до наступного Request,
// бо append може перевезти весь масив в нове місце. Старий вказівник
// при цьому не впаде, а тихо писатиме в мертву копію - тому завжди
// беремо вузол заново за його Handle.

package bvh

import (
	"errors"
	"math"
)

// ErrAllocationFailed - в арені закінчилися слоти
var ErrAllocationFailed = errors.New("bvh: node arena exhausted")

type arena struct {
	nodes    []node
	freeList Handle // голова списку вільних слотів, зв'язаного через node.parent
	limit    int    // максимум слотів, 0 - без обмеження
	used     int
}

func newArena(capacity, limit int) arena {
	if limit > 0 && capacity > limit {
		capacity = limit
	}
	return arena{nodes: make([]node, 0, capacity), limit: limit}
}

// Request видає чистий слот. Може перевиділити пам'ять під nodes,
// після чого всі раніше отримані *node недійсні.
func (a *arena) Request() (Handle, error) {
	if h := a.freeList; h.Valid() {
		n := &a.nodes[h.index()]
		a.freeList = n.parent
		*n = node{}
		a.used++
		return h, nil
	}
	if a.limit > 0 && len(a.nodes) >= a.limit || int64(len(a.nodes)) >= math.MaxUint32-1 {
		return Nil, ErrAllocationFailed
	}
	a.nodes = append(a.nodes, node{})
	a.used++
	return handleOf(len(a.nodes) - 1), nil
}

// Free повертає слот у список вільних. Пам'ять не звільняється.
// zero затирає payload і box, щоб у дампах не було сміття.
func (a *arena) Free(h Handle, zero bool) {
	n := a.At(h)
	if n.isFree() {
		panic("bvh: double free of node")
	}
	if zero {
		*n = node{}
	}
	n.left, n.right = Nil, Nil
	n.height = freeHeight
	n.parent = a.freeList
	a.freeList = h
	a.used--
}

// At повертає вказівник на вузол. Дійсний до наступного Request!
func (a *arena) At(h Handle) *node {
	if !h.Valid() || h.index() >= len(a.nodes) {
		panic("bvh: invalid node handle")
	}
	return &a.nodes[h.index()]
}

// ClearAll забуває всі вузли, але залишає виділену пам'ять
func (a *arena) ClearAll() {
	a.nodes = a.nodes[:0]
	a.freeList = Nil
	a.used = 0
}

// Len - кількість зайнятих слотів
func (a *arena) Len() int { return a.used }

// Cap - скільки слотів вміщує поточне сховище без перевиділення
func (a *arena) Cap() int { return cap(a.nodes) }
