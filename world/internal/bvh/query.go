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

// Йоу, чат! Пошук в дереві без рекурсії.
// Замість рекурсії - явний стек, перші 128 елементів якого живуть прямо на стеку горутини.
// Результати пишуться в слайс, який дає викликач: скільки влізло - стільки й повернули.

package bvh

type cullItem struct {
	h Handle
	// within - предок повністю всередині запиту, перевірку можна пропустити.
	// Зараз ніхто його не встановлює: кожен вузол перевіряється окремо.
	within bool
}

// CullBox записує в out payload листів, чиї товсті AABB перетинаються з q
// (дотик гранями теж рахується). Повертає кількість записаних, не більше len(out).
func (t *Tree) CullBox(q Box, out []Payload) int {
	return t.cull(out, func(b Box) bool { return b.Touch(q) })
}

// CullTrace записує в out payload листів, чиї товсті AABB зачіпає відрізок from->to.
// Це broad-phase: точну перевірку перетину робить викликач.
func (t *Tree) CullTrace(from, to Point, out []Payload) int {
	return t.cull(out, func(b Box) bool { return b.TraceSegment(from, to) })
}

func (t *Tree) cull(out []Payload, test func(Box) bool) int {
	t.alive()
	if len(out) == 0 || !t.root.Valid() {
		return 0
	}
	var st stack[cullItem]
	st.Push(cullItem{h: t.root})
	hits := 0
	for hits < len(out) {
		it, ok := st.Pop()
		if !ok {
			break
		}
		n := t.arena.At(it.h)
		if !it.within && !test(n.box) {
			continue
		}
		if n.isLeaf() {
			out[hits] = n.payload
			hits++
			continue
		}
		st.Push(cullItem{h: n.right, within: it.within})
		st.Push(cullItem{h: n.left, within: it.within})
	}
	return hits
}

// GetAllNodes копіює в out всі вузли дерева в порядку обходу в глибину
// (спочатку батько, потім ліве піддерево). Повертає кількість записаних.
func (t *Tree) GetAllNodes(out []NodeInfo) int {
	t.alive()
	if len(out) == 0 || !t.root.Valid() {
		return 0
	}
	var st stack[Handle]
	st.Push(t.root)
	count := 0
	for count < len(out) {
		h, ok := st.Pop()
		if !ok {
			break
		}
		n := t.arena.At(h)
		out[count] = NodeInfo{
			Handle:  h,
			Parent:  n.parent,
			Left:    n.left,
			Right:   n.right,
			Height:  n.height,
			Box:     n.box,
			Leaf:    n.isLeaf(),
			Payload: n.payload,
		}
		count++
		if !n.isLeaf() {
			st.Push(n.right)
			st.Push(n.left)
		}
	}
	return count
}
