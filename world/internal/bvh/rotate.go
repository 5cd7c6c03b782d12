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

// Йоу, чат! Тут дерево тримає себе в формі.
// Після кожної вставки чи видалення ми йдемо вгору до кореня,
// перераховуємо висоти й AABB і, якщо одна дитина вища за іншу більше ніж на 1,
// робимо поворот як в AVL дереві.
//
//	    A                C
//	   / \              / \
//	  B   C     =>     A   F      (F вищий за G)
//	     / \          / \
//	    F   G        B   G

package bvh

// refit йде від h до кореня, балансуючи і перераховуючи кожен вузол.
// h має бути внутрішнім вузлом або Nil.
func (t *Tree) refit(h Handle) {
	for h.Valid() {
		h = t.balance(h)
		n := t.arena.At(h)
		t.fit(n)
		h = n.parent
	}
}

// fit перераховує висоту і AABB внутрішнього вузла з його дітей
func (t *Tree) fit(n *node) {
	l, r := t.arena.At(n.left), t.arena.At(n.right)
	n.height = 1 + max(l.height, r.height)
	n.box = l.box.Union(r.box)
}

// balance повертає корінь піддерева, що тепер стоїть на місці a.
// Діти a мають бути вже перераховані, власна висота a може бути застарілою.
func (t *Tree) balance(a Handle) Handle {
	n := t.arena.At(a)
	if n.isLeaf() {
		return a
	}
	b, c := n.left, n.right
	switch d := t.arena.At(c).height - t.arena.At(b).height; {
	case d > 1:
		return t.rotate(a, c, true)
	case d < -1:
		return t.rotate(a, b, false)
	}
	return a
}

// rotate піднімає дитину up на місце a. Вища дитина up лишається з ним,
// нижча переходить до a. fromRight - up була правою дитиною a.
func (t *Tree) rotate(a, up Handle, fromRight bool) Handle {
	an, un := t.arena.At(a), t.arena.At(up)
	tall, short := un.left, un.right
	if t.arena.At(tall).height < t.arena.At(short).height {
		tall, short = short, tall
	}

	un.parent = an.parent
	if un.parent.Valid() {
		t.replaceChild(un.parent, a, up)
	} else {
		t.root = up
	}
	an.parent = up
	t.arena.At(short).parent = a

	if fromRight {
		un.left, un.right = a, tall
		an.right = short
	} else {
		un.left, un.right = tall, a
		an.left = short
	}

	// опущений вузол отримав нову дитину і сам міг розбалансуватися
	sub := t.balance(a)
	t.fit(t.arena.At(sub))
	t.fit(un)
	return up
}
