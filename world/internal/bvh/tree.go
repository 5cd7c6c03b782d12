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

// Йоу, чат! Сьогодні ми будуємо динамічне BVH дерево!
// BVH (Bounding Volume Hierarchy) - це ієрархія прямокутників:
// кожен лист тримає "розтовщений" AABB об'єкта або стіни,
// а кожен внутрішній вузол - AABB, що обгортає обох своїх дітей.
// Об'єкт, що ворушиться в межах свого товстого AABB, дерево не чіпає взагалі.

package bvh

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidBox - AABB з NaN, нескінченністю або Lower > Upper
var ErrInvalidBox = errors.New("bvh: invalid bounding box")

// Tree - динамічне AABB дерево.
// Методи не синхронізовані: про блокування дбає власник дерева.
type Tree struct {
	arena     arena
	root      Handle
	margin    float64 // на скільки розтовщується кожен лист
	leaves    int
	destroyed bool
}

type options struct {
	capacity int
	limit    int
}

// Option налаштовує дерево при створенні
type Option func(*options)

// WithNodeLimit обмежує кількість вузлів (листи + внутрішні).
// Для n листів потрібно 2n-1 вузлів.
func WithNodeLimit(n int) Option {
	return func(o *options) { o.limit = max(n, 0) }
}

// WithInitialCapacity резервує місце під n вузлів наперед
func WithInitialCapacity(n int) Option {
	return func(o *options) { o.capacity = max(n, 0) }
}

// New створює порожнє дерево. Від'ємна або NaN товщина стає нулем.
func New(thickness float64, opts ...Option) *Tree {
	o := options{capacity: 64}
	for _, opt := range opts {
		opt(&o)
	}
	if !(thickness > 0) || math.IsInf(thickness, 0) {
		thickness = 0
	}
	return &Tree{arena: newArena(o.capacity, o.limit), margin: thickness}
}

// Destroy віддає всю пам'ять. Після цього дерево використовувати не можна.
func (t *Tree) Destroy() {
	t.arena = arena{}
	t.root = Nil
	t.leaves = 0
	t.destroyed = true
}

// ClearAll видаляє всі вузли, але залишає пам'ять арени для повторного використання.
// Всі видані раніше Handle стають недійсними.
func (t *Tree) ClearAll() {
	t.alive()
	t.arena.ClearAll()
	t.root = Nil
	t.leaves = 0
}

func (t *Tree) alive() {
	if t.destroyed {
		panic("bvh: use of destroyed tree")
	}
}

// Insert додає лист з AABB tight (розтовщеним на Margin) і повертає його Handle.
// Handle лишається стабільним до Remove, навіть якщо дерево перебудовується.
func (t *Tree) Insert(tight Box, p Payload) (Handle, error) {
	t.alive()
	if !tight.Valid() {
		return Nil, ErrInvalidBox
	}
	h, err := t.arena.Request()
	if err != nil {
		return Nil, err
	}
	n := t.arena.At(h)
	n.payload = p
	n.box = tight.Fatten(t.margin)
	if err := t.insertLeaf(h); err != nil {
		t.arena.Free(h, true)
		return Nil, err
	}
	t.leaves++
	return h, nil
}

// Remove видаляє лист і повертає його payload.
// Панікує, якщо h не є живим листом цього дерева.
func (t *Tree) Remove(h Handle) Payload {
	t.alive()
	p := t.leaf(h).payload
	t.removeLeaf(h)
	t.arena.Free(h, true)
	t.leaves--
	return p
}

// UpdateBounds повідомляє дереву новий tight AABB листа.
// Якщо він ще вміщується в товстий AABB - нічого не змінюється.
// Інакше лист виймається, розтовщується заново і вставляється з тим самим Handle.
// Повертає false тільки для невалідного AABB, дерево при цьому не змінюється.
func (t *Tree) UpdateBounds(h Handle, tight Box) bool {
	t.alive()
	n := t.leaf(h)
	if !tight.Valid() {
		return false
	}
	if n.box.Contains(tight) {
		return true
	}
	t.removeLeaf(h)
	n = t.arena.At(h)
	n.box = tight.Fatten(t.margin)
	n.height = 0
	// removeLeaf щойно повернув батьківський слот у список вільних,
	// тож insertLeaf отримає його назад без нового виділення
	if err := t.insertLeaf(h); err != nil {
		panic(fmt.Sprintf("bvh: reinsert of leaf %d failed: %v", h, err))
	}
	return true
}

// GetData повертає payload листа
func (t *Tree) GetData(h Handle) Payload {
	t.alive()
	return t.leaf(h).payload
}

// Box повертає товстий AABB листа
func (t *Tree) Box(h Handle) Box {
	t.alive()
	return t.leaf(h).box
}

// Len - кількість листів
func (t *Tree) Len() int { return t.leaves }

// Height - висота кореня, -1 для порожнього дерева
func (t *Tree) Height() int {
	if !t.root.Valid() {
		return -1
	}
	return int(t.arena.At(t.root).height)
}

// Root - корінь дерева або Nil
func (t *Tree) Root() Handle { return t.root }

// Margin - товщина, на яку розширюються листи
func (t *Tree) Margin() float64 { return t.margin }

// leaf повертає живий лист або панікує
func (t *Tree) leaf(h Handle) *node {
	n := t.arena.At(h)
	if n.isFree() || !n.isLeaf() {
		panic(fmt.Sprintf("bvh: handle %d is not a live leaf", h))
	}
	return n
}

// insertLeaf вставляє вже виділений лист. Box листа має бути заповнений.
func (t *Tree) insertLeaf(leaf Handle) error {
	if n := t.arena.At(leaf); !n.isLeaf() || n.right.Valid() {
		panic("bvh: inserting a node that has children")
	}
	if !t.root.Valid() {
		t.root = leaf
		t.arena.At(leaf).parent = Nil
		return nil
	}

	leafBox := t.arena.At(leaf).box
	sibling := t.findSibling(leafBox)

	// Request може перевезти арену, тому вказівники беремо тільки після нього
	p, err := t.arena.Request()
	if err != nil {
		return err
	}
	s := t.arena.At(sibling)
	oldParent := s.parent

	pn := t.arena.At(p)
	pn.parent = oldParent
	pn.box = leafBox.Union(s.box)
	pn.height = s.height + 1
	pn.left, pn.right = sibling, leaf

	s.parent = p
	t.arena.At(leaf).parent = p
	if oldParent.Valid() {
		t.replaceChild(oldParent, sibling, p)
	} else {
		t.root = p
	}

	t.refit(p)
	return nil
}

// findSibling спускається від кореня туди, де новий лист коштує найменше площі
func (t *Tree) findSibling(leafBox Box) Handle {
	index := t.root
	for {
		n := t.arena.At(index)
		if n.isLeaf() {
			return index
		}
		area := n.box.Area()
		mergedArea := n.box.Union(leafBox).Area()

		// ціна нового батька тут
		cost := 2 * mergedArea
		// мінімальна ціна спуску нижче: всі предки ростуть
		inherited := 2*mergedArea - area

		costLeft := t.descendCost(n.left, leafBox) + inherited
		// окрема змінна: якщо записати праву ціну в costLeft, спуск завжди перекошується вліво
		costRight := t.descendCost(n.right, leafBox) + inherited

		if cost < costLeft && cost < costRight {
			return index
		}
		if costLeft < costRight {
			index = n.left
		} else {
			index = n.right
		}
	}
}

func (t *Tree) descendCost(child Handle, leafBox Box) float64 {
	c := t.arena.At(child)
	merged := leafBox.Union(c.box).Area()
	if c.isLeaf() {
		return merged
	}
	return merged - c.box.Area()
}

// removeLeaf від'єднує лист від дерева, але не звільняє його слот.
// Батько листа звільняється, брат займає його місце.
func (t *Tree) removeLeaf(leaf Handle) {
	if leaf == t.root {
		t.root = Nil
		return
	}
	n := t.arena.At(leaf)
	ip := n.parent
	p := t.arena.At(ip)
	ig := p.parent
	sibling := p.left
	if sibling == leaf {
		sibling = p.right
	}

	s := t.arena.At(sibling)
	if ig.Valid() {
		t.replaceChild(ig, ip, sibling)
		s.parent = ig
	} else {
		t.root = sibling
		s.parent = Nil
	}
	n.parent = Nil
	t.arena.Free(ip, true)

	t.refit(ig)
}

// replaceChild замінює дитину old вузла parent на child
func (t *Tree) replaceChild(parent, old, child Handle) {
	p := t.arena.At(parent)
	switch old {
	case p.left:
		p.left = child
	case p.right:
		p.right = child
	default:
		panic(fmt.Sprintf("bvh: node %d is not a child of %d", old, parent))
	}
}

// Validate обходить все дерево і перевіряє структурні інваріанти:
// зв'язки батько-дитина, висоти, баланс, AABB предків і облік вузлів.
func (t *Tree) Validate() error {
	t.alive()
	if !t.root.Valid() {
		if t.leaves != 0 || t.arena.Len() != 0 {
			return fmt.Errorf("bvh: empty tree holds %d leaves, %d nodes", t.leaves, t.arena.Len())
		}
		return nil
	}
	if p := t.arena.At(t.root).parent; p.Valid() {
		return fmt.Errorf("bvh: root %d has parent %d", t.root, p)
	}

	var st stack[Handle]
	st.Push(t.root)
	leaves, nodes := 0, 0
	for {
		h, ok := st.Pop()
		if !ok {
			break
		}
		if nodes++; nodes > t.arena.Len() {
			return fmt.Errorf("bvh: more reachable nodes than allocated, cycle at %d", h)
		}
		n := t.arena.At(h)
		if n.isFree() {
			return fmt.Errorf("bvh: node %d is reachable but free", h)
		}
		if n.isLeaf() {
			if n.right.Valid() || n.height != 0 {
				return fmt.Errorf("bvh: leaf %d is malformed (right=%d, height=%d)", h, n.right, n.height)
			}
			leaves++
			continue
		}
		if !n.right.Valid() {
			return fmt.Errorf("bvh: node %d has only one child", h)
		}
		l, r := t.arena.At(n.left), t.arena.At(n.right)
		if l.parent != h || r.parent != h {
			return fmt.Errorf("bvh: node %d: broken parent link (%d, %d)", h, l.parent, r.parent)
		}
		if want := 1 + max(l.height, r.height); n.height != want {
			return fmt.Errorf("bvh: node %d: height %d, want %d", h, n.height, want)
		}
		if d := r.height - l.height; d > 1 || d < -1 {
			return fmt.Errorf("bvh: node %d: unbalanced children (%d vs %d)", h, l.height, r.height)
		}
		if want := l.box.Union(r.box); n.box != want {
			return fmt.Errorf("bvh: node %d: box %v, want %v", h, n.box, want)
		}
		st.Push(n.left)
		st.Push(n.right)
	}
	if leaves != t.leaves {
		return fmt.Errorf("bvh: %d leaves reachable, %d counted", leaves, t.leaves)
	}
	if nodes != t.arena.Len() {
		return fmt.Errorf("bvh: %d nodes reachable, %d allocated", nodes, t.arena.Len())
	}
	return nil
}

// String друкує дерево як вкладені дужки: {{object#1, object#2}, edge#0}
func (t *Tree) String() string {
	if t.destroyed || !t.root.Valid() {
		return "{}"
	}
	var sb strings.Builder
	t.writeNode(&sb, t.root)
	return sb.String()
}

func (t *Tree) writeNode(sb *strings.Builder, h Handle) {
	n := t.arena.At(h)
	if n.isLeaf() {
		sb.WriteString(n.payload.String())
		return
	}
	sb.WriteByte('{')
	t.writeNode(sb, n.left)
	sb.WriteString(", ")
	t.writeNode(sb, n.right)
	sb.WriteByte('}')
}

// NodeCount - кількість зайнятих вузлів арени (листи + внутрішні)
func (t *Tree) NodeCount() int { return t.arena.Len() }
