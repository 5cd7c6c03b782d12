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

// Йоу, чат! Тут описано, з чого складається вузол дерева і що він несе в собі.
// Вузли живуть в арені і посилаються один на одного через Handle, а не вказівники.

package bvh

import "fmt"

// Handle - стабільний номер вузла в арені.
// Нульове значення (Nil) означає "немає вузла", тому слоти нумеруються з 1.
type Handle uint32

// Nil - відсутній вузол
const Nil Handle = 0

// Valid повертає true якщо handle вказує на якийсь слот
func (h Handle) Valid() bool { return h != Nil }

func (h Handle) index() int { return int(h) - 1 }

func handleOf(index int) Handle { return Handle(index + 1) }

// PayloadKind - що саме зберігає лист
type PayloadKind uint8

const (
	KindObject     PayloadKind = iota // динамічний об'єкт (гравець, монстр, ракета...)
	KindStaticEdge                    // статична стіна рівня
)

func (k PayloadKind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindStaticEdge:
		return "edge"
	default:
		return fmt.Sprintf("PayloadKind(%d)", uint8(k))
	}
}

// Payload - те, що лежить в листі. Для об'єкта ID - його ідентифікатор,
// для стіни - індекс лінії в геометрії рівня.
type Payload struct {
	Kind PayloadKind
	ID   int32
}

// Object створює payload динамічного об'єкта
func Object(id int32) Payload { return Payload{Kind: KindObject, ID: id} }

// StaticEdge створює payload статичної стіни з індексом index
func StaticEdge(index int32) Payload { return Payload{Kind: KindStaticEdge, ID: index} }

// Raw кодує payload в одне знакове число:
// об'єкти - як є (>= 0), стіни - як -(index+1), тож індекс 0 теж представимий.
func (p Payload) Raw() int32 {
	if p.Kind == KindStaticEdge {
		return -(p.ID + 1)
	}
	return p.ID
}

// PayloadFromRaw - обернене перетворення до Raw
func PayloadFromRaw(v int32) Payload {
	if v < 0 {
		return StaticEdge(-(v + 1))
	}
	return Object(v)
}

func (p Payload) String() string {
	return fmt.Sprintf("%v#%d", p.Kind, p.ID)
}

// freeHeight - висота вузла, що лежить у списку вільних слотів
const freeHeight = -1

// node - вузол дерева в арені
type node struct {
	payload Payload // тільки для листів
	parent  Handle  // для вільного слоту - наступний вільний слот
	left    Handle  // Nil для листів
	right   Handle  // Nil для листів
	height  int32   // 0 для листа, freeHeight для вільного слоту
	box     Box     // "розтовщений" AABB
}

// isLeaf - лист не має дітей
func (n *node) isLeaf() bool { return n.left == Nil }

// isFree - слот повернено в арену
func (n *node) isFree() bool { return n.height == freeHeight }

// NodeInfo - копія вузла для діагностики та оверлеїв редактора карт
type NodeInfo struct {
	Handle  Handle
	Parent  Handle
	Left    Handle
	Right   Handle
	Height  int32
	Box     Box
	Leaf    bool
	Payload Payload // має сенс тільки якщо Leaf
}
