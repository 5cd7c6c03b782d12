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

// Йоу, чат! Сьогодні розбираємо математику прямокутників.
// Все, що дерево знає про геометрію, лежить тут: об'єднання, площа,
// перетин, вкладеність, "розтовщення" і перетин з відрізком.

package bvh

import "golang.org/x/exp/constraints"

// AABB - прямокутник, вирівняний по осях: Lower - мінімальний кут, Upper - максимальний
type AABB[F constraints.Float] struct {
	Lower, Upper Vec2[F]
}

// Box та Point - конкретні типи, з якими працює дерево
type (
	Box   = AABB[float64]
	Point = Vec2[float64]
)

// BoxOf будує AABB з пари кутів у форматі [min, max]
func BoxOf[F constraints.Float](corners [2][2]F) AABB[F] {
	return AABB[F]{Lower: corners[0], Upper: corners[1]}
}

// Corners повертає AABB у форматі [min, max]
func (aabb AABB[F]) Corners() [2][2]F {
	return [2][2]F{aabb.Lower, aabb.Upper}
}

// Valid - Lower не більший за Upper по жодній осі і немає NaN
func (aabb AABB[F]) Valid() bool {
	return aabb.Lower.IsValid() && aabb.Upper.IsValid() && aabb.Lower.Less(aabb.Upper)
}

// WithIn перевіряє чи точка всередині (межа теж рахується)
func (aabb AABB[F]) WithIn(point Vec2[F]) bool {
	return aabb.Lower.Less(point) && point.Less(aabb.Upper)
}

// Touch перевіряє чи перетинаються два AABB. Дотик гранями - теж перетин,
// broad-phase має повертати надмножину кандидатів.
func (aabb AABB[F]) Touch(other AABB[F]) bool {
	return aabb.Lower.Less(other.Upper) && other.Lower.Less(aabb.Upper)
}

// Contains перевіряє чи inner повністю лежить в aabb
func (aabb AABB[F]) Contains(inner AABB[F]) bool {
	return aabb.Lower.Less(inner.Lower) && inner.Upper.Less(aabb.Upper)
}

// Union повертає найменший AABB, що містить обидва вхідні AABB
func (aabb AABB[F]) Union(other AABB[F]) AABB[F] {
	return AABB[F]{
		Upper: aabb.Upper.Max(other.Upper),
		Lower: aabb.Lower.Min(other.Lower),
	}
}

// Area повертає площу прямокутника
func (aabb AABB[F]) Area() F {
	d := aabb.Upper.Sub(aabb.Lower)
	return d[0] * d[1]
}

// Fatten розширює AABB на margin в усі боки
func (aabb AABB[F]) Fatten(margin F) AABB[F] {
	m := Vec2[F]{margin, margin}
	return AABB[F]{Lower: aabb.Lower.Sub(m), Upper: aabb.Upper.Add(m)}
}

// Center повертає центр прямокутника
func (aabb AABB[F]) Center() Vec2[F] {
	return aabb.Lower.Add(aabb.Upper).Mul(0.5)
}

// TraceSegment перевіряє чи відрізок from->to зачіпає AABB.
// Метод "пластин": по кожній осі звужуємо проміжок параметра t в [0, 1].
func (aabb AABB[F]) TraceSegment(from, to Vec2[F]) bool {
	tmin, tmax := F(0), F(1)
	dir := to.Sub(from)
	for i := range dir {
		if dir[i] == 0 {
			// відрізок паралельний осі: або лежить між гранями, або промах
			if from[i] < aabb.Lower[i] || from[i] > aabb.Upper[i] {
				return false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (aabb.Lower[i] - from[i]) * inv
		t2 := (aabb.Upper[i] - from[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return false
		}
	}
	return true
}

// SegmentBox повертає AABB, що обгортає відрізок
func SegmentBox[F constraints.Float](a, b Vec2[F]) AABB[F] {
	return AABB[F]{Lower: a.Min(b), Upper: a.Max(b)}
}
