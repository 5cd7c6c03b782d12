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

// Йоу, чат! Тут живуть 2D вектори, на яких тримається все дерево.
// Карта у нас пласка (сектори + стіни), тому третя вісь не потрібна.

package bvh

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Vec2 - двовимірний вектор, [0] - x, [1] - y
type Vec2[F constraints.Float] [2]F

// Add додає інший вектор до поточного
func (v Vec2[F]) Add(other Vec2[F]) Vec2[F] { return Vec2[F]{v[0] + other[0], v[1] + other[1]} }

// Sub віднімає інший вектор від поточного
func (v Vec2[F]) Sub(other Vec2[F]) Vec2[F] { return Vec2[F]{v[0] - other[0], v[1] - other[1]} }

// Mul множить вектор на скаляр
func (v Vec2[F]) Mul(f F) Vec2[F] { return Vec2[F]{v[0] * f, v[1] * f} }

// Max повертає вектор з максимальними координатами
func (v Vec2[F]) Max(other Vec2[F]) Vec2[F] { return Vec2[F]{max(v[0], other[0]), max(v[1], other[1])} }

// Min повертає вектор з мінімальними координатами
func (v Vec2[F]) Min(other Vec2[F]) Vec2[F] { return Vec2[F]{min(v[0], other[0]), min(v[1], other[1])} }

// Less перевіряє чи всі координати менші або рівні other
func (v Vec2[F]) Less(other Vec2[F]) bool { return v[0] <= other[0] && v[1] <= other[1] }

// Cross - z-компонента векторного добутку, потрібна для перетину відрізків
func (v Vec2[F]) Cross(other Vec2[F]) F { return v[0]*other[1] - v[1]*other[0] }

// Dot - скалярний добуток
func (v Vec2[F]) Dot(other Vec2[F]) F { return v[0]*other[0] + v[1]*other[1] }

// Sum повертає суму всіх координат
func (v Vec2[F]) Sum() F { return v[0] + v[1] }

// Norm повертає довжину вектора
func (v Vec2[F]) Norm() float64 {
	return math.Sqrt(float64(v[0]*v[0] + v[1]*v[1]))
}

// IsValid - жодна координата не NaN і не Inf
func (v Vec2[F]) IsValid() bool {
	for _, c := range v {
		if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			return false
		}
	}
	return true
}
