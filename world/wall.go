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

package world

import "SectorShooter/world/internal/bvh"

// Wall - статична лінія рівня від A до B
type Wall struct {
	A, B Vec2
}

func (l Wall) bounds() Box { return bvh.SegmentBox(l.A, l.B) }

// Blocks перевіряє чи перетинає стіна відрізок from->to.
// Дотик кінцем теж рахується: крізь кут стіни не видно.
func (l Wall) Blocks(from, to Vec2) bool {
	r := to.Sub(from)
	s := l.B.Sub(l.A)
	qp := l.A.Sub(from)

	den := r.Cross(s)
	if den == 0 {
		if qp.Cross(r) != 0 {
			return false // паралельні
		}
		return collinearOverlap(from, r, l.A, l.B)
	}
	t := qp.Cross(s) / den
	u := qp.Cross(r) / den
	return t >= 0 && t <= 1 && u >= 0 && u <= 1
}

// collinearOverlap - чи перекриваються проєкції відрізків, що лежать на одній прямій
func collinearOverlap(from, r, a, b Vec2) bool {
	rr := r.Dot(r)
	if rr == 0 {
		// вироджений відрізок-точка: лежить він на стіні чи ні
		return a.Sub(from).Cross(b.Sub(from)) == 0 && bvh.SegmentBox(a, b).WithIn(from)
	}
	t0 := a.Sub(from).Dot(r) / rr
	t1 := b.Sub(from).Dot(r) / rr
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	return t0 <= 1 && t1 >= 0
}
