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

package bvh

// inlineStackCap - скільки елементів стек тримає без купи
const inlineStackCap = 128

// stack - стек з вбудованим масивом на inlineStackCap елементів.
// Коли масив заповнено, решта йде в spill, який виділяється один раз
// і ніколи не зменшується.
type stack[T any] struct {
	inline [inlineStackCap]T
	n      int // елементів в inline
	spill  []T
}

func (s *stack[T]) Push(v T) {
	if s.n < inlineStackCap {
		s.inline[s.n] = v
		s.n++
		return
	}
	s.spill = append(s.spill, v)
}

// Pop знімає верхній елемент. ok == false якщо стек порожній.
func (s *stack[T]) Pop() (v T, ok bool) {
	if k := len(s.spill); k > 0 {
		v = s.spill[k-1]
		s.spill = s.spill[:k-1]
		return v, true
	}
	if s.n == 0 {
		return v, false
	}
	s.n--
	return s.inline[s.n], true
}

// Peek повертає верхній елемент без зняття
func (s *stack[T]) Peek() (v T, ok bool) {
	if k := len(s.spill); k > 0 {
		return s.spill[k-1], true
	}
	if s.n == 0 {
		return v, false
	}
	return s.inline[s.n-1], true
}

func (s *stack[T]) Len() int { return s.n + len(s.spill) }
