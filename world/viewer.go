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

// Йоу, чат! Сьогодні ми розберемо спостерігачів світу.
// Редактор карт і дебаг-оверлей хочуть бачити, як виглядає дерево прямо зараз.
// Вони реєструються тут і раз на кілька тіків отримують свіжий знімок.

package world

import "sync"

// SnapshotViewer - той, хто отримує знімки дерева.
// ViewSnapshot викликається з горутини тіку, тому не повинен блокуватися надовго.
type SnapshotViewer interface {
	ViewSnapshot(s *Snapshot)
}

// viewerList - список спостерігачів зі своїм м'ютексом,
// щоб підписка не чекала на блокування всього світу
type viewerList struct {
	sync.Mutex
	viewers []SnapshotViewer
}

// AddViewer підписує v на знімки.
// Панікує якщо v вже підписаний: подвійна підписка - логічна помилка викликача.
func (w *World) AddViewer(v SnapshotViewer) {
	w.viewers.Lock()
	defer w.viewers.Unlock()
	for _, v2 := range w.viewers.viewers {
		if v2 == v {
			panic("append an exist viewer")
		}
	}
	w.viewers.viewers = append(w.viewers.viewers, v)
}

// RemoveViewer відписує v. Видаляє "swap and pop", порядок не зберігається.
// false - такого спостерігача не було.
func (w *World) RemoveViewer(v SnapshotViewer) bool {
	w.viewers.Lock()
	defer w.viewers.Unlock()
	for i, v2 := range w.viewers.viewers {
		if v2 == v {
			last := len(w.viewers.viewers) - 1
			w.viewers.viewers[i] = w.viewers.viewers[last]
			w.viewers.viewers[last] = nil
			w.viewers.viewers = w.viewers.viewers[:last]
			return true
		}
	}
	return false
}

// broadcast роздає знімок усім спостерігачам
func (l *viewerList) broadcast(s *Snapshot) int {
	l.Lock()
	viewers := append([]SnapshotViewer(nil), l.viewers...)
	l.Unlock()
	for _, v := range viewers {
		v.ViewSnapshot(s)
	}
	return len(viewers)
}

func (l *viewerList) empty() bool {
	l.Lock()
	defer l.Unlock()
	return len(l.viewers) == 0
}
