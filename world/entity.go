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

// Йоу, чат! Сьогодні ми розберемо тіла - все, що рухається по карті:
// гравці, монстри, ракети і навіть частинки від вибухів.
// Кожне тіло має унікальний ID, позицію, швидкість і розмір,
// а в дереві йому відповідає рівно один лист.

package world

import (
	"fmt"
	"sync/atomic"

	"SectorShooter/world/internal/bvh"
)

// entityCounter - атомарний лічильник для генерації унікальних ID сутностей
var entityCounter atomic.Int32

// NewEntityID генерує новий унікальний ID для сутності
func NewEntityID() int32 {
	return entityCounter.Add(1)
}

// BodyKind - що це за тіло
type BodyKind uint8

const (
	BodyPlayer BodyKind = iota
	BodyMonster
	BodyMissile
	BodyParticle
)

func (k BodyKind) String() string {
	switch k {
	case BodyPlayer:
		return "player"
	case BodyMonster:
		return "monster"
	case BodyMissile:
		return "missile"
	case BodyParticle:
		return "particle"
	default:
		return fmt.Sprintf("BodyKind(%d)", uint8(k))
	}
}

// ParseBodyKind - обернене до BodyKind.String, для конфігів
func ParseBodyKind(s string) (BodyKind, error) {
	for k := BodyPlayer; k <= BodyParticle; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown body kind %q", s)
}

// UnmarshalText дозволяє писати в конфігу kind = "monster"
func (k *BodyKind) UnmarshalText(text []byte) (err error) {
	*k, err = ParseBodyKind(string(text))
	return
}

// Body - динамічний об'єкт світу
type Body struct {
	EntityID int32
	Kind     BodyKind
	Position Vec2 // центр
	Velocity Vec2 // одиниць за тік
	HalfSize Vec2 // половина ширини і висоти

	handle bvh.Handle // лист у дереві
}

// Bounds повертає щільний AABB тіла
func (b *Body) Bounds() Box { return b.bounds() }

func (b *Body) bounds() Box {
	return BoxAround(b.Position, b.HalfSize)
}

// IsValid перевіряє що координати - нормальні числа і розмір не від'ємний.
// NaN в дереві зламає і площі, і перетини, тому такі тіла не пускаємо.
func (b *Body) IsValid() bool {
	return b.Position.IsValid() && b.Velocity.IsValid() && b.HalfSize.IsValid() &&
		b.HalfSize[0] >= 0 && b.HalfSize[1] >= 0
}
