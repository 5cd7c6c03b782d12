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

// Йоу, чат! Зараз розберемо конфігурацію нашого світу!
// Тут зберігаються всі налаштування які можна змінити без перезбірки

package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/time/rate"

	"SectorShooter/world"
)

// Config - головна структура з налаштуваннями
// Поля з тегом `toml` читаються з конфіг файлу
type Config struct {
	// Наскільки розтовщуються AABB тіл в дереві.
	// Більше - рідше перебудовуємо дерево, але більше зайвих кандидатів в запитах
	Thickness float64 `toml:"thickness"`

	// Максимум вузлів дерева, 0 - без обмеження
	NodeLimit int `toml:"node-limit"`

	// Межі світу [[minX, minY], [maxX, maxY]].
	// Тіла, що повністю вилетіли за них, зникають. Нулі - без меж
	WorldBounds [2][2]float64 `toml:"world-bounds"`

	// Темп тіків, наприклад every = "28ms", n = 1 - це ~35 тіків на секунду
	TickRate Limiter `toml:"tick-rate"`

	// Перевіряти інваріанти дерева після кожного тіку. Повільно, тільки для дебагу
	CheckInvariants bool `toml:"check-invariants"`

	// Як часто (в тіках) робити знімок дерева для оверлею, 0 - ніколи
	SnapshotEvery int `toml:"snapshot-every"`

	// Де лежать файли рівнів і який з них завантажити. Порожнє level-name - без файлу
	LevelDir  string `toml:"level-dir"`
	LevelName string `toml:"level-name"`

	// IP адреса і порт оверлею, наприклад "127.0.0.1:8080". Порожньо - оверлей вимкнений
	OverlayAddress string `toml:"overlay-address"`
	// Скільки знімків на секунду реально летить в вебсокет
	OverlayLimiter Limiter `toml:"overlay-limiter"`

	// Додаткові стіни [ax, ay, bx, by], додаються після стін з файлу рівня
	Walls [][4]float64 `toml:"walls"`

	// Тіла, що з'являються при старті
	Spawns []Spawn `toml:"spawns"`
}

// Spawn - одне тіло зі стартового списку
type Spawn struct {
	Kind     world.BodyKind `toml:"kind"`
	Position [2]float64     `toml:"position"`
	Velocity [2]float64     `toml:"velocity"`
	HalfSize [2]float64     `toml:"half-size"`
}

// Bounds перетворює world-bounds в Box
func (c *Config) Bounds() world.Box {
	return world.Box{
		Lower: world.Vec2(c.WorldBounds[0]),
		Upper: world.Vec2(c.WorldBounds[1]),
	}
}

// WallList перетворює walls в стіни світу
func (c *Config) WallList() []world.Wall {
	walls := make([]world.Wall, len(c.Walls))
	for i, v := range c.Walls {
		walls[i] = world.Wall{A: world.Vec2{v[0], v[1]}, B: world.Vec2{v[2], v[3]}}
	}
	return walls
}

// WorldConfig - частина налаштувань, яка потрібна самому світу
func (c *Config) WorldConfig() world.Config {
	return world.Config{
		Thickness:       c.Thickness,
		NodeLimit:       c.NodeLimit,
		Bounds:          c.Bounds(),
		CheckInvariants: c.CheckInvariants,
		SnapshotEvery:   c.SnapshotEvery,
	}
}

// Validate перевіряє значення, які toml сам перевірити не може
func (c *Config) Validate() error {
	var errs []error
	if c.Thickness < 0 || math.IsNaN(c.Thickness) || math.IsInf(c.Thickness, 0) {
		errs = append(errs, fmt.Errorf("thickness must be a finite non-negative number, got %v", c.Thickness))
	}
	if c.NodeLimit < 0 {
		errs = append(errs, fmt.Errorf("node-limit must not be negative, got %d", c.NodeLimit))
	}
	if b := c.Bounds(); b != (world.Box{}) && !b.Valid() {
		errs = append(errs, fmt.Errorf("world-bounds is not a valid box: %v", c.WorldBounds))
	}
	if c.TickRate.Every.Duration <= 0 {
		errs = append(errs, errors.New("tick-rate.every must be positive"))
	}
	if c.TickRate.N < 1 {
		errs = append(errs, fmt.Errorf("tick-rate.n must be at least 1, got %d", c.TickRate.N))
	}
	// every = 0 - без обмеження, тоді n не важливий
	if c.OverlayLimiter.Every.Duration > 0 && c.OverlayLimiter.N < 1 {
		errs = append(errs, fmt.Errorf("overlay-limiter.n must be at least 1, got %d", c.OverlayLimiter.N))
	}
	if c.SnapshotEvery < 0 {
		errs = append(errs, fmt.Errorf("snapshot-every must not be negative, got %d", c.SnapshotEvery))
	}
	if c.LevelName != "" && c.LevelDir == "" {
		errs = append(errs, errors.New("level-name is set but level-dir is empty"))
	}
	return errors.Join(errs...)
}

// Limiter - структура для обмеження частоти дій
// Наприклад: не більше 1 тіку кожні 28 мілісекунд
type Limiter struct {
	// Як часто можна виконувати дію
	// Наприклад "5s" = кожні 5 секунд
	Every duration `toml:"every"`

	// Скільки разів можна виконати дію за цей період
	N int `toml:"n"`
}

// Limiter перетворює наші налаштування в готовий rate.Limiter
func (l *Limiter) Limiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(l.Every.Duration), l.N)
}

// duration - обгортка навколо time.Duration
// Потрібна щоб читати тривалість з конфіг файлу
type duration struct {
	time.Duration
}

// UnmarshalText перетворює текст з конфігу в time.Duration
// Наприклад "5s" -> 5 секунд
func (d *duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return
}

// ReadConfig читає конфіг з файлу path.
// Якщо знайдемо невідомі налаштування - повернемо помилку
func ReadConfig(path string) (Config, error) {
	var c Config
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		var err errUnknownConfig
		for _, key := range undecoded {
			err = append(err, key.String())
		}
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}

// errUnknownConfig - це список невідомих налаштувань
type errUnknownConfig []string

func (e errUnknownConfig) Error() string {
	return "unknown config keys: [" + strings.Join(e, ", ") + "]"
}
