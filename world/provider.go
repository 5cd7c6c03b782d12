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

// Йоу, чат! Сьогодні ми розберемо як рівні лежать на диску.
// Геометрія рівня - це просто список стін. Зберігаємо її в NBT з GZIP стисненням,
// по файлу <name>.dat на рівень. Погнали!

package world

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Tnze/go-mc/nbt"
)

// ErrLevelNotExist повертається коли файлу рівня немає
var ErrLevelNotExist = errors.New("level does not exist")

// LevelProvider читає і пише геометрію рівнів у директорії dir
type LevelProvider struct {
	dir string // директорія з файлами рівнів
}

// NewLevelProvider створює новий провайдер рівнів
func NewLevelProvider(dir string) LevelProvider {
	return LevelProvider{dir: dir}
}

type levelData struct {
	Name  string     `nbt:"Name"`
	Walls []wallData `nbt:"Walls"`
}

type wallData struct {
	AX float64 `nbt:"AX"`
	AY float64 `nbt:"AY"`
	BX float64 `nbt:"BX"`
	BY float64 `nbt:"BY"`
}

func (p *LevelProvider) path(name string) string {
	return filepath.Join(p.dir, name+".dat")
}

// GetLevel завантажує стіни рівня name
func (p *LevelProvider) GetLevel(name string) (walls []Wall, errRet error) {
	f, err := os.Open(p.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrLevelNotExist, name)
	} else if err != nil {
		return nil, err
	}
	defer func(f *os.File) {
		err2 := f.Close()
		if errRet == nil && err2 != nil {
			errRet = fmt.Errorf("close level data fail: %w", err2)
		}
	}(f)

	// Розпаковуємо GZIP
	r, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open gzip reader fail: %w", err)
	}

	var data levelData
	if _, err := nbt.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("read level data fail: %w", err)
	}
	if err := r.Close(); err != nil {
		return nil, fmt.Errorf("close gzip reader fail: %w", err)
	}

	walls = make([]Wall, len(data.Walls))
	for i, v := range data.Walls {
		walls[i] = Wall{A: Vec2{v.AX, v.AY}, B: Vec2{v.BX, v.BY}}
	}
	return walls, nil
}

// PutLevel зберігає стіни рівня name, перезаписуючи старий файл
func (p *LevelProvider) PutLevel(name string, walls []Wall) (errRet error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(p.path(name))
	if err != nil {
		return err
	}
	defer func(f *os.File) {
		err2 := f.Close()
		if errRet == nil && err2 != nil {
			errRet = fmt.Errorf("close level data fail: %w", err2)
		}
	}(f)

	data := levelData{Name: name, Walls: make([]wallData, len(walls))}
	for i, wall := range walls {
		data.Walls[i] = wallData{AX: wall.A[0], AY: wall.A[1], BX: wall.B[0], BY: wall.B[1]}
	}

	gw := gzip.NewWriter(f)
	if err := nbt.NewEncoder(gw).Encode(data, ""); err != nil {
		return fmt.Errorf("write level data fail: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("close gzip writer fail: %w", err)
	}
	return nil
}
