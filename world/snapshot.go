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

// Йоу, чат! Знімок - це плоска копія всіх вузлів дерева на певному тіку.
// Оверлей отримує його по вебсокету в msgpack, а редактор карт
// може зберегти на диск як стиснутий NBT, так само як ми зберігали level.dat.
// Назад у дерево знімок ніколи не завантажується - це тільки для очей.

package world

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/Tnze/go-mc/nbt"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"SectorShooter/world/internal/bvh"
)

// SnapshotNode - один вузол дерева. Handle 0 означає "немає вузла".
type SnapshotNode struct {
	Handle  int32   `msgpack:"h" nbt:"Handle"`
	Parent  int32   `msgpack:"p" nbt:"Parent"`
	Left    int32   `msgpack:"l" nbt:"Left"`
	Right   int32   `msgpack:"r" nbt:"Right"`
	Height  int32   `msgpack:"z" nbt:"Height"`
	MinX    float64 `msgpack:"x0" nbt:"MinX"`
	MinY    float64 `msgpack:"y0" nbt:"MinY"`
	MaxX    float64 `msgpack:"x1" nbt:"MaxX"`
	MaxY    float64 `msgpack:"y1" nbt:"MaxY"`
	Payload int32   `msgpack:"d" nbt:"Payload"` // Ref.Raw(), має сенс тільки для листа
}

// Leaf - чи це лист
func (n SnapshotNode) Leaf() bool { return n.Left == 0 }

// Box повертає товстий AABB вузла
func (n SnapshotNode) Box() Box {
	return Box{Lower: Vec2{n.MinX, n.MinY}, Upper: Vec2{n.MaxX, n.MaxY}}
}

// Ref повертає, що лежить в листі
func (n SnapshotNode) Ref() Ref { return bvh.PayloadFromRaw(n.Payload) }

// Snapshot - стан дерева на тіку Tick
type Snapshot struct {
	ID     string         `msgpack:"id" nbt:"ID"` // UUID знімка
	Tick   int64          `msgpack:"tick" nbt:"Tick"`
	Root   int32          `msgpack:"root" nbt:"Root"`
	Height int32          `msgpack:"height" nbt:"Height"`
	Bodies int32          `msgpack:"bodies" nbt:"Bodies"`
	Walls  int32          `msgpack:"walls" nbt:"Walls"`
	Nodes  []SnapshotNode `msgpack:"nodes" nbt:"Nodes"`
}

// Snapshot робить знімок дерева
func (w *World) Snapshot() *Snapshot {
	w.lock.RLock()
	defer w.lock.RUnlock()
	return w.snapshot()
}

func (w *World) snapshot() *Snapshot {
	infos := make([]bvh.NodeInfo, w.tree.NodeCount())
	n := w.tree.GetAllNodes(infos)

	s := &Snapshot{
		ID:     uuid.NewString(),
		Tick:   int64(w.ticks),
		Root:   int32(w.tree.Root()),
		Height: int32(w.tree.Height()),
		Bodies: int32(len(w.bodies)),
		Walls:  int32(len(w.walls)),
		Nodes:  make([]SnapshotNode, n),
	}
	for i, info := range infos[:n] {
		s.Nodes[i] = SnapshotNode{
			Handle:  int32(info.Handle),
			Parent:  int32(info.Parent),
			Left:    int32(info.Left),
			Right:   int32(info.Right),
			Height:  info.Height,
			MinX:    info.Box.Lower[0],
			MinY:    info.Box.Lower[1],
			MaxX:    info.Box.Upper[0],
			MaxY:    info.Box.Upper[1],
			Payload: info.Payload.Raw(),
		}
	}
	return s
}

// EncodeMsgpack кодує знімок для відправки оверлею
func (s *Snapshot) EncodeMsgpack() ([]byte, error) {
	return msgpack.Marshal(s)
}

// DecodeSnapshot - обернене до EncodeMsgpack
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot fail: %w", err)
	}
	return &s, nil
}

// WriteNBT записує знімок як GZIP-стиснутий NBT
func (s *Snapshot) WriteNBT(w io.Writer) error {
	gw := gzip.NewWriter(w)
	if err := nbt.NewEncoder(gw).Encode(s, ""); err != nil {
		return fmt.Errorf("encode snapshot nbt fail: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("close gzip writer fail: %w", err)
	}
	return nil
}

// ReadNBT читає знімок, записаний WriteNBT
func ReadNBT(r io.Reader) (*Snapshot, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip reader fail: %w", err)
	}
	var s Snapshot
	if _, err := nbt.NewDecoder(gr).Decode(&s); err != nil {
		return nil, fmt.Errorf("read snapshot nbt fail: %w", err)
	}
	if err := gr.Close(); err != nil {
		return nil, fmt.Errorf("close gzip reader fail: %w", err)
	}
	return &s, nil
}
