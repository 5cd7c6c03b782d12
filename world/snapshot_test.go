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

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(t *testing.T) *Snapshot {
	w := newTestWorld(t, Config{Thickness: 0.5})
	require.NoError(t, w.LoadWalls(roomWalls[:3]))
	b, err := w.Spawn(BodyPlayer, Vec2{30, 30}, Vec2{}, Vec2{1, 1})
	require.NoError(t, err)
	w.Tick()

	s := w.Snapshot()
	require.Len(t, s.Nodes, 7)
	assert.Equal(t, int64(1), s.Tick)
	assert.Equal(t, int32(1), s.Bodies)
	assert.Equal(t, int32(3), s.Walls)
	assert.Equal(t, s.Root, s.Nodes[0].Handle)

	var refs []Ref
	for _, n := range s.Nodes {
		if n.Leaf() {
			refs = append(refs, n.Ref())
		} else {
			assert.True(t, n.Box().Valid())
		}
	}
	assert.ElementsMatch(t, []Ref{
		{Kind: RefWall, ID: 0},
		{Kind: RefWall, ID: 1},
		{Kind: RefWall, ID: 2},
		{Kind: RefBody, ID: b.EntityID},
	}, refs)
	return s
}

func TestSnapshot_ID(t *testing.T) {
	s := testSnapshot(t)
	_, err := uuid.Parse(s.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, s.ID, testSnapshot(t).ID)
}

func TestSnapshot_Msgpack(t *testing.T) {
	s := testSnapshot(t)
	data, err := s.EncodeMsgpack()
	require.NoError(t, err)

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = DecodeSnapshot([]byte{0xc1})
	assert.Error(t, err)
}

func TestSnapshot_NBT(t *testing.T) {
	s := testSnapshot(t)
	var buf bytes.Buffer
	require.NoError(t, s.WriteNBT(&buf))

	got, err := ReadNBT(&buf)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = ReadNBT(bytes.NewReader([]byte("not gzip")))
	assert.Error(t, err)
}
