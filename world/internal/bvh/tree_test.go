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

// Йоу, чат! Сьогодні ми тестуємо BVH дерево!
// Спочатку маленькі сценарії, які легко порахувати на папірці,
// потім тисячі випадкових вставок, рухів і видалень з перевіркою інваріантів.

package bvh

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitAt - квадрат 1x1 з центром в (x, y)
func unitAt(x, y float64) Box {
	return BoxOf([2][2]float64{{x - 0.5, y - 0.5}, {x + 0.5, y + 0.5}})
}

func threeBoxes(t *testing.T) *Tree {
	tree := New(0)
	for i, x := range []float64{0, 10, 20} {
		_, err := tree.Insert(unitAt(x, 0), Object(int32(i)))
		require.NoError(t, err)
	}
	require.NoError(t, tree.Validate())
	return tree
}

func TestTree_CullBox(t *testing.T) {
	tree := threeBoxes(t)
	out := make([]Payload, 10)

	n := tree.CullBox(BoxOf([2][2]float64{{-1, -1}, {1, 1}}), out)
	require.Equal(t, 1, n)
	assert.Equal(t, Object(0), out[0])

	n = tree.CullBox(BoxOf([2][2]float64{{-100, -100}, {100, 100}}), out)
	require.Equal(t, 3, n)
	assert.ElementsMatch(t, []Payload{Object(0), Object(1), Object(2)}, out[:n])

	n = tree.CullBox(BoxOf([2][2]float64{{3, 3}, {4, 4}}), out)
	assert.Zero(t, n)
}

func TestTree_CullTrace(t *testing.T) {
	tree := threeBoxes(t)
	out := make([]Payload, 10)

	n := tree.CullTrace(Point{-5, 0}, Point{5, 0}, out)
	require.Equal(t, 1, n)
	assert.Equal(t, Object(0), out[0])

	n = tree.CullTrace(Point{-5, 0}, Point{25, 0}, out)
	assert.Equal(t, 3, n)

	n = tree.CullTrace(Point{-5, 5}, Point{25, 5}, out)
	assert.Zero(t, n)
}

func TestTree_CullCap(t *testing.T) {
	tree := New(0.1)
	for i := 0; i < 10; i++ {
		_, err := tree.Insert(unitAt(float64(i)*0.1, 0), Object(int32(i)))
		require.NoError(t, err)
	}
	everything := BoxOf([2][2]float64{{-10, -10}, {10, 10}})

	out := make([]Payload, 3)
	assert.Equal(t, 3, tree.CullBox(everything, out))
	assert.Equal(t, 0, tree.CullBox(everything, nil))
	assert.Equal(t, 10, tree.CullBox(everything, make([]Payload, 64)))

	// обрізання детерміноване: той самий запит дає той самий префікс
	again := make([]Payload, 3)
	tree.CullBox(everything, again)
	assert.Equal(t, out, again)
}

func TestTree_InsertRemove(t *testing.T) {
	tree := New(0.5)
	assert.Equal(t, -1, tree.Height())
	assert.False(t, tree.Root().Valid())

	h, err := tree.Insert(unitAt(3, 4), StaticEdge(7))
	require.NoError(t, err)
	assert.Equal(t, StaticEdge(7), tree.GetData(h))
	assert.Equal(t, BoxOf([2][2]float64{{2, 3}, {4, 5}}), tree.Box(h), "leaf is fattened by the margin")
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, 0, tree.Height())
	assert.Equal(t, h, tree.Root())

	h2, err := tree.Insert(unitAt(-3, 4), Object(1))
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Height())
	assert.Equal(t, "{edge#7, object#1}", tree.String())

	assert.Equal(t, StaticEdge(7), tree.Remove(h))
	require.NoError(t, tree.Validate())
	assert.Equal(t, h2, tree.Root(), "sibling takes the parent's place")
	assert.Equal(t, Object(1), tree.Remove(h2))
	require.NoError(t, tree.Validate())
	assert.Zero(t, tree.Len())
	assert.Equal(t, "{}", tree.String())
	assert.Zero(t, tree.CullBox(BoxOf([2][2]float64{{-100, -100}, {100, 100}}), make([]Payload, 4)))
}

func TestTree_RemoveReusesSlots(t *testing.T) {
	tree := New(0)
	var handles []Handle
	for i := 0; i < 8; i++ {
		h, err := tree.Insert(unitAt(float64(i)*3, 0), Object(int32(i)))
		require.NoError(t, err)
		handles = append(handles, h)
	}
	capBefore := tree.arena.Cap()
	nodesBefore := len(tree.arena.nodes)

	for _, h := range handles {
		tree.Remove(h)
	}
	require.NoError(t, tree.Validate())
	for i := 0; i < 8; i++ {
		_, err := tree.Insert(unitAt(float64(i)*3, 5), Object(int32(i)))
		require.NoError(t, err)
	}
	require.NoError(t, tree.Validate())
	assert.Equal(t, nodesBefore, len(tree.arena.nodes), "freed slots are reused before growing")
	assert.Equal(t, capBefore, tree.arena.Cap())
}

func TestTree_Panics(t *testing.T) {
	tree := New(0)
	h, err := tree.Insert(unitAt(0, 0), Object(0))
	require.NoError(t, err)
	_, err = tree.Insert(unitAt(5, 0), Object(1))
	require.NoError(t, err)

	assert.Panics(t, func() { tree.GetData(Nil) })
	assert.Panics(t, func() { tree.Remove(tree.Root()) }, "root is an internal node")
	tree.Remove(h)
	assert.Panics(t, func() { tree.Remove(h) }, "double remove")
	assert.Panics(t, func() { tree.UpdateBounds(h, unitAt(1, 1)) })
	assert.Panics(t, func() { tree.GetData(Handle(1000)) })
}

func TestTree_InvalidBox(t *testing.T) {
	tree := New(0)
	_, err := tree.Insert(BoxOf([2][2]float64{{math.NaN(), 0}, {1, 1}}), Object(0))
	assert.ErrorIs(t, err, ErrInvalidBox)
	_, err = tree.Insert(BoxOf([2][2]float64{{1, 1}, {0, 0}}), Object(0))
	assert.ErrorIs(t, err, ErrInvalidBox)
	assert.Zero(t, tree.Len())

	h, err := tree.Insert(unitAt(0, 0), Object(0))
	require.NoError(t, err)
	before := tree.Box(h)
	assert.False(t, tree.UpdateBounds(h, BoxOf([2][2]float64{{0, 0}, {math.Inf(1), 1}})))
	assert.Equal(t, before, tree.Box(h))
}

func TestTree_Thickness(t *testing.T) {
	assert.Equal(t, 0.0, New(-3).Margin())
	assert.Equal(t, 0.0, New(math.NaN()).Margin())
	assert.Equal(t, 2.5, New(2.5).Margin())
}

func fingerprint(tree *Tree) []NodeInfo {
	nodes := make([]NodeInfo, 2*tree.Len())
	return nodes[:tree.GetAllNodes(nodes)]
}

func TestTree_UpdateBounds(t *testing.T) {
	tree := New(1)
	var handles []Handle
	for i := 0; i < 6; i++ {
		h, err := tree.Insert(unitAt(float64(i)*10, 0), Object(int32(i)))
		require.NoError(t, err)
		handles = append(handles, h)
	}
	require.NoError(t, tree.Validate())

	// рух в межах товстого AABB не змінює жодного вузла
	before := fingerprint(tree)
	assert.True(t, tree.UpdateBounds(handles[2], unitAt(20.5, 0.5)))
	assert.True(t, tree.UpdateBounds(handles[3], unitAt(29, -1)))
	assert.Equal(t, before, fingerprint(tree))

	// вихід за межі - перевставка з тим самим Handle
	assert.True(t, tree.UpdateBounds(handles[2], unitAt(55, 40)))
	require.NoError(t, tree.Validate())
	assert.Equal(t, Object(2), tree.GetData(handles[2]))
	assert.Equal(t, unitAt(55, 40).Fatten(1), tree.Box(handles[2]))
	assert.Equal(t, 6, tree.Len())

	out := make([]Payload, 8)
	n := tree.CullBox(unitAt(55, 40), out)
	require.Equal(t, 1, n)
	assert.Equal(t, Object(2), out[0])
	assert.Zero(t, tree.CullBox(unitAt(20, 0), out))
}

func TestTree_UpdateBoundsSingleLeaf(t *testing.T) {
	tree := New(0)
	h, err := tree.Insert(unitAt(0, 0), Object(9))
	require.NoError(t, err)
	assert.True(t, tree.UpdateBounds(h, unitAt(100, 100)))
	assert.Equal(t, h, tree.Root())
	assert.Equal(t, unitAt(100, 100), tree.Box(h))
	require.NoError(t, tree.Validate())
}

func TestTree_NodeLimit(t *testing.T) {
	// ліміт 3: два листи і один батько
	tree := New(0, WithNodeLimit(3))
	for i := 0; i < 2; i++ {
		_, err := tree.Insert(unitAt(float64(i)*5, 0), Object(int32(i)))
		require.NoError(t, err)
	}
	_, err := tree.Insert(unitAt(10, 0), Object(2))
	assert.ErrorIs(t, err, ErrAllocationFailed)
	assert.Equal(t, 2, tree.Len())
	require.NoError(t, tree.Validate())

	// ліміт 4: лист ще влазить, а батько для нього - ні
	tree = New(0, WithNodeLimit(4), WithInitialCapacity(16))
	for i := 0; i < 2; i++ {
		_, err := tree.Insert(unitAt(float64(i)*5, 0), Object(int32(i)))
		require.NoError(t, err)
	}
	_, err = tree.Insert(unitAt(10, 0), Object(2))
	assert.ErrorIs(t, err, ErrAllocationFailed)
	assert.Equal(t, 2, tree.Len())
	require.NoError(t, tree.Validate(), "failed insert must not leak the leaf slot")
	assert.LessOrEqual(t, tree.arena.Cap(), 16)
}

func TestTree_ClearAllDestroy(t *testing.T) {
	tree := threeBoxes(t)
	capBefore := tree.arena.Cap()

	tree.ClearAll()
	assert.Zero(t, tree.Len())
	assert.False(t, tree.Root().Valid())
	assert.Equal(t, capBefore, tree.arena.Cap())
	require.NoError(t, tree.Validate())

	_, err := tree.Insert(unitAt(1, 1), Object(4))
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Len())

	tree.Destroy()
	assert.Equal(t, "{}", tree.String())
	assert.Panics(t, func() { _, _ = tree.Insert(unitAt(0, 0), Object(0)) })
	assert.Panics(t, func() { tree.CullBox(unitAt(0, 0), make([]Payload, 1)) })
}

func TestTree_GetAllNodes(t *testing.T) {
	tree := threeBoxes(t)
	nodes := make([]NodeInfo, 16)
	n := tree.GetAllNodes(nodes)
	require.Equal(t, 5, n)

	assert.Equal(t, tree.Root(), nodes[0].Handle)
	assert.False(t, nodes[0].Parent.Valid())
	assert.Equal(t, int32(tree.Height()), nodes[0].Height)

	leaves := 0
	for _, info := range nodes[:n] {
		if info.Leaf {
			leaves++
			assert.Zero(t, info.Height)
			assert.False(t, info.Left.Valid())
		} else {
			assert.True(t, info.Box.Contains(tree.arena.At(info.Left).box))
			assert.True(t, info.Box.Contains(tree.arena.At(info.Right).box))
		}
	}
	assert.Equal(t, 3, leaves)
	assert.Equal(t, 2, tree.GetAllNodes(nodes[:2]))
}

func TestTree_SortedInsertStaysBalanced(t *testing.T) {
	// вставка по прямій - найгірший випадок для дерева без поворотів
	tree := New(0)
	const count = 1000
	for i := 0; i < count; i++ {
		_, err := tree.Insert(unitAt(float64(i)*2, 0), Object(int32(i)))
		require.NoError(t, err)
	}
	require.NoError(t, tree.Validate())
	assert.Less(t, tree.Height(), 20)
}

func randomBox(r *rand.Rand) Box {
	c := Point{r.Float64() * 1000, r.Float64() * 1000}
	half := Point{1 + r.Float64()*9, 1 + r.Float64()*9}
	return Box{Lower: c.Sub(half), Upper: c.Add(half)}
}

func TestTree_RandomWorkload(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	tree := New(2)
	live := make(map[Handle]Payload)
	next := int32(0)

	bruteForce := func(q Box) []Payload {
		var want []Payload
		for h, p := range live {
			if tree.Box(h).Touch(q) {
				want = append(want, p)
			}
		}
		return want
	}
	bruteForceTrace := func(from, to Point) []Payload {
		var want []Payload
		for h, p := range live {
			if tree.Box(h).TraceSegment(from, to) {
				want = append(want, p)
			}
		}
		return want
	}
	anyLive := func() Handle {
		for h := range live {
			return h
		}
		return Nil
	}

	out := make([]Payload, 4096)
	for step := 0; step < 3000; step++ {
		switch op := r.Intn(10); {
		case op < 5 || len(live) == 0:
			p := Object(next)
			next++
			h, err := tree.Insert(randomBox(r), p)
			require.NoError(t, err)
			live[h] = p
		case op < 8:
			h := anyLive()
			b := tree.Box(h)
			shift := Point{r.Float64()*10 - 5, r.Float64()*10 - 5}
			// трохи зсуваємо tight AABB, інколи вилітаючи за товстий
			tight := Box{Lower: b.Lower.Add(Point{2, 2}).Add(shift), Upper: b.Upper.Sub(Point{2, 2}).Add(shift)}
			require.True(t, tree.UpdateBounds(h, tight))
			assert.True(t, tree.Box(h).Contains(tight))
		default:
			h := anyLive()
			assert.Equal(t, live[h], tree.Remove(h))
			delete(live, h)
		}
		require.NoError(t, tree.Validate(), "step %d", step)
		require.Equal(t, len(live), tree.Len())

		if step%50 == 0 {
			q := randomBox(r).Fatten(50)
			n := tree.CullBox(q, out)
			assert.ElementsMatch(t, bruteForce(q), out[:n], "step %d", step)

			// відрізки різної довжини, інколи майже точки
			from := Point{r.Float64() * 1000, r.Float64() * 1000}
			to := from.Add(Point{r.Float64()*400 - 200, r.Float64()*400 - 200}.Mul(r.Float64()))
			n = tree.CullTrace(from, to, out)
			assert.ElementsMatch(t, bruteForceTrace(from, to), out[:n], "trace %v->%v at step %d", from, to, step)
		}
	}

	for h := range live {
		tree.Remove(h)
	}
	require.NoError(t, tree.Validate())
	assert.Zero(t, tree.arena.Len())
}

func BenchmarkTree_Insert(b *testing.B) {
	const size = 25
	boxes := make([]Box, b.N)
	for i := range boxes {
		c := Point{rand.Float64() * 1e4, rand.Float64() * 1e4}
		boxes[i] = Box{Lower: c.Sub(Point{size, size}), Upper: c.Add(Point{size, size})}
	}
	b.ResetTimer()

	tree := New(1, WithInitialCapacity(2*b.N))
	for i, v := range boxes {
		_, _ = tree.Insert(v, Object(int32(i)))
	}
}

func BenchmarkTree_CullBox_random(b *testing.B) {
	const size = 25
	tree := New(1)
	for i := 0; i < 10000; i++ {
		c := Point{rand.Float64() * 1e4, rand.Float64() * 1e4}
		_, _ = tree.Insert(Box{Lower: c.Sub(Point{size, size}), Upper: c.Add(Point{size, size})}, Object(int32(i)))
	}
	out := make([]Payload, 64)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		p := Point{rand.Float64() * 1e4, rand.Float64() * 1e4}
		tree.CullBox(Box{Lower: p, Upper: p}, out)
	}
}

func BenchmarkTree_Remove_random(b *testing.B) {
	const size = 25
	handles := make([]Handle, b.N)
	tree := New(1)
	for i := range handles {
		c := Point{rand.Float64() * 1e4, rand.Float64() * 1e4}
		handles[i], _ = tree.Insert(Box{Lower: c.Sub(Point{size, size}), Upper: c.Add(Point{size, size})}, Object(int32(i)))
	}
	rand.Shuffle(b.N, func(i, j int) {
		handles[i], handles[j] = handles[j], handles[i]
	})
	b.ResetTimer()

	for _, h := range handles {
		tree.Remove(h)
	}
}
