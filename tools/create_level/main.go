package main

import (
	"flag"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"SectorShooter/world"
)

var (
	dir  = flag.String("dir", "levels", "Directory with level files")
	name = flag.String("name", "demo", "Level name")
	dump = flag.Bool("dump", false, "Also write a tree snapshot of the level to <dir>/<name>.snapshot.dat")
)

func main() {
	flag.Parse()

	// Кімната 1024x1024 з перегородкою і двома колонами
	walls := []world.Wall{
		{A: world.Vec2{0, 0}, B: world.Vec2{1024, 0}},
		{A: world.Vec2{1024, 0}, B: world.Vec2{1024, 1024}},
		{A: world.Vec2{1024, 1024}, B: world.Vec2{0, 1024}},
		{A: world.Vec2{0, 1024}, B: world.Vec2{0, 0}},
		// перегородка з проходом посередині
		{A: world.Vec2{512, 0}, B: world.Vec2{512, 448}},
		{A: world.Vec2{512, 576}, B: world.Vec2{512, 1024}},
	}
	walls = append(walls, pillar(256, 256, 32)...)
	walls = append(walls, pillar(768, 768, 32)...)

	levels := world.NewLevelProvider(*dir)
	if err := levels.PutLevel(*name, walls); err != nil {
		panic(err)
	}

	if *dump {
		w := world.New(zap.NewNop(), world.Config{Thickness: 4})
		if err := w.LoadWalls(walls); err != nil {
			panic(err)
		}

		f, err := os.Create(filepath.Join(*dir, *name+".snapshot.dat"))
		if err != nil {
			panic(err)
		}
		defer f.Close()

		if err := w.Snapshot().WriteNBT(f); err != nil {
			panic(err)
		}
	}
}

// pillar - квадратна колона з центром (x, y) і половиною сторони r
func pillar(x, y, r float64) []world.Wall {
	a := world.Vec2{x - r, y - r}
	b := world.Vec2{x + r, y - r}
	c := world.Vec2{x + r, y + r}
	d := world.Vec2{x - r, y + r}
	return []world.Wall{{A: a, B: b}, {A: b, B: c}, {A: c, B: d}, {A: d, B: a}}
}
