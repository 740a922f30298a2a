// Profiling:
// go build ./profile/dispatch
// go tool pprof -http=":8000" -nodefraction=0.001 ./dispatch mem.pprof

package main

import (
	"context"

	"github.com/edwinsyarief/tenkai"
	"github.com/pkg/profile"
)

type position struct {
	X, Y float64
}

type velocity struct {
	X, Y float64
}

func main() {
	ticks := 10000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(ticks, entities)
	p.Stop()
}

func run(ticks, numEntities int) {
	world := tenkai.NewWorld(numEntities)
	for i := 0; i < numEntities; i++ {
		tenkai.Spawn2(world, position{}, velocity{X: 1, Y: 1})
	}

	move := tenkai.NewSystem(
		tenkai.NewDescriptor(tenkai.Reads[velocity](), tenkai.Writes[position]()),
		func(a *tenkai.Access) tenkai.Outcome {
			q := tenkai.QueryOf2[position, velocity](a)
			for q.Next() {
				pos, vel := q.Get()
				pos.X += vel.X
				pos.Y += vel.Y
			}
			return tenkai.Done()
		},
	)
	drag := tenkai.NewSystem(
		tenkai.NewDescriptor(tenkai.Writes[velocity]()),
		func(a *tenkai.Access) tenkai.Outcome {
			vels := tenkai.MutOf[velocity](a)
			vels.Each(func(_ tenkai.Entity, v *velocity) {
				v.X *= 0.999
				v.Y *= 0.999
			})
			return tenkai.Done()
		},
	)

	dispatcher, err := tenkai.NewBuilder(world).
		With("move", move).
		With("drag", drag).
		Build()
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	for range ticks {
		if _, err := dispatcher.Dispatch(ctx); err != nil {
			panic(err)
		}
	}
}
