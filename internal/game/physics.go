// internal/game/physics.go
//
// Bubble physics, one simulation tick at a time:
//   1. Integrate: pos += vel (unit time step).
//   2. Reflect:   force velocity sign away from any wall the bubble touches.
//   3. Collide:   every unordered pair (i < j) closer than one bubble size
//                 swaps velocities and is pushed apart by half the overlap each.
//
// Collisions are a single pass in ascending pair order. A bubble touched by
// several others in one tick ends wherever the last pair left it.

package game

// Step advances bubbles by one tick and returns the new slice. The input
// slice is not modified.
func Step(bubbles []Bubble, bounds Bounds, size float64) []Bubble {
	next := make([]Bubble, len(bubbles))
	copy(next, bubbles)
	Integrate(next)
	Reflect(next, bounds, size)
	Collide(next, size)
	return next
}

// Integrate moves every bubble by its velocity.
func Integrate(bs []Bubble) {
	for i := range bs {
		bs[i].Pos = bs[i].Pos.Add(bs[i].Vel)
	}
}

// Reflect clamps velocity signs against the walls. Positions are left alone,
// so a bubble may sit past a wall until its velocity carries it back.
func Reflect(bs []Bubble, bounds Bounds, size float64) {
	maxX, maxY := bounds.Width-size, bounds.Height-size
	for i := range bs {
		b := &bs[i]
		if b.Pos.X <= 0 {
			b.Vel.X = abs(b.Vel.X)
		}
		if b.Pos.X >= maxX {
			b.Vel.X = -abs(b.Vel.X)
		}
		if b.Pos.Y <= 0 {
			b.Vel.Y = abs(b.Vel.Y)
		}
		if b.Pos.Y >= maxY {
			b.Vel.Y = -abs(b.Vel.Y)
		}
	}
}

// Collide resolves overlapping pairs in (i, j) order.
func Collide(bs []Bubble, size float64) {
	for i := 0; i < len(bs); i++ {
		for j := i + 1; j < len(bs); j++ {
			resolvePair(&bs[i], &bs[j], size)
		}
	}
}

// resolvePair swaps velocities of an overlapping pair and separates them.
// Coincident positions have no separation direction; only the swap applies.
func resolvePair(a, b *Bubble, size float64) {
	d := b.Pos.Sub(a.Pos)
	dist := d.Len()
	if dist >= size {
		return
	}
	a.Vel, b.Vel = b.Vel, a.Vel

	if dist == 0 {
		return
	}
	push := d.Scale((size - dist) / 2 / dist)
	a.Pos = a.Pos.Sub(push)
	b.Pos = b.Pos.Add(push)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
