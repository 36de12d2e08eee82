package engine

// An RGBA voxel color. A voxel exists when its alpha is non-zero.
type Color [4]uint8

// A voxel coordinate.
type Coord struct {
	X, Y, Z int
}

// A sparse voxel store.
//
// Only occupied voxels consume memory. The volume itself is unbounded;
// dimension limits are enforced by [Project].
type Volume struct {
	voxels map[Coord]Color
}

// Creates an empty volume.
func NewVolume() *Volume {
	return &Volume{voxels: make(map[Coord]Color)}
}

// Sets the voxel at the given coordinate.
//
// Setting a fully transparent color erases the voxel, matching the engine
// convention that alpha zero means absent.
func (v *Volume) Set(c Coord, color Color) {
	if color[3] == 0 {
		delete(v.voxels, c)
		return
	}
	v.voxels[c] = color
}

// Returns the voxel color and whether a voxel exists at the coordinate.
func (v *Volume) Get(c Coord) (Color, bool) {
	color, ok := v.voxels[c]
	return color, ok
}

// Removes the voxel at the coordinate. Returns whether a voxel was present.
func (v *Volume) Remove(c Coord) bool {
	_, ok := v.voxels[c]
	delete(v.voxels, c)
	return ok
}

// Returns the number of occupied voxels.
func (v *Volume) Count() int {
	return len(v.voxels)
}

// Calls fn for every occupied voxel. Iteration order is unspecified.
func (v *Volume) Visit(fn func(c Coord, color Color)) {
	for c, color := range v.voxels {
		fn(c, color)
	}
}

// Returns the inclusive bounding box of occupied voxels.
//
// ok is false for an empty volume.
func (v *Volume) Bounds() (min, max Coord, ok bool) {
	for c := range v.voxels {
		if !ok {
			min, max, ok = c, c, true
			continue
		}
		if c.X < min.X {
			min.X = c.X
		}
		if c.Y < min.Y {
			min.Y = c.Y
		}
		if c.Z < min.Z {
			min.Z = c.Z
		}
		if c.X > max.X {
			max.X = c.X
		}
		if c.Y > max.Y {
			max.Y = c.Y
		}
		if c.Z > max.Z {
			max.Z = c.Z
		}
	}
	return min, max, ok
}
