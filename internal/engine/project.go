package engine

import "fmt"

// Default dimension used when a project is created without explicit bounds.
const DefaultDimension = 64

// Name given to the initial layer of a new project.
const defaultLayerName = "Layer 1"

// A named voxel layer within a project.
type Layer struct {
	Name    string  // Layer name, not required to be unique.
	Visible bool    // Whether the layer participates in renders and exports.
	Volume  *Volume // Voxel storage for this layer.
}

// The single resident unit of work.
//
// A project owns its layers and tracks which one is active. Mutations mark
// the project dirty until the next successful save.
type Project struct {
	Name   string // Project name.
	Path   string // Last save or load path, empty for an unsaved project.
	Width  int    // Voxel-space width (x axis).
	Height int    // Voxel-space height (y axis).
	Depth  int    // Voxel-space depth (z axis).

	Layers []*Layer // Layers in stacking order, always at least one.
	Active int      // Index of the active layer.
	Dirty  bool     // Whether unsaved mutations exist.
}

// Creates a project with the given dimensions and a single empty layer.
func NewProject(name string, width, height, depth int) *Project {
	p := &Project{
		Name:   name,
		Width:  width,
		Height: height,
		Depth:  depth,
	}
	p.Layers = append(p.Layers, &Layer{
		Name:    defaultLayerName,
		Visible: true,
		Volume:  NewVolume(),
	})
	return p
}

// Returns the active layer.
func (p *Project) ActiveLayer() *Layer {
	return p.Layers[p.Active]
}

// Appends a new empty layer and makes it active.
func (p *Project) AddLayer(name string, visible bool) *Layer {
	layer := &Layer{
		Name:    name,
		Visible: visible,
		Volume:  NewVolume(),
	}
	p.Layers = append(p.Layers, layer)
	p.Active = len(p.Layers) - 1
	p.Dirty = true
	return layer
}

// Sets a voxel on the active layer.
//
// Coordinates outside the project dimensions are rejected with
// [ErrOutOfBounds]; the engine never clips silently.
func (p *Project) SetVoxel(x, y, z int, color Color) error {
	if err := p.checkBounds(x, y, z); err != nil {
		return err
	}
	p.ActiveLayer().Volume.Set(Coord{x, y, z}, color)
	p.Dirty = true
	return nil
}

// Removes a voxel from the active layer.
func (p *Project) RemoveVoxel(x, y, z int) error {
	if err := p.checkBounds(x, y, z); err != nil {
		return err
	}
	if p.ActiveLayer().Volume.Remove(Coord{x, y, z}) {
		p.Dirty = true
	}
	return nil
}

// Returns the voxel at the coordinate, searching layers top-down so the
// topmost occupied layer wins.
func (p *Project) GetVoxel(x, y, z int) (Color, bool, error) {
	if err := p.checkBounds(x, y, z); err != nil {
		return Color{}, false, err
	}
	for i := len(p.Layers) - 1; i >= 0; i-- {
		if color, ok := p.Layers[i].Volume.Get(Coord{x, y, z}); ok {
			return color, true, nil
		}
	}
	return Color{}, false, nil
}

// Returns the total occupied voxel count across all layers.
func (p *Project) VoxelCount() int {
	total := 0
	for _, layer := range p.Layers {
		total += layer.Volume.Count()
	}
	return total
}

func (p *Project) checkBounds(x, y, z int) error {
	if x < 0 || x >= p.Width || y < 0 || y >= p.Height || z < 0 || z >= p.Depth {
		return fmt.Errorf("%w: (%d, %d, %d) not in %dx%dx%d",
			ErrOutOfBounds, x, y, z, p.Width, p.Height, p.Depth)
	}
	return nil
}
