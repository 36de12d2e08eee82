package server

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/voxelhq/voxd/internal"
	"github.com/voxelhq/voxd/internal/engine"
	"github.com/voxelhq/voxd/internal/rpc"
)

// Largest accepted render_scene dimension on either axis.
const maxRenderSize = 8192

// Returns the resident project, or errNoProject.
func (s *Server) project() (*engine.Project, error) {
	if s.state.project == nil {
		return nil, errNoProject
	}
	return s.state.project, nil
}

// Handles create_project.
//
// Discards any existing resident project. Omitted dimensions default to 64;
// explicitly non-positive dimensions are rejected.
func handleCreateProject(s *Server, args rpc.Args) (any, error) {
	width := args.Int("width")
	height := args.Int("height")
	depth := args.Int("depth")
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, rpc.Errorf(rpc.CodeInvalidParams,
			"dimensions must be positive, got %dx%dx%d", width, height, depth)
	}

	name := args.String("name")
	s.state.project = engine.NewProject(name, width, height, depth)

	slog.Info("project created", "name", name,
		"width", width, "height", height, "depth", depth)

	return map[string]any{
		"success": true,
		"name":    name,
		"width":   width,
		"height":  height,
		"depth":   depth,
	}, nil
}

// Handles load_project. Replaces the resident project with the file's
// content; the resident project is untouched on failure.
func handleLoadProject(s *Server, args rpc.Args) (any, error) {
	path := args.String("path")

	p, err := engine.LoadGox(path)
	if err != nil {
		return nil, err
	}
	s.state.project = p

	slog.Info("project loaded", "path", path, "voxels", p.VoxelCount())
	return map[string]any{"success": true, "path": path}, nil
}

// Handles save_project.
//
// An existing destination file is backed up (gzip) before being replaced,
// and the write itself is atomic, so a failed save never corrupts the
// previous on-disk state.
func handleSaveProject(s *Server, args rpc.Args) (any, error) {
	p, err := s.project()
	if err != nil {
		return nil, err
	}
	path := args.String("path")

	if s.state.backups != "" {
		backup, err := engine.Backup(path, s.state.backups)
		if err != nil {
			slog.Warn("backup failed", "path", path, "error", err)
		} else if backup != "" {
			slog.Debug("backup written", "path", backup)
		}
	}

	if err := engine.SaveGox(path, p); err != nil {
		return nil, err
	}
	p.Path = path
	p.Dirty = false

	slog.Info("project saved", "path", path, "voxels", p.VoxelCount())
	return map[string]any{"success": true, "path": path}, nil
}

// Handles add_voxel. Sets a voxel on the active layer; coordinates outside
// the project dimensions are rejected, never clipped.
func handleAddVoxel(s *Server, args rpc.Args) (any, error) {
	p, err := s.project()
	if err != nil {
		return nil, err
	}

	r, g, b := args.Int("r"), args.Int("g"), args.Int("b")
	if !validColor(r) || !validColor(g) || !validColor(b) {
		return nil, rpc.Errorf(rpc.CodeInvalidParams,
			"color components must be 0-255, got (%d, %d, %d)", r, g, b)
	}
	a := args.Int("a")
	if a <= 0 || a > 255 {
		a = 255
	}

	err = p.SetVoxel(args.Int("x"), args.Int("y"), args.Int("z"),
		engine.Color{uint8(r), uint8(g), uint8(b), uint8(a)})
	if err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

// Handles remove_voxel.
func handleRemoveVoxel(s *Server, args rpc.Args) (any, error) {
	p, err := s.project()
	if err != nil {
		return nil, err
	}

	if err := p.RemoveVoxel(args.Int("x"), args.Int("y"), args.Int("z")); err != nil {
		return nil, err
	}
	return map[string]any{"success": true}, nil
}

// Handles get_voxel. An empty cell is not an error; it reports exists=false
// with a fully transparent color.
func handleGetVoxel(s *Server, args rpc.Args) (any, error) {
	p, err := s.project()
	if err != nil {
		return nil, err
	}

	x, y, z := args.Int("x"), args.Int("y"), args.Int("z")
	color, exists, err := p.GetVoxel(x, y, z)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"x":      x,
		"y":      y,
		"z":      z,
		"exists": exists,
		"color":  []int{int(color[0]), int(color[1]), int(color[2]), int(color[3])},
	}, nil
}

// Handles export_model. The format defaults to the path extension.
func handleExportModel(s *Server, args rpc.Args) (any, error) {
	p, err := s.project()
	if err != nil {
		return nil, err
	}
	path := args.String("path")
	format := args.String("format")

	if err := engine.Export(path, format, p); err != nil {
		return nil, err
	}

	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	slog.Info("model exported", "path", path, "format", format)
	return map[string]any{"success": true, "path": path, "format": format}, nil
}

// Handles render_scene. Renders the default camera view offscreen and writes
// the image to path.
func handleRenderScene(s *Server, args rpc.Args) (any, error) {
	p, err := s.project()
	if err != nil {
		return nil, err
	}

	width, height := args.Int("width"), args.Int("height")
	if width <= 0 || height <= 0 || width > maxRenderSize || height > maxRenderSize {
		return nil, rpc.Errorf(rpc.CodeInvalidParams,
			"render size must be within 1x1 and %dx%d, got %dx%d",
			maxRenderSize, maxRenderSize, width, height)
	}
	path := args.String("path")

	if err := engine.RenderToFile(s.state.renderer, path, p, width, height); err != nil {
		return nil, err
	}

	slog.Info("scene rendered", "path", path, "width", width, "height", height)
	return map[string]any{"success": true, "path": path, "width": width, "height": height}, nil
}

// Handles get_status. Works with or without a resident project.
func handleGetStatus(s *Server, args rpc.Args) (any, error) {
	s.mu.Lock()
	requests := s.requests
	s.mu.Unlock()

	status := map[string]any{
		"version":  internal.VersionString(),
		"uptime":   time.Since(s.startedAt).Truncate(time.Second).String(),
		"requests": requests,
		"project":  nil,
	}

	if p := s.state.project; p != nil {
		status["project"] = p.Name
		status["width"] = p.Width
		status["height"] = p.Height
		status["depth"] = p.Depth
		status["layer_count"] = len(p.Layers)
		status["dirty"] = p.Dirty
	}
	return status, nil
}

// Handles list_layers.
func handleListLayers(s *Server, args rpc.Args) (any, error) {
	p, err := s.project()
	if err != nil {
		return nil, err
	}

	layers := make([]map[string]any, len(p.Layers))
	for i, layer := range p.Layers {
		layers[i] = map[string]any{
			"id":      i,
			"name":    layer.Name,
			"visible": layer.Visible,
			"active":  i == p.Active,
		}
	}
	return map[string]any{"count": len(layers), "layers": layers}, nil
}

// Handles create_layer. The new layer becomes active.
func handleCreateLayer(s *Server, args rpc.Args) (any, error) {
	p, err := s.project()
	if err != nil {
		return nil, err
	}

	name := args.String("name")
	visible := args.Bool("visible")
	p.AddLayer(name, visible)

	slog.Info("layer created", "name", name, "visible", visible)
	return map[string]any{"success": true, "name": name, "visible": visible}, nil
}

func validColor(v int) bool {
	return v >= 0 && v <= 255
}
