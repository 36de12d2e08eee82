package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Writes one export format to w.
type exportFunc func(w io.Writer, p *Project) error

// The exporter registry, keyed by format name. Format names double as file
// extensions for auto-detection.
var exporters = map[string]exportFunc{
	"gox": WriteGox,
	"obj": exportObj,
	"ply": exportPly,
	"txt": exportTxt,
	"png": exportPng,
	"bmp": exportBmp,
}

// Returns the supported export format names, sorted.
func ExportFormats() []string {
	names := make([]string, 0, len(exporters))
	for name := range exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exports a project to path in the given format.
//
// An empty format is inferred from the path extension. The destination is
// written atomically: content goes to a temporary file in the same directory
// which is renamed over path only on success, so a failed export never leaves
// a partial destination file.
func Export(path, format string, p *Project) error {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	format = strings.ToLower(format)

	export, ok := exporters[format]
	if !ok {
		return fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedFormat, format, strings.Join(ExportFormats(), ", "))
	}

	return writeFileAtomic(path, func(w io.Writer) error {
		return export(w, p)
	})
}

// Writes path via a temporary file in the same directory, renaming it over
// the destination only after fn succeeds and the file is flushed.
func writeFileAtomic(path string, fn func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := fn(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		return err
	}

	name := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		tmp = nil
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		tmp = nil
		return err
	}

	tmp = nil
	return nil
}

// A voxel paired with its coordinate, for deterministic export ordering.
type voxel struct {
	Coord
	Color Color
}

// Merges visible layers bottom-up (later layers win) and returns the voxels
// sorted by (z, y, x) so exports are reproducible.
func mergedVoxels(p *Project) []voxel {
	merged := make(map[Coord]Color)
	for _, layer := range p.Layers {
		if !layer.Visible {
			continue
		}
		layer.Volume.Visit(func(c Coord, color Color) {
			merged[c] = color
		})
	}

	voxels := make([]voxel, 0, len(merged))
	for c, color := range merged {
		voxels = append(voxels, voxel{Coord: c, Color: color})
	}
	sort.Slice(voxels, func(i, j int) bool {
		a, b := voxels[i], voxels[j]
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return voxels
}

// Corner offsets and faces of a unit cube, shared by the mesh exporters.
var (
	cubeCorners = [8][3]int{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	cubeFaces = [6][4]int{
		{0, 3, 2, 1}, // bottom
		{4, 5, 6, 7}, // top
		{0, 1, 5, 4}, // front
		{2, 3, 7, 6}, // back
		{1, 2, 6, 5}, // right
		{3, 0, 4, 7}, // left
	}
)

// Writes a Wavefront OBJ mesh, one cube per voxel with vertex colors in the
// common "v x y z r g b" extension.
func exportObj(w io.Writer, p *Project) error {
	bw := newErrWriter(w)
	bw.printf("# exported by voxd\n")

	voxels := mergedVoxels(p)
	for _, vx := range voxels {
		r := float64(vx.Color[0]) / 255
		g := float64(vx.Color[1]) / 255
		b := float64(vx.Color[2]) / 255
		for _, c := range cubeCorners {
			bw.printf("v %d %d %d %.4f %.4f %.4f\n",
				vx.X+c[0], vx.Y+c[1], vx.Z+c[2], r, g, b)
		}
	}
	for i := range voxels {
		base := i*8 + 1 // OBJ indices are 1-based
		for _, f := range cubeFaces {
			bw.printf("f %d %d %d %d\n", base+f[0], base+f[1], base+f[2], base+f[3])
		}
	}
	return bw.err
}

// Writes an ASCII PLY mesh, one cube per voxel with per-vertex colors.
func exportPly(w io.Writer, p *Project) error {
	voxels := mergedVoxels(p)
	bw := newErrWriter(w)

	bw.printf("ply\nformat ascii 1.0\ncomment exported by voxd\n")
	bw.printf("element vertex %d\n", len(voxels)*8)
	bw.printf("property float x\nproperty float y\nproperty float z\n")
	bw.printf("property uchar red\nproperty uchar green\nproperty uchar blue\n")
	bw.printf("element face %d\n", len(voxels)*6)
	bw.printf("property list uchar int vertex_indices\nend_header\n")

	for _, vx := range voxels {
		for _, c := range cubeCorners {
			bw.printf("%d %d %d %d %d %d\n",
				vx.X+c[0], vx.Y+c[1], vx.Z+c[2],
				vx.Color[0], vx.Color[1], vx.Color[2])
		}
	}
	for i := range voxels {
		base := i * 8
		for _, f := range cubeFaces {
			bw.printf("4 %d %d %d %d\n", base+f[0], base+f[1], base+f[2], base+f[3])
		}
	}
	return bw.err
}

// Writes the plain text format: one "X Y Z RRGGBB" line per voxel.
func exportTxt(w io.Writer, p *Project) error {
	bw := newErrWriter(w)
	bw.printf("# voxd text export\n# X Y Z RRGGBB\n")
	for _, vx := range mergedVoxels(p) {
		bw.printf("%d %d %d %02x%02x%02x\n",
			vx.X, vx.Y, vx.Z, vx.Color[0], vx.Color[1], vx.Color[2])
	}
	return bw.err
}

// Renders the default camera view and encodes it as PNG.
func exportPng(w io.Writer, p *Project) error {
	img, err := Software{}.Render(p, exportImageSize, exportImageSize)
	if err != nil {
		return err
	}
	return WriteImage(w, "png", img)
}

// Renders the default camera view and encodes it as BMP.
func exportBmp(w io.Writer, p *Project) error {
	img, err := Software{}.Render(p, exportImageSize, exportImageSize)
	if err != nil {
		return err
	}
	return WriteImage(w, "bmp", img)
}

// Edge length of images produced by the png and bmp exporters.
const exportImageSize = 512

// Accumulates the first write error so exporters can chain prints without
// per-line error checks.
type errWriter struct {
	w   io.Writer
	err error
}

func newErrWriter(w io.Writer) *errWriter {
	return &errWriter{w: w}
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
