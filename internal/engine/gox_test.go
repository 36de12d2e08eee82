package engine

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testProject(t *testing.T) *Project {
	t.Helper()

	p := NewProject("fixture", 64, 64, 64)
	p.Layers[0].Name = "base"
	voxels := []struct {
		x, y, z int
		color   Color
	}{
		{0, 0, 0, Color{255, 0, 0, 255}},
		{8, 8, 8, Color{0, 255, 0, 255}},
		{15, 15, 15, Color{0, 0, 255, 255}},
		{16, 0, 0, Color{10, 20, 30, 255}},  // second block on x
		{40, 50, 60, Color{1, 2, 3, 128}},   // partial alpha
		{63, 63, 63, Color{200, 100, 50, 255}},
	}
	for _, v := range voxels {
		if err := p.SetVoxel(v.x, v.y, v.z, v.color); err != nil {
			t.Fatalf("SetVoxel(%d, %d, %d) failed: %v", v.x, v.y, v.z, err)
		}
	}

	p.AddLayer("hidden", false)
	if err := p.SetVoxel(1, 1, 1, Color{9, 9, 9, 255}); err != nil {
		t.Fatalf("SetVoxel failed: %v", err)
	}
	return p
}

func TestGoxRoundTrip(t *testing.T) {
	p := testProject(t)
	p.Active = 1

	var buf bytes.Buffer
	if err := WriteGox(&buf, p); err != nil {
		t.Fatalf("WriteGox failed: %v", err)
	}

	got, err := ReadGox(&buf)
	if err != nil {
		t.Fatalf("ReadGox failed: %v", err)
	}

	if got.Name != p.Name {
		t.Fatalf("name = %q, want %q", got.Name, p.Name)
	}
	if got.Width != p.Width || got.Height != p.Height || got.Depth != p.Depth {
		t.Fatalf("dimensions = %dx%dx%d, want %dx%dx%d",
			got.Width, got.Height, got.Depth, p.Width, p.Height, p.Depth)
	}
	if got.Active != 1 {
		t.Fatalf("active = %d, want 1", got.Active)
	}
	if len(got.Layers) != len(p.Layers) {
		t.Fatalf("layer count = %d, want %d", len(got.Layers), len(p.Layers))
	}
	if got.VoxelCount() != p.VoxelCount() {
		t.Fatalf("voxel count = %d, want %d", got.VoxelCount(), p.VoxelCount())
	}

	for li, want := range p.Layers {
		gotLayer := got.Layers[li]
		if gotLayer.Name != want.Name {
			t.Fatalf("layer %d name = %q, want %q", li, gotLayer.Name, want.Name)
		}
		if gotLayer.Visible != want.Visible {
			t.Fatalf("layer %d visible = %v, want %v", li, gotLayer.Visible, want.Visible)
		}
		want.Volume.Visit(func(c Coord, color Color) {
			gotColor, ok := gotLayer.Volume.Get(c)
			if !ok {
				t.Fatalf("layer %d voxel %v missing after round trip", li, c)
			}
			if gotColor != color {
				t.Fatalf("layer %d voxel %v color = %v, want %v", li, c, gotColor, color)
			}
		})
	}
}

func TestSaveLoadGox(t *testing.T) {
	p := testProject(t)
	path := filepath.Join(t.TempDir(), "fixture.gox")

	if err := SaveGox(path, p); err != nil {
		t.Fatalf("SaveGox failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("saved file is empty")
	}

	got, err := LoadGox(path)
	if err != nil {
		t.Fatalf("LoadGox failed: %v", err)
	}
	if got.Path != path {
		t.Fatalf("loaded path = %q, want %q", got.Path, path)
	}
	if got.VoxelCount() != p.VoxelCount() {
		t.Fatalf("voxel count = %d, want %d", got.VoxelCount(), p.VoxelCount())
	}
}

func TestReadGoxRejectsBadMagic(t *testing.T) {
	_, err := ReadGox(bytes.NewReader([]byte("NOPE\x0c\x00\x00\x00")))
	if !errors.Is(err, ErrBadProjectFile) {
		t.Fatalf("err = %v, want ErrBadProjectFile", err)
	}
}

func TestReadGoxRejectsTruncated(t *testing.T) {
	p := testProject(t)
	var buf bytes.Buffer
	if err := WriteGox(&buf, p); err != nil {
		t.Fatalf("WriteGox failed: %v", err)
	}

	truncated := buf.Bytes()[:buf.Len()/2]
	if _, err := ReadGox(bytes.NewReader(truncated)); !errors.Is(err, ErrBadProjectFile) {
		t.Fatalf("err = %v, want ErrBadProjectFile", err)
	}
}

func TestReadGoxRejectsFutureVersion(t *testing.T) {
	data := append([]byte(goxMagic), 0xff, 0x00, 0x00, 0x00)
	if _, err := ReadGox(bytes.NewReader(data)); !errors.Is(err, ErrBadProjectFile) {
		t.Fatalf("err = %v, want ErrBadProjectFile", err)
	}
}

func TestReadGoxEmptyFileHasDefaultLayer(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteGox(&buf, &Project{Name: "bare", Width: 8, Height: 8, Depth: 8}); err != nil {
		t.Fatalf("WriteGox failed: %v", err)
	}

	got, err := ReadGox(&buf)
	if err != nil {
		t.Fatalf("ReadGox failed: %v", err)
	}
	if len(got.Layers) != 1 {
		t.Fatalf("layer count = %d, want a default layer", len(got.Layers))
	}
}

func TestFloorAlign(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 0},
		{1, 0},
		{15, 0},
		{16, 16},
		{17, 16},
		{-1, -16},
		{-16, -16},
		{-17, -32},
	}
	for _, tt := range tests {
		if got := floorAlign(tt.in); got != tt.want {
			t.Fatalf("floorAlign(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
