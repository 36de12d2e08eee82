package engine

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"
)

func TestSoftwareRenderSize(t *testing.T) {
	p := testProject(t)

	for _, size := range []struct{ w, h int }{{64, 64}, {256, 128}, {1, 1}} {
		img, err := Software{}.Render(p, size.w, size.h)
		if err != nil {
			t.Fatalf("Render(%dx%d) failed: %v", size.w, size.h, err)
		}
		b := img.Bounds()
		if b.Dx() != size.w || b.Dy() != size.h {
			t.Fatalf("image size = %dx%d, want %dx%d", b.Dx(), b.Dy(), size.w, size.h)
		}
	}
}

func TestSoftwareRenderBadSize(t *testing.T) {
	p := testProject(t)

	for _, size := range []struct{ w, h int }{{0, 64}, {64, 0}, {-1, 64}} {
		if _, err := (Software{}).Render(p, size.w, size.h); err == nil {
			t.Fatalf("Render(%dx%d) succeeded, want error", size.w, size.h)
		}
	}
}

func TestSoftwareRenderEmptyProject(t *testing.T) {
	p := NewProject("empty", 16, 16, 16)

	img, err := Software{}.Render(p, 32, 32)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := img.(*image.NRGBA).NRGBAAt(16, 16)
	if got != renderBackground {
		t.Fatalf("pixel = %v, want background %v", got, renderBackground)
	}
}

func TestSoftwareRenderDrawsVoxels(t *testing.T) {
	p := NewProject("t", 16, 16, 16)
	p.SetVoxel(8, 8, 8, Color{255, 255, 255, 255})

	img, err := Software{}.Render(p, 64, 64)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	nrgba := img.(*image.NRGBA)
	found := false
	for i := 0; i < len(nrgba.Pix); i += 4 {
		if nrgba.Pix[i] != renderBackground.R ||
			nrgba.Pix[i+1] != renderBackground.G ||
			nrgba.Pix[i+2] != renderBackground.B {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("rendered image is all background")
	}
}

func TestRenderToFileNilRenderer(t *testing.T) {
	p := testProject(t)
	path := filepath.Join(t.TempDir(), "out.png")

	err := RenderToFile(nil, path, p, 64, 64)
	if !errors.Is(err, ErrRenderUnavailable) {
		t.Fatalf("err = %v, want ErrRenderUnavailable", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("destination exists after unavailable renderer")
	}
}

type failingRenderer struct{}

func (failingRenderer) Render(p *Project, width, height int) (image.Image, error) {
	return nil, fmt.Errorf("backend crashed")
}

func TestRenderToFileRenderFailure(t *testing.T) {
	p := testProject(t)
	path := filepath.Join(t.TempDir(), "out.png")

	err := RenderToFile(failingRenderer{}, path, p, 64, 64)
	if !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("err = %v, want ErrRenderFailed", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("destination exists after failed render")
	}
}

func TestRenderToFileFormats(t *testing.T) {
	p := testProject(t)
	dir := t.TempDir()

	magics := map[string][]byte{
		"out.png": []byte("\x89PNG"),
		"out.bmp": []byte("BM"),
		"out":     []byte("\x89PNG"), // no extension defaults to png
	}
	for name, magic := range magics {
		path := filepath.Join(dir, name)
		if err := RenderToFile(Software{}, path, p, 64, 64); err != nil {
			t.Fatalf("RenderToFile(%s) failed: %v", name, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if !bytes.HasPrefix(data, magic) {
			t.Fatalf("%s starts with % x, want % x", name, data[:4], magic)
		}
	}
}

func TestWriteImageUnsupportedFormat(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	err := WriteImage(&bytes.Buffer{}, "gif", img)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}
