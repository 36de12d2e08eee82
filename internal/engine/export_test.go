package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportFormats(t *testing.T) {
	want := []string{"bmp", "gox", "obj", "ply", "png", "txt"}
	got := ExportFormats()
	if len(got) != len(want) {
		t.Fatalf("formats = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("formats = %v, want %v", got, want)
		}
	}
}

func TestExportInfersFormatFromExtension(t *testing.T) {
	p := testProject(t)
	dir := t.TempDir()

	for _, ext := range []string{"gox", "obj", "ply", "txt", "png", "bmp"} {
		path := filepath.Join(dir, "model."+ext)
		if err := Export(path, "", p); err != nil {
			t.Fatalf("Export(%s) failed: %v", ext, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("exported %s missing: %v", ext, err)
		}
		if info.Size() == 0 {
			t.Fatalf("exported %s is empty", ext)
		}
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	p := testProject(t)
	path := filepath.Join(t.TempDir(), "model.stl")

	err := Export(path, "", p)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
	if !strings.Contains(err.Error(), "supported:") {
		t.Fatalf("error %q does not list supported formats", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("destination exists after failed export")
	}
}

func TestExportExplicitFormatOverridesExtension(t *testing.T) {
	p := testProject(t)
	path := filepath.Join(t.TempDir(), "model.dat")

	if err := Export(path, "txt", p); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.HasPrefix(string(data), "# voxd text export") {
		t.Fatalf("export does not look like the text format: %.40q", data)
	}
}

func TestExportTxtContent(t *testing.T) {
	p := NewProject("t", 16, 16, 16)
	if err := p.SetVoxel(1, 2, 3, Color{255, 0, 16, 255}); err != nil {
		t.Fatalf("SetVoxel failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "m.txt")
	if err := Export(path, "", p); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), "1 2 3 ff0010") {
		t.Fatalf("export missing voxel line, got:\n%s", data)
	}
}

func TestExportObjContent(t *testing.T) {
	p := NewProject("t", 16, 16, 16)
	p.SetVoxel(0, 0, 0, Color{255, 255, 255, 255})

	path := filepath.Join(t.TempDir(), "m.obj")
	if err := Export(path, "", p); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	content := string(data)
	if got := strings.Count(content, "\nv "); got != 8 {
		t.Fatalf("vertex count = %d, want 8 for one cube", got)
	}
	if got := strings.Count(content, "\nf "); got != 6 {
		t.Fatalf("face count = %d, want 6 for one cube", got)
	}
}

func TestExportSkipsInvisibleLayers(t *testing.T) {
	p := NewProject("t", 16, 16, 16)
	p.SetVoxel(0, 0, 0, Color{1, 1, 1, 255})
	p.AddLayer("hidden", false)
	p.SetVoxel(1, 1, 1, Color{2, 2, 2, 255})

	if got := len(mergedVoxels(p)); got != 1 {
		t.Fatalf("merged voxel count = %d, want 1 (invisible layer skipped)", got)
	}
}

func TestExportMissingDirectory(t *testing.T) {
	p := testProject(t)
	path := filepath.Join(t.TempDir(), "missing", "model.obj")

	if err := Export(path, "", p); err == nil {
		t.Fatalf("Export into a missing directory succeeded")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("destination exists after failed export")
	}
}

func TestWriteFileAtomicFailureLeavesNoTrace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	err := writeFileAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return fmt.Errorf("midway failure")
	})
	if err == nil {
		t.Fatalf("writeFileAtomic succeeded, want failure")
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("destination exists after failed write")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestWriteFileAtomicReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	err := writeFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	})
	if err != nil {
		t.Fatalf("writeFileAtomic failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if string(data) != "new" {
		t.Fatalf("content = %q, want new", data)
	}
}

func TestWriteFileAtomicKeepsOldOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(path, []byte("precious"), 0644); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	writeFileAtomic(path, func(w io.Writer) error {
		return fmt.Errorf("boom")
	})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if string(data) != "precious" {
		t.Fatalf("old content lost on failed write: %q", data)
	}
}
