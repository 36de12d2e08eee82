package engine

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/bmp"
)

// Produces offscreen renders of a project.
//
// The daemon holds a nil Renderer when the rendering backend is disabled, in
// which case render requests fail with [ErrRenderUnavailable] rather than
// [ErrRenderFailed].
type Renderer interface {
	Render(p *Project, width, height int) (image.Image, error)
}

// The built-in software rasterizer: a fixed isometric camera, orthographic
// projection, and simple height-based shading. No GPU or display required.
type Software struct{}

// Background shade used outside the model.
var renderBackground = color.NRGBA{R: 38, G: 38, B: 46, A: 255}

// Renders the project's visible layers into an image of the given size.
func (Software) Render(p *Project, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = renderBackground.R
		img.Pix[i+1] = renderBackground.G
		img.Pix[i+2] = renderBackground.B
		img.Pix[i+3] = renderBackground.A
	}

	voxels := mergedVoxels(p)
	if len(voxels) == 0 {
		return img, nil
	}

	// Project every voxel isometrically, then derive a uniform scale that
	// fits the projected bounds into the image with a small margin.
	type projected struct {
		u, v  float64
		depth int
		color Color
		z     int
	}
	points := make([]projected, len(voxels))
	minU, maxU := 1e18, -1e18
	minV, maxV := 1e18, -1e18
	minZ, maxZ := voxels[0].Z, voxels[0].Z

	for i, vx := range voxels {
		u := float64(vx.X - vx.Y)
		v := float64(vx.X+vx.Y)/2 - float64(vx.Z)
		points[i] = projected{u: u, v: v, depth: vx.X + vx.Y + vx.Z, color: vx.Color, z: vx.Z}
		minU, maxU = min(minU, u), max(maxU, u)
		minV, maxV = min(minV, v), max(maxV, v)
		minZ, maxZ = min(minZ, vx.Z), max(maxZ, vx.Z)
	}

	margin := 0.05 * float64(min(width, height))
	spanU := maxU - minU + 1
	spanV := maxV - minV + 1
	scale := min((float64(width)-2*margin)/spanU, (float64(height)-2*margin)/spanV)
	if scale < 1 {
		scale = 1
	}
	offX := (float64(width) - spanU*scale) / 2
	offY := (float64(height) - spanV*scale) / 2

	// Painter's order: far voxels first so near ones overwrite them.
	sort.Slice(points, func(i, j int) bool { return points[i].depth < points[j].depth })

	cell := int(scale)
	if cell < 1 {
		cell = 1
	}
	for _, pt := range points {
		shade := 0.65
		if maxZ > minZ {
			shade = 0.55 + 0.45*float64(pt.z-minZ)/float64(maxZ-minZ)
		}
		c := color.NRGBA{
			R: uint8(float64(pt.color[0]) * shade),
			G: uint8(float64(pt.color[1]) * shade),
			B: uint8(float64(pt.color[2]) * shade),
			A: 255,
		}
		px := int((pt.u-minU)*scale + offX)
		py := int((pt.v-minV)*scale + offY)
		fillRect(img, px, py, cell, c)
	}

	return img, nil
}

// Renders through r and writes the image to path atomically. The image
// format follows the path extension (png or bmp, default png).
func RenderToFile(r Renderer, path string, p *Project, width, height int) error {
	if r == nil {
		return ErrRenderUnavailable
	}

	img, err := r.Render(p, width, height)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		format = "png"
	}
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteImage(w, format, img)
	})
}

// Encodes an image as png or bmp.
func WriteImage(w io.Writer, format string, img image.Image) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("%w: image format %q (supported: png, bmp)", ErrUnsupportedFormat, format)
}

func fillRect(img *image.NRGBA, x, y, size int, c color.NRGBA) {
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			px, py := x+dx, y+dy
			if (image.Point{px, py}).In(img.Rect) {
				img.SetNRGBA(px, py, c)
			}
		}
	}
}

