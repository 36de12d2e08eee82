package engine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
)

// Native project file format: "GOX " magic, a version word, then a sequence
// of chunks. Each chunk is a 4-byte type, a little-endian uint32 length, and
// that many bytes of data.
//
//	BL16  one 16x16x16 voxel block, stored as a 64x64 RGBA PNG
//	LAYR  one layer: block placement table followed by a property dict
//	IMG   project-wide property dict
//
// Voxel i within a block sits at (i%16, i/16%16, i/256) and maps to pixel
// (i%64, i/64) of the block image.
const (
	goxMagic   = "GOX "
	goxVersion = 12

	blockDim    = 16
	blockVoxels = blockDim * blockDim * blockDim
	blockImgDim = 64
)

// Guards against absurd chunk lengths in corrupt files.
const maxChunkLength = 64 << 20

// Serializes a project to the native format.
func WriteGox(w io.Writer, p *Project) error {
	if _, err := io.WriteString(w, goxMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(goxVersion)); err != nil {
		return err
	}

	// Gather blocks across all layers, deduplicating identical content.
	var blocks [][]byte
	indexByContent := make(map[string]uint32)
	type placement struct {
		index   uint32
		x, y, z int32
	}
	layerBlocks := make([][]placement, len(p.Layers))

	for li, layer := range p.Layers {
		for origin, data := range splitBlocks(layer.Volume) {
			encoded, err := encodeBlock(data)
			if err != nil {
				return err
			}
			index, ok := indexByContent[string(encoded)]
			if !ok {
				index = uint32(len(blocks))
				indexByContent[string(encoded)] = index
				blocks = append(blocks, encoded)
			}
			layerBlocks[li] = append(layerBlocks[li], placement{
				index: index,
				x:     int32(origin.X),
				y:     int32(origin.Y),
				z:     int32(origin.Z),
			})
		}
	}

	for _, b := range blocks {
		if err := writeChunk(w, "BL16", b); err != nil {
			return err
		}
	}

	for li, layer := range p.Layers {
		var buf bytes.Buffer
		binary.Write(&buf, binary.LittleEndian, uint32(len(layerBlocks[li])))
		for _, pl := range layerBlocks[li] {
			binary.Write(&buf, binary.LittleEndian, pl.index)
			binary.Write(&buf, binary.LittleEndian, pl.x)
			binary.Write(&buf, binary.LittleEndian, pl.y)
			binary.Write(&buf, binary.LittleEndian, pl.z)
			binary.Write(&buf, binary.LittleEndian, uint32(0))
		}
		dictPut(&buf, "name", []byte(layer.Name))
		dictPut(&buf, "visible", boolByte(layer.Visible))
		if err := writeChunk(w, "LAYR", buf.Bytes()); err != nil {
			return err
		}
	}

	var img bytes.Buffer
	dictPut(&img, "name", []byte(p.Name))
	dictPut(&img, "width", int32Bytes(int32(p.Width)))
	dictPut(&img, "height", int32Bytes(int32(p.Height)))
	dictPut(&img, "depth", int32Bytes(int32(p.Depth)))
	dictPut(&img, "active", int32Bytes(int32(p.Active)))
	return writeChunk(w, "IMG ", img.Bytes())
}

// Saves a project to path atomically (temp file plus rename).
func SaveGox(path string, p *Project) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteGox(w, p)
	})
}

// Deserializes a project from the native format.
func ReadGox(r io.Reader) (*Project, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadProjectFile, err)
	}
	if string(magic) != goxMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadProjectFile)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadProjectFile, err)
	}
	if version > goxVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadProjectFile, version)
	}

	p := &Project{
		Width:  DefaultDimension,
		Height: DefaultDimension,
		Depth:  DefaultDimension,
	}
	var blocks [][]Color

	for {
		typ, data, err := readChunk(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch typ {
		case "BL16":
			voxels, err := decodeBlock(data)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, voxels)

		case "LAYR":
			layer, err := readLayerChunk(data, blocks)
			if err != nil {
				return nil, err
			}
			p.Layers = append(p.Layers, layer)

		case "IMG ":
			applyImageDict(p, data)
		}
		// Unknown chunks (PREV, cameras, materials) are skipped.
	}

	if len(p.Layers) == 0 {
		p.Layers = append(p.Layers, &Layer{
			Name:    defaultLayerName,
			Visible: true,
			Volume:  NewVolume(),
		})
	}
	if p.Active < 0 || p.Active >= len(p.Layers) {
		p.Active = 0
	}
	return p, nil
}

// Loads a project from path. The project's Path field records the source.
func LoadGox(path string) (*Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ReadGox(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	p.Path = path
	return p, nil
}

// Groups a volume's voxels into 16-aligned blocks.
func splitBlocks(v *Volume) map[Coord][]Color {
	blocks := make(map[Coord][]Color)
	v.Visit(func(c Coord, color Color) {
		origin := Coord{
			X: floorAlign(c.X),
			Y: floorAlign(c.Y),
			Z: floorAlign(c.Z),
		}
		data, ok := blocks[origin]
		if !ok {
			data = make([]Color, blockVoxels)
			blocks[origin] = data
		}
		i := (c.X - origin.X) + (c.Y-origin.Y)*blockDim + (c.Z-origin.Z)*blockDim*blockDim
		data[i] = color
	})
	return blocks
}

// Rounds down to the enclosing block origin, correct for negatives.
func floorAlign(v int) int {
	if v >= 0 {
		return v / blockDim * blockDim
	}
	return ((v - blockDim + 1) / blockDim) * blockDim
}

// Encodes one block as a 64x64 RGBA PNG.
//
// NRGBA keeps color channels independent of alpha, so partially transparent
// voxels survive the round trip byte-exact.
func encodeBlock(voxels []Color) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, blockImgDim, blockImgDim))
	for i, c := range voxels {
		off := (i/blockImgDim)*img.Stride + (i%blockImgDim)*4
		copy(img.Pix[off:off+4], c[:])
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decodes a BL16 chunk back into block voxel data.
func decodeBlock(data []byte) ([]Color, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: block image: %v", ErrBadProjectFile, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != blockImgDim || bounds.Dy() != blockImgDim {
		return nil, fmt.Errorf("%w: block image is %dx%d, want %dx%d",
			ErrBadProjectFile, bounds.Dx(), bounds.Dy(), blockImgDim, blockImgDim)
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		converted := image.NewNRGBA(bounds)
		draw.Draw(converted, bounds, img, bounds.Min, draw.Src)
		nrgba = converted
	}

	voxels := make([]Color, blockVoxels)
	for i := range voxels {
		off := nrgba.PixOffset(bounds.Min.X+i%blockImgDim, bounds.Min.Y+i/blockImgDim)
		copy(voxels[i][:], nrgba.Pix[off:off+4])
	}
	return voxels, nil
}

// Reconstructs a layer from a LAYR chunk.
func readLayerChunk(data []byte, blocks [][]Color) (*Layer, error) {
	buf := bytes.NewReader(data)

	var nbBlocks uint32
	if err := binary.Read(buf, binary.LittleEndian, &nbBlocks); err != nil {
		return nil, fmt.Errorf("%w: layer header: %v", ErrBadProjectFile, err)
	}

	layer := &Layer{Visible: true, Volume: NewVolume()}
	for i := uint32(0); i < nbBlocks; i++ {
		var index uint32
		var x, y, z, unused int32
		if err := readAll(buf, &index, &x, &y, &z, &unused); err != nil {
			return nil, fmt.Errorf("%w: block table: %v", ErrBadProjectFile, err)
		}
		if int(index) >= len(blocks) {
			return nil, fmt.Errorf("%w: block index %d out of range", ErrBadProjectFile, index)
		}
		for vi, color := range blocks[index] {
			if color[3] == 0 {
				continue
			}
			layer.Volume.Set(Coord{
				X: int(x) + vi%blockDim,
				Y: int(y) + vi/blockDim%blockDim,
				Z: int(z) + vi/(blockDim*blockDim),
			}, color)
		}
	}

	dictVisit(buf, func(key string, value []byte) {
		switch key {
		case "name":
			layer.Name = string(value)
		case "visible":
			layer.Visible = len(value) == 1 && value[0] != 0
		}
	})
	return layer, nil
}

// Applies an IMG chunk's property dict to the project.
func applyImageDict(p *Project, data []byte) {
	dictVisit(bytes.NewReader(data), func(key string, value []byte) {
		switch key {
		case "name":
			p.Name = string(value)
		case "width":
			p.Width = int(readInt32(value))
		case "height":
			p.Height = int(readInt32(value))
		case "depth":
			p.Depth = int(readInt32(value))
		case "active":
			p.Active = int(readInt32(value))
		}
	})
}

func writeChunk(w io.Writer, typ string, data []byte) error {
	if _, err := io.WriteString(w, typ); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readChunk(r io.Reader) (string, []byte, error) {
	typ := make([]byte, 4)
	if _, err := io.ReadFull(r, typ); err != nil {
		if err == io.EOF {
			return "", nil, io.EOF
		}
		return "", nil, fmt.Errorf("%w: chunk header: %v", ErrBadProjectFile, err)
	}

	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", nil, fmt.Errorf("%w: chunk length: %v", ErrBadProjectFile, err)
	}
	if length > maxChunkLength {
		return "", nil, fmt.Errorf("%w: chunk length %d too large", ErrBadProjectFile, length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", nil, fmt.Errorf("%w: chunk data: %v", ErrBadProjectFile, err)
	}
	return string(typ), data, nil
}

// Appends one dict entry: length-prefixed key, length-prefixed value.
func dictPut(buf *bytes.Buffer, key string, value []byte) {
	binary.Write(buf, binary.LittleEndian, uint32(len(key)))
	buf.WriteString(key)
	binary.Write(buf, binary.LittleEndian, uint32(len(value)))
	buf.Write(value)
}

// Iterates dict entries until the reader is exhausted or malformed.
func dictVisit(r *bytes.Reader, fn func(key string, value []byte)) {
	for {
		var klen uint32
		if err := binary.Read(r, binary.LittleEndian, &klen); err != nil {
			return
		}
		if klen == 0 || int(klen) > r.Len() {
			return
		}
		key := make([]byte, klen)
		if _, err := io.ReadFull(r, key); err != nil {
			return
		}

		var vlen uint32
		if err := binary.Read(r, binary.LittleEndian, &vlen); err != nil {
			return
		}
		if int(vlen) > r.Len() {
			return
		}
		value := make([]byte, vlen)
		if _, err := io.ReadFull(r, value); err != nil {
			return
		}
		fn(string(key), value)
	}
}

func readAll(r io.Reader, values ...any) error {
	for _, v := range values {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readInt32(value []byte) int32 {
	if len(value) != 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(value))
}

func int32Bytes(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func boolByte(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}
