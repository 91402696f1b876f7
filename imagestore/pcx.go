package imagestore

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"
)

// PCX support covers 8-bit images, either paletted (one plane with the
// 256-color palette at the end of the file) or true color (three planes).

type pcxHeader struct {
	Manufacturer byte
	Version      byte
	Encoding     byte
	BitsPerPixel byte
	XMin, YMin   uint16
	XMax, YMax   uint16
	HDpi, VDpi   uint16
	Colormap     [48]byte
	Reserved     byte
	NumPlanes    byte
	BytesPerLine uint16
	PaletteInfo  uint16
	HScreenSize  uint16
	VScreenSize  uint16
	Filler       [54]byte
}

const (
	pcxManufacturer  = 0x0A
	pcxPaletteMarker = 0x0C
	pcxRLEThreshold  = 0xC0
	pcxHeaderSize    = 128
	pcxPaletteSize   = 768
)

func init() {
	image.RegisterFormat("pcx", "\x0a", decodePCX, decodePCXConfig)
}

func readPCXHeader(r io.Reader) (pcxHeader, error) {
	var hdr pcxHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return hdr, errors.Wrap(err, "pcx header")
	}
	if hdr.Manufacturer != pcxManufacturer || hdr.Encoding != 1 {
		return hdr, errors.New("pcx: not an RLE encoded PCX file")
	}
	if hdr.BitsPerPixel != 8 || (hdr.NumPlanes != 1 && hdr.NumPlanes != 3) {
		return hdr, errors.Errorf("pcx: unsupported %d bits x %d planes", hdr.BitsPerPixel, hdr.NumPlanes)
	}
	if hdr.XMax < hdr.XMin || hdr.YMax < hdr.YMin {
		return hdr, errors.New("pcx: invalid window")
	}
	if int(hdr.BytesPerLine) < int(hdr.XMax-hdr.XMin)+1 {
		return hdr, errors.New("pcx: bytes per line shorter than width")
	}
	return hdr, nil
}

func decodePCXConfig(r io.Reader) (image.Config, error) {
	hdr, err := readPCXHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.RGBAModel,
		Width:      int(hdr.XMax-hdr.XMin) + 1,
		Height:     int(hdr.YMax-hdr.YMin) + 1,
	}, nil
}

func decodePCX(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "pcx read")
	}
	hdr, err := readPCXHeader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	w := int(hdr.XMax-hdr.XMin) + 1
	h := int(hdr.YMax-hdr.YMin) + 1
	planes := int(hdr.NumPlanes)
	lineLen := int(hdr.BytesPerLine) * planes

	body := data[pcxHeaderSize:]
	if planes == 1 {
		if len(data) < pcxHeaderSize+pcxPaletteSize+1 || data[len(data)-pcxPaletteSize-1] != pcxPaletteMarker {
			return nil, errors.New("pcx: missing 256-color palette")
		}
		body = data[pcxHeaderSize : len(data)-pcxPaletteSize-1]
	}
	scan, err := unpackPCX(body, lineLen*h)
	if err != nil {
		return nil, err
	}

	if planes == 1 {
		pal := data[len(data)-pcxPaletteSize:]
		palette := make(color.Palette, 256)
		for i := range palette {
			palette[i] = color.RGBA{R: pal[i*3], G: pal[i*3+1], B: pal[i*3+2], A: 255}
		}
		img := image.NewPaletted(image.Rect(0, 0, w, h), palette)
		for y := 0; y < h; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+w], scan[y*lineLen:])
		}
		return img, nil
	}

	bpl := int(hdr.BytesPerLine)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		line := scan[y*lineLen:]
		for x := 0; x < w; x++ {
			i := y*img.Stride + x*4
			img.Pix[i+0] = line[x]
			img.Pix[i+1] = line[bpl+x]
			img.Pix[i+2] = line[2*bpl+x]
			img.Pix[i+3] = 255
		}
	}
	return img, nil
}

// unpackPCX expands run-length encoded scanlines into exactly n bytes.
func unpackPCX(src []byte, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for i := 0; len(out) < n; {
		if i >= len(src) {
			return nil, errors.Wrap(io.ErrUnexpectedEOF, "pcx data")
		}
		b := src[i]
		i++
		count := 1
		if b >= pcxRLEThreshold {
			count = int(b & 0x3F)
			if i >= len(src) {
				return nil, errors.Wrap(io.ErrUnexpectedEOF, "pcx run")
			}
			b = src[i]
			i++
		}
		for j := 0; j < count && len(out) < n; j++ {
			out = append(out, b)
		}
	}
	return out, nil
}
