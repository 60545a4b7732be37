package texture

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math/bits"
)

const (
	ddsMagic      = 0x20534444 // "DDS "
	ddsHeaderSize = 124

	ddpfAlphaPixels = 0x1
	ddpfFourCC      = 0x4
	ddpfRGB         = 0x40
)

// Formats named by a DX10 extended header.
const (
	dxgiR8G8B8A8     = 28
	dxgiR8G8B8A8SRGB = 29
	dxgiBC1          = 71
	dxgiBC1SRGB      = 72
	dxgiBC2          = 74
	dxgiBC2SRGB      = 75
	dxgiBC3          = 77
	dxgiBC3SRGB      = 78
	dxgiB8G8R8A8     = 87
	dxgiB8G8R8A8SRGB = 91
)

type ddsFormat int

const (
	ddsUnsupported ddsFormat = iota
	ddsBC1
	ddsBC2
	ddsBC3
	ddsMasked
)

type pixelMasks struct {
	bitCount   int
	r, g, b, a uint32
}

// DecodeDDS decodes the top mip level of a DDS texture.
// Supports BC1, BC2 and BC3 block compression and uncompressed 24/32-bit
// masked formats, with or without a DX10 extended header.
func DecodeDDS(data []byte) (image.Image, error) {
	if len(data) < 4+ddsHeaderSize {
		return nil, fmt.Errorf("DDS data too short")
	}
	le := binary.LittleEndian
	if le.Uint32(data[0:]) != ddsMagic {
		return nil, fmt.Errorf("not a DDS file")
	}

	height := int(le.Uint32(data[12:]))
	width := int(le.Uint32(data[16:]))
	pfFlags := le.Uint32(data[80:])
	fourCC := string(data[84:88])
	masks := pixelMasks{
		bitCount: int(le.Uint32(data[88:])),
		r:        le.Uint32(data[92:]),
		g:        le.Uint32(data[96:]),
		b:        le.Uint32(data[100:]),
		a:        le.Uint32(data[104:]),
	}
	if pfFlags&ddpfAlphaPixels == 0 {
		masks.a = 0
	}
	if width <= 0 || height <= 0 || width > 1<<15 || height > 1<<15 {
		return nil, fmt.Errorf("invalid DDS dimensions %dx%d", width, height)
	}

	offset := 4 + ddsHeaderSize
	format := ddsUnsupported
	switch {
	case pfFlags&ddpfFourCC != 0 && fourCC == "DX10":
		if len(data) < offset+20 {
			return nil, fmt.Errorf("DDS DX10 header truncated")
		}
		dxgi := le.Uint32(data[offset:])
		offset += 20
		format, masks = dxgiFormat(dxgi)
		if format == ddsUnsupported {
			return nil, fmt.Errorf("unsupported DXGI format %d", dxgi)
		}
	case pfFlags&ddpfFourCC != 0:
		switch fourCC {
		case "DXT1":
			format = ddsBC1
		case "DXT2", "DXT3":
			format = ddsBC2
		case "DXT4", "DXT5":
			format = ddsBC3
		default:
			return nil, fmt.Errorf("unsupported DDS compression %q", fourCC)
		}
	case pfFlags&ddpfRGB != 0:
		if masks.bitCount != 24 && masks.bitCount != 32 {
			return nil, fmt.Errorf("unsupported DDS bit depth %d (only 24/32 supported)", masks.bitCount)
		}
		format = ddsMasked
	default:
		return nil, fmt.Errorf("unsupported DDS pixel format flags %#x", pfFlags)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	pixels := data[offset:]

	switch format {
	case ddsMasked:
		if err := decodeMasked(img, pixels, masks); err != nil {
			return nil, err
		}
	default:
		if err := decodeBlocks(img, pixels, format); err != nil {
			return nil, err
		}
	}
	return img, nil
}

func dxgiFormat(dxgi uint32) (ddsFormat, pixelMasks) {
	switch dxgi {
	case dxgiBC1, dxgiBC1SRGB:
		return ddsBC1, pixelMasks{}
	case dxgiBC2, dxgiBC2SRGB:
		return ddsBC2, pixelMasks{}
	case dxgiBC3, dxgiBC3SRGB:
		return ddsBC3, pixelMasks{}
	case dxgiR8G8B8A8, dxgiR8G8B8A8SRGB:
		return ddsMasked, pixelMasks{bitCount: 32, r: 0xFF, g: 0xFF00, b: 0xFF0000, a: 0xFF000000}
	case dxgiB8G8R8A8, dxgiB8G8R8A8SRGB:
		return ddsMasked, pixelMasks{bitCount: 32, r: 0xFF0000, g: 0xFF00, b: 0xFF, a: 0xFF000000}
	}
	return ddsUnsupported, pixelMasks{}
}

func decodeMasked(img *image.NRGBA, pixels []byte, m pixelMasks) error {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	bpp := m.bitCount / 8
	if len(pixels) < w*h*bpp {
		return fmt.Errorf("DDS pixel data truncated")
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * bpp
			var v uint32
			for k := 0; k < bpp; k++ {
				v |= uint32(pixels[i+k]) << (8 * k)
			}
			a := uint8(255)
			if m.a != 0 {
				a = channel(v, m.a)
			}
			img.SetNRGBA(x, y, color.NRGBA{R: channel(v, m.r), G: channel(v, m.g), B: channel(v, m.b), A: a})
		}
	}
	return nil
}

// channel extracts the masked bits of v and scales them to 8 bits.
func channel(v, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	full := uint32(1)<<width - 1
	return uint8(((v & mask) >> shift) * 255 / full)
}

func decodeBlocks(img *image.NRGBA, pixels []byte, format ddsFormat) error {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	blockSize := 16
	if format == ddsBC1 {
		blockSize = 8
	}
	bw, bh := (w+3)/4, (h+3)/4
	if len(pixels) < bw*bh*blockSize {
		return fmt.Errorf("DDS block data truncated")
	}

	var block [16]color.NRGBA
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			src := pixels[(by*bw+bx)*blockSize:]
			switch format {
			case ddsBC1:
				decodeColorBlock(&block, src[:8], true)
			case ddsBC2:
				decodeColorBlock(&block, src[8:16], false)
				explicitAlpha(&block, src[:8])
			case ddsBC3:
				decodeColorBlock(&block, src[8:16], false)
				interpolatedAlpha(&block, src[:8])
			}

			for i, c := range block {
				x, y := bx*4+i%4, by*4+i/4
				if x < w && y < h {
					img.SetNRGBA(x, y, c)
				}
			}
		}
	}
	return nil
}

func rgb565(c uint16) color.NRGBA {
	r := uint8(c >> 11 & 0x1F)
	g := uint8(c >> 5 & 0x3F)
	b := uint8(c & 0x1F)
	return color.NRGBA{R: r<<3 | r>>2, G: g<<2 | g>>4, B: b<<3 | b>>2, A: 255}
}

func mix(a, b color.NRGBA, wa, wb, div int) color.NRGBA {
	return color.NRGBA{
		R: uint8((int(a.R)*wa + int(b.R)*wb) / div),
		G: uint8((int(a.G)*wa + int(b.G)*wb) / div),
		B: uint8((int(a.B)*wa + int(b.B)*wb) / div),
		A: 255,
	}
}

// decodeColorBlock decodes an 8-byte BC1 color block. Punch-through alpha
// is only honored for standalone BC1.
func decodeColorBlock(out *[16]color.NRGBA, src []byte, punchThrough bool) {
	c0 := binary.LittleEndian.Uint16(src[0:])
	c1 := binary.LittleEndian.Uint16(src[2:])
	indices := binary.LittleEndian.Uint32(src[4:])

	var palette [4]color.NRGBA
	palette[0] = rgb565(c0)
	palette[1] = rgb565(c1)
	if c0 > c1 || !punchThrough {
		palette[2] = mix(palette[0], palette[1], 2, 1, 3)
		palette[3] = mix(palette[0], palette[1], 1, 2, 3)
	} else {
		palette[2] = mix(palette[0], palette[1], 1, 1, 2)
		palette[3] = color.NRGBA{}
	}

	for i := 0; i < 16; i++ {
		out[i] = palette[indices>>(2*i)&0x3]
	}
}

func explicitAlpha(out *[16]color.NRGBA, src []byte) {
	alpha := binary.LittleEndian.Uint64(src)
	for i := 0; i < 16; i++ {
		a := uint8(alpha >> (4 * i) & 0xF)
		out[i].A = a<<4 | a
	}
}

func interpolatedAlpha(out *[16]color.NRGBA, src []byte) {
	a0, a1 := int(src[0]), int(src[1])

	var palette [8]uint8
	palette[0], palette[1] = uint8(a0), uint8(a1)
	if a0 > a1 {
		for i := 2; i < 8; i++ {
			palette[i] = uint8(((8-i)*a0 + (i-1)*a1) / 7)
		}
	} else {
		for i := 2; i < 6; i++ {
			palette[i] = uint8(((6-i)*a0 + (i-1)*a1) / 5)
		}
		palette[6], palette[7] = 0, 255
	}

	var indices uint64
	for k := 0; k < 6; k++ {
		indices |= uint64(src[2+k]) << (8 * k)
	}
	for i := 0; i < 16; i++ {
		out[i].A = palette[indices>>(3*i)&0x7]
	}
}
