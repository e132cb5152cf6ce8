// Package imagetest builds small image fixtures for tests: raw TIFF
// streams with hand-rolled tag tables, and plain JPEG bytes with no
// metadata.
package imagetest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// TIFF data types used by fixtures.
const (
	TypeASCII     uint16 = 2
	TypeShort     uint16 = 3
	TypeLong      uint16 = 4
	TypeRational  uint16 = 5
	TypeUndefined uint16 = 7
)

// Common EXIF tag ids.
const (
	TagExposureTime    uint16 = 0x829A
	TagISOSpeedRatings uint16 = 0x8827
	TagMake            uint16 = 0x010F
	TagExifVersion     uint16 = 0x9000
)

// Entry is one IFD entry of a fixture tag table.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	// Value holds the encoded value bytes. Values of four bytes or fewer
	// are stored inline; longer values land in the data area with an
	// offset written into the entry.
	Value []byte
}

// ShortEntry encodes a single SHORT value.
func ShortEntry(tag uint16, v uint16) Entry {
	value := make([]byte, 2)
	binary.LittleEndian.PutUint16(value, v)
	return Entry{Tag: tag, Type: TypeShort, Count: 1, Value: value}
}

// RationalEntry encodes a single RATIONAL value.
func RationalEntry(tag uint16, num, den uint32) Entry {
	value := make([]byte, 8)
	binary.LittleEndian.PutUint32(value[0:4], num)
	binary.LittleEndian.PutUint32(value[4:8], den)
	return Entry{Tag: tag, Type: TypeRational, Count: 1, Value: value}
}

// ASCIIEntry encodes a NUL-terminated ASCII value.
func ASCIIEntry(tag uint16, s string) Entry {
	value := append([]byte(s), 0)
	return Entry{Tag: tag, Type: TypeASCII, Count: uint32(len(value)), Value: value}
}

// UndefinedEntry encodes an UNDEFINED value.
func UndefinedEntry(tag uint16, raw []byte) Entry {
	return Entry{Tag: tag, Type: TypeUndefined, Count: uint32(len(raw)), Value: raw}
}

// TIFF assembles a little-endian TIFF stream whose primary directory holds
// the given entries.
func TIFF(entries ...Entry) []byte {
	const ifdOffset = 8
	dataOffset := uint32(ifdOffset + 2 + 12*len(entries) + 4)

	var header bytes.Buffer
	header.WriteString("II")
	le := binary.LittleEndian

	writeU16 := func(buf *bytes.Buffer, v uint16) {
		b := make([]byte, 2)
		le.PutUint16(b, v)
		buf.Write(b)
	}
	writeU32 := func(buf *bytes.Buffer, v uint32) {
		b := make([]byte, 4)
		le.PutUint32(b, v)
		buf.Write(b)
	}

	writeU16(&header, 42)
	writeU32(&header, ifdOffset)

	var ifd bytes.Buffer
	var data bytes.Buffer

	writeU16(&ifd, uint16(len(entries)))
	for _, e := range entries {
		writeU16(&ifd, e.Tag)
		writeU16(&ifd, e.Type)
		writeU32(&ifd, e.Count)

		if len(e.Value) <= 4 {
			inline := make([]byte, 4)
			copy(inline, e.Value)
			ifd.Write(inline)
		} else {
			writeU32(&ifd, dataOffset+uint32(data.Len()))
			data.Write(e.Value)
		}
	}
	// No further directories.
	writeU32(&ifd, 0)

	out := header
	out.Write(ifd.Bytes())
	out.Write(data.Bytes())
	return out.Bytes()
}

// JPEG encodes a solid-color image with no embedded metadata.
func JPEG(width, height int) []byte {
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 120, B: 40, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Gradient builds an image with varying pixel values, useful for transforms
// whose output on a solid color is degenerate.
func Gradient(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8(x * 255 / max(width-1, 1)),
				G: uint8(y * 255 / max(height-1, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}
