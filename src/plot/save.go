package plot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"math"
	"os"
)

// pngHeaderLen covers the 8-byte signature and the IHDR chunk (length, type, 13 data bytes, CRC).
const pngHeaderLen = 8 + 4 + 4 + 13 + 4

// Encode writes img as PNG with a pHYs chunk recording dpi, so viewers and print tools
// size the figure in inches the same way it was laid out.
func Encode(w io.Writer, img image.Image, dpi float64) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	out, err := withDPI(buf.Bytes(), dpi)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func withDPI(b []byte, dpi float64) ([]byte, error) {
	if dpi <= 0 {
		return b, nil
	}
	if len(b) < pngHeaderLen || string(b[12:16]) != "IHDR" {
		return nil, errors.New("png: unexpected header layout")
	}
	ppm := uint32(math.Round(dpi / 0.0254))
	data := make([]byte, 0, 4+9)
	data = append(data, "pHYs"...)
	data = binary.BigEndian.AppendUint32(data, ppm)
	data = binary.BigEndian.AppendUint32(data, ppm)
	data = append(data, 1) // unit: metre

	chunk := make([]byte, 0, 4+len(data)+4)
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(data)-4))
	chunk = append(chunk, data...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(data))

	out := make([]byte, 0, len(b)+len(chunk))
	out = append(out, b[:pngHeaderLen]...)
	out = append(out, chunk...)
	out = append(out, b[pngHeaderLen:]...)
	return out, nil
}

// Save encodes img in memory and then replaces path. A failed encode leaves any existing
// file untouched.
func Save(path string, img image.Image, dpi float64) error {
	var buf bytes.Buffer
	if err := Encode(&buf, img, dpi); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
