package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// SaveRawBuffer writes samples as a contiguous little-endian dump of
// two float64s per sample (real, imag), matching the original's raw
// fftw_complex byte layout, to <dir>/Buffer<seq>.bin.
func SaveRawBuffer(dir string, seq uint64, samples []complex128) error {
	path := filepath.Join(dir, fmt.Sprintf("Buffer%d.bin", seq))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, 16*len(samples))
	for i, c := range samples {
		binary.LittleEndian.PutUint64(buf[16*i:], math.Float64bits(real(c)))
		binary.LittleEndian.PutUint64(buf[16*i+8:], math.Float64bits(imag(c)))
	}
	_, err = f.Write(buf)
	return err
}

// LoadRawBuffer is the exact inverse of SaveRawBuffer.
func LoadRawBuffer(path string) ([]complex128, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%16 != 0 {
		return nil, fmt.Errorf("store: %s has size %d, not a multiple of 16", path, len(data))
	}
	n := len(data) / 16
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		re := math.Float64frombits(binary.LittleEndian.Uint64(data[16*i:]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(data[16*i+8:]))
		out[i] = complex(re, im)
	}
	return out, nil
}
