package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/cu-axion/haloscope-daq/spectrum"
)

// SaveSpectrum writes a CSV file with line 1 = powers, line 2 =
// frequency axis, matching the format named in the original's
// saveSpectrum.
func SaveSpectrum(path string, s spectrum.Spectrum) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(floatsToStrings(s.Powers)); err != nil {
		return err
	}
	if err := w.Write(floatsToStrings(s.FreqAxis)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// LoadSpectrum is the exact inverse of SaveSpectrum.
func LoadSpectrum(path string) (spectrum.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return spectrum.Spectrum{}, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return spectrum.Spectrum{}, err
	}
	if len(records) < 2 {
		return spectrum.Spectrum{}, fmt.Errorf("store: %s has %d lines, want 2", path, len(records))
	}
	powers, err := stringsToFloats(records[0])
	if err != nil {
		return spectrum.Spectrum{}, err
	}
	freq, err := stringsToFloats(records[1])
	if err != nil {
		return spectrum.Spectrum{}, err
	}
	return spectrum.Spectrum{Powers: powers, FreqAxis: freq}, nil
}

// SaveCombinedSpectrum writes a CSV file with lines 1-3 = powers,
// freqAxis, sigmaCombined, matching saveCombinedSpectrum.
func SaveCombinedSpectrum(path string, powers, freqAxis, sigmaCombined []float64) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	for _, row := range [][]float64{powers, freqAxis, sigmaCombined} {
		if err := w.Write(floatsToStrings(row)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// LoadCombinedSpectrum is the exact inverse of SaveCombinedSpectrum.
func LoadCombinedSpectrum(path string) (powers, freqAxis, sigmaCombined []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) < 3 {
		return nil, nil, nil, fmt.Errorf("store: %s has %d lines, want 3", path, len(records))
	}
	if powers, err = stringsToFloats(records[0]); err != nil {
		return nil, nil, nil, err
	}
	if freqAxis, err = stringsToFloats(records[1]); err != nil {
		return nil, nil, nil, err
	}
	if sigmaCombined, err = stringsToFloats(records[2]); err != nil {
		return nil, nil, nil, err
	}
	return powers, freqAxis, sigmaCombined, nil
}

func floatsToStrings(v []float64) []string {
	out := make([]string, len(v))
	for i, x := range v {
		out[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return out
}

func stringsToFloats(v []string) ([]float64, error) {
	out := make([]float64, len(v))
	for i, s := range v {
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}
