// Package series holds named, append-only time series whose iteration order
// is the order the names were registered in.
package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// TimeKey is the reserved name of the sample-time column.
const TimeKey = "time"

var (
	ErrDuplicateName = errors.New("series: duplicate name")
	ErrUnknownName   = errors.New("series: unknown name")
	ErrRowWidth      = errors.New("series: row width does not match names")
)

// Store maps each name to its samples. All series share one implicit index
// once rows are appended through AppendRow.
type Store struct {
	names []string
	index map[string]int
	data  [][]float64
}

func New(names ...string) (*Store, error) {
	s := &Store{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, name := range names {
		if _, ok := s.index[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		s.index[name] = len(s.names)
		s.names = append(s.names, name)
		s.data = append(s.data, nil)
	}
	return s, nil
}

// Grow reserves capacity for n samples per series.
func (s *Store) Grow(n int) {
	for i := range s.data {
		if cap(s.data[i])-len(s.data[i]) < n {
			grown := make([]float64, len(s.data[i]), len(s.data[i])+n)
			copy(grown, s.data[i])
			s.data[i] = grown
		}
	}
}

// Names returns the series names in insertion order.
func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of samples in the shortest series.
func (s *Store) Len() int {
	if len(s.data) == 0 {
		return 0
	}
	n := len(s.data[0])
	for _, d := range s.data[1:] {
		if len(d) < n {
			n = len(d)
		}
	}
	return n
}

func (s *Store) Append(name string, v float64) error {
	i, ok := s.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	s.data[i] = append(s.data[i], v)
	return nil
}

// AppendRow appends one sample per series, in name order.
func (s *Store) AppendRow(values []float64) error {
	if len(values) != len(s.names) {
		return fmt.Errorf("%w: got %d values for %d series", ErrRowWidth, len(values), len(s.names))
	}
	for i, v := range values {
		s.data[i] = append(s.data[i], v)
	}
	return nil
}

// Series returns the samples recorded under name. The slice is shared with
// the store and must not be modified.
func (s *Store) Series(name string) ([]float64, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.data[i], true
}

// Row returns sample i of every series in name order.
func (s *Store) Row(i int) []float64 {
	row := make([]float64, len(s.data))
	for j, d := range s.data {
		row[j] = d[i]
	}
	return row
}

// WriteCSV writes a header of names followed by Len() rows.
func (s *Store) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.names); err != nil {
		return err
	}

	record := make([]string, len(s.names))
	for i := 0; i < s.Len(); i++ {
		for j, d := range s.data {
			record[j] = FormatValue(d[i])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV.
func ReadCSV(r io.Reader) (*Store, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("series: read header: %w", err)
	}

	s, err := New(header...)
	if err != nil {
		return nil, err
	}

	row := make([]float64, len(header))
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("series: line %d: %w", line, err)
		}
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("series: line %d column %q: %w", line, header[j], err)
			}
			row[j] = v
		}
		if err := s.AppendRow(row); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FormatValue renders v in plain decimal notation, falling back to
// scientific notation only for very large or very small magnitudes.
func FormatValue(v float64) string {
	abs := math.Abs(v)
	if abs >= 1e21 || (abs != 0 && abs < 1e-7) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
