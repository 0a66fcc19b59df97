package training

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// FeatureColumns are the dataset columns used as model inputs, in the same
// order as domain.PollutantKeys.
var FeatureColumns = []string{
	"PM2.5", "PM10", "NO", "NO2", "NOx", "NH3", "CO", "SO2", "O3", "Benzene", "Toluene", "Xylene",
}

// TargetColumn holds the observed AQI.
const TargetColumn = "AQI"

// Dataset is a cleaned feature matrix with its target.
type Dataset struct {
	X [][]float64
	Y []float64
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Y) }

// LoadStats describes what cleaning did to the raw file.
type LoadStats struct {
	Rows          int // data rows read
	DroppedNoAQI  int // rows without a target
	FilledMissing int // feature cells filled with 0
}

// LoadDataset reads a city-day style CSV. Rows without an AQI are dropped and
// missing pollutant cells are filled with 0. Other columns are ignored.
func LoadDataset(r io.Reader) (Dataset, LoadStats, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return Dataset{}, LoadStats{}, fmt.Errorf("read header: %w", err)
	}
	featIdx, targetIdx, err := columnIndexes(header)
	if err != nil {
		return Dataset{}, LoadStats{}, err
	}

	var ds Dataset
	var stats LoadStats
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Dataset{}, stats, fmt.Errorf("read row: %w", err)
		}
		stats.Rows++
		line, _ := cr.FieldPos(0)

		target, ok, err := parseCell(rec[targetIdx])
		if err != nil {
			return Dataset{}, stats, fmt.Errorf("line %d column %s: %w", line, TargetColumn, err)
		}
		if !ok {
			stats.DroppedNoAQI++
			continue
		}

		row := make([]float64, len(featIdx))
		for j, idx := range featIdx {
			v, ok, err := parseCell(rec[idx])
			if err != nil {
				return Dataset{}, stats, fmt.Errorf("line %d column %s: %w", line, FeatureColumns[j], err)
			}
			if !ok {
				stats.FilledMissing++
				v = 0
			}
			row[j] = v
		}
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, target)
	}

	if ds.Len() == 0 {
		return Dataset{}, stats, errors.New("dataset has no rows with an AQI value")
	}
	return ds, stats, nil
}

func columnIndexes(header []string) ([]int, int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	featIdx := make([]int, len(FeatureColumns))
	var missing []string
	for j, name := range FeatureColumns {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		featIdx[j] = i
	}
	targetIdx, ok := pos[TargetColumn]
	if !ok {
		missing = append(missing, TargetColumn)
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("dataset missing columns: %s", strings.Join(missing, ", "))
	}
	return featIdx, targetIdx, nil
}

// parseCell returns ok=false for empty and NaN cells.
func parseCell(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	return v, true, nil
}
