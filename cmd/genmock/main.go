// Command genmock writes a synthetic city-day CSV in the layout the trainer
// reads. Values are drawn from a seeded generator, so the same flags always
// produce the same file. Some cells are left empty or NaN to exercise the
// trainer's cleaning rules.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/city_day.csv -days 365
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/aqi-predictor/internal/domain"
	"github.com/couchcryptid/aqi-predictor/internal/training"
)

var baseDate = time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)

// cityProfile scales the pollutant baseline for a city.
type cityProfile struct {
	name     string
	severity float64
}

var cities = []cityProfile{
	{name: "Ahmedabad", severity: 1.4},
	{name: "Bengaluru", severity: 0.6},
	{name: "Delhi", severity: 1.8},
	{name: "Mumbai", severity: 0.9},
	{name: "Shillong", severity: 0.3},
}

// Typical daily means for each pollutant, in FeatureColumns order.
var baselines = [domain.FeatureCount]float64{60, 110, 15, 28, 30, 22, 1.5, 12, 35, 3, 8, 2}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the synthetic CSV")
	days := flag.Int("days", 365, "days of data per city")
	seed := flag.Uint64("seed", 42, "generator seed")
	missing := flag.Float64("missing", 0.05, "fraction of pollutant cells left empty")
	flag.Parse()

	if *out == "" || *days <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -days")
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	counts, err := generate(f, *days, *seed, *missing)
	if err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	log.Printf("wrote %s", *out)
	printStats(counts)
	return nil
}

// generate writes the header and days*len(cities) rows, returning row counts
// per AQI category. Rows with no AQI are counted under "".
func generate(w io.Writer, days int, seed uint64, missing float64) (map[string]int, error) {
	rng := rand.New(rand.NewPCG(seed, seed))
	cw := csv.NewWriter(w)

	header := append([]string{"City", "Date"}, training.FeatureColumns...)
	header = append(header, training.TargetColumn, "AQI_Bucket")
	if err := cw.Write(header); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	row := make([]string, len(header))
	for _, c := range cities {
		for d := range days {
			date := baseDate.AddDate(0, 0, d)
			// Winter months are worse.
			season := 1 + 0.5*math.Cos(2*math.Pi*float64(date.YearDay())/365)

			var values [domain.FeatureCount]float64
			for i, base := range baselines {
				values[i] = math.Max(0, base*c.severity*season*(0.6+0.8*rng.Float64()))
			}

			row[0] = c.name
			row[1] = date.Format(time.DateOnly)
			for i, v := range values {
				switch r := rng.Float64(); {
				case r < missing/2:
					row[2+i] = ""
				case r < missing:
					row[2+i] = "NaN"
				default:
					row[2+i] = strconv.FormatFloat(v, 'f', 2, 64)
				}
			}

			aqiCol := 2 + domain.FeatureCount
			if rng.Float64() < missing {
				row[aqiCol], row[aqiCol+1] = "", ""
				counts[""]++
			} else {
				aqi := syntheticAQI(values, rng)
				category := domain.Classify(aqi)
				row[aqiCol] = strconv.FormatFloat(aqi, 'f', 0, 64)
				row[aqiCol+1] = category.Label
				counts[category.Label]++
			}

			if err := cw.Write(row); err != nil {
				return nil, err
			}
		}
	}
	cw.Flush()
	return counts, cw.Error()
}

// syntheticAQI approximates an index dominated by particulates, with a small
// contribution from gases and some noise.
func syntheticAQI(v [domain.FeatureCount]float64, rng *rand.Rand) float64 {
	particulate := math.Max(1.6*v[0], 0.9*v[1])
	gases := 0.4*v[3] + 0.3*v[8] + 8*v[6] + 0.2*v[7]
	aqi := particulate + gases + rng.NormFloat64()*8
	return math.Round(math.Max(aqi, 5))
}

func printStats(counts map[string]int) {
	fmt.Println("\n=== Synthetic Dataset Statistics ===")
	total := 0
	for _, n := range counts {
		total += n
	}
	fmt.Printf("\nRows: %d\n", total)
	for _, c := range domain.Categories() {
		fmt.Printf("  %-32s %d\n", c.Label, counts[c.Label])
	}
	fmt.Printf("  %-32s %d\n", "(no AQI)", counts[""])
}
