package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FeatureCount is the length of the model input vector.
const FeatureCount = 12

// PollutantKeys lists the request/provider keys in model feature order.
var PollutantKeys = [FeatureCount]string{
	"pm25", "pm10", "no", "no2", "nox", "nh3", "co", "so2", "o3", "benzene", "toluene", "xylene",
}

// PollutantReading holds the twelve concentrations the model was trained on.
// Zero means either a zero reading or no data; see the package doc.
type PollutantReading struct {
	PM25    float64 `json:"pm25"`
	PM10    float64 `json:"pm10"`
	NO      float64 `json:"no"`
	NO2     float64 `json:"no2"`
	NOx     float64 `json:"nox"`
	NH3     float64 `json:"nh3"`
	CO      float64 `json:"co"`
	SO2     float64 `json:"so2"`
	O3      float64 `json:"o3"`
	Benzene float64 `json:"benzene"`
	Toluene float64 `json:"toluene"`
	Xylene  float64 `json:"xylene"`
}

// fields returns pointers to each field in PollutantKeys order.
func (r *PollutantReading) fields() [FeatureCount]*float64 {
	return [FeatureCount]*float64{
		&r.PM25, &r.PM10, &r.NO, &r.NO2, &r.NOx, &r.NH3,
		&r.CO, &r.SO2, &r.O3, &r.Benzene, &r.Toluene, &r.Xylene,
	}
}

// Features returns the reading as a model input vector.
func (r PollutantReading) Features() []float64 {
	out := make([]float64, FeatureCount)
	for i, p := range r.fields() {
		out[i] = *p
	}
	return out
}

// ParsePollutants fills a PollutantReading from a loosely typed mapping such
// as a decoded JSON object. Unknown keys are ignored; missing and falsy
// values become 0. A present value that cannot be read as a number is an
// ErrValidation naming the key.
func ParsePollutants(raw map[string]any) (PollutantReading, error) {
	var r PollutantReading
	fields := r.fields()
	for i, key := range PollutantKeys {
		v, err := CoerceFloat(raw[key])
		if err != nil {
			return PollutantReading{}, fmt.Errorf("%w: pollutant %q: %w", ErrValidation, key, err)
		}
		*fields[i] = v
	}
	return r, nil
}

// BuildFeatures parses raw pollutant values and returns the fixed-order
// feature vector.
func BuildFeatures(raw map[string]any) ([]float64, error) {
	r, err := ParsePollutants(raw)
	if err != nil {
		return nil, err
	}
	return r.Features(), nil
}

// CoerceFloat converts a decoded JSON value to float64. nil, false and ""
// yield 0. Strings are trimmed and parsed; objects and arrays are rejected.
func CoerceFloat(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case json.Number:
		return parseNumber(string(x))
	case string:
		s := strings.TrimSpace(x)
		if x == "" {
			return 0, nil
		}
		return parseNumber(s)
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("could not convert %q to float", s)
	}
	return f, nil
}
