package domain

// Category is an AQI severity label with its display color.
type Category struct {
	Label string `json:"category"`
	Color string `json:"color"`
}

var (
	Good                        = Category{Label: "Good", Color: "#00E400"}
	Moderate                    = Category{Label: "Moderate", Color: "#FFFF00"}
	UnhealthyForSensitiveGroups = Category{Label: "Unhealthy for Sensitive Groups", Color: "#FF7E00"}
	Unhealthy                   = Category{Label: "Unhealthy", Color: "#FF0000"}
	VeryUnhealthy               = Category{Label: "Very Unhealthy", Color: "#8F3F97"}
	Hazardous                   = Category{Label: "Hazardous", Color: "#7E0023"}
)

// Categories returns every category from least to most severe.
func Categories() []Category {
	return []Category{Good, Moderate, UnhealthyForSensitiveGroups, Unhealthy, VeryUnhealthy, Hazardous}
}

// Classify maps an AQI score to its category. Upper bounds are inclusive, so
// 50 is Good and 50.01 is Moderate. Negative scores are Good; NaN compares
// false against every bound and lands in Hazardous.
func Classify(aqi float64) Category {
	switch {
	case aqi <= 50:
		return Good
	case aqi <= 100:
		return Moderate
	case aqi <= 150:
		return UnhealthyForSensitiveGroups
	case aqi <= 200:
		return Unhealthy
	case aqi <= 300:
		return VeryUnhealthy
	default:
		return Hazardous
	}
}
