package airquality

// Category is an air-quality bucket. Dangerous and Bad are the top buckets of
// the four- and three-bucket variants respectively.
type Category string

const (
	CategoryGood      Category = "good"
	CategoryModerate  Category = "moderate"
	CategoryUnhealthy Category = "unhealthy"
	CategoryDangerous Category = "dangerous"
	CategoryBad       Category = "bad"
)

// Severity returns a numeric severity for sorting (higher = worse).
func (c Category) Severity() int {
	switch c {
	case CategoryDangerous:
		return 3
	case CategoryUnhealthy, CategoryBad:
		return 2
	case CategoryModerate:
		return 1
	default:
		return 0
	}
}

func (c Category) Label() string {
	switch c {
	case CategoryGood:
		return "Good"
	case CategoryModerate:
		return "Moderate"
	case CategoryUnhealthy:
		return "Unhealthy"
	case CategoryDangerous:
		return "Dangerous"
	case CategoryBad:
		return "Bad"
	}
	return "Unknown"
}

// CSSClass returns the class used by the dashboard templates.
func (c Category) CSSClass() string {
	return "quality-" + string(c)
}

// AlertColor maps the category to the badge color of the PM2.5 ranking.
func (c Category) AlertColor() string {
	switch c {
	case CategoryGood:
		return "green"
	case CategoryModerate:
		return "yellow"
	case CategoryUnhealthy, CategoryBad:
		return "orange"
	default:
		return "red"
	}
}

// Thresholds are exclusive upper bounds of the lower buckets. A zero
// Unhealthy bound selects the three-bucket variant (Good, Moderate, Bad).
type Thresholds struct {
	Good      float64
	Moderate  float64
	Unhealthy float64
}

func (t Thresholds) FourBucket() bool {
	return t.Unhealthy > 0
}

// GaugeThresholds color the quality and contamination gauges on the
// dashboard cards (index scale 0-100).
var GaugeThresholds = Thresholds{Good: 25, Moderate: 50, Unhealthy: 75}

// PM25AlertThresholds color the PM2.5 ranking badges (µg/m³).
var PM25AlertThresholds = Thresholds{Good: 12, Moderate: 35, Unhealthy: 55}

// PollutantThresholds color the per-pollutant values in the simple chart
// view. Three buckets each.
var PollutantThresholds = map[Field]Thresholds{
	FieldPM25: {Good: 12, Moderate: 35},
	FieldPM10: {Good: 54, Moderate: 154},
	FieldCO:   {Good: 4.4, Moderate: 9.4},
	FieldO3:   {Good: 54, Moderate: 70},
	FieldNO2:  {Good: 53, Moderate: 100},
}

// Classify buckets value against t.
func Classify(value float64, t Thresholds) Category {
	switch {
	case value < t.Good:
		return CategoryGood
	case value < t.Moderate:
		return CategoryModerate
	case !t.FourBucket():
		return CategoryBad
	case value < t.Unhealthy:
		return CategoryUnhealthy
	default:
		return CategoryDangerous
	}
}
