package domain

// CurrentConditions is the subset of a current-conditions lookup the
// console header displays.
type CurrentConditions struct {
	Temperature float64 `json:"temperature"` // °C
	Description string  `json:"description"`
	PlaceName   string  `json:"placeName"`
}
