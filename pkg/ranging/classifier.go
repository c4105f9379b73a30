package ranging

// Band is the proximity class of a distance sample
type Band int

const (
	// Near means the sample is at or inside the close range threshold
	Near Band = iota
	// Mid means the sample lies between the two thresholds
	Mid
	// Far means the sample is at or beyond the far range threshold
	Far
)

func (b Band) String() string {
	return []string{"Near", "Mid", "Far"}[b]
}

// DistanceCM converts a distance in meters to whole centimeters, truncating
func DistanceCM(meters float64) int {
	return int(meters * 100)
}

// Classify maps a distance in centimeters to a Band given the close and far thresholds
func Classify(distanceCM, closeThreshold, farThreshold int) Band {
	if distanceCM <= closeThreshold {
		return Near
	}
	if distanceCM >= farThreshold {
		return Far
	}
	return Mid
}

// MarshalText lets bands travel as names in JSON
func (b Band) MarshalText() ([]byte, error) { return []byte(b.String()), nil }
