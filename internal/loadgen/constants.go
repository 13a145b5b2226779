package loadgen

// HTTP status code constants.
const (
	StatusOK = 200
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	confidenceTolerance  = 1e-9
)

// Upper bounds of the uniform feature distribution, in vector order.
var featureRanges = [4]float64{80, 300, 1000, 200} //nolint:gochecknoglobals // immutable table
