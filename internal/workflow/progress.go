package workflow

// Progress is reported after every sampled frame.
type Progress struct {
	Stage     string
	Sampled   int
	Accepted  int
	Rejected  int
	Timestamp float64
	// Duration is the video length in seconds, 0 when unknown.
	Duration float64
}

// ProgressFunc receives sampling progress. It runs on the pipeline goroutine
// and must not block.
type ProgressFunc func(Progress)

// Fraction returns how far sampling has advanced through the video, or -1
// when the duration is unknown.
func (p Progress) Fraction() float64 {
	if p.Duration <= 0 {
		return -1
	}
	return min(p.Timestamp/p.Duration, 1)
}
