package stats

type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// Histogram spreads values over bins equal-width buckets between the minimum
// and maximum value. The last bucket includes its upper edge. A single
// distinct value is centred in a bucket range one unit wide.
func Histogram(values []int, bins int) []Bin {
	if len(values) == 0 || bins <= 0 {
		return nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	low, high := float64(lo), float64(hi)
	if lo == hi {
		low -= 0.5
		high += 0.5
	}
	width := (high - low) / float64(bins)

	out := make([]Bin, bins)
	for i := range out {
		out[i].Low = low + float64(i)*width
		out[i].High = low + float64(i+1)*width
	}
	out[bins-1].High = high

	for _, v := range values {
		i := int((float64(v) - low) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		out[i].Count++
	}
	return out
}
