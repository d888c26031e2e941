package token

import "strconv"

// Count is an occurrence count that prints with three significant digits
// and a K/M/B/T suffix (1.23M).
type Count uint64

var countUnits = []struct {
	scale  float64
	suffix string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

func (c Count) String() string {
	for _, u := range countUnits {
		// 999999 rounds to 1.00M rather than 1000K.
		v := float64(c) / u.scale
		if v < 0.9995 {
			continue
		}
		prec := 2
		switch {
		case v >= 100:
			prec = 0
		case v >= 10:
			prec = 1
		}
		return strconv.FormatFloat(v, 'f', prec, 64) + u.suffix
	}
	return strconv.FormatUint(uint64(c), 10)
}
