package pdf

import (
	"math"
	"strconv"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count the way the upload lists show it,
// e.g. "0 Bytes", "512 Bytes", "1.5 KB", "2.25 MB".
func FormatFileSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}

	v := float64(n)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}
