package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fwojciec/docindex"
)

// parseRFC3339 parses an RFC3339 formatted timestamp string.
// Returns an error if parsing fails with a descriptive message including the field name.
func parseRFC3339(value, fieldName string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// appendFilter appends one AND clause per non-nil filter field.
func appendFilter(query *strings.Builder, args *[]any, filter docindex.PassageFilter) {
	for _, f := range []struct {
		column string
		value  *string
	}{
		{"source", filter.Source},
		{"url", filter.URL},
		{"language", filter.Language},
		{"framework", filter.Framework},
		{"version", filter.Version},
	} {
		if f.value == nil {
			continue
		}
		query.WriteString(" AND " + f.column + " = ?")
		*args = append(*args, *f.value)
	}
}

// placeholders returns n comma separated '?' markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

// decodeVector unpacks a little-endian float32 BLOB.
func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob has %d bytes, not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

// cosineDistance returns 1 - cosine similarity of a and b. The second result
// is false when the vectors differ in length or either has zero magnitude.
func cosineDistance(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb)), true
}
