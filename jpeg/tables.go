package jpeg

import (
	"github.com/Jpn666/jimage/internal/jpegdsp"
	"github.com/Jpn666/jimage/internal/jpeghuff"
)

// quantTable holds one DQT table's values in natural (row-major) order,
// already un-zig-zagged so the IDCT can address it directly.
type quantTable struct {
	values  [64]int16
	defined bool
}

// setFromZigZag stores 64 zig-zag-ordered values into natural order.
func (q *quantTable) setFromZigZag(vals [64]int16) {
	for i, v := range vals {
		q.values[jpegdsp.ZigZag[i]] = v
	}
	q.defined = true
}

// buildHuffTable parses one DHT table definition: 16 length counts
// followed by the flat symbol array, returning a decode table. ac
// additionally builds the sextent fast-path side table.
func buildHuffTable(counts [16]int, symbols []byte, ac bool) (*jpeghuff.Table, error) {
	if ac {
		return jpeghuff.BuildTableWithSextent(counts, symbols)
	}
	return jpeghuff.BuildTable(counts, symbols)
}
