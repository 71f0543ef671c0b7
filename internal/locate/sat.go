package locate

// satTable is a summed-area table over a binarized edge map. It makes
// the edge count of any candidate rectangle an O(1) lookup, which keeps
// the sliding search cheap even with heavily overlapping candidates.
type satTable struct {
	width  int
	height int
	sums   []int64 // (width+1)*(height+1), row-major, one-pixel border of zeros
}

// newSATTable builds the table from raw single-channel edge-map bytes.
// Any nonzero pixel counts as one edge pixel.
func newSATTable(data []byte, width, height int) *satTable {
	t := &satTable{
		width:  width,
		height: height,
		sums:   make([]int64, (width+1)*(height+1)),
	}
	stride := width + 1
	for y := 0; y < height; y++ {
		var rowSum int64
		for x := 0; x < width; x++ {
			if data[y*width+x] != 0 {
				rowSum++
			}
			t.sums[(y+1)*stride+(x+1)] = t.sums[y*stride+(x+1)] + rowSum
		}
	}
	return t
}

// count returns the number of edge pixels inside the rectangle at
// (x, y) with the given size. The rectangle must lie within the table.
func (t *satTable) count(x, y, w, h int) int64 {
	stride := t.width + 1
	return t.sums[(y+h)*stride+(x+w)] -
		t.sums[y*stride+(x+w)] -
		t.sums[(y+h)*stride+x] +
		t.sums[y*stride+x]
}
