package entity

// Region represents a detected face region within a frame.
type Region struct {
	X      int    // top-left corner X
	Y      int    // top-left corner Y
	Width  int    // region width in pixels
	Height int    // region height in pixels
	Data   []byte // cropped region, re-encoded as JPEG
}

// Area returns the pixel area of the region.
func (r Region) Area() int {
	return r.Width * r.Height
}

// Center returns the coordinates of the region center.
func (r Region) Center() (x, y int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// DensestRegion picks the largest region by pixel area. A frame with
// several faces forwards exactly one region, so recognition cost stays
// constant per frame.
func DensestRegion(regions []Region) (Region, bool) {
	if len(regions) == 0 {
		return Region{}, false
	}
	best := regions[0]
	for _, r := range regions[1:] {
		if r.Area() > best.Area() {
			best = r
		}
	}
	return best, true
}
