package filter

// Median9 returns the median of v using a fixed 19-exchange sorting
// network. v is permuted.
func Median9(v *[9]float32) float32 {
	sort2(v, 1, 2)
	sort2(v, 4, 5)
	sort2(v, 7, 8)
	sort2(v, 0, 1)
	sort2(v, 3, 4)
	sort2(v, 6, 7)
	sort2(v, 1, 2)
	sort2(v, 4, 5)
	sort2(v, 7, 8)
	sort2(v, 0, 3)
	sort2(v, 5, 8)
	sort2(v, 4, 7)
	sort2(v, 3, 6)
	sort2(v, 1, 4)
	sort2(v, 2, 5)
	sort2(v, 4, 7)
	sort2(v, 4, 2)
	sort2(v, 6, 4)
	sort2(v, 4, 2)
	return v[4]
}

func sort2(v *[9]float32, a, b int) {
	if v[a] > v[b] {
		v[a], v[b] = v[b], v[a]
	}
}
