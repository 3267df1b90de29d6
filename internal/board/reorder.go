package board

// MoveItem returns a copy of items with the element at from moved to to.
// Both indexes are clamped to the slice bounds.
func MoveItem[T any](items []T, from, to int) []T {
	out := append([]T(nil), items...)
	if len(out) == 0 {
		return out
	}
	from = clamp(from, len(out)-1)
	to = clamp(to, len(out)-1)
	if from == to {
		return out
	}
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	return insertAt(out, to, item)
}

// TransferItem removes the element at from in src and inserts it at to in
// dst. to is clamped to [0, len(dst)]. The inputs are left untouched.
func TransferItem[T any](src, dst []T, from, to int) ([]T, []T) {
	newSrc := append([]T(nil), src...)
	newDst := append([]T(nil), dst...)
	if len(newSrc) == 0 {
		return newSrc, newDst
	}
	from = clamp(from, len(newSrc)-1)
	item := newSrc[from]
	newSrc = append(newSrc[:from], newSrc[from+1:]...)
	return newSrc, insertAt(newDst, clamp(to, len(newDst)), item)
}

func insertAt[T any](items []T, at int, item T) []T {
	var zero T
	items = append(items, zero)
	copy(items[at+1:], items[at:])
	items[at] = item
	return items
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
