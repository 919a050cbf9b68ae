package links

import "git.home.luguber.info/inful/linkbio/internal/store"

// Move returns the reorder batch for moving the link at index from to index to.
// Every link gets its new index as order. Indices are clamped to the list.
func Move(list []store.Link, from, to int) []store.ReorderItem {
	n := len(list)
	if n == 0 {
		return nil
	}
	from = clamp(from, n)
	to = clamp(to, n)

	ids := make([]string, n)
	for i, l := range list {
		ids[i] = l.ID
	}
	moved := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	ids = append(ids[:to], append([]string{moved}, ids[to:]...)...)

	items := make([]store.ReorderItem, n)
	for i, id := range ids {
		items[i] = store.ReorderItem{ID: id, Order: i}
	}
	return items
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
