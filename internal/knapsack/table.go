package knapsack

const none = -1

// cell is one partial solution. Its item index and weight budget are implied
// by its position in the table.
type cell struct {
	reachable bool
	included  bool
	value     int
	count     int
	prev      int
}

// table is a row-major grid of cells, one row per item and one column per
// exact weight budget. Predecessors are flat indices into cells.
type table struct {
	rows  int
	cols  int
	cells []cell
}

func build(capacity int, weights, values []int) *table {
	t := &table{
		rows:  len(weights),
		cols:  capacity + 1,
		cells: make([]cell, len(weights)*(capacity+1)),
	}

	for i := 0; i < t.rows; i++ {
		for w := 0; w < t.cols; w++ {
			t.cells[t.index(i, w)] = t.compute(i, w, weights[i], values[i])
		}
	}
	return t
}

func (t *table) index(i, w int) int {
	return i*t.cols + w
}

func (t *table) itemIndex(idx int) int {
	return idx / t.cols
}

func (t *table) weightBudget(idx int) int {
	return idx % t.cols
}

// compute derives cell (i, w) from row i-1. Row 0 is derived from an implicit
// row in which only the empty selection at column 0 is reachable.
func (t *table) compute(i, w, weight, value int) cell {
	skip := cell{prev: none}
	if i == 0 {
		skip.reachable = w == 0
	} else if src := t.index(i-1, w); t.cells[src].reachable {
		skip = t.cells[src]
		skip.included = false
		skip.prev = src
	}

	if weight > w {
		return skip
	}

	base := cell{prev: none}
	baseIdx := none
	if i == 0 {
		base.reachable = w == weight
	} else {
		baseIdx = t.index(i-1, w-weight)
		base = t.cells[baseIdx]
	}
	if !base.reachable {
		return skip
	}

	take := cell{
		reachable: true,
		included:  true,
		value:     base.value + value,
		count:     base.count + 1,
		prev:      baseIdx,
	}
	// Ties go to take.
	if skip.reachable && skip.value > take.value {
		return skip
	}
	return take
}

// best returns the flat index of the highest-valued reachable cell in the last
// row, preferring the lowest weight budget on ties. Column 0 is always reachable.
func (t *table) best() int {
	row := t.rows - 1
	best := t.index(row, 0)
	for w := 1; w < t.cols; w++ {
		idx := t.index(row, w)
		if c := t.cells[idx]; c.reachable && c.value > t.cells[best].value {
			best = idx
		}
	}
	return best
}

// reconstruct walks the predecessor chain from idx and returns the included
// item indices in ascending order.
func (t *table) reconstruct(idx int) []int {
	items := make([]int, t.cells[idx].count)
	slot := len(items) - 1
	for idx != none && slot >= 0 {
		c := t.cells[idx]
		if c.included {
			items[slot] = t.itemIndex(idx)
			slot--
		}
		idx = c.prev
	}
	return items
}
