package knapsack

// Item is a single packing candidate. Index is its position in the input.
type Item struct {
	Index  int `json:"index" yaml:"-"`
	Weight int `json:"weight" yaml:"weight"`
	Value  int `json:"value" yaml:"value"`
}

// Solver describes the behaviour required from a knapsack solver.
type Solver interface {
	Solve(capacity int, weights, values []int) (Solution, error)
}

// Solution is one optimal packing. It is immutable once returned.
type Solution struct {
	value  int
	weight int
	items  []int
}

// Value returns the maximum total value that fits within the capacity.
func (s Solution) Value() int {
	return s.value
}

// Weight returns the total weight of the chosen items.
func (s Solution) Weight() int {
	return s.weight
}

// Items returns the ascending indices of the chosen items.
func (s Solution) Items() []int {
	out := make([]int, len(s.items))
	copy(out, s.items)
	return out
}

// Selected resolves the chosen indices against the inputs the solution was
// computed from.
func (s Solution) Selected(weights, values []int) []Item {
	out := make([]Item, 0, len(s.items))
	for _, idx := range s.items {
		if idx >= len(weights) || idx >= len(values) {
			continue
		}
		out = append(out, Item{Index: idx, Weight: weights[idx], Value: values[idx]})
	}
	return out
}

// Split converts items into the parallel weight and value slices the solver expects.
func Split(items []Item) (weights, values []int) {
	weights = make([]int, len(items))
	values = make([]int, len(items))
	for i, item := range items {
		weights[i] = item.Weight
		values[i] = item.Value
	}
	return weights, values
}

// Join builds indexed items from parallel weight and value slices.
// Extra entries in the longer slice are ignored.
func Join(weights, values []int) []Item {
	n := min(len(weights), len(values))
	items := make([]Item, n)
	for i := range n {
		items[i] = Item{Index: i, Weight: weights[i], Value: values[i]}
	}
	return items
}
