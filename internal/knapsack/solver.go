package knapsack

import (
	"fmt"
	"math"
)

// MaxCells bounds the number of table cells a single Solve may allocate,
// that is len(weights) * (capacity + 1).
const MaxCells = 1 << 25

type dpSolver struct{}

// New creates a Solver based on dynamic programming.
func New() Solver {
	return &dpSolver{}
}

func (s *dpSolver) Solve(capacity int, weights, values []int) (Solution, error) {
	if err := validate(capacity, weights, values); err != nil {
		return Solution{}, err
	}
	if len(weights) == 0 {
		return Solution{items: []int{}}, nil
	}

	t := build(capacity, weights, values)
	best := t.best()

	return Solution{
		value:  t.cells[best].value,
		weight: t.weightBudget(best),
		items:  t.reconstruct(best),
	}, nil
}

func validate(capacity int, weights, values []int) error {
	if capacity < 0 {
		return fmt.Errorf("%w: capacity must be non-negative, got %d", ErrInvalidArgument, capacity)
	}
	if len(weights) != len(values) {
		return fmt.Errorf("%w: got %d weights and %d values", ErrInvalidArgument, len(weights), len(values))
	}

	total := 0
	for i := range weights {
		if weights[i] < 0 {
			return fmt.Errorf("%w: weight of item %d is negative (%d)", ErrInvalidArgument, i, weights[i])
		}
		if values[i] < 0 {
			return fmt.Errorf("%w: value of item %d is negative (%d)", ErrInvalidArgument, i, values[i])
		}
		if values[i] > math.MaxInt-total {
			return fmt.Errorf("%w: total value overflows", ErrInvalidArgument)
		}
		total += values[i]
	}

	if n := len(weights); n > 0 && capacity >= MaxCells/n {
		return fmt.Errorf("%w: %d items with capacity %d exceed the table limit of %d cells", ErrInvalidArgument, n, capacity, MaxCells)
	}
	return nil
}
