package knapsack

import "errors"

// ErrInvalidArgument is returned when the solver inputs violate its contract.
var ErrInvalidArgument = errors.New("invalid knapsack argument")
