// Package knapsack solves the 0/1 knapsack problem with a dynamic-programming
// table of partial solutions and reconstructs one optimal item set from it.
//
// Algorithm outline:
//  1. Allocate an n×(capacity+1) table, one cell per (item, weight) pair.
//     Cell (i, w) holds the best subset of items 0..i whose weight is exactly w.
//  2. Row 0 is reachable at column 0 (nothing packed) and at column weights[0]
//     (item 0 alone).
//  3. For i > 0 every cell compares two candidates:
//     skip = cell(i-1, w)
//     take = values[i] + cell(i-1, w-weights[i])   (only when weights[i] <= w)
//     A candidate only counts when its source cell is reachable. When take
//     ties or beats skip, the item is included.
//  4. The optimal value is the best reachable cell of the last row.
//  5. Items are recovered by following predecessor links from that cell back
//     to row 0, writing each included item at a decreasing position.
//     The result comes out in ascending order without sorting.
//
// Complexity:
//
//	Time   = O(n·capacity)
//	Memory = O(n·capacity)
//
// Errors:
//   - ErrInvalidArgument: negative capacity, negative weight or value,
//     mismatched weight/value lengths, total value overflow, or a table
//     of more than MaxCells cells.
package knapsack
