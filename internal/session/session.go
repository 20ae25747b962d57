package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/knapsack-packer/internal/knapsack"
)

var (
	// ErrNotInteger is reported when a prompt receives something other than an integer.
	ErrNotInteger = errors.New("not an integer")
	// ErrNegative is reported when a prompt receives a negative integer.
	ErrNegative = errors.New("must be zero or greater")
	// ErrTooLarge is reported when an answer exceeds the session limits.
	ErrTooLarge = errors.New("too large")
)

const (
	defaultMaxCapacity = 10_000
	defaultMaxItems    = 256
)

// answer is one line of operator input, or the error that ended input.
type answer struct {
	text string
	err  error
}

// Session runs rounds of prompts against a solver until the operator stops
// or input runs out.
type Session struct {
	solver knapsack.Solver
	in     *bufio.Scanner
	lines  <-chan answer
	out    io.Writer
	logger *zap.Logger
	once   bool

	maxCapacity int
	maxItems    int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger attaches a logger for round diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLimits bounds the capacity and item count the operator may enter.
// Non-positive values keep the defaults.
func WithLimits(maxCapacity, maxItems int) Option {
	return func(s *Session) {
		if maxCapacity > 0 {
			s.maxCapacity = maxCapacity
		}
		if maxItems > 0 {
			s.maxItems = maxItems
		}
	}
}

// WithSingleRound makes Run return after one round without asking to continue.
func WithSingleRound() Option {
	return func(s *Session) {
		s.once = true
	}
}

// New creates a Session reading answers from in and writing prompts to out.
func New(solver knapsack.Solver, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		solver: solver,
		in:     bufio.NewScanner(in),
		out:    out,
		logger: zap.NewNop(),

		maxCapacity: defaultMaxCapacity,
		maxItems:    defaultMaxItems,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run plays rounds until the operator answers N, the context is cancelled,
// or input is exhausted. Exhausted input ends the session without error.
// Cancellation interrupts a pending prompt and is returned as ctx.Err().
func (s *Session) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	s.lines = s.scan(done)

	s.printf("Welcome to the knapsack packer!\n")
	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.playRound(ctx, round)
		if errors.Is(err, io.EOF) {
			s.printf("\n")
			return nil
		}
		if err != nil {
			return err
		}
		if s.once {
			return nil
		}

		again, err := s.askAgain(ctx)
		if errors.Is(err, io.EOF) {
			s.printf("\n")
			return nil
		}
		if err != nil {
			return err
		}
		if !again {
			s.printf("Goodbye!\n")
			return nil
		}
	}
}

func (s *Session) playRound(ctx context.Context, round int) error {
	capacity, err := s.readBounded(ctx, "Enter a capacity for your knapsack: ", s.maxCapacity)
	if err != nil {
		return err
	}
	count, err := s.readBounded(ctx, "How many items would you like to use? ", s.maxItems)
	if err != nil {
		return err
	}

	values := make([]int, count)
	for i := range values {
		if values[i], err = s.readBounded(ctx, fmt.Sprintf("Enter a value for item #%d: ", i), math.MaxInt); err != nil {
			return err
		}
	}
	weights := make([]int, count)
	for i := range weights {
		if weights[i], err = s.readBounded(ctx, fmt.Sprintf("Enter a weight for item #%d: ", i), math.MaxInt); err != nil {
			return err
		}
	}

	solution, err := s.solver.Solve(capacity, weights, values)
	if err != nil {
		s.logger.Warn("solve rejected", zap.Int("round", round), zap.Error(err))
		s.printf("Could not solve this knapsack: %v\n", err)
		return nil
	}

	s.logger.Debug("round solved",
		zap.Int("round", round),
		zap.Int("capacity", capacity),
		zap.Int("items", count),
		zap.Int("value", solution.Value()),
		zap.Ints("chosen", solution.Items()),
	)
	s.report(solution, weights, values)
	return nil
}

func (s *Session) report(solution knapsack.Solution, weights, values []int) {
	selected := solution.Selected(weights, values)
	s.printf("\nBest possible load: %d\n", solution.Value())
	s.printf("Items in the knapsack: %d (total weight %d)\n", len(selected), solution.Weight())
	for _, item := range selected {
		s.printf("\tItem #%d (weight %d, value %d)\n", item.Index, item.Weight, item.Value)
	}
}

func (s *Session) askAgain(ctx context.Context) (bool, error) {
	for {
		line, err := s.readLine(ctx, "\nTry another knapsack? (Y or N): ")
		if err != nil {
			return false, err
		}
		switch strings.ToUpper(strings.TrimSpace(line)) {
		case "Y":
			return true, nil
		case "N":
			return false, nil
		}
		s.printf("Please answer Y or N.\n")
	}
}

// readBounded prompts until the operator enters an integer in [0, limit].
func (s *Session) readBounded(ctx context.Context, prompt string, limit int) (int, error) {
	for {
		line, err := s.readLine(ctx, prompt)
		if err != nil {
			return 0, err
		}
		value, err := parseBounded(line, limit)
		if err == nil {
			return value, nil
		}
		s.printf("Invalid input %q: %v.\n", strings.TrimSpace(line), err)
	}
}

func (s *Session) readLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.printf("%s", prompt)
	select {
	case <-ctx.Done():
		s.printf("\n")
		return "", ctx.Err()
	case a, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return a.text, a.err
	}
}

// scan feeds input lines to the returned channel so a blocked read never
// holds up cancellation. The final answer carries io.EOF or the read error.
func (s *Session) scan(done <-chan struct{}) <-chan answer {
	lines := make(chan answer)
	go func() {
		defer close(lines)
		for s.in.Scan() {
			select {
			case lines <- answer{text: s.in.Text()}:
			case <-done:
				return
			}
		}
		end := answer{err: io.EOF}
		if err := s.in.Err(); err != nil {
			end.err = fmt.Errorf("read input: %w", err)
		}
		select {
		case lines <- end:
		case <-done:
		}
	}()
	return lines
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

func parseBounded(raw string, limit int) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrNotInteger
	}
	if value < 0 {
		return 0, ErrNegative
	}
	if value > limit {
		return 0, fmt.Errorf("%w: at most %d", ErrTooLarge, limit)
	}
	return value, nil
}
