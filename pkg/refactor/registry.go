package refactor

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/refactor/pkg/levenshtein"
)

// Registry errors.
var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrDuplicateCommand = errors.New("duplicate command")
	ErrArgs             = errors.New("bad command arguments")
)

// suggestDistance is the largest edit distance offered as a suggestion.
const suggestDistance = 2

// Unbounded is the MaxArgs value of variadic commands.
const Unbounded = -1

// Descriptor is the stable metadata of a command.
type Descriptor struct {
	Name        string
	Usage       string
	Description string
	MinArgs     int
	MaxArgs     int
}

// CommandFunc implements a command. It returns the number of nodes it
// replaced.
type CommandFunc func(ctx context.Context, st *State, args []string) (int, error)

// Command is a registered command.
type Command struct {
	Descriptor

	fn CommandFunc
}

// Run checks the argument count and calls the command.
func (c Command) Run(ctx context.Context, st *State, args []string) (int, error) {
	if len(args) < c.MinArgs || (c.MaxArgs != Unbounded && len(args) > c.MaxArgs) {
		return 0, fmt.Errorf("%w: usage: %s %s", ErrArgs, c.Name, c.Usage)
	}

	return c.fn(ctx, st, args)
}

// Registry maps command names to commands in registration order.
type Registry struct {
	ordered []Descriptor
	index   map[string]Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]Command)}
}

// Register adds a command.
func (r *Registry) Register(d Descriptor, fn CommandFunc) error {
	if _, exists := r.index[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, d.Name)
	}

	r.index[d.Name] = Command{Descriptor: d, fn: fn}
	r.ordered = append(r.ordered, d)

	return nil
}

// Lookup returns the command called name.
func (r *Registry) Lookup(name string) (Command, error) {
	c, ok := r.index[name]
	if !ok {
		if hint, found := r.suggest(name); found {
			return Command{}, fmt.Errorf("%w: %s (did you mean %s?)", ErrUnknownCommand, name, hint)
		}

		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	return c, nil
}

func (r *Registry) suggest(name string) (string, bool) {
	names := make([]string, len(r.ordered))
	for i, d := range r.ordered {
		names[i] = d.Name
	}

	return levenshtein.Closest(name, names, suggestDistance)
}

// All returns all descriptors in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	copy(out, r.ordered)

	return out
}
