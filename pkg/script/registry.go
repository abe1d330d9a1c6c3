package script

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
)

// Options configures a language adapter when it is created.
type Options struct {
	// Logger is the structured logger (nil uses a discard logger).
	Logger *slog.Logger
	// Stdout receives print() style output from scripts (nil discards it).
	Stdout io.Writer
	// Vars are user variables exposed to scripts.
	Vars map[string]any
	// Driver and DSN select the database for the sql language.
	Driver string
	DSN    string
	// Migrations is a directory of SQL migrations applied after connecting.
	Migrations string
}

// Normalize fills unset fields with safe defaults.
func (o Options) Normalize() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Stdout == nil {
		o.Stdout = io.Discard
	}
	return o
}

// Factory creates a Compiler for a language.
type Factory func(Options) (Compiler, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a language factory to the registry.
// Called by language adapters in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Lookup retrieves a language factory by name.
func Lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates a compiler for the named language.
func New(name string, opts Options) (Compiler, error) {
	if name == "" {
		return nil, fmt.Errorf("language not specified")
	}

	factory, ok := Lookup(name)
	if !ok {
		return nil, &UnknownLanguageError{
			Name:      name,
			Available: Languages(),
		}
	}
	return factory(opts.Normalize())
}

// Languages returns all registered language names (sorted).
func Languages() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownLanguageError is returned when an unregistered language is requested.
type UnknownLanguageError struct {
	Name      string
	Available []string
}

func (e *UnknownLanguageError) Error() string {
	return fmt.Sprintf("unknown language %q\nAvailable languages: %v\nHint: Check language in pickaxe.yaml or the --language flag", e.Name, e.Available)
}
