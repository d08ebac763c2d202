package tinystore

import "context"

// Extension provides hooks into the store lifecycle
type Extension interface {
	// Name returns the extension's name
	Name() string

	// Order determines extension execution order (lower = earlier)
	Order() int

	// Init is called when the extension is registered to a registry
	Init(registry *Registry) error

	// Wrap intercepts operations (create, write, reset, action, teardown)
	Wrap(ctx context.Context, next func() error, op *Operation) error

	// OnError is called when a store resolution fails
	OnError(err error, op *Operation, registry *Registry)

	// OnCleanupError handles cleanup failures
	// Returns true if the error was handled, false to use default behavior
	OnCleanupError(err *CleanupError) bool

	// Dispose is called when the registry is disposed
	Dispose(registry *Registry) error
}

// CleanupError contains information about a cleanup failure
type CleanupError struct {
	StoreID string
	Err     error
	Context string // "teardown" or "dispose"
}

func (e *CleanupError) Error() string {
	return "cleanup of store " + e.StoreID + " during " + e.Context + ": " + e.Err.Error()
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}

// BaseExtension provides default implementations for Extension methods
type BaseExtension struct {
	name string
}

// NewBaseExtension creates a new base extension with the given name
func NewBaseExtension(name string) BaseExtension {
	return BaseExtension{name: name}
}

func (e *BaseExtension) Name() string {
	return e.name
}

func (e *BaseExtension) Order() int {
	return 100
}

func (e *BaseExtension) Init(registry *Registry) error {
	return nil
}

func (e *BaseExtension) Wrap(ctx context.Context, next func() error, op *Operation) error {
	return next()
}

func (e *BaseExtension) OnError(err error, op *Operation, registry *Registry) {
}

func (e *BaseExtension) OnCleanupError(err *CleanupError) bool {
	return false
}

func (e *BaseExtension) Dispose(registry *Registry) error {
	return nil
}

// Operation describes what operation is happening
type Operation struct {
	Kind    OperationKind
	StoreID string
	Store   AnyStore
	// Action is the reducer name for OpAction
	Action string
}

// OperationKind represents the type of operation
type OperationKind string

const (
	// OpCreate indicates a store construction
	OpCreate OperationKind = "create"
	// OpResolve indicates a store resolution settling (reported to OnError only)
	OpResolve OperationKind = "resolve"
	// OpWrite indicates a write to a store
	OpWrite OperationKind = "write"
	// OpReset indicates a store reset
	OpReset OperationKind = "reset"
	// OpAction indicates a bound reducer dispatch
	OpAction OperationKind = "action"
	// OpTeardown indicates a store being torn down
	OpTeardown OperationKind = "teardown"
)
