package engine

import "errors"

var (
	// ErrNilFact is returned when inserting or updating with a nil object.
	ErrNilFact = errors.New("fact object is nil")
	// ErrUncomparableFact is returned for objects without a usable identity
	// (maps, slices, funcs, structs holding them). Insert a pointer instead.
	ErrUncomparableFact = errors.New("fact object is not comparable")
	// ErrDuplicateFact is returned when an update would alias a fact held by
	// another handle.
	ErrDuplicateFact = errors.New("object already held by another fact handle")
	// ErrUnknownFactHandle is returned when a handle is not live in the entry point.
	ErrUnknownFactHandle = errors.New("unknown fact handle")
	// ErrUnknownEntryPoint is returned for undeclared entry point names.
	ErrUnknownEntryPoint = errors.New("unknown entry point")
	// ErrUnknownQuery is returned when a query name is not in the knowledge base.
	ErrUnknownQuery = errors.New("unknown query")
	// ErrNoProcessRuntime is returned when the memory was built without processes.
	ErrNoProcessRuntime = errors.New("no process runtime available")
	// ErrUnknownProcess is returned for unregistered process definitions.
	ErrUnknownProcess = errors.New("unknown process")
	// ErrUnknownProcessInstance is returned for inactive or missing instances.
	ErrUnknownProcessInstance = errors.New("unknown process instance")
	// ErrDisposed is returned by a Memory after Dispose.
	ErrDisposed = errors.New("working memory disposed")
)
