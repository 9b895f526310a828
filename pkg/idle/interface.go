package idle

// Kind identifies a single idle transition reported by a source.
type Kind string

const (
	KindIdled   Kind = "idled"
	KindResumed Kind = "resumed"
)

// Handler receives idle transitions. Implementations perform their side
// effect unconditionally; a returned error is fatal to the source.
type Handler interface {
	// Idled is called when the user went idle for the configured timeout
	Idled() error

	// Resumed is called when activity resumed after an Idled
	Resumed() error
}

// Source is the interface that every display-server backend must satisfy
type Source interface {
	// Name returns the backend name ("wayland" or "x11")
	Name() string

	// Run drives the backend until the connection fails or a handler
	// returns an error. It never returns nil while the connection is open.
	Run() error

	// Close tears down the connection, unblocking Run
	Close() error
}
