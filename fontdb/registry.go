package fontdb

import (
	"go.uber.org/zap"

	"github.com/wippyai/svg-raster/errors"
)

const component = "font database"

// State is the registry's access state.
type State int

const (
	StateUninitialized State = iota
	StateIdle
	StateBorrowed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIdle:
		return "idle"
	case StateBorrowed:
		return "borrowed"
	default:
		return "unknown"
	}
}

// Registry owns the optional font database and tracks read leases on it.
// Mutations are refused with a contention error while any lease is held,
// so a render can never observe a database changing underneath it.
type Registry struct {
	db         *Database
	readers    uint32
	generation uint64
}

// NewRegistry returns an uninitialized registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// State reports whether the registry has a database and whether it is leased.
func (r *Registry) State() State {
	switch {
	case r.db == nil:
		return StateUninitialized
	case r.readers > 0:
		return StateBorrowed
	default:
		return StateIdle
	}
}

// Init replaces any existing database with a fresh empty one. Leases on the
// discarded database stay readable and release without effect.
func (r *Registry) Init() {
	if r.readers > 0 {
		Logger().Debug("discarding leased font database", zap.Uint32("readers", r.readers))
	}
	r.db = NewDatabase()
	r.readers = 0
	r.generation++
	Logger().Debug("font database initialized", zap.Uint64("generation", r.generation))
}

// SetGenericFamily sets the family substituted for g.
func (r *Registry) SetGenericFamily(g Generic, name string) error {
	db, err := r.mutable()
	if err != nil {
		return err
	}
	db.SetFamily(g, name)
	Logger().Debug("generic family set", zap.Stringer("generic", g), zap.String("family", name))
	return nil
}

// LoadFont adds the faces in data and returns how many were added.
// Undecodable data adds nothing and is not an error.
func (r *Registry) LoadFont(data []byte) (int, error) {
	db, err := r.mutable()
	if err != nil {
		return 0, err
	}
	return db.LoadFontData(data), nil
}

// Borrow returns a shared read-only lease on the database.
func (r *Registry) Borrow() (*Lease, error) {
	if r.db == nil {
		return nil, errors.NotInitialized(errors.PhaseFonts, component)
	}
	r.readers++
	return &Lease{Reader: readOnly{r.db}, registry: r, generation: r.generation}, nil
}

// readOnly hides the database behind Reader so lease holders cannot
// type-assert their way to its mutating methods.
type readOnly struct {
	db *Database
}

func (v readOnly) Query(q Query) (*Face, bool)            { return v.db.Query(q) }
func (v readOnly) Fallback(r rune, q Query) (*Face, bool) { return v.db.Fallback(r, q) }
func (v readOnly) Family(g Generic) string                { return v.db.Family(g) }
func (v readOnly) Len() int                               { return v.db.Len() }

func (r *Registry) mutable() (*Database, error) {
	if r.db == nil {
		return nil, errors.NotInitialized(errors.PhaseFonts, component)
	}
	if r.readers > 0 {
		return nil, errors.Contention(errors.PhaseFonts, component, r.readers)
	}
	return r.db, nil
}

// Lease is read access to a database granted by Registry.Borrow.
type Lease struct {
	Reader

	registry   *Registry
	generation uint64
	released   bool
}

// Release ends the lease. It is safe to call more than once.
func (l *Lease) Release() {
	if l == nil || l.released {
		return
	}
	l.released = true
	if l.registry.generation == l.generation && l.registry.readers > 0 {
		l.registry.readers--
	}
}
