package provider

// Registry holds the configured adapters for one process. It is built once
// at startup and injected where needed; registration order is the
// deployment's priority order, so the first enabled adapter registered
// becomes primary. Reads after startup are lock-free.
type Registry struct {
	order    []string
	adapters map[string]Adapter
	primary  string
}

type AdapterStatus struct {
	Enabled bool `json:"enabled"`
	Primary bool `json:"primary"`
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

func (r *Registry) Register(a Adapter) {
	name := a.Name()
	if _, exists := r.adapters[name]; !exists {
		r.order = append(r.order, name)
	}
	r.adapters[name] = a

	if r.primary == "" && a.Enabled() {
		r.primary = name
	}
}

func (r *Registry) Primary() (Adapter, bool) {
	if r.primary == "" {
		return nil, false
	}
	a := r.adapters[r.primary]
	return a, a.Enabled()
}

func (r *Registry) ByName(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

func (r *Registry) EnabledAdapters() []Adapter {
	var out []Adapter
	for _, name := range r.order {
		if a := r.adapters[name]; a.Enabled() {
			out = append(out, a)
		}
	}
	return out
}

// ByPreference returns the first enabled adapter among names, falling back
// to the primary adapter when none match.
func (r *Registry) ByPreference(names []string) (Adapter, bool) {
	for _, name := range names {
		if a, ok := r.adapters[name]; ok && a.Enabled() {
			return a, true
		}
	}
	return r.Primary()
}

// Status reports a snapshot for health endpoints.
func (r *Registry) Status() map[string]AdapterStatus {
	out := make(map[string]AdapterStatus, len(r.adapters))
	for name, a := range r.adapters {
		out[name] = AdapterStatus{
			Enabled: a.Enabled(),
			Primary: name == r.primary,
		}
	}
	return out
}
