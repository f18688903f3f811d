package appliance

// attrDef declares one attribute and its construction-time default.
type attrDef struct {
	name string
	def  any
}

// deviceState is the single mutable state a variant owns: attribute values
// keyed by name, iterated in declaration order. Iteration order matters on
// decode because derived attributes are recomputed after every processed
// field.
type deviceState struct {
	order  []string
	values map[string]any
}

func newDeviceState(defs []attrDef) *deviceState {
	s := &deviceState{
		order:  make([]string, 0, len(defs)),
		values: make(map[string]any, len(defs)),
	}
	for _, d := range defs {
		s.order = append(s.order, d.name)
		s.values[d.name] = d.def
	}
	return s
}

func (s *deviceState) names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *deviceState) has(name string) bool {
	_, ok := s.values[name]
	return ok
}

func (s *deviceState) get(name string) any {
	return s.values[name]
}

func (s *deviceState) set(name string, value any) {
	s.values[name] = value
}

func (s *deviceState) bool(name string) bool {
	v, _ := s.values[name].(bool)
	return v
}

func (s *deviceState) snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
