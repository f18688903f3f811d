package appliance

// Lookup tables are pure data: immutable code<->label mappings scoped to one
// attribute within one variant. They are never mutated after construction.

// ordinalTable is a dense 1-based list: raw code i maps to the i-th label.
type ordinalTable []string

// label resolves a 1-based raw code. Codes outside [1, len] do not resolve.
func (t ordinalTable) label(code int) (string, bool) {
	if code < 1 || code > len(t) {
		return "", false
	}
	return t[code-1], true
}

// code returns the 1-based raw code for a label.
func (t ordinalTable) code(label string) (int, bool) {
	for i, l := range t {
		if l == label {
			return i + 1, true
		}
	}
	return 0, false
}

// codeEntry is one sparse code table row.
type codeEntry struct {
	code  int
	label string
}

// codeTable is a sparse raw-code table; only exact members resolve. Entries
// keep their declaration order, which threshold scans rely on.
type codeTable []codeEntry

func (t codeTable) label(code int) (string, bool) {
	for _, e := range t {
		if e.code == code {
			return e.label, true
		}
	}
	return "", false
}

func (t codeTable) code(label string) (int, bool) {
	for _, e := range t {
		if e.label == label {
			return e.code, true
		}
	}
	return 0, false
}

func (t codeTable) labels() []string {
	out := make([]string, len(t))
	for i, e := range t {
		out[i] = e.label
	}
	return out
}

// codeList is a dense 0-based list: raw code i maps to list[i]. Used for the
// rice cooker's program catalog and progress stages; the caller chooses the
// out-of-range sentinel.
type codeList []string

func (l codeList) label(code int) (string, bool) {
	if code < 0 || code >= len(l) {
		return "", false
	}
	return l[code], true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
