package stid

import "sort"

// Set is an unordered collection of distinct cells.
type Set map[ID]struct{}

// NewSet returns a set holding ids.
func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id.
func (s Set) Add(id ID) { s[id] = struct{}{} }

// Has reports whether id is a member.
func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of cells.
func (s Set) Len() int { return len(s) }

// Union adds every member of other to s.
func (s Set) Union(other Set) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Strings returns the canonical encodings sorted lexically.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id.String())
	}
	sort.Strings(out)
	return out
}

// ParseSet decodes encoded ids; duplicates collapse.
func ParseSet(encoded []string) (Set, error) {
	s := make(Set, len(encoded))
	for _, e := range encoded {
		id, err := Parse(e)
		if err != nil {
			return nil, err
		}
		s.Add(id)
	}
	return s, nil
}
