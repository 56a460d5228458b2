package lineconf

import "strings"

type frame struct {
	name  string
	block bool
}

// ScopeStack tracks the sections and brace blocks open at a given line.
// A section header replaces the whole stack; blocks nest inside it.
type ScopeStack struct {
	frames []frame
}

func (s *ScopeStack) EnterSection(name string) {
	s.frames = append(s.frames[:0], frame{name: name})
}

func (s *ScopeStack) Push(name string) {
	s.frames = append(s.frames, frame{name: name, block: true})
}

// Pop closes the innermost block. Section frames are never popped by a
// closing brace; false means the brace had nothing to close.
func (s *ScopeStack) Pop() bool {
	n := len(s.frames)
	if n == 0 || !s.frames[n-1].block {
		return false
	}
	s.frames = s.frames[:n-1]
	return true
}

func (s *ScopeStack) Top() string {
	if len(s.frames) == 0 {
		return ""
	}
	return s.frames[len(s.frames)-1].name
}

func (s *ScopeStack) Depth() int {
	return len(s.frames)
}

// Path returns a copy of the open scope names, outermost first.
func (s *ScopeStack) Path() []string {
	out := make([]string, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.name
	}
	return out
}

func (s *ScopeStack) String() string {
	return strings.Join(s.Path(), ".")
}
