package semantic

// GlobalScope is the name of the top-level scope.
const GlobalScope = "global"

// ScopeStack tracks the active scope names during one pass. Function bodies
// cannot nest definitions, so the stack never grows beyond global plus one
// function, but nothing here depends on that.
type ScopeStack struct {
	names []string
}

func newScopeStack() *ScopeStack {
	return &ScopeStack{names: []string{GlobalScope}}
}

// Current returns the innermost scope name.
func (s *ScopeStack) Current() string {
	return s.names[len(s.names)-1]
}

// Push enters the scope of the named function.
func (s *ScopeStack) Push(name string) {
	s.names = append(s.names, name)
}

// Pop leaves the innermost function scope. The global scope is never popped.
func (s *ScopeStack) Pop() {
	if len(s.names) > 1 {
		s.names = s.names[:len(s.names)-1]
	}
}

// InFunction reports whether a function scope is active.
func (s *ScopeStack) InFunction() bool {
	return len(s.names) > 1
}
