package stubserver

import "sync"

// FaultFlags injects the failure modes the client must survive: a missing
// csrf_token field, an expired session on every call, and a blanket 500.
type FaultFlags struct {
	mu             sync.Mutex
	DropCSRFToken  bool
	ExpireSessions bool
	Simulate500    bool
}

func NewFaultFlags() *FaultFlags {
	return &FaultFlags{}
}

func (f *FaultFlags) SetDropCSRFToken(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DropCSRFToken = on
}

func (f *FaultFlags) IsDropCSRFToken() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.DropCSRFToken
}

func (f *FaultFlags) SetExpireSessions(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ExpireSessions = on
}

func (f *FaultFlags) IsExpireSessions() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ExpireSessions
}

func (f *FaultFlags) SetSimulate500(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Simulate500 = on
}

func (f *FaultFlags) IsSimulate500() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Simulate500
}
