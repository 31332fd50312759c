package main

import (
	"fmt"
	"log/slog"
	"sync"

	"montana-id-verifier/flow"
)

// flowSession pairs one verification attempt with the browser capability
// bridge that feeds it. The verified record is parked here until the client
// collects it via /api/flow/result.
type flowSession struct {
	controller *flow.Controller
	bridge     *capabilityBridge

	mu       sync.Mutex
	verified *flow.VerifiedIdentity
}

func (s *flowSession) setVerified(identity flow.VerifiedIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified = &identity
}

// Result returns the finalized record if the flow completed.
func (s *flowSession) Result() (flow.VerifiedIdentity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verified == nil {
		return flow.VerifiedIdentity{}, false
	}
	return *s.verified, true
}

// FlowRegistry maps session ids to their live flow controllers. Entries are
// created at /api/flow/start and removed when the result is collected or the
// flow is cancelled.
type FlowRegistry struct {
	mu       sync.Mutex
	sessions map[string]*flowSession
}

func NewFlowRegistry() *FlowRegistry {
	return &FlowRegistry{sessions: make(map[string]*flowSession)}
}

func (r *FlowRegistry) Create(sessionId string, state *ServerState) error {
	bridge := newCapabilityBridge()
	sess := &flowSession{bridge: bridge}

	controller, err := flow.New(flow.Config{
		Location:    bridge,
		Camera:      bridge,
		Tokens:      state.tokenVerifier,
		Credentials: state.flowCredentials,
		Policy:      state.flowPolicy,
		Timings:     state.flowTimings,
		OnVerified:  sess.setVerified,
		OnCancelled: func() {
			slog.Info("Flow abandoned", "session_id", sessionId)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create flow controller: %w", err)
	}
	sess.controller = controller

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[sessionId]; exists {
		return fmt.Errorf("session %s already registered", sessionId)
	}
	r.sessions[sessionId] = sess
	return nil
}

func (r *FlowRegistry) Get(sessionId string) (*flowSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[sessionId]
	return sess, ok
}

func (r *FlowRegistry) Remove(sessionId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionId)
}
