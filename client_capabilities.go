package main

import (
	"context"
	"fmt"
	"sync"

	"montana-id-verifier/flow"
)

// capabilityBridge adapts browser-side capability outcomes, posted over
// HTTP, to the controller's provider interfaces. The client deposits a
// geolocation fix or a camera grant; the controller's acquisition attempts
// then consume whatever was last reported. A deposited fix stays available
// for later attempts the same way a cached browser position would.
type capabilityBridge struct {
	mu sync.Mutex

	location    *flow.Position
	locationErr string

	cameraGranted bool
	cameraSet     bool
	frame         []byte
}

func newCapabilityBridge() *capabilityBridge {
	return &capabilityBridge{}
}

// DepositLocation records the browser geolocation outcome. An empty errMsg
// means the fix is valid.
func (b *capabilityBridge) DepositLocation(pos flow.Position, errMsg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if errMsg != "" {
		b.location = nil
		b.locationErr = errMsg
		return
	}
	p := pos
	b.location = &p
	b.locationErr = ""
}

// DepositCamera records the browser camera outcome and the captured frame,
// already normalized to PNG bytes.
func (b *capabilityBridge) DepositCamera(granted bool, frame []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cameraSet = true
	b.cameraGranted = granted
	if granted {
		b.frame = frame
	} else {
		b.frame = nil
	}
}

// CurrentPosition implements flow.LocationProvider.
func (b *capabilityBridge) CurrentPosition(ctx context.Context, opts flow.LocationOptions) (flow.Position, error) {
	if err := ctx.Err(); err != nil {
		return flow.Position{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.location != nil {
		return *b.location, nil
	}
	if b.locationErr != "" {
		return flow.Position{}, fmt.Errorf("client geolocation failed: %s", b.locationErr)
	}
	return flow.Position{}, fmt.Errorf("no position reported by client")
}

// Open implements flow.CameraProvider.
func (b *capabilityBridge) Open(ctx context.Context, facing flow.FacingMode) (flow.CameraStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.cameraSet || !b.cameraGranted {
		return nil, fmt.Errorf("camera permission denied by client")
	}
	return &bridgeStream{bridge: b}, nil
}

// bridgeStream is the controller-owned handle onto the client's camera. The
// live preview exists only in the browser; the stream's snapshot is the last
// frame the client uploaded.
type bridgeStream struct {
	bridge *capabilityBridge

	mu      sync.Mutex
	stopped bool
}

func (s *bridgeStream) Snapshot() ([]byte, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, fmt.Errorf("stream already stopped")
	}
	s.mu.Unlock()

	s.bridge.mu.Lock()
	defer s.bridge.mu.Unlock()
	if s.bridge.frame == nil {
		return nil, fmt.Errorf("no frame uploaded by client")
	}
	return append([]byte(nil), s.bridge.frame...), nil
}

func (s *bridgeStream) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.bridge.mu.Lock()
	s.bridge.frame = nil
	s.bridge.cameraSet = false
	s.bridge.cameraGranted = false
	s.bridge.mu.Unlock()
}
