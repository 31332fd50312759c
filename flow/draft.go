package flow

import "time"

type Role string

const (
	RoleUnset Role = ""
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

type State string

const (
	StateRoleSelect     State = "role_select"
	StateCredentialAuth State = "credential_auth"
	StateProfileForm    State = "profile_form"
	StateCompleted      State = "completed"
	StateCancelled      State = "cancelled"
)

type LocationStatus string

const (
	LocationIdle      LocationStatus = "idle"
	LocationSearching LocationStatus = "searching"
	LocationLocked    LocationStatus = "locked"
	LocationError     LocationStatus = "error"
)

type SubmissionState string

const (
	SubmissionEditing    SubmissionState = "editing"
	SubmissionSubmitting SubmissionState = "submitting"
	SubmissionCompleted  SubmissionState = "completed"
)

// The scrollable terms region counts as fully read when the reader is
// within this many pixels of the content height.
const TermsBottomThreshold = 30

type Identity struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

type LocationState struct {
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	AccuracyMeters float64        `json:"accuracy_meters"`
	SignalScore    int            `json:"signal_score"`
	Status         LocationStatus `json:"status"`
}

type BiometricState struct {
	Captured  bool   `json:"captured"`
	ImageData []byte `json:"-"`
}

// Draft is the transient state of one verification attempt. It is discarded
// entirely on cancel or hand-off; nothing persists beyond the resulting
// VerifiedIdentity record.
type Draft struct {
	Role          Role            `json:"role"`
	Identity      Identity        `json:"identity"`
	ScrolledToEnd bool            `json:"scrolled_to_end"`
	TermsAccepted bool            `json:"terms_accepted"`
	Location      LocationState   `json:"location"`
	Biometric     BiometricState  `json:"biometric"`
	Submission    SubmissionState `json:"submission"`
	AuthError     bool            `json:"auth_error"`
	CameraNotice  string          `json:"camera_notice,omitempty"`
}

func newDraft() Draft {
	return Draft{
		Location:   LocationState{Status: LocationIdle},
		Submission: SubmissionEditing,
	}
}

// VerifiedIdentity is the finalized record handed to the embedding caller
// when the flow completes.
type VerifiedIdentity struct {
	ID        string
	Name      string
	Role      Role
	Phone     string
	Email     string
	JobTitle  string
	Biometric []byte
	Location  *Position
}

func jobTitleFor(role Role) string {
	if role == RoleAdmin {
		return "Internal Administrator"
	}
	return "Portal Member"
}

// SignalScore maps a reported GPS accuracy to the coarse display score.
// It has no effect on pass/fail.
func SignalScore(accuracyMeters float64) int {
	switch {
	case accuracyMeters <= 5:
		return 100
	case accuracyMeters <= 10:
		return 80
	case accuracyMeters <= 20:
		return 60
	case accuracyMeters <= 50:
		return 40
	default:
		return 20
	}
}

// Policy configures the submission gate. The location requirement follows the
// strict product variant but stays configurable.
type Policy struct {
	RequireLocation bool `json:"require_location"`
}

func DefaultPolicy() Policy {
	return Policy{RequireLocation: true}
}

// Timings collects every fixed delay and per-attempt timeout of the flow so
// tests can shrink them.
type Timings struct {
	AuthErrorDisplay  time.Duration
	LocationAutoDelay time.Duration
	SubmitSettle      time.Duration

	FastTimeout    time.Duration
	FastMaxAge     time.Duration
	PreciseTimeout time.Duration
	RelaxedTimeout time.Duration
	RelaxedMaxAge  time.Duration
	QuickTimeout   time.Duration
	QuickMaxAge    time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		AuthErrorDisplay:  2000 * time.Millisecond,
		LocationAutoDelay: 500 * time.Millisecond,
		SubmitSettle:      1500 * time.Millisecond,

		FastTimeout:    5 * time.Second,
		FastMaxAge:     time.Minute,
		PreciseTimeout: 15 * time.Second,
		RelaxedTimeout: 5 * time.Second,
		RelaxedMaxAge:  10 * time.Minute,
		QuickTimeout:   3 * time.Second,
		QuickMaxAge:    30 * time.Minute,
	}
}
