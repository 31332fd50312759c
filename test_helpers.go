package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"montana-id-verifier/flow"
	"montana-id-verifier/models"

	"github.com/stretchr/testify/require"
)

var testServerConfig = ServerConfig{
	Host:           "localhost",
	Port:           8081,
	UseTls:         false,
	TlsCertPath:    "",
	TlsPrivKeyPath: "",
}

const testBaseURL = "http://localhost:8081"

// fastTimings collapses the UI pacing delays so integration tests finish
// quickly.
func fastTimings() flow.Timings {
	t := flow.DefaultTimings()
	t.AuthErrorDisplay = 30 * time.Millisecond
	t.LocationAutoDelay = 5 * time.Millisecond
	t.SubmitSettle = 10 * time.Millisecond
	return t
}

func startTestServer(t *testing.T, store SessionStore) *Server {
	t.Helper()

	testState := &ServerState{
		jwtCreator:      fakeJwtCreator{jwt: "test-jwt"},
		sessionStore:    store,
		registry:        NewFlowRegistry(),
		tokenVerifier:   NewGoogleTokenVerifier(""),
		weather:         fakeWeatherClient{},
		seedlings:       fakeSeedlingClient{},
		flowPolicy:      flow.DefaultPolicy(),
		flowCredentials: flow.DefaultCredentials(),
		flowTimings:     fastTimings(),
	}

	srv, err := NewServer(testState, testServerConfig)
	require.NoError(t, err)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("server error: %v", err)
		}
	}()

	waitUntilHealthy(t, testBaseURL+"/api/health")
	t.Cleanup(func() {
		if err := srv.Stop(); err != nil {
			t.Logf("error shutting down server: %v", err)
		}
	})
	return srv
}

func waitUntilHealthy(t *testing.T, url string) {
	t.Helper()
	const maxAttempts = 50
	for i := 0; i < maxAttempts; i++ {
		if resp, err := http.Get(url); err == nil {
			_ = resp.Body.Close()
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("server did not start in time")
}

func postJSON[T any](t *testing.T, url string, payload any) (*http.Response, []byte, *T) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(b)
	}
	resp, err := http.Post(url, "application/json", body)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var v T
	_ = json.Unmarshal(respBody, &v)

	return resp, respBody, &v
}

func getJSON[T any](t *testing.T, url string) (*http.Response, []byte, *T) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var v T
	_ = json.Unmarshal(respBody, &v)

	return resp, respBody, &v
}

func mustStatus(t *testing.T, resp *http.Response, want int, body []byte) {
	t.Helper()
	require.Equalf(t, want, resp.StatusCode, "body: %s", body)
}

// startFlow bootstraps a verification session.
func startFlow(t *testing.T) (sessionId, nonce string) {
	t.Helper()
	resp, body, sr := postJSON[StartFlowResponse](t, testBaseURL+"/api/flow/start", nil)
	mustStatus(t, resp, http.StatusOK, body)
	require.NotEmpty(t, sr.SessionId)
	require.NotEmpty(t, sr.Nonce)
	return sr.SessionId, sr.Nonce
}

func sessionRef(sessionId, nonce string) models.SessionRef {
	return models.SessionRef{SessionId: sessionId, Nonce: nonce}
}

// test doubles

type fakeJwtCreator struct{ jwt string }

func (f fakeJwtCreator) CreateIdentityJwt(_ flow.VerifiedIdentity) (string, error) {
	return f.jwt, nil
}

type fakeWeatherClient struct{}

func (fakeWeatherClient) Current() (*models.WeatherReport, error) {
	return &models.WeatherReport{
		Temperature:   31,
		WindSpeed:     9,
		WindDirection: "SE",
		Humidity:      68,
		Condition:     models.WeatherClear,
	}, nil
}

type fakeSeedlingClient struct{ err error }

func (f fakeSeedlingClient) FetchRecords() ([]models.SeedlingRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.SeedlingRecord{
		{Date: "2026-08-30", Variety: "Meranti", In: 120, Out: 40, Dead: 2, Destination: "Blok A"},
		{Date: "2026-08-31", Variety: "Ulin", In: 80, Out: 15, Dead: 1, Destination: "Blok C"},
	}, nil
}
