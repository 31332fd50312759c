package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"montana-id-verifier/flow"
	"montana-id-verifier/images"
	"montana-id-verifier/models"

	"github.com/gorilla/mux"
)

const ErrorInternal = "error:internal"
const ERR_MARSHAL = "failed to marshal response message"
const ERR_NONCE_RETRIEVAL = "failed to get nonce from storage"
const ERR_NONCE_REMOVAL = "failed to remove session from storage"
const ERR_INVALID_NONCE_SESSION = "invalid session or nonce"
const ERR_UNKNOWN_SESSION = "unknown verification session"
const ERR_JWT_CREATION = "failed to create jwt"

type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	UseTls         bool   `json:"use_tls,omitempty"`
	TlsPrivKeyPath string `json:"tls_priv_key_path,omitempty"`
	TlsCertPath    string `json:"tls_cert_path,omitempty"`
	StaticPath     string `json:"static_path,omitempty"`
}

type ServerState struct {
	jwtCreator      JwtCreator
	sessionStore    SessionStore
	registry        *FlowRegistry
	tokenVerifier   flow.TokenVerifier
	weather         WeatherClient
	seedlings       SeedlingClient
	flowPolicy      flow.Policy
	flowCredentials flow.Credentials
	flowTimings     flow.Timings
}

type SpaHandler struct {
	staticPath string
	indexPath  string
}

type Server struct {
	server *http.Server
	config ServerConfig
}

func (s *Server) ListenAndServe() error {
	if s.config.UseTls {
		slog.Info("Starting server with TLS", "host", s.config.Host, "port", s.config.Port, "cert", s.config.TlsCertPath, "key", s.config.TlsPrivKeyPath)
		return s.server.ListenAndServeTLS(s.config.TlsCertPath, s.config.TlsPrivKeyPath)
	} else {
		slog.Info("Starting server without TLS", "host", s.config.Host, "port", s.config.Port)
		return s.server.ListenAndServe()
	}
}

func (s *Server) Stop() error {
	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		slog.Error("Error during server shutdown", "error", err)
	} else {
		slog.Info("Server shut down successfully")
	}
	return err
}

// ServeHTTP inspects the URL path to locate a file within the static dir
// on the SPA handler. If a file is found, it will be served. If not, the
// file located at the index path on the SPA handler will be served. This
// is suitable behavior for serving an SPA (single page application).
func (h SpaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Debug("SPA handler serving request", "path", r.URL.Path)
	// Join internally call path.Clean to prevent directory traversal
	path := filepath.Join(h.staticPath, r.URL.Path)
	fi, err := os.Stat(path)
	if os.IsNotExist(err) || (err == nil && fi.IsDir()) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	if err != nil {
		slog.Error("Error stating file", "path", path, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
}

func NewServer(state *ServerState, config ServerConfig) (*Server, error) {
	slog.Info("Creating new server", "host", config.Host, "port", config.Port, "tls", config.UseTls)
	router := mux.NewRouter()

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("Health check request received")
		err := json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		if err != nil {
			slog.Error("failed to write body to http response", "error", err)
		}
	})

	router.HandleFunc("/api/flow/start", func(w http.ResponseWriter, r *http.Request) {
		handleStartFlow(state, w, r)
	})
	router.HandleFunc("/api/flow/admin-path", func(w http.ResponseWriter, r *http.Request) {
		handleAdminPath(state, w, r)
	})
	router.HandleFunc("/api/flow/credentials", func(w http.ResponseWriter, r *http.Request) {
		handleCredentials(state, w, r)
	})
	router.HandleFunc("/api/flow/identity-token", func(w http.ResponseWriter, r *http.Request) {
		handleIdentityToken(state, w, r)
	})
	router.HandleFunc("/api/flow/profile", func(w http.ResponseWriter, r *http.Request) {
		handleProfile(state, w, r)
	})
	router.HandleFunc("/api/flow/terms-scroll", func(w http.ResponseWriter, r *http.Request) {
		handleTermsScroll(state, w, r)
	})
	router.HandleFunc("/api/flow/terms", func(w http.ResponseWriter, r *http.Request) {
		handleTerms(state, w, r)
	})
	router.HandleFunc("/api/flow/location", func(w http.ResponseWriter, r *http.Request) {
		handleLocationReport(state, w, r)
	})
	router.HandleFunc("/api/flow/location/retry", func(w http.ResponseWriter, r *http.Request) {
		handleLocationRetry(state, w, r)
	})
	router.HandleFunc("/api/flow/location/quick", func(w http.ResponseWriter, r *http.Request) {
		handleLocationQuick(state, w, r)
	})
	router.HandleFunc("/api/flow/camera", func(w http.ResponseWriter, r *http.Request) {
		handleCamera(state, w, r)
	})
	router.HandleFunc("/api/flow/submit", func(w http.ResponseWriter, r *http.Request) {
		handleSubmit(state, w, r)
	})
	router.HandleFunc("/api/flow/cancel", func(w http.ResponseWriter, r *http.Request) {
		handleCancel(state, w, r)
	})
	router.HandleFunc("/api/flow/back", func(w http.ResponseWriter, r *http.Request) {
		handleBack(state, w, r)
	})
	router.HandleFunc("/api/flow/state", func(w http.ResponseWriter, r *http.Request) {
		handleFlowState(state, w, r)
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/flow/result", func(w http.ResponseWriter, r *http.Request) {
		handleFlowResult(state, w, r)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/weather", func(w http.ResponseWriter, r *http.Request) {
		handleWeather(state, w, r)
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/seedlings/summary", func(w http.ResponseWriter, r *http.Request) {
		handleSeedlingSummary(state, w, r)
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/seedlings/latest", func(w http.ResponseWriter, r *http.Request) {
		handleSeedlingLatest(state, w, r)
	}).Methods(http.MethodGet)

	slog.Debug("Registered all API routes")

	staticPath := config.StaticPath
	if staticPath == "" {
		staticPath = "../frontend/build"
	}
	spa := SpaHandler{staticPath: staticPath, indexPath: "index.html"}
	router.PathPrefix("/").Handler(spa)

	addr := fmt.Sprintf("%v:%v", config.Host, config.Port)
	srv := &http.Server{
		Handler: router,
		Addr:    addr,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	slog.Info("Server created successfully", "address", addr)
	return &Server{
		server: srv,
		config: config,
	}, nil
}

type StartFlowResponse struct {
	SessionId string `json:"session_id"`
	Nonce     string `json:"nonce"`
}

type FlowStateResponse struct {
	State flow.State `json:"state"`
	Draft flow.Draft `json:"draft"`
	Error string     `json:"error,omitempty"`
}

type FlowResultResponse struct {
	Status        string `json:"status"`
	Jwt           string `json:"jwt,omitempty"`
	RecordId      string `json:"record_id,omitempty"`
	Name          string `json:"name,omitempty"`
	Role          string `json:"role,omitempty"`
	JobTitle      string `json:"job_title,omitempty"`
	HasBiometric  bool   `json:"has_biometric,omitempty"`
	HasCoordinate bool   `json:"has_coordinate,omitempty"`
}

func handleStartFlow(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)

	if !requirePOST(w, r) {
		return
	}

	slog.Info("Received request to start a verification flow")

	sessionId := GenerateSessionId()
	if sessionId == "" {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to generate session ID", fmt.Errorf("failed to generate session ID"))
		return
	}

	nonce, err := GenerateNonce(8)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to generate nonce", err)
		return
	}

	if err := state.sessionStore.StoreNonce(sessionId, nonce); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to store nonce", err)
		return
	}

	if err := state.registry.Create(sessionId, state); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to create flow session", err)
		return
	}

	response := StartFlowResponse{
		SessionId: sessionId,
		Nonce:     nonce,
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("Verification flow started", "session_id", sessionId)
}

// resolveSession validates the session/nonce pair and returns the live flow
// session. It writes the error response itself when validation fails.
func resolveSession(state *ServerState, w http.ResponseWriter, ref models.SessionRef) *flowSession {
	if err := validateSession(state.sessionStore, ref.SessionId, ref.Nonce); err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", ERR_INVALID_NONCE_SESSION, err)
		return nil
	}
	sess, ok := state.registry.Get(ref.SessionId)
	if !ok {
		respondWithErr(w, http.StatusBadRequest, "invalid request", ERR_UNKNOWN_SESSION, fmt.Errorf("no controller for session %s", ref.SessionId))
		return nil
	}
	return sess
}

func respondFlowState(w http.ResponseWriter, sess *flowSession, opErr error) {
	response := FlowStateResponse{
		State: sess.controller.State(),
		Draft: sess.controller.Snapshot(),
	}
	status := http.StatusOK
	if opErr != nil {
		response.Error = opErr.Error()
		status = statusForFlowErr(opErr)
	}
	if err := writeJSON(w, status, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
	}
}

func statusForFlowErr(err error) int {
	switch {
	case errors.Is(err, flow.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, flow.ErrInvalidState), errors.Is(err, flow.ErrFlowFinished):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func handleAdminPath(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}
	request, err := decodeRequest[models.SessionRef](r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode request", err)
		return
	}
	sess := resolveSession(state, w, request)
	if sess == nil {
		return
	}
	respondFlowState(w, sess, sess.controller.ChooseAdminPath())
}

func handleCredentials(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}
	request, err := decodeRequest[models.CredentialRequest](r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode request", err)
		return
	}
	sess := resolveSession(state, w, request.SessionRef)
	if sess == nil {
		return
	}
	respondFlowState(w, sess, sess.controller.SubmitCredentials(request.Username, request.Password))
}

func handleIdentityToken(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}
	request, err := decodeRequest[models.IdentityTokenRequest](r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode request", err)
		return
	}
	sess := resolveSession(state, w, request.SessionRef)
	if sess == nil {
		return
	}
	respondFlowState(w, sess, sess.controller.AcceptIdentityToken(request.Token))
}

func handleProfile(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}
	request, err := decodeRequest[models.ProfileRequest](r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode request", err)
		return
	}
	sess := resolveSession(state, w, request.SessionRef)
	if sess == nil {
		return
	}
	respondFlowState(w, sess, sess.controller.SetProfile(request.Name, request.Phone, request.Email))
}

func handleTermsScroll(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}
	request, err := decodeRequest[models.TermsScrollRequest](r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode request", err)
		return
	}
	sess := resolveSession(state, w, request.SessionRef)
	if sess == nil {
		return
	}
	sess.controller.ReportTermsScroll(request.ScrollTop, request.ViewportHeight, request.ContentHeight)
	respondFlowState(w, sess, nil)
}

func handleTerms(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}
	request, err := decodeRequest[models.TermsRequest](r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode request", err)
		return
	}
	sess := resolveSession(state, w, request.SessionRef)
	if sess == nil {
		return
	}
	respondFlowState(w, sess, sess.controller.SetTermsAccepted(request.Accepted))
}

func handleLocationReport(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}
	request, err := decodeRequest[models.LocationReport](r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode request", err)
		return
	}
	sess := resolveSession(state, w, request.SessionRef)
	if sess == nil {
		return
	}
	sess.bridge.DepositLocation(flow.Position{
		Latitude:       request.Latitude,
		Longitude:      request.Longitude,
		AccuracyMeters: request.AccuracyMeters,
	}, request.Error)
	respondFlowState(w, sess, sess.controller.RequestLocation())
}

func handleLocationRetry(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}
	request, err := decodeRequest[models.SessionRef](r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode request", err)
		return
	}
	sess := resolveSession(state, w, request)
	if sess == nil {
		return
	}
	respondFlowState(w, sess, sess.controller.RequestLocation())
}

func handleLocationQuick(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}
	request, err := decodeRequest[models.SessionRef](r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode request", err)
		return
	}
	sess := resolveSession(state, w, request)
	if sess == nil {
		return
	}
	respondFlowState(w, sess, sess.controller.QuickLocation())
}

func handleCamera(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}
	request, err := decodeRequest[models.CameraReport](r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode request", err)
		return
	}
	sess := resolveSession(state, w, request.SessionRef)
	if sess == nil {
		return
	}

	if !request.Enabled {
		respondFlowState(w, sess, sess.controller.DisableCamera())
		return
	}

	var frame []byte
	if request.Granted && request.Frame != "" {
		normalized, err := images.NormalizeCapturedFrame(request.Frame)
		if err != nil {
			respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to normalize camera frame", err)
			return
		}
		frame, err = base64.StdEncoding.DecodeString(normalized)
		if err != nil {
			respondWithErr(w, http.StatusInternalServerError, ErrorInternal, "failed to decode normalized frame", err)
			return
		}
	}
	sess.bridge.DepositCamera(request.Granted, frame)
	respondFlowState(w, sess, sess.controller.EnableCamera())
}

func handleSubmit(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}
	request, err := decodeRequest[models.SessionRef](r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode request", err)
		return
	}
	sess := resolveSession(state, w, request)
	if sess == nil {
		return
	}

	if err := sess.controller.Submit(); err != nil {
		respondFlowState(w, sess, err)
		return
	}

	slog.Info("Flow submission accepted", "session_id", request.SessionId)
	if err := writeJSON(w, http.StatusAccepted, FlowResultResponse{Status: "submitting"}); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
	}
}

func handleFlowState(state *ServerState, w http.ResponseWriter, r *http.Request) {
	ref := models.SessionRef{
		SessionId: r.URL.Query().Get("session_id"),
		Nonce:     r.URL.Query().Get("nonce"),
	}
	sess := resolveSession(state, w, ref)
	if sess == nil {
		return
	}
	respondFlowState(w, sess, nil)
}

func handleFlowResult(state *ServerState, w http.ResponseWriter, r *http.Request) {
	ref := models.SessionRef{
		SessionId: r.URL.Query().Get("session_id"),
		Nonce:     r.URL.Query().Get("nonce"),
	}
	sess := resolveSession(state, w, ref)
	if sess == nil {
		return
	}

	if sess.controller.State() == flow.StateCancelled {
		if err := writeJSON(w, http.StatusGone, FlowResultResponse{Status: "cancelled"}); err != nil {
			respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		}
		return
	}

	identity, ok := sess.Result()
	if !ok {
		if err := writeJSON(w, http.StatusOK, FlowResultResponse{Status: "pending"}); err != nil {
			respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		}
		return
	}

	signed, err := state.jwtCreator.CreateIdentityJwt(identity)
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ERR_JWT_CREATION, ERR_JWT_CREATION, err)
		return
	}

	response := FlowResultResponse{
		Status:        "completed",
		Jwt:           signed,
		RecordId:      identity.ID,
		Name:          identity.Name,
		Role:          string(identity.Role),
		JobTitle:      identity.JobTitle,
		HasBiometric:  identity.Biometric != nil,
		HasCoordinate: identity.Location != nil,
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}

	slog.Info("Verification result delivered", "session_id", ref.SessionId, "record_id", identity.ID)
	removeSession(state, ref.SessionId)
}

func handleCancel(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}
	request, err := decodeRequest[models.SessionRef](r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode request", err)
		return
	}
	sess := resolveSession(state, w, request)
	if sess == nil {
		return
	}

	if err := sess.controller.Cancel(); err != nil {
		respondFlowState(w, sess, err)
		return
	}

	slog.Info("Flow cancelled", "session_id", request.SessionId)
	if err := writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"}); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
		return
	}
	removeSession(state, request.SessionId)
}

func handleBack(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}
	request, err := decodeRequest[models.SessionRef](r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", "failed to decode request", err)
		return
	}
	sess := resolveSession(state, w, request)
	if sess == nil {
		return
	}
	respondFlowState(w, sess, sess.controller.Back())
}

func handleWeather(state *ServerState, w http.ResponseWriter, r *http.Request) {
	report, err := state.weather.Current()
	if err != nil {
		// The dashboard prefers an estimate over an empty header.
		slog.Warn("Weather fetch failed, serving estimate", "error", err)
		report = FallbackWeatherReport()
	}
	if err := writeJSON(w, http.StatusOK, report); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
	}
}

func handleSeedlingSummary(state *ServerState, w http.ResponseWriter, r *http.Request) {
	records, err := state.seedlings.FetchRecords()
	if err != nil {
		respondWithErr(w, http.StatusBadGateway, "seedling feed unavailable", "failed to fetch seedling feed", err)
		return
	}
	summary := DailySummary(records, time.Now())
	if summary == nil {
		respondWithErr(w, http.StatusNotFound, "no seedling data", "seedling feed is empty", nil)
		return
	}
	if err := writeJSON(w, http.StatusOK, summary); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
	}
}

func handleSeedlingLatest(state *ServerState, w http.ResponseWriter, r *http.Request) {
	records, err := state.seedlings.FetchRecords()
	if err != nil {
		respondWithErr(w, http.StatusBadGateway, "seedling feed unavailable", "failed to fetch seedling feed", err)
		return
	}
	if len(records) == 0 {
		respondWithErr(w, http.StatusNotFound, "no seedling data", "seedling feed is empty", nil)
		return
	}
	if err := writeJSON(w, http.StatusOK, records[len(records)-1]); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
	}
}

// -----------------------------------------------------------------------------------

// validateSession validates session and nonce
func validateSession(storage SessionStore, sessionId, nonce string) error {
	slog.Debug("Validating session and nonce", "session_id", sessionId)
	storedNonce, err := storage.RetrieveNonce(sessionId)
	if err != nil {
		slog.Warn("Failed to retrieve nonce from storage", "session_id", sessionId, "error", err)
		return fmt.Errorf("%s: %w", ERR_NONCE_RETRIEVAL, err)
	}

	if storedNonce == "" || storedNonce != nonce {
		slog.Warn("Invalid nonce or session", "session_id", sessionId, "nonce_empty", storedNonce == "", "nonce_match", storedNonce == nonce)
		return fmt.Errorf("%s", ERR_INVALID_NONCE_SESSION)
	}

	return nil
}

// removeSession drops the single-use session from storage and the registry.
func removeSession(state *ServerState, sessionId string) {
	slog.Debug("Removing session", "session_id", sessionId)
	state.registry.Remove(sessionId)
	if err := state.sessionStore.RemoveNonce(sessionId); err != nil {
		slog.Error(ERR_NONCE_REMOVAL, "session_id", sessionId, "error", err)
	}
}

// decodeRequest decodes a JSON request body
func decodeRequest[T any](r *http.Request) (T, error) {
	var request T
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		slog.Warn("Failed to decode request body", "error", err)
		return request, fmt.Errorf("decode request body: %w", err)
	}
	return request, nil
}

func GenerateSessionId() string {
	sessionId := make([]byte, 16)
	if _, err := rand.Read(sessionId); err != nil {
		slog.Error("failed to generate session ID", "error", err)
		return ""
	}
	hexId := fmt.Sprintf("%x", sessionId)
	return hexId
}

// GenerateNonce Generates a random nonce
func GenerateNonce(i int) (string, error) {
	nonce := make([]byte, i)
	if _, err := rand.Read(nonce); err != nil {
		slog.Error("failed to generate nonce", "error", err)
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(nonce), nil
}

func respondWithErr(w http.ResponseWriter, code int, responseBody string, logMsg string, e error) {
	slog.Error(logMsg, "error", e, "status_code", code, "response_body", responseBody)
	w.WriteHeader(code)
	if _, err := w.Write([]byte(responseBody)); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

// helpers ------------

func closeRequestBody(r *http.Request) {
	if err := r.Body.Close(); err != nil {
		slog.Error("failed to close request body", "error", err)
	}
}

func requirePOST(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		slog.Debug("Non-POST request rejected", "method", r.Method, "path", r.URL.Path)
		respondWithErr(w, http.StatusMethodNotAllowed, "method not allowed", "invalid method", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal JSON payload", "error", err)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	if err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
	return nil
}
