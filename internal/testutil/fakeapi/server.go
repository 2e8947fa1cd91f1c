// Package fakeapi serves an in-memory marketplace API for tests.
package fakeapi

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ninejamarkets/market-cli/internal/domain"
)

// Operation names accepted by FailNext and Calls.
const (
	OpSignup   = "signup"
	OpLogin    = "login"
	OpRefresh  = "refresh"
	OpProfile  = "profile"
	OpUpdate   = "update"
	OpSendCode = "send-code"
	OpVerify   = "verify"
	OpMarkets  = "markets"
	OpMalls    = "malls"
)

// Failure is a canned error response.
type Failure struct {
	Status  int
	Message string
}

type account struct {
	profile  domain.UserProfile
	password string
}

// Server is a chi router behind an httptest server.
type Server struct {
	srv *httptest.Server

	mu          sync.Mutex
	accounts    map[string]*account
	accessToken map[string]string
	refresh     map[string]string
	codes       map[string]string
	expired     map[string]bool
	failures    map[string][]Failure
	calls       map[string]int
	updates     []map[string]any
	markets     []domain.Market
	malls       []domain.Mall
	nextID      int
	nextCode    int
	accessTTL   time.Duration
}

// New starts a fake API and closes it when t finishes.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts:    map[string]*account{},
		accessToken: map[string]string{},
		refresh:     map[string]string{},
		codes:       map[string]string{},
		expired:     map[string]bool{},
		failures:    map[string][]Failure{},
		calls:       map[string]int{},
		markets: []domain.Market{
			{ID: "mk-1", Name: "Balogun Market", City: "Lagos", State: "Lagos"},
			{ID: "mk-2", Name: "Alaba International", City: "Lagos", State: "Lagos"},
			{ID: "mk-3", Name: "Onitsha Main Market", City: "Onitsha", State: "Anambra"},
		},
		malls: []domain.Mall{
			{ID: "ml-1", Name: "Ikeja City Mall", City: "Lagos", State: "Lagos"},
			{ID: "ml-2", Name: "Jabi Lake Mall", City: "Abuja", State: "FCT"},
		},
		nextCode:  123456,
		accessTTL: time.Hour,
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the API base url.
func (s *Server) URL() string {
	return s.srv.URL
}

// FailNext queues a failure for the next call of op.
func (s *Server) FailNext(op string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], Failure{Status: status, Message: message})
}

// ExpireCode marks the code sent to email as expired.
func (s *Server) ExpireCode(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired[normalizeEmail(email)] = true
}

// SetAccessTTL changes the lifetime of access tokens issued from now on.
func (s *Server) SetAccessTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTTL = ttl
}

// Calls returns how many requests reached op.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Updates returns the patches received by the profile update endpoints.
func (s *Server) Updates() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.updates...)
}

// LastCode returns the code most recently sent to email.
func (s *Server) LastCode(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[normalizeEmail(email)]
}

// SeedUser stores an account and returns its profile with an assigned id.
func (s *Server) SeedUser(profile domain.UserProfile, password string) domain.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(profile, password)
}

// Profile returns the stored profile of id.
func (s *Server) Profile(id string) (domain.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.UserProfile{}, false
	}
	return acc.profile.Clone(), true
}

// IssueTokens creates a token pair for id without a login call.
func (s *Server) IssueTokens(id string) domain.LoginResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(id)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/auth/customer/signup", s.handle(OpSignup, s.signup))
	r.Post("/auth/{userType}/login", s.handle(OpLogin, s.login))
	r.Post("/auth/refresh-token", s.handle(OpRefresh, s.refreshToken))
	r.Post("/auth/{userType}/send-verification-email", s.handle(OpSendCode, s.sendCode))
	r.Post("/auth/{userType}/verify-email", s.handle(OpVerify, s.verifyCode))
	r.Get("/customers/{id}", s.handle(OpProfile, s.fetchProfile(domain.UserTypeCustomer)))
	r.Get("/merchants/{id}", s.handle(OpProfile, s.fetchProfile(domain.UserTypeMerchant)))
	r.Patch("/customers/profile", s.handle(OpUpdate, s.updateProfile(domain.UserTypeCustomer)))
	r.Patch("/merchants/profile", s.handle(OpUpdate, s.updateProfile(domain.UserTypeMerchant)))
	r.Get("/markets", s.handle(OpMarkets, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": s.markets})
	}))
	r.Get("/malls", s.handle(OpMalls, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": s.malls})
	}))
	return r
}

func (s *Server) handle(op string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[op]++
		var failure *Failure
		if queued := s.failures[op]; len(queued) > 0 {
			failure = &queued[0]
			s.failures[op] = queued[1:]
		}
		s.mu.Unlock()
		if failure != nil {
			writeError(w, failure.Status, failure.Message)
			return
		}
		next(w, r)
	}
}

type signupRequest struct {
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Email        string   `json:"email"`
	PhoneNumbers []string `json:"phoneNumbers"`
	Password     string   `json:"password"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findByEmailLocked(req.Email, domain.UserTypeCustomer) != nil {
		writeError(w, http.StatusConflict, "User already exists")
		return
	}
	phones := make([]domain.PhoneNumber, 0, len(req.PhoneNumbers))
	for _, phone := range req.PhoneNumbers {
		phones = append(phones, domain.PhoneNumber{Number: phone})
	}
	profile := s.createLocked(domain.UserProfile{
		UserType:     domain.UserTypeCustomer,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumbers: phones,
	}, req.Password)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Account created successfully",
		"data":    map[string]any{"_id": profile.ID, "email": profile.Email},
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	userType := domain.ParseUserType(chi.URLParam(r, "userType"))
	var req domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.findByEmailLocked(req.Email, userType)
	if acc == nil || acc.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	tokens := s.issueLocked(acc.profile.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"data": map[string]any{
			"accessToken":  tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
			"user":         map[string]any{"_id": acc.profile.ID, "email": acc.profile.Email},
		},
	})
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.refresh[req.RefreshToken]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(s.refresh, req.RefreshToken)
	tokens := s.issueLocked(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
		"expiresIn":    int(s.accessTTL.Seconds()),
	})
}

func (s *Server) sendCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(req.Email)
	s.codes[email] = fmt.Sprintf("%06d", s.nextCode)
	delete(s.expired, email)
	s.nextCode++
	writeJSON(w, http.StatusOK, map[string]any{"message": "Verification code sent"})
}

func (s *Server) verifyCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := normalizeEmail(req.Email)
	code, ok := s.codes[email]
	if !ok || code != strings.TrimSpace(req.OTP) {
		writeError(w, http.StatusBadRequest, "Invalid OTP")
		return
	}
	if s.expired[email] {
		writeError(w, http.StatusGone, "OTP has expired")
		return
	}
	delete(s.codes, email)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Email verified"})
}

func (s *Server) fetchProfile(userType domain.UserType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.authorizedLocked(r); !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		acc, ok := s.accounts[chi.URLParam(r, "id")]
		if !ok || acc.profile.UserType != userType {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": acc.profile})
	}
}

func (s *Server) updateProfile(userType domain.UserType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil || len(patch) == 0 {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		id, ok := s.authorizedLocked(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		acc, ok := s.accounts[id]
		if !ok || acc.profile.UserType != userType {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		updated, err := applyPatch(acc.profile, patch)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		acc.profile = updated
		s.updates = append(s.updates, patch)
		writeJSON(w, http.StatusOK, map[string]any{"message": "Profile updated", "data": updated})
	}
}

func (s *Server) createLocked(profile domain.UserProfile, password string) domain.UserProfile {
	s.nextID++
	if profile.UserType == "" {
		profile.UserType = domain.UserTypeCustomer
	}
	if profile.ID == "" {
		profile.ID = fmt.Sprintf("%s-%d", profile.UserType, s.nextID)
	}
	s.accounts[profile.ID] = &account{profile: profile.Clone(), password: password}
	return profile.Clone()
}

func (s *Server) findByEmailLocked(email string, userType domain.UserType) *account {
	email = normalizeEmail(email)
	for _, acc := range s.accounts {
		if normalizeEmail(acc.profile.Email) == email && acc.profile.UserType == userType {
			return acc
		}
	}
	return nil
}

func (s *Server) issueLocked(id string) domain.LoginResult {
	s.nextID++
	access := signToken(id, time.Now().Add(s.accessTTL), s.nextID)
	refresh := fmt.Sprintf("refresh-%s-%d", id, s.nextID)
	s.accessToken[access] = id
	s.refresh[refresh] = id
	return domain.LoginResult{AccessToken: access, RefreshToken: refresh, UserID: id}
}

func (s *Server) authorizedLocked(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	id, ok := s.accessToken[strings.TrimSpace(token)]
	return id, ok
}

func applyPatch(profile domain.UserProfile, patch map[string]any) (domain.UserProfile, error) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return domain.UserProfile{}, err
	}
	merged := map[string]any{}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return domain.UserProfile{}, err
	}
	for key, value := range patch {
		merged[key] = value
	}
	raw, err = json.Marshal(merged)
	if err != nil {
		return domain.UserProfile{}, err
	}
	var out domain.UserProfile
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.UserProfile{}, fmt.Errorf("invalid profile patch: %w", err)
	}
	out.ID = profile.ID
	out.UserType = profile.UserType
	return out, nil
}

// signToken builds an unsigned JWT carrying sub and exp claims.
func signToken(id string, expiresAt time.Time, nonce int) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	claims, _ := json.Marshal(map[string]any{"sub": id, "exp": expiresAt.Unix(), "jti": nonce})
	signature := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf("sig-%d", nonce)))
	return header + "." + base64.RawURLEncoding.EncodeToString(claims) + "." + signature
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
