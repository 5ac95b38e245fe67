// Package fakebackend is an in-memory CloudShare backend for tests. It
// serves the same routes and response shapes as the real service.
package fakebackend

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"cloudshare/internal/auth"
	"cloudshare/models"
)

const (
	MessageInvalidCredential  = "invalid credential"
	MessageNotEnoughCredits   = "Not enough credits . Please purchase your credit first"
	MessageFileNotFound       = "Unable to get the file"
	MessageUnauthorized       = "Unauthorized"
	MessageNotOwner           = "Not your file only try to access yours"
	paymentSecret             = "fakebackend-secret"
	DefaultSignupCredits      = 5
	defaultMaxUploadMultipart = 32 << 20
)

type user struct {
	id                int
	name              string
	email             string
	passwordHash      []byte
	active            bool
	verificationToken string
	resetToken        string
	credits           int
}

type storedFile struct {
	record  models.FileRecord
	owner   string
	content []byte
}

type injected struct {
	status  int
	message string
}

// Server is a fake CloudShare backend. The zero value is not usable; call New.
type Server struct {
	mu       sync.Mutex
	router   *mux.Router
	users    map[string]*user
	tokens   map[string]string
	files    map[string]*storedFile
	order    []string
	orders   map[string]models.PaymentOrder
	txs      []models.PaymentTransaction
	nextUser int
	inject   []injected
	requests []*http.Request
	now      func() time.Time
}

// New creates an empty backend.
func New() *Server {
	s := &Server{
		users:  make(map[string]*user),
		tokens: make(map[string]string),
		files:  make(map[string]*storedFile),
		orders: make(map[string]models.PaymentOrder),
		now:    time.Now,
	}
	s.router = s.routes()
	return s
}

// Start serves the backend on a local httptest server that is closed with t.
func (s *Server) Start(t interface{ Cleanup(func()) }) *httptest.Server {
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/auth/", s.register).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/verify-email", s.verifyEmail).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/forgot-password", s.forgotPassword).Methods(http.MethodPost)
	apiRouter.HandleFunc("/auth/reset-password", s.resetPassword).Methods(http.MethodPost)

	protectedAPI := apiRouter.NewRoute().Subrouter()
	protectedAPI.Use(s.requireAuth)
	protectedAPI.HandleFunc("/auth/change-password", s.changePassword).Methods(http.MethodPut)
	protectedAPI.HandleFunc("/user/profile", s.profile).Methods(http.MethodGet)
	protectedAPI.HandleFunc("/payments/create-order", s.createOrder).Methods(http.MethodPost)
	protectedAPI.HandleFunc("/payments/verify", s.verifyPayment).Methods(http.MethodPost)

	r.HandleFunc("/files/public/{id}", s.publicFile).Methods(http.MethodGet)
	r.HandleFunc("/files/download/{id}", s.download).Methods(http.MethodGet)

	protected := r.NewRoute().Subrouter()
	protected.Use(s.requireAuth)
	protected.HandleFunc("/files/upload", s.upload).Methods(http.MethodPost)
	protected.HandleFunc("/files/my", s.myFiles).Methods(http.MethodGet)
	protected.HandleFunc("/files/delete/{id}", s.deleteFile).Methods(http.MethodDelete)
	protected.HandleFunc("/files/{id}/toggle-public", s.togglePublic).Methods(http.MethodPatch)
	protected.HandleFunc("/users/credits", s.credits).Methods(http.MethodGet)
	protected.HandleFunc("/transactions", s.transactions).Methods(http.MethodGet)

	return r
}

// ServeHTTP records the request, applies any injected failure and routes it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(r.Context()))
	var fail *injected
	if len(s.inject) > 0 {
		fail = &s.inject[0]
		s.inject = s.inject[1:]
	}
	s.mu.Unlock()

	if fail != nil {
		writeFailure(w, fail.status, fail.message)
		return
	}
	s.router.ServeHTTP(w, r)
}

// FailNext makes the next request fail with status and message. Calls queue.
func (s *Server) FailNext(status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inject = append(s.inject, injected{status: status, message: message})
}

// Requests returns copies of every request received so far.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

// AddUser registers an active account with the given credits.
func (s *Server) AddUser(name, email, password string, credits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addUserLocked(name, email, password, credits, true)
}

func (s *Server) addUserLocked(name, email, password string, credits int, active bool) *user {
	s.nextUser++
	u := &user{
		id:           s.nextUser,
		name:         name,
		email:        email,
		passwordHash: hashPassword(password),
		active:       active,
		credits:      credits,
	}
	if !active {
		u.verificationToken = uuid.NewString()
	}
	s.users[email] = u
	return u
}

// IssueToken returns a valid bearer token for email.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(email)
}

func (s *Server) issueTokenLocked(email string) string {
	token := uuid.NewString()
	s.tokens[token] = email
	return token
}

// RevokeToken invalidates token, as an expired JWT would be.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// TokenValid reports whether token is accepted.
func (s *Server) TokenValid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[token]
	return ok
}

// VerificationToken returns the pending email verification token for email.
func (s *Server) VerificationToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		return u.verificationToken
	}
	return ""
}

// ResetToken returns the pending password reset token for email.
func (s *Server) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		return u.resetToken
	}
	return ""
}

// Credits returns the balance of email.
func (s *Server) Credits(email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		return u.credits
	}
	return 0
}

// SetCredits overrides the balance of email.
func (s *Server) SetCredits(email string, credits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[email]; ok {
		u.credits = credits
	}
}

// AddFile stores a file owned by email and returns its ID.
func (s *Server) AddFile(email, name string, content []byte, public bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addFileLocked(email, name, http.DetectContentType(content), content, public)
}

func (s *Server) addFileLocked(email, name, contentType string, content []byte, public bool) string {
	id := uuid.NewString()
	s.files[id] = &storedFile{
		owner:   email,
		content: content,
		record: models.FileRecord{
			ID:           id,
			Name:         name,
			Type:         contentType,
			Size:         int64(len(content)),
			Username:     email,
			IsPublic:     public,
			FileLocation: "uploads/" + id,
			UploadAt:     models.Timestamp{Time: s.now().UTC().Truncate(time.Second)},
		},
	}
	s.order = append(s.order, id)
	return id
}

// File returns the stored record for id.
func (s *Server) File(id string) (models.FileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return models.FileRecord{}, false
	}
	return f.record, true
}

// SignPayment returns the signature the checkout provider would send for
// an order and payment.
func SignPayment(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(paymentSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractBearerToken(r)
		s.mu.Lock()
		email, ok := s.tokens[token]
		s.mu.Unlock()
		if token == "" || !ok {
			writeFailure(w, http.StatusUnauthorized, MessageUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), email, token)))
	})
}

// currentUser resolves an optional bearer token on public routes.
func (s *Server) currentUser(r *http.Request) string {
	token := auth.ExtractBearerToken(r)
	if token == "" {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[token]
}

func (u *user) profile() models.UserProfile {
	return models.UserProfile{
		ID:     u.id,
		Name:   u.name,
		Email:  u.email,
		Status: &models.UserStatus{ID: u.id, IsActive: u.active},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeEnvelope(w http.ResponseWriter, message string, data any) {
	body := map[string]any{"status": "success", "message": message}
	if data != nil {
		body["data"] = data
	}
	writeJSON(w, http.StatusOK, body)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	body := map[string]any{"status": "failed"}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}

// hashPassword hashes at bcrypt.MinCost.
func hashPassword(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("fakebackend: hash password: %v", err))
	}
	return hash
}

func (u *user) checkPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) == nil
}

func hmacEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
