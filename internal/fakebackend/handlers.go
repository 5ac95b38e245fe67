package fakebackend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"cloudshare/internal/auth"
	"cloudshare/models"
)

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeFailure(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		writeFailure(w, http.StatusBadRequest, "Email already exists")
		return
	}
	s.addUserLocked(req.Name, req.Email, req.Password, DefaultSignupCredits, false)
	writeEnvelope(w, "Register success", nil)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[req.Email]
	if !ok || !u.checkPassword(req.Password) {
		writeFailure(w, http.StatusBadRequest, MessageInvalidCredential)
		return
	}
	if !u.active {
		writeFailure(w, http.StatusBadRequest, "Account is inactive. Please verify your email")
		return
	}
	token := s.issueTokenLocked(u.email)
	writeEnvelope(w, "success", map[string]any{
		"user":  u.profile(),
		"token": token,
	})
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req models.EmailVerification
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if req.Token != "" && u.verificationToken == req.Token {
			u.active = true
			u.verificationToken = ""
			writeEnvelope(w, "Email verified successfully", nil)
			return
		}
	}
	writeFailure(w, http.StatusBadRequest, "Invalid or expired verification link")
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordForgotRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[req.Email]; ok {
		u.resetToken = uuid.NewString()
	}
	// Unknown emails get the same answer to avoid account enumeration.
	writeEnvelope(w, "Password reset link sent to your email", nil)
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if req.Token != "" && u.resetToken == req.Token {
			u.passwordHash = hashPassword(req.NewPassword)
			u.resetToken = ""
			writeEnvelope(w, "Password reset successfully", nil)
			return
		}
	}
	writeFailure(w, http.StatusBadRequest, "Invalid or expired reset link")
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordChangeRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[auth.GetEmail(r)]
	if u == nil || !u.checkPassword(req.OldPassword) {
		writeFailure(w, http.StatusBadRequest, "Old password is incorrect")
		return
	}
	u.passwordHash = hashPassword(req.NewPassword)
	writeEnvelope(w, "Password Change Successfully", nil)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[auth.GetEmail(r)]
	if u == nil {
		writeFailure(w, http.StatusNotFound, "user not found")
		return
	}
	writeEnvelope(w, "success", u.profile())
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(defaultMaxUploadMultipart); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	parts := r.MultipartForm.File["file"]
	if len(parts) == 0 {
		writeFailure(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	email := auth.GetEmail(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[email]
	if u == nil || u.credits < len(parts) {
		writeFailure(w, http.StatusPaymentRequired, MessageNotEnoughCredits)
		return
	}

	files := make([]models.FileRecord, 0, len(parts))
	for _, header := range parts {
		f, err := header.Open()
		if err != nil {
			writeFailure(w, http.StatusInternalServerError, fmt.Sprintf("open part: %v", err))
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeFailure(w, http.StatusInternalServerError, fmt.Sprintf("read part: %v", err))
			return
		}
		contentType := header.Header.Get("Content-Type")
		id := s.addFileLocked(email, header.Filename, contentType, content, false)
		files = append(files, s.files[id].record)
	}
	u.credits -= len(parts)

	writeJSON(w, http.StatusOK, map[string]any{
		"files":            files,
		"remainingCredits": s.creditLocked(u),
	})
}

func (s *Server) creditLocked(u *user) models.UserCredit {
	return models.UserCredit{ID: u.id, Username: u.email, Credits: u.credits, Plan: "BASIC"}
}

func (s *Server) myFiles(w http.ResponseWriter, r *http.Request) {
	email := auth.GetEmail(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	files := []models.FileRecord{}
	for _, id := range s.order {
		if f, ok := s.files[id]; ok && f.owner == email {
			files = append(files, f.record)
		}
	}
	body := map[string]any{"files": files}
	if u := s.users[email]; u != nil {
		body["remainingCredits"] = s.creditLocked(u)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) publicFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok || !f.record.IsPublic {
		writeFailure(w, http.StatusNotFound, MessageFileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, f.record)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	email := s.currentUser(r)

	s.mu.Lock()
	f, ok := s.files[id]
	s.mu.Unlock()
	if !ok || (!f.record.IsPublic && f.owner != email) {
		writeFailure(w, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, f.record.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.content)))
	w.WriteHeader(http.StatusOK)
	w.Write(f.content)
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	email := auth.GetEmail(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		writeFailure(w, http.StatusNotFound, "file not found")
		return
	}
	if f.owner != email {
		writeFailure(w, http.StatusForbidden, MessageNotOwner)
		return
	}
	delete(s.files, id)
	writeJSON(w, http.StatusOK, "Deleted Successfully")
}

func (s *Server) togglePublic(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	email := auth.GetEmail(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok || f.owner != email {
		writeFailure(w, http.StatusNotFound, "file not found")
		return
	}
	f.record.IsPublic = !f.record.IsPublic
	writeJSON(w, http.StatusOK, f.record)
}

func (s *Server) credits(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[auth.GetEmail(r)]
	if u == nil {
		writeFailure(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, s.creditLocked(u))
}

func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	email := auth.GetEmail(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.PaymentTransaction{}
	for i := len(s.txs) - 1; i >= 0; i-- {
		if s.txs[i].Username == email {
			out = append(out, s.txs[i])
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentOrder
	if !decode(w, r, &req) {
		return
	}
	plan, ok := models.FindPlan(req.PlanID)
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.PaymentOrder{Success: false, Message: "Invalid plan"})
		return
	}

	order := plan.Order()
	order.OrderID = "order_" + uuid.NewString()[:14]
	order.Success = true
	order.Message = "Order created"

	s.mu.Lock()
	s.orders[order.OrderID] = order
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, order)
}

func (s *Server) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentVerification
	if !decode(w, r, &req) {
		return
	}
	email := auth.GetEmail(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[req.OrderID]
	if !ok || !hmacEqual(SignPayment(req.OrderID, req.PaymentID), req.Signature) {
		writeJSON(w, http.StatusBadRequest, models.PaymentOrder{Success: false, Message: "Payment verification failed"})
		return
	}
	delete(s.orders, req.OrderID)

	u := s.users[email]
	if u == nil {
		writeJSON(w, http.StatusBadRequest, models.PaymentOrder{Success: false, Message: "user not found"})
		return
	}
	u.credits += order.Credits

	amount, _ := strconv.Atoi(order.Amount)
	s.txs = append(s.txs, models.PaymentTransaction{
		ID:              uuid.NewString(),
		Username:        email,
		OrderID:         req.OrderID,
		PaymentID:       req.PaymentID,
		PlanID:          order.PlanID,
		Amount:          amount,
		Currency:        order.Currency,
		CreditAdded:     order.Credits,
		Status:          "SUCCESS",
		TransactionDate: models.Timestamp{Time: s.now().UTC().Truncate(time.Second)},
		Name:            u.name,
	})

	order.Success = true
	order.Message = "Payment verified"
	writeJSON(w, http.StatusOK, order)
}
