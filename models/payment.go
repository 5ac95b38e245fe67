package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UserCredit is the caller's credit balance.
type UserCredit struct {
	ID       int    `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Credits  int    `json:"credits"`
	Plan     string `json:"plan,omitempty"`
}

// UnmarshalJSON accepts a full credit object or a bare number.
func (c *UserCredit) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if n, err := strconv.Atoi(trimmed); err == nil {
		*c = UserCredit{Credits: n}
		return nil
	}
	type creditAlias UserCredit // prevent recursion
	var alias creditAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("decode credits: %w", err)
	}
	*c = UserCredit(alias)
	return nil
}

// PaymentOrder mirrors the backend's payment descriptor, used both to
// request an order and as the create/verify response.
type PaymentOrder struct {
	PlanID   string `json:"planId,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
	Credits  int    `json:"credits,omitempty"`
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	OrderID  string `json:"orderId,omitempty"`
}

// PaymentVerification carries the checkout provider's callback values.
type PaymentVerification struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	PlanID    string `json:"planId,omitempty"`
}

// PaymentTransaction is one entry of the caller's purchase history.
type PaymentTransaction struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	OrderID         string    `json:"orderId"`
	PaymentID       string    `json:"paymentId"`
	PlanID          string    `json:"planId"`
	Amount          int       `json:"amount"`
	Currency        string    `json:"currency"`
	CreditAdded     int       `json:"creditAdded"`
	Status          string    `json:"status"`
	TransactionDate Timestamp `json:"transactionDate"`
	Name            string    `json:"name,omitempty"`
}
