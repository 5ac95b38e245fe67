package cloudshare

import (
	"context"
	"fmt"
	"net/http"

	"cloudshare/models"
)

// Profile returns the logged-in user from GET /api/user/profile.
func (c *Client) Profile(ctx context.Context) (*models.UserProfile, error) {
	resp, err := c.doStatus(ctx, http.MethodGet, c.apiEndpoint("user", "profile"), nil)
	if err != nil {
		return nil, err
	}
	var profile models.UserProfile
	if err := resp.DecodeData(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// Credits returns the caller's remaining upload credits.
func (c *Client) Credits(ctx context.Context) (*models.UserCredit, error) {
	var credit models.UserCredit
	if err := c.doJSON(ctx, http.MethodGet, c.rootEndpoint("users", "credits"), nil, &credit); err != nil {
		return nil, err
	}
	return &credit, nil
}

// Transactions lists the caller's successful credit purchases, newest first.
func (c *Client) Transactions(ctx context.Context) ([]models.PaymentTransaction, error) {
	var txs []models.PaymentTransaction
	if err := c.doJSON(ctx, http.MethodGet, c.rootEndpoint("transactions"), nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}
