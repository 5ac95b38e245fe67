package cloudshare

import (
	"context"
	"log"
	"net/http"

	"cloudshare/models"
)

// Register creates an account. The backend emails a verification link.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.StatusResponse, error) {
	resp, err := c.doStatus(ctx, http.MethodPost, c.apiEndpoint("auth")+"/", req)
	if err != nil {
		return nil, err
	}
	log.Printf("[cloudshare] registered account %s", req.Email)
	return resp, nil
}

// Login exchanges credentials for a token. The caller stores the token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	err := c.doJSON(ctx, http.MethodPost, c.apiEndpoint("auth", "login"), models.LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrMissingToken
	}
	return &resp, nil
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (*models.StatusResponse, error) {
	return c.doStatus(ctx, http.MethodPost, c.apiEndpoint("auth", "verify-email"), models.EmailVerification{Token: token})
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (*models.StatusResponse, error) {
	return c.doStatus(ctx, http.MethodPost, c.apiEndpoint("auth", "forgot-password"), models.PasswordForgotRequest{Email: email})
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*models.StatusResponse, error) {
	return c.doStatus(ctx, http.MethodPost, c.apiEndpoint("auth", "reset-password"), models.PasswordResetRequest{
		Token:       token,
		NewPassword: newPassword,
	})
}

// ChangePassword requires an authenticated session.
func (c *Client) ChangePassword(ctx context.Context, current, next string) (*models.StatusResponse, error) {
	return c.doStatus(ctx, http.MethodPut, c.apiEndpoint("auth", "change-password"), models.NewPasswordChangeRequest(current, next))
}
