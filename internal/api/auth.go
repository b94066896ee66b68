package api

import (
	"context"
	"net/http"
	"time"
)

// credentials is the signup/login payload.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is the backend's auth token envelope.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Signup registers a new user and returns the access token.
func (c *Client) Signup(ctx context.Context, email, password string) (string, error) {
	var resp tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", credentials{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Login authenticates and returns the access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", credentials{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Logout invalidates the current token server-side. The backend returns
// success even for an already-invalid token so the client can always clear
// its local copy.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Profile is the authenticated user's public profile.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Credits   int       `json:"credits"`
	Sessions  []string  `json:"sessions"`
	CreatedAt time.Time `json:"created_at"`
}

// GetProfile fetches the current user's profile, including the credit
// balance the admission controller seeds itself from.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileUpdate is the payload for updating profile fields.
type ProfileUpdate struct {
	Name *string `json:"name,omitempty"`
}

// UpdateProfile applies a profile update and returns the canonical profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	var profile Profile
	if err := c.doJSON(ctx, http.MethodPut, "/api/auth/profile", update, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// creditCheckRequest asks whether the balance covers a cost.
type creditCheckRequest struct {
	Cost int `json:"cost"`
}

// CreditCheck is the backend's credit check response.
type CreditCheck struct {
	HasCredits      bool `json:"has_credits"`
	CurrentCredits  int  `json:"current_credits"`
	RequiredCredits int  `json:"required_credits"`
}

// CheckCredits asks the backend whether the user's balance covers cost.
func (c *Client) CheckCredits(ctx context.Context, cost int) (*CreditCheck, error) {
	var check CreditCheck
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/credits/check", creditCheckRequest{Cost: cost}, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// creditDeductRequest deducts a cost from the balance.
type creditDeductRequest struct {
	Cost int `json:"cost"`
}

// CreditDeduction is the backend's deduction response. NewCreditBalance is
// authoritative: the client adopts it as its local balance.
type CreditDeduction struct {
	Success          bool `json:"success"`
	NewCreditBalance int  `json:"new_credit_balance"`
}

// DeductCredits deducts cost from the user's balance and returns the
// server-confirmed new balance.
func (c *Client) DeductCredits(ctx context.Context, cost int) (*CreditDeduction, error) {
	var deduction CreditDeduction
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/credits/deduct", creditDeductRequest{Cost: cost}, &deduction); err != nil {
		return nil, err
	}
	return &deduction, nil
}
