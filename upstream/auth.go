package upstream

import (
	"context"

	"github.com/ShafHaider007/expo-portal/models"
)

// AuthResult is the outcome of a login, register or OTP verification call.
// OTPRequired indicates the backend wants a verification code before it will
// issue a token.
type AuthResult struct {
	Token              string      `json:"token"`
	User               models.User `json:"user"`
	OTPRequired        bool        `json:"otp_required"`
	ResendAfterSeconds int         `json:"resend_after_seconds"`
}

// RegisterInput is the multipart body for /register
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	CNIC     string
	Password string
}

// Login authenticates with phone/email and password
func (c *Client) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	env, err := c.postMultipart(ctx, "", "/login", nil, map[string]string{
		"email":    identifier,
		"password": password,
	}, "Login")
	if err != nil {
		return nil, err
	}

	var result AuthResult
	if err := decodeData(env, &result, "Login"); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates a new customer account; the backend responds with an OTP
// challenge rather than a token
func (c *Client) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	env, err := c.postMultipart(ctx, "", "/register", nil, map[string]string{
		"name":     input.Name,
		"email":    input.Email,
		"phone":    input.Phone,
		"cnic":     input.CNIC,
		"password": input.Password,
	}, "Register")
	if err != nil {
		return nil, err
	}

	var result AuthResult
	if err := decodeData(env, &result, "Register"); err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyOTP exchanges an OTP code for a token
func (c *Client) VerifyOTP(ctx context.Context, identifier, code string) (*AuthResult, error) {
	env, err := c.postMultipart(ctx, "", "/verify-otp", nil, map[string]string{
		"email": identifier,
		"otp":   code,
	}, "VerifyOTP")
	if err != nil {
		return nil, err
	}

	var result AuthResult
	if err := decodeData(env, &result, "VerifyOTP"); err != nil {
		return nil, err
	}
	return &result, nil
}

// ResendOTP asks the backend to issue a fresh code. The returned
// ResendAfterSeconds drives the portal's resend countdown.
func (c *Client) ResendOTP(ctx context.Context, identifier string) (*AuthResult, error) {
	env, err := c.postMultipart(ctx, "", "/resend-otp", nil, map[string]string{
		"email": identifier,
	}, "ResendOTP")
	if err != nil {
		return nil, err
	}

	var result AuthResult
	if err := decodeData(env, &result, "ResendOTP"); err != nil {
		return nil, err
	}
	return &result, nil
}
