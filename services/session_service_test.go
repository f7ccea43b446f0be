package services

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/ShafHaider007/expo-portal/shared"
	"github.com/ShafHaider007/expo-portal/upstream"
)

func authStubMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		if r.FormValue("password") != "correct-horse" {
			writeValidationFailure(w, map[string][]string{
				"password": {"The provided credentials are incorrect."},
			})
			return
		}
		writeEnvelope(w, upstream.AuthResult{
			Token: "upstream-token-1",
			User:  models.User{ID: 7, Name: "Test User", Role: models.RoleCustomer},
		})
	})
	mux.HandleFunc("/verify-otp", func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		if r.FormValue("otp") != "123456" {
			writeValidationFailure(w, map[string][]string{
				"otp": {"The code is incorrect or expired."},
			})
			return
		}
		writeEnvelope(w, upstream.AuthResult{
			Token: "upstream-token-2",
			User:  models.User{ID: 8, Name: "OTP User", Role: models.RoleCustomer},
		})
	})
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, upstream.AuthResult{OTPRequired: true, ResendAfterSeconds: 60})
	})
	mux.HandleFunc("/resend-otp", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, upstream.AuthResult{OTPRequired: true, ResendAfterSeconds: 120})
	})

	return mux
}

func newSessionFixture(t *testing.T) *SessionService {
	t.Helper()
	client := newStubUpstream(t, authStubMux())
	return NewSessionService(client, NewAuditService(nil))
}

func TestLoginMintsSession(t *testing.T) {
	sessions := newSessionFixture(t)

	result, err := sessions.Login(context.Background(), "user@example.com", "correct-horse")
	require.NoError(t, err)
	require.NotEmpty(t, result.SessionToken)
	require.NotNil(t, result.User)
	assert.Equal(t, 7, result.User.ID)

	session, ok := sessions.Lookup(result.SessionToken)
	require.True(t, ok)
	assert.Equal(t, "upstream-token-1", session.UpstreamToken)
	assert.Equal(t, 1, sessions.Count())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	sessions := newSessionFixture(t)

	_, err := sessions.Login(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)
	serviceErr, ok := err.(*shared.ServiceError)
	require.True(t, ok)
	assert.Equal(t, shared.ErrorCategoryValidation, serviceErr.Category)
	assert.Equal(t, 0, sessions.Count())
}

func TestVerifyOTPMintsSession(t *testing.T) {
	sessions := newSessionFixture(t)

	result, err := sessions.VerifyOTP(context.Background(), "user@example.com", "123456")
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionToken)

	_, err = sessions.VerifyOTP(context.Background(), "user@example.com", "000000")
	require.Error(t, err)
}

func TestRegisterReturnsOTPChallenge(t *testing.T) {
	sessions := newSessionFixture(t)

	result, err := sessions.Register(context.Background(), upstream.RegisterInput{
		Name: "New User", Email: "new@example.com", Password: "secret",
	})
	require.NoError(t, err)
	assert.True(t, result.OTPRequired)
	assert.Equal(t, 60, result.ResendAfterSec)
	assert.Empty(t, result.SessionToken)
}

func TestLogoutDestroysSession(t *testing.T) {
	sessions := newSessionFixture(t)

	result, err := sessions.Login(context.Background(), "user@example.com", "correct-horse")
	require.NoError(t, err)

	assert.True(t, sessions.Logout(context.Background(), result.SessionToken))

	// A destroyed session behaves exactly like no session
	_, ok := sessions.Lookup(result.SessionToken)
	assert.False(t, ok)
	assert.False(t, sessions.Logout(context.Background(), result.SessionToken))
}

func TestLookupRejectsGarbageTokens(t *testing.T) {
	sessions := newSessionFixture(t)

	_, ok := sessions.Lookup("not-a-uuid")
	assert.False(t, ok)
	_, ok = sessions.Lookup("")
	assert.False(t, ok)
}

func TestConcurrentLookupsAndSweeps(t *testing.T) {
	sessions := newSessionFixture(t)

	result, err := sessions.Login(context.Background(), "user@example.com", "correct-horse")
	require.NoError(t, err)

	// Parallel lookups touch the session while the sweep reads its idle time;
	// the race detector flags any unsynchronized LastSeenAt access here.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				sessions.Lookup(result.SessionToken)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			sessions.SweepIdle(time.Hour)
		}
	}()
	wg.Wait()

	_, ok := sessions.Lookup(result.SessionToken)
	assert.True(t, ok)
	assert.Equal(t, 1, sessions.Count())
}

func TestSweepIdleDropsStaleSessions(t *testing.T) {
	sessions := newSessionFixture(t)

	result, err := sessions.Login(context.Background(), "user@example.com", "correct-horse")
	require.NoError(t, err)

	session, ok := sessions.Lookup(result.SessionToken)
	require.True(t, ok)
	session.LastSeenAt = time.Now().Add(-2 * time.Hour)

	removed := sessions.SweepIdle(time.Hour)
	require.Len(t, removed, 1)
	assert.Equal(t, session.ID, removed[0])
	assert.Equal(t, 0, sessions.Count())
}
