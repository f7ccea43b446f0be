package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenValidationErrorsStripsFieldNames(t *testing.T) {
	flattened := FlattenValidationErrors(map[string][]string{
		"bid_amount": {"Bid must be a multiple of 100000."},
		"plot_id":    {"A plot is required."},
	})

	// Sorted by field, messages only
	require.Equal(t, []string{
		"Bid must be a multiple of 100000.",
		"A plot is required.",
	}, flattened)
	for _, message := range flattened {
		assert.NotContains(t, message, "bid_amount:")
		assert.NotContains(t, message, "plot_id:")
	}
}

func TestFlattenValidationErrorsEmpty(t *testing.T) {
	assert.Nil(t, FlattenValidationErrors(nil))
	assert.Nil(t, FlattenValidationErrors(map[string][]string{"field": {"", "  "}}))
}

func TestValidationErrorKeepsStructuredMap(t *testing.T) {
	fieldErrors := map[string][]string{
		"bid_amount": {"Bid too low.", "Bid must be a multiple of 100000."},
		"plan_type":  {"Unknown plan."},
	}
	err := NewValidationError("TestService", "TestOp", fieldErrors)

	assert.Equal(t, ErrorCategoryValidation, err.Category)
	assert.Equal(t, fieldErrors, err.FieldErrors)
	assert.Equal(t, []string{"Bid too low.", "Bid must be a multiple of 100000."}, err.FieldMessages("bid_amount"))
	assert.Nil(t, err.FieldMessages("missing"))
}

func TestDisplayMessageTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "validation shows flattened upstream text",
			err:  NewValidationError("S", "Op", map[string][]string{"f": {"Specific message."}}),
			want: "Specific message.",
		},
		{
			name: "authentication prompts login",
			err:  NewServiceError(ErrorCategoryAuthentication, "UPSTREAM_UNAUTHORIZED", "token rejected", "S", "Op", false, nil),
			want: MessageLoginRequired,
		},
		{
			name: "authorization is not permitted",
			err:  NewServiceError(ErrorCategoryAuthorization, "UPSTREAM_FORBIDDEN", "denied", "S", "Op", false, nil),
			want: MessageNotPermitted,
		},
		{
			name: "network gets generic text",
			err:  NewServiceError(ErrorCategoryNetwork, "UPSTREAM_UNREACHABLE", "dial tcp: refused", "S", "Op", true, nil),
			want: MessageTryAgain,
		},
		{
			name: "shape gets generic text",
			err:  NewServiceError(ErrorCategoryShape, "UNEXPECTED_RESPONSE_SHAPE", "bad payload", "S", "Op", false, nil),
			want: MessageTryAgain,
		},
		{
			name: "plain error gets generic text",
			err:  errors.New("boom"),
			want: MessageTryAgain,
		},
		{
			name: "wrapped service error still resolves",
			err:  fmt.Errorf("context: %w", NewServiceError(ErrorCategoryAuthentication, "X", "y", "S", "Op", false, nil)),
			want: MessageLoginRequired,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DisplayMessage(tc.err))
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	retryable := NewServiceError(ErrorCategoryNetwork, "UPSTREAM_UNREACHABLE", "down", "S", "Op", true, nil)
	fixed := NewServiceError(ErrorCategoryValidation, "UPSTREAM_VALIDATION", "bad", "S", "Op", false, nil)

	assert.True(t, IsRetryableError(retryable))
	assert.False(t, IsRetryableError(fixed))
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	handler := NewUpstreamIsolationHandler("TestService", 0.5)

	// Below the minimum sample size nothing trips
	for i := 0; i < 5; i++ {
		handler.RecordFailure()
	}
	assert.False(t, handler.IsCircuitBreakerOpen())

	for i := 0; i < 10; i++ {
		handler.RecordFailure()
	}
	assert.True(t, handler.IsCircuitBreakerOpen())

	err := handler.Execute("op", func() error { return nil })
	require.Error(t, err)

	var serviceErr *ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.True(t, serviceErr.Retryable)
}
