package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ShafHaider007/expo-portal/shared"
	"github.com/sirupsen/logrus"
)

const serviceName = "ExpoUpstreamClient"

// Client talks to the remote expo backend. All business logic (reservation
// locking, bid ranking, payment settlement, OTP issuance) lives behind these
// endpoints; the client's job is shaping requests, validating the response
// envelope at the boundary and classifying failures.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *shared.UpstreamRateLimiter
	Metrics     *shared.ServiceMetrics
}

// NewClient creates a client for the given base URL
func NewClient(baseURL string, timeout time.Duration) *Client {
	factory := shared.NewHTTPClientFactory(timeout)
	config := shared.NewDefaultUnifiedConfiguration().Upstream

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  factory.CreateOptimizedHTTPClient(timeout),
		rateLimiter: shared.NewUpstreamRateLimiter(config.RequestRateLimit),
		Metrics:     shared.NewServiceMetrics(serviceName),
	}
}

// SetRateLimit adjusts the minimum delay between upstream requests
func (c *Client) SetRateLimit(minimumDelay time.Duration) {
	c.rateLimiter.UpdateMinimumDelay(minimumDelay)
}

// envelope is the JSON shape every expo backend endpoint responds with
type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

// Ping checks upstream reachability for the health endpoint
func (c *Client) Ping(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return shared.WrapError(err, shared.ErrorCategoryNetwork, "REQUEST_BUILD", serviceName, "Ping", false)
	}
	shared.SetPortalHeaders(request, "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return shared.WrapError(err, shared.ErrorCategoryNetwork, "UPSTREAM_UNREACHABLE", serviceName, "Ping", true)
	}
	defer response.Body.Close()
	io.Copy(io.Discard, response.Body)
	return nil
}

// getJSON issues a single GET with no retry. A failed interactive load must
// land the caller in an explicit error state, not a silent re-attempt.
func (c *Client) getJSON(ctx context.Context, token, path string, query url.Values, operation string) (*envelope, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "REQUEST_BUILD", serviceName, operation, false)
	}
	c.prepareRequest(request, token, "application/json")

	return c.execute(request, operation)
}

// postMultipart issues a multipart form POST, the body shape the expo
// backend's auth and booking endpoints expect
func (c *Client) postMultipart(ctx context.Context, token, path string, query url.Values, fields map[string]string, operation string) (*envelope, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "REQUEST_BUILD", serviceName, operation, false)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "REQUEST_BUILD", serviceName, operation, false)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "REQUEST_BUILD", serviceName, operation, false)
	}
	c.prepareRequest(request, token, "application/json")
	request.Header.Set("Content-Type", writer.FormDataContentType())

	return c.execute(request, operation)
}

// put issues a PUT with query-string parameters only
func (c *Client) put(ctx context.Context, token, path string, query url.Values, operation string) (*envelope, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "REQUEST_BUILD", serviceName, operation, false)
	}
	c.prepareRequest(request, token, "application/json")

	return c.execute(request, operation)
}

func (c *Client) prepareRequest(request *http.Request, token, acceptHeader string) {
	shared.SetPortalHeaders(request, acceptHeader)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
}

// execute performs the request and classifies the outcome per the error
// taxonomy: connectivity, authentication, upstream validation, or an
// unexpected response shape.
func (c *Client) execute(request *http.Request, operation string) (*envelope, error) {
	c.rateLimiter.EnforceRateLimit()

	startTime := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		c.Metrics.RecordRequest(false, time.Since(startTime))
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "UPSTREAM_UNREACHABLE", serviceName, operation, true)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		c.Metrics.RecordRequest(false, time.Since(startTime))
		return nil, shared.WrapError(err, shared.ErrorCategoryNetwork, "RESPONSE_READ", serviceName, operation, true)
	}

	logrus.WithFields(logrus.Fields{
		"component":   serviceName,
		"operation":   operation,
		"status_code": response.StatusCode,
		"duration":    time.Since(startTime),
	}).Debug("Upstream call completed")

	switch {
	case response.StatusCode == http.StatusUnauthorized:
		c.Metrics.RecordRequest(false, time.Since(startTime))
		return nil, shared.NewServiceError(
			shared.ErrorCategoryAuthentication, "UPSTREAM_UNAUTHORIZED",
			"upstream rejected the bearer token", serviceName, operation, false, nil)

	case response.StatusCode == http.StatusForbidden:
		c.Metrics.RecordRequest(false, time.Since(startTime))
		return nil, shared.NewServiceError(
			shared.ErrorCategoryAuthorization, "UPSTREAM_FORBIDDEN",
			"upstream denied access to this resource", serviceName, operation, false, nil)

	case response.StatusCode == http.StatusUnprocessableEntity || response.StatusCode == http.StatusBadRequest:
		c.Metrics.RecordRequest(false, time.Since(startTime))
		return nil, c.decodeValidationFailure(responseBody, operation)

	case response.StatusCode < 200 || response.StatusCode > 299:
		c.Metrics.RecordRequest(false, time.Since(startTime))
		return nil, shared.NewServiceError(
			shared.ErrorCategoryNetwork, "UPSTREAM_HTTP_ERROR",
			fmt.Sprintf("upstream returned HTTP %d", response.StatusCode),
			serviceName, operation, response.StatusCode >= 500, nil)
	}

	var result envelope
	if err := json.Unmarshal(responseBody, &result); err != nil {
		c.Metrics.RecordRequest(false, time.Since(startTime))
		return nil, shared.NewServiceError(
			shared.ErrorCategoryShape, "UNEXPECTED_RESPONSE_SHAPE",
			"upstream response was not a valid JSON envelope", serviceName, operation, false, err)
	}

	if !result.Success {
		c.Metrics.RecordRequest(false, time.Since(startTime))
		if len(result.Errors) > 0 {
			return nil, shared.NewValidationError(serviceName, operation, result.Errors)
		}
		message := result.Message
		if message == "" {
			message = "upstream reported failure without a message"
		}
		return nil, shared.NewServiceError(
			shared.ErrorCategoryValidation, "UPSTREAM_REJECTED", message, serviceName, operation, false, nil)
	}

	c.Metrics.RecordRequest(true, time.Since(startTime))
	return &result, nil
}

// decodeValidationFailure extracts the per-field error map from a 400/422
// body; anything unparseable degrades to a shape error with generic text.
func (c *Client) decodeValidationFailure(responseBody []byte, operation string) error {
	var result envelope
	if err := json.Unmarshal(responseBody, &result); err == nil && len(result.Errors) > 0 {
		return shared.NewValidationError(serviceName, operation, result.Errors)
	}

	var bare struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(responseBody, &bare); err == nil {
		if len(bare.Errors) > 0 {
			return shared.NewValidationError(serviceName, operation, bare.Errors)
		}
		if bare.Message != "" {
			return shared.NewServiceError(
				shared.ErrorCategoryValidation, "UPSTREAM_REJECTED", bare.Message, serviceName, operation, false, nil)
		}
	}

	return shared.NewServiceError(
		shared.ErrorCategoryShape, "UNEXPECTED_RESPONSE_SHAPE",
		"upstream validation response could not be decoded", serviceName, operation, false, nil)
}

// decodeData unmarshals the envelope payload into target, mapping a mismatch
// to a shape error so handlers surface a generic fallback message
func decodeData(env *envelope, target interface{}, operation string) error {
	if len(env.Data) == 0 {
		return shared.NewServiceError(
			shared.ErrorCategoryShape, "MISSING_RESPONSE_DATA",
			"upstream envelope carried no data", serviceName, operation, false, nil)
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return shared.NewServiceError(
			shared.ErrorCategoryShape, "UNEXPECTED_RESPONSE_SHAPE",
			"upstream data did not match the expected schema", serviceName, operation, false, err)
	}
	return nil
}
