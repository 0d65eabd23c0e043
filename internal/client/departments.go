// Package client talks to the vetpms HTTP API from other services.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Harshitk-cp/vetpms/internal/apperr"
	"github.com/Harshitk-cp/vetpms/internal/buildconfig"
	"github.com/Harshitk-cp/vetpms/internal/domain"
	"github.com/google/uuid"
)

const defaultTimeout = 10 * time.Second

type DepartmentsClient struct {
	baseURL    string
	apiKey     string
	locale     string
	httpClient *http.Client
}

func NewDepartmentsClient(baseURL, apiKey string) *DepartmentsClient {
	return &DepartmentsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SetLocale sets the Accept-Language sent with requests.
func (c *DepartmentsClient) SetLocale(locale string) { c.locale = locale }

// SetHTTPClient replaces the underlying HTTP client.
func (c *DepartmentsClient) SetHTTPClient(hc *http.Client) { c.httpClient = hc }

type departmentsResponse struct {
	Departments []domain.Department `json:"departments"`
	Count       int                 `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RemoteError is an error reported by the server. It carries the server's
// localized message and unwraps to an apperr.Error with the same code.
type RemoteError struct {
	Status  int
	Message string
	err     *apperr.Error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("departments API returned status %d: %s", e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.err }

// List fetches the practice's departments. A non-nil location narrows the list
// to the departments linked to that location.
func (c *DepartmentsClient) List(ctx context.Context, location *uuid.UUID) ([]domain.Department, error) {
	u := c.baseURL + "/v1/departments"
	if location != nil {
		u += "?" + url.Values{"location": {location.String()}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create departments request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildconfig.UserAgent())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.locale != "" {
		req.Header.Set("Accept-Language", c.locale)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("departments request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read departments response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		_ = json.Unmarshal(body, &e)
		code := apperr.Code(e.Code)
		if code == "" {
			code = apperr.CodeUnknown
		}
		msg := e.Error
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, &RemoteError{Status: resp.StatusCode, Message: msg, err: apperr.New(code)}
	}

	var result departmentsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal departments response: %w", err)
	}
	if result.Departments == nil {
		result.Departments = []domain.Department{}
	}
	return result.Departments, nil
}
