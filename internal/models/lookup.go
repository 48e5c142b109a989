// Package models defines the wire types of the case-status API.
package models

import (
	"encoding/json"
	"regexp"
	"strings"
)

// LookupRequest is the body of POST /api/case-details.
type LookupRequest struct {
	// DiaryData is "<diary number>/<4-digit year>", e.g. "2444/2023".
	DiaryData string `json:"diaryData"`
}

// LookupKey is the validated identity of one case lookup. It is also the
// cache key for the lookup cache.
type LookupKey struct {
	DiaryNumber string
	Year        string
}

// String renders the key in its wire form.
func (k LookupKey) String() string {
	return k.DiaryNumber + "/" + k.Year
}

var diaryDataRe = regexp.MustCompile(`^(\d+)/(\d{4})$`)

// ParseDiaryData validates and splits a diaryData string. The second return
// is false when the value does not match the required digits/YYYY shape.
func ParseDiaryData(s string) (LookupKey, bool) {
	m := diaryDataRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return LookupKey{}, false
	}
	return LookupKey{DiaryNumber: m[1], Year: m[2]}, true
}

// CaseRecord is one parsed row of the site's results table.
type CaseRecord struct {
	SerialNumber     string `json:"serialNumber"`
	DiaryNumber      string `json:"diaryNumber"`
	CaseNumber       string `json:"caseNumber"`
	RegistrationDate string `json:"registrationDate"`
	Petitioner       string `json:"petitioner"`
	Respondent       string `json:"respondent"`
	Status           string `json:"status"`
	DetailLink       string `json:"detailLink,omitempty"`
}

// CaseData is the normalized-mode payload: parsed records plus whatever
// pagination metadata the site sent, passed through untouched.
type CaseData struct {
	Records    []CaseRecord    `json:"records"`
	Pagination json.RawMessage `json:"pagination,omitempty"`
}

// LookupResponse is the envelope for every outcome of /api/case-details.
// Data holds the site's raw JSON in passthrough mode or a CaseData in
// normalizing mode; Error is set only when Success is false.
type LookupResponse struct {
	Success     bool            `json:"success"`
	Data        json.RawMessage `json:"data,omitempty"`
	Error       string          `json:"error,omitempty"`
	TimeTakenMs float64         `json:"timeTakenMs"`
	Cached      bool            `json:"cached,omitempty"`
}

// NewErrorResponse creates a failed lookup envelope.
func NewErrorResponse(message string, tookMs float64) *LookupResponse {
	return &LookupResponse{
		Success:     false,
		Error:       message,
		TimeTakenMs: tookMs,
	}
}

// NewSuccessResponse creates a successful lookup envelope.
func NewSuccessResponse(data json.RawMessage, cached bool, tookMs float64) *LookupResponse {
	return &LookupResponse{
		Success:     true,
		Data:        data,
		Cached:      cached,
		TimeTakenMs: tookMs,
	}
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	CacheBackend  string `json:"cacheBackend"`
}
