/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kentakayama/device-locker/internal/config"
	"github.com/kentakayama/device-locker/internal/domain/model"
	"github.com/kentakayama/device-locker/internal/infra/memory"
	"github.com/kentakayama/device-locker/internal/locker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestServer(t *testing.T) (*Server, *testClock) {
	t.Helper()

	devices := memory.NewDeviceStore()
	users := memory.NewUserStore()
	loans := memory.NewLoanLedger()
	devices.Save(model.NewDevice("d-001", "MacBook Pro", []string{"laptop", "apple"}, model.ConditionGood))
	devices.Save(model.NewDevice("d-002", "Canon EOS", []string{"camera"}, model.ConditionFair))
	users.Save(model.User{ID: "u-101", Name: "Alice"})

	clock := &testClock{now: baseTime}
	logger := log.New(io.Discard, "", 0)
	l := locker.New(devices, users, loans, locker.DefaultFeePolicy(),
		locker.WithClock(clock.Now),
		locker.WithLogger(logger),
	)

	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.Logger = logger
	srv, err := New(cfg, l)
	require.NoError(t, err)
	return srv, clock
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewRequiresLocker(t *testing.T) {
	_, err := New(config.Default(), nil)
	require.Error(t, err)
}

func TestBorrowAndReturn(t *testing.T) {
	srv, clock := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/loans/borrow", `{"deviceId":"d-001","userId":"u-101","days":7}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, contentTypeJSON, rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	loan := decode[map[string]any](t, rec)
	assert.Equal(t, "d-001", loan["deviceId"])
	assert.Equal(t, "u-101", loan["userId"])
	assert.Equal(t, "2025-06-01T09:00:00Z", loan["borrowedAt"])
	assert.Equal(t, "2025-06-08T09:00:00Z", loan["dueAt"])
	assert.Contains(t, loan, "returnedAt")
	assert.Nil(t, loan["returnedAt"])

	rec = do(t, srv, http.MethodGet, "/loans?open=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Loan](t, rec), 1)

	clock.Advance(2 * time.Hour)
	rec = do(t, srv, http.MethodPost, "/loans/return", `{"deviceId":"d-001"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	returned := decode[model.Loan](t, rec)
	require.NotNil(t, returned.ReturnedAt)
	assert.True(t, returned.ReturnedAt.Equal(baseTime.Add(2*time.Hour)))

	rec = do(t, srv, http.MethodGet, "/loans?open=true", "")
	assert.Empty(t, decode[[]model.Loan](t, rec))
	rec = do(t, srv, http.MethodGet, "/loans", "")
	assert.Len(t, decode[[]model.Loan](t, rec), 1)

	rec = do(t, srv, http.MethodGet, "/devices", "")
	devices := decode[[]model.Device](t, rec)
	require.Len(t, devices, 2)
	assert.Equal(t, 1, devices[0].TimesBorrowed)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		reason string
	}{
		{"missing body", "/loans/borrow", "", http.StatusBadRequest, "Missing body"},
		{"malformed body", "/loans/borrow", `{"deviceId":`, http.StatusBadRequest, "Malformed JSON body"},
		{"missing days", "/loans/borrow", `{"deviceId":"d-001","userId":"u-101"}`, http.StatusBadRequest, "days must be positive"},
		{"zero days", "/loans/borrow", `{"deviceId":"d-001","userId":"u-101","days":0}`, http.StatusBadRequest, "days must be positive"},
		{"blank device", "/loans/borrow", `{"deviceId":" ","userId":"u-101","days":1}`, http.StatusBadRequest, "deviceId is required"},
		{"unknown device", "/loans/borrow", `{"deviceId":"d-404","userId":"u-101","days":1}`, http.StatusNotFound, "Device not found"},
		{"unknown user", "/loans/borrow", `{"deviceId":"d-001","userId":"u-404","days":1}`, http.StatusNotFound, "User not found"},
		{"return without loan", "/loans/return", `{"deviceId":"d-002"}`, http.StatusNotFound, "Open loan not found for device"},
		{"return blank device", "/loans/return", `{}`, http.StatusBadRequest, "deviceId is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			rec := do(t, srv, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.reason, decode[errorPayload](t, rec).Error)
		})
	}
}

func TestBorrowConflict(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"deviceId":"d-002","userId":"u-101","days":3}`

	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/loans/borrow", body).Code)
	rec := do(t, srv, http.MethodPost, "/loans/borrow", body)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Device already borrowed", decode[errorPayload](t, rec).Error)
}

func TestRoutingErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodGet, "/loans/borrow", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))

	rec = do(t, srv, http.MethodDelete, "/devices", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRejectsNonJSONContentType(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/loans/borrow", strings.NewReader("deviceId=d-001"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set(headerRequestID, "abc-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(headerRequestID))

	users := decode[[]model.User](t, rec)
	require.Len(t, users, 1)
	assert.Equal(t, "Alice", users[0].Name)
}

func TestSearchDevices(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/devices/search?q=APPLE", "")
	require.Equal(t, http.StatusOK, rec.Code)
	devices := decode[[]model.Device](t, rec)
	require.Len(t, devices, 1)
	assert.Equal(t, "d-001", devices[0].ID)

	rec = do(t, srv, http.MethodGet, "/devices/search?q=", "")
	assert.Len(t, decode[[]model.Device](t, rec), 2)
}

func TestPopular(t *testing.T) {
	srv, clock := newTestServer(t)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/loans/borrow", `{"deviceId":"d-002","userId":"u-101","days":1}`).Code)
		clock.Advance(time.Hour)
		require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/loans/return", `{"deviceId":"d-002"}`).Code)
		clock.Advance(time.Hour)
	}
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/loans/borrow", `{"deviceId":"d-001","userId":"u-101","days":1}`).Code)

	rec := do(t, srv, http.MethodGet, "/stats/popular", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]model.PopularEntry](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, "d-002", entries[0].Device.ID)
	assert.EqualValues(t, 2, entries[0].Count)
	assert.Equal(t, "d-001", entries[1].Device.ID)

	rec = do(t, srv, http.MethodGet, "/stats/popular?limit=1", "")
	assert.Len(t, decode[[]model.PopularEntry](t, rec), 1)

	rec = do(t, srv, http.MethodGet, "/stats/popular?limit=abc", "")
	assert.Len(t, decode[[]model.PopularEntry](t, rec), 2)

	rec = do(t, srv, http.MethodGet, "/stats/popular?since=2025-06-01T12:00:00Z", "")
	entries = decode[[]model.PopularEntry](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "d-001", entries[0].Device.ID)

	rec = do(t, srv, http.MethodGet, "/stats/popular?since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOverdue(t *testing.T) {
	srv, clock := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/loans/borrow", `{"deviceId":"d-001","userId":"u-101","days":1}`).Code)
	clock.Advance(4 * 24 * time.Hour)

	rec := do(t, srv, http.MethodGet, "/stats/overdue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]map[string]any](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, "d-001", entries[0]["deviceId"])
	assert.Equal(t, "u-101", entries[0]["userId"])
	assert.EqualValues(t, 3, entries[0]["daysOverdue"])
	assert.EqualValues(t, 1.5, entries[0]["fee"])
	assert.Equal(t, "MacBook Pro (d-001)", entries[0]["deviceName"])
}
