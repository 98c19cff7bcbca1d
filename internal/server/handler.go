/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/kentakayama/device-locker/internal/domain"
	"github.com/kentakayama/device-locker/internal/locker"
)

const (
	maxRequestBodyBytes = 1 << 20 // 1 MiB
	defaultPopularLimit = 5
	contentTypeJSON     = "application/json; charset=utf-8"
	headerRequestID     = "X-Request-ID"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type route struct {
	method string
	serve  func(h *handler, w http.ResponseWriter, r *http.Request)
}

var routes = map[string]route{
	"/devices":        {http.MethodGet, (*handler).listDevices},
	"/devices/search": {http.MethodGet, (*handler).searchDevices},
	"/users":          {http.MethodGet, (*handler).listUsers},
	"/loans":          {http.MethodGet, (*handler).listLoans},
	"/loans/borrow":   {http.MethodPost, (*handler).borrow},
	"/loans/return":   {http.MethodPost, (*handler).returnDevice},
	"/stats/popular":  {http.MethodGet, (*handler).popular},
	"/stats/overdue":  {http.MethodGet, (*handler).overdue},
}

const routeList = "/devices, /devices/search, /users, /loans, /loans/borrow, /loans/return, /stats/popular, /stats/overdue"

type handler struct {
	locker *locker.Locker
	logger *log.Logger
}

type responseSpec struct {
	status int
	body   any
}

type errorPayload struct {
	Error string `json:"error"`
}

type borrowRequest struct {
	DeviceID string `json:"deviceId"`
	UserID   string `json:"userId"`
	Days     *int   `json:"days"`
}

type returnRequest struct {
	DeviceID string `json:"deviceId"`
}

func newHandler(l *locker.Locker, logger *log.Logger) (*handler, error) {
	return &handler{
		locker: l,
		logger: logger,
	}, nil
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(headerRequestID)
	if requestID == "" {
		if id, err := uuid.NewV7(); err == nil {
			requestID = id.String()
		}
	}
	w.Header().Set(headerRequestID, requestID)

	rt, ok := routes[r.URL.Path]
	if !ok {
		h.writeResponse(w, responseSpec{status: http.StatusNotFound, body: errorPayload{Error: "Not found"}})
		return
	}
	if r.Method != rt.method {
		w.Header().Set("Allow", rt.method)
		h.writeResponse(w, responseSpec{status: http.StatusMethodNotAllowed})
		return
	}
	rt.serve(h, w, r)
}

func (h *handler) listDevices(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.locker.Catalog.ListDevices())
}

func (h *handler) searchDevices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.locker.Catalog.SearchDevices(r.URL.Query().Get("q")))
}

func (h *handler) listUsers(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.locker.Catalog.ListUsers())
}

func (h *handler) listLoans(w http.ResponseWriter, r *http.Request) {
	openOnly, _ := strconv.ParseBool(r.URL.Query().Get("open"))
	h.writeJSON(w, http.StatusOK, h.locker.Catalog.ListLoans(openOnly))
}

func (h *handler) borrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if !h.readJSON(w, r, &req) {
		return
	}
	loan, err := h.locker.Loans.Borrow(req.DeviceID, req.UserID, req.Days)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, loan)
}

func (h *handler) returnDevice(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if !h.readJSON(w, r, &req) {
		return
	}
	loan, err := h.locker.Loans.ReturnDevice(req.DeviceID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

func (h *handler) popular(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultPopularLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	var since *time.Time
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, errorPayload{Error: "since must be an RFC3339 timestamp"})
			return
		}
		since = &t
	}
	h.writeJSON(w, http.StatusOK, h.locker.Stats.PopularSince(since, limit))
}

func (h *handler) overdue(w http.ResponseWriter, _ *http.Request) {
	entries := h.locker.Stats.Overdue()
	h.logger.Printf("Returning overdue entries count=%d", len(entries))
	h.writeJSON(w, http.StatusOK, entries)
}

// readJSON decodes the request body into v. It writes the error response and
// returns false when the body is missing or malformed.
func (h *handler) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		h.logger.Printf("content type mismatch: expected application/json, actual %v", ct)
		h.writeJSON(w, http.StatusUnsupportedMediaType, errorPayload{Error: "This endpoint only accepts Content-Type: application/json"})
		return false
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		h.logger.Printf("failed reading request body: %v", err)
		h.writeJSON(w, http.StatusBadRequest, errorPayload{Error: "failed to read request body"})
		return false
	}
	if err := r.Body.Close(); err != nil {
		h.logger.Printf("failed closing request body: %v", err)
	}
	if len(body) == 0 {
		h.writeJSON(w, http.StatusBadRequest, errorPayload{Error: "Missing body"})
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		h.logger.Printf("failed to parse request body: %v", err)
		h.writeJSON(w, http.StatusBadRequest, errorPayload{Error: "Malformed JSON body"})
		return false
	}
	return true
}

// writeError maps domain error kinds to HTTP statuses.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	default:
		h.logger.Printf("internal error on %s %s: %v", r.Method, r.URL.Path, err)
		h.writeJSON(w, http.StatusInternalServerError, errorPayload{Error: "Internal error"})
		return
	}
	h.writeJSON(w, status, errorPayload{Error: err.Error()})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, body any) {
	h.writeResponse(w, responseSpec{status: status, body: body})
}

func (h *handler) writeResponse(w http.ResponseWriter, spec responseSpec) {
	for k, v := range defaultHeaders {
		w.Header().Set(k, v)
	}

	if spec.body == nil {
		w.WriteHeader(spec.status)
		return
	}

	payload, err := json.Marshal(spec.body)
	if err != nil {
		h.logger.Printf("failed encoding response body: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(spec.status)
	if _, err := w.Write(payload); err != nil {
		h.logger.Printf("failed writing response body: %v", err)
	}
}

var defaultHeaders = map[string]string{
	"Cache-Control":           "no-store",
	"X-Content-Type-Options":  "nosniff",
	"Content-Security-Policy": "default-src 'none'",
	"Referrer-Policy":         "no-referrer",
}
