// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API handlers of the category backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/catadmin/internal/category"
	"github.com/olegiv/catadmin/internal/logging"
	"github.com/olegiv/catadmin/internal/repository"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var (
	validate = newValidator()
	// Category names are plain text.
	nameSanitizer = bluemonday.StrictPolicy()
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	repo     repository.Repository
	sessions *scs.SessionManager
	logger   *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(repo repository.Repository, sessions *scs.SessionManager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		repo:     repo,
		sessions: sessions,
		logger:   logger,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries the tree revision the data was read at.
type Meta struct {
	Total    int64 `json:"total,omitempty"`
	Revision int64 `json:"revision,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusCreated, Response{Data: data, Meta: meta})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// domainErrors maps category and repository errors to API responses.
var domainErrors = []struct {
	err    error
	status int
	code   string
}{
	{category.ErrNodeNotFound, http.StatusNotFound, "not_found"},
	{category.ErrParentNotFound, http.StatusUnprocessableEntity, "parent_not_found"},
	{category.ErrSelfParent, http.StatusUnprocessableEntity, "self_parent"},
	{category.ErrCycleDetected, http.StatusUnprocessableEntity, "cycle_detected"},
	{category.ErrStaleSnapshot, http.StatusConflict, "stale_snapshot"},
	{repository.ErrHasChildren, http.StatusConflict, "has_children"},
	{repository.ErrSlugConflict, http.StatusConflict, "slug_conflict"},
	{category.ErrLevelOutOfRange, http.StatusUnprocessableEntity, "level_out_of_range"},
	{category.ErrNotAnOption, http.StatusUnprocessableEntity, "not_an_option"},
	{category.ErrLoading, http.StatusServiceUnavailable, "loading"},
}

// writeDomainError writes the response for err. Unknown errors are logged
// and answered with 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error, action string) {
	if errors.Is(err, category.ErrInvalidName) {
		WriteValidationError(w, map[string]string{"name": "Name must contain letters or digits"})
		return
	}
	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			WriteError(w, de.status, de.code, de.err.Error(), nil)
			return
		}
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	h.logger.ErrorContext(r.Context(), "category request failed",
		"action", action, "error", err, "category", logging.EventCategoryHTTP)
	WriteInternalError(w, "Failed to "+action)
}

// decodeJSON reads the request body into dst. It writes a 400 and returns
// false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return false
	}
	return true
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest checks the validate tags of req and returns field errors
// keyed by JSON name, or nil.
func validateRequest(req any) map[string]string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"request": err.Error()}
	}
	fieldErrors := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fieldErrors[fe.Field()] = validationMessage(fe)
	}
	return fieldErrors
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field is required"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case "gte":
		return "Must be " + fe.Param() + " or greater"
	case "gt":
		return "Must be greater than " + fe.Param()
	}
	return "Invalid value"
}

// sanitizeName strips markup from a category name.
func sanitizeName(name string) string {
	return strings.TrimSpace(html.UnescapeString(nameSanitizer.Sanitize(name)))
}

// snapshot builds a tree from the repository's flat list. Inconsistencies in
// the stored data are logged and tolerated.
func (h *Handler) snapshot(ctx context.Context) (*category.Tree, repository.Revision, error) {
	records, rev, err := h.repo.FetchFlatList(ctx)
	if err != nil {
		return nil, 0, err
	}
	tree, warnings := category.BuildTree(records)
	for _, warn := range warnings {
		h.logger.WarnContext(ctx, "category data inconsistency", "kind", string(warn.Kind),
			"category_id", warn.NodeID, "parent_id", warn.ParentID, "category", logging.EventCategoryIntegrity)
	}
	return tree, rev, nil
}
