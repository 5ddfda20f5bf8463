// Package handlers provides the REST API and public page handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/keyz-man/changelogai-app/internal/errors"
	"github.com/keyz-man/changelogai-app/internal/logging"
	"github.com/keyz-man/changelogai-app/internal/models"
	"github.com/keyz-man/changelogai-app/internal/uuid"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// requiredMessages are the messages for missing body fields.
var requiredMessages = map[string]string{
	"projectId":     "Project ID is required",
	"commitIds":     "At least one commit ID is required",
	"repositoryUrl": "Repository URL is required",
	"title":         "Title is required",
	"version":       "Version is required",
	"content":       "Content is required",
	"fromDate":      "Date range is required",
	"toDate":        "Date range is required",
}

// pathID reads the {id} wildcard, rejecting anything that is not a UUID.
func pathID(r *http.Request, field string) (models.UUID, error) {
	id := r.PathValue("id")
	if err := uuid.Validate(field, id); err != nil {
		return "", err
	}
	return models.UUID(id), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response", err)
	}
}

// writeError maps err to its status and writes {"error", "code"}.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	code := apperrors.CodeOf(err)
	message := apperrors.MessageOf(err)

	if status >= http.StatusInternalServerError {
		logging.Error("request failed", err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"code":   string(code),
		})
		if code == apperrors.ErrInternal || code == apperrors.ErrStore {
			message = "Internal server error"
		}
	}

	writeJSON(w, status, ErrorResponse{Error: message, Code: string(code)})
}

// decodeJSON reads and validates a JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("Request body is required")
		}
		return apperrors.Validation("Invalid request body")
	}
	return validateStruct(dst)
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Validation("Invalid request body")
	}

	fe := verrs[0]
	field := fe.Field()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	if fe.Tag() == "required" || fe.Tag() == "min" {
		if msg, ok := requiredMessages[field]; ok {
			return apperrors.Validation("%s", msg)
		}
		return apperrors.Validation("%s is required", field)
	}
	return apperrors.Validation("%s is invalid", field)
}
