package resolution

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// RegisterRoutes mounts the query API routes.
func RegisterRoutes(r chi.Router, o *Orchestrator) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	r.Route("/api/query", func(r chi.Router) {
		r.Post("/", handleQuery(o, v))
		r.Post("/clarify", handleClarify(o, v))
	})
}

type queryRequest struct {
	Query     string `json:"query" validate:"required"`
	AuthToken string `json:"auth_token" validate:"required"`
}

func handleQuery(o *Orchestrator, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if !decodeRequest(w, r, v, &req) {
			return
		}
		out := o.Start(r.Context(), req.Query, req.AuthToken)
		writeJSON(w, HTTPStatus(out), NewResponse(out))
	}
}

type clarifyRequest struct {
	Answer       string `json:"answer"`
	PendingState string `json:"pending_state" validate:"required"`
	AuthToken    string `json:"auth_token"`
}

func handleClarify(o *Orchestrator, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req clarifyRequest
		if !decodeRequest(w, r, v, &req) {
			return
		}
		out := o.ResumeToken(r.Context(), req.Answer, req.PendingState, req.AuthToken)
		writeJSON(w, HTTPStatus(out), NewResponse(out))
	}
}

// decodeRequest reads and validates a JSON body, writing a 400 on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Status: StatusError, Message: "invalid request body"})
		return false
	}
	if err := v.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Status: StatusError, Message: validationMessage(err)})
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fmt.Sprintf("missing required fields: %s", strings.Join(fields, ", "))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
