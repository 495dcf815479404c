package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/thegera4/cool-morning-tables-sub000/internal/database"
	"github.com/thegera4/cool-morning-tables-sub000/internal/payments"
	"github.com/thegera4/cool-morning-tables-sub000/internal/pricing"
	"github.com/thegera4/cool-morning-tables-sub000/internal/service"

	"github.com/go-playground/validator/v10"
)

const defaultMaxBodyBytes = 64 << 10

var errInvalidRequest = errors.New("invalid request")

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, pricing.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrDepositDisabled),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrInvalidIdentity):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, database.ErrNotFound),
		errors.Is(err, payments.ErrNotFound),
		errors.Is(err, pricing.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDateUnavailable),
		errors.Is(err, service.ErrNotUpdatable),
		errors.Is(err, database.ErrDateBlocked):
		return http.StatusConflict
	case errors.Is(err, payments.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers with the mapped status. Messages of unexpected
// errors are logged, not returned.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Str("request_id", RequestIDFrom(r.Context())).Msg("request failed")
		writeError(w, status, "internal error")
	case http.StatusBadGateway:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Str("request_id", RequestIDFrom(r.Context())).Msg("payment provider failed")
		writeError(w, status, "payment provider error")
	default:
		writeError(w, status, err.Error())
	}
}

// decodeJSON reads a bounded JSON body into dst and validates it.
func (s *HTTPServer) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	limit := s.cfg.HTTP.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", errInvalidRequest)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", errInvalidRequest, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
