package handlers

import (
	"delivery-dispatch-service/internal/api/dto"
	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/platform/obs"
	"delivery-dispatch-service/internal/services"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Warn("encode response failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg})
}

// decodeJSON reads exactly one JSON object into dst and validates it.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("field %s failed %q validation", verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}

// writeServiceError maps engine errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ite *domain.InvalidTransitionError
	switch {
	case errors.As(err, &ite):
		allowed := make([]string, 0, len(ite.Allowed))
		for _, s := range ite.Allowed {
			allowed = append(allowed, string(s))
		}
		writeJSON(w, r, http.StatusConflict, dto.ErrorResponse{Error: ite.Error(), Allowed: allowed})
	case errors.Is(err, domain.ErrNoEligibleStaff):
		writeJSON(w, r, http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Retryable: true})
	case errors.Is(err, domain.ErrPreconditionFailed), errors.Is(err, domain.ErrRouteNotDeletable):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrMissingShopData), errors.Is(err, domain.ErrNoZoneFound):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case services.IsNotFound(err):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		logrus.WithField("req_id", obs.RequestID(r.Context())).WithError(err).Errorf("%s failed", op)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
