package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"rentflow/auth"
	"rentflow/car"
	"rentflow/reservation"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeServiceError maps domain sentinels to the wire taxonomy. Anything
// unrecognized is treated as a storage failure: the caller may retry, and the
// store's own error detail never reaches the response.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reservation.ErrInvalidDate),
		errors.Is(err, reservation.ErrMissingUser),
		errors.Is(err, car.ErrMissingField),
		errors.Is(err, car.ErrBadSort),
		errors.Is(err, car.ErrEmptyUpdate),
		errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenRevoked):
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")

	case errors.Is(err, car.ErrNotFound),
		errors.Is(err, reservation.ErrCarNotFound),
		errors.Is(err, reservation.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, auth.ErrDuplicateEmail),
		errors.Is(err, reservation.ErrDuplicateDate),
		errors.Is(err, reservation.ErrDateNotListed):
		writeError(w, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, reservation.ErrDateUnavailable):
		writeError(w, http.StatusConflict, "unavailable", err.Error())

	case errors.Is(err, reservation.ErrActiveReservationExists):
		writeError(w, http.StatusConflict, "active_reservation_exists", err.Error())

	default:
		s.logger.Error("storage failure", "err", err)
		writeError(w, http.StatusBadGateway, "storage_error", "temporary storage failure, retry later")
	}
}
