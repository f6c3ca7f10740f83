package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"rentflow/auth"
	"rentflow/car"
	"rentflow/reservation"
	"rentflow/storage"
)

const maxImageBytes = 10 << 20

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed json body")
		return
	}

	user, err := s.authService.Register(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(*user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed json body")
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.authService.Logout(r.Context(), tokenFrom(r.Context())); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCars(w http.ResponseWriter, r *http.Request) {
	filter := car.Filter{
		Query: r.URL.Query().Get("q"),
		Sort:  r.URL.Query().Get("sort"),
	}
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "year must be an integer")
			return
		}
		filter.Year = year
	}

	cars, err := s.carService.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	items := make([]carResponse, 0, len(cars))
	for _, c := range cars {
		items = append(items, toCarResponse(c))
	}
	writeJSON(w, http.StatusOK, toListResponse(items))
}

func (s *Server) handleCreateCar(w http.ResponseWriter, r *http.Request) {
	var req carRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed json body")
		return
	}

	created, err := s.carService.Create(r.Context(), car.CreateParams{
		Brand:       req.Brand,
		Model:       req.Model,
		Type:        req.Type,
		Year:        req.Year,
		Horsepower:  req.Horsepower,
		PricePerDay: req.PricePerDay,
		ImageKey:    req.ImageKey,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCarResponse(created))
}

func (s *Server) handleGetCar(w http.ResponseWriter, r *http.Request) {
	c, err := s.carService.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	resp := toCarResponse(c)
	if s.images != nil && c.ImageKey != "" {
		url, err := s.images.PresignGet(r.Context(), c.ImageKey, 15*time.Minute)
		if err != nil {
			s.logger.Warn("presign image url", "car", c.ID, "err", err)
		} else {
			resp.ImageURL = url
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateCar(w http.ResponseWriter, r *http.Request) {
	var req carUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed json body")
		return
	}

	updated, err := s.carService.Update(r.Context(), chi.URLParam(r, "id"), car.UpdateParams{
		Brand:       req.Brand,
		Model:       req.Model,
		Type:        req.Type,
		Year:        req.Year,
		Horsepower:  req.Horsepower,
		PricePerDay: req.PricePerDay,
		ImageKey:    req.ImageKey,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCarResponse(updated))
}

func (s *Server) handleDeleteCar(w http.ResponseWriter, r *http.Request) {
	if err := s.carService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.ledgerService.AvailableDates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(dates))
}

func (s *Server) handleAddDate(w http.ResponseWriter, r *http.Request) {
	var req addDateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed json body")
		return
	}

	if err := s.ledgerService.AddAvailableDate(r.Context(), chi.URLParam(r, "id"), req.Date); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addDateRequest{Date: req.Date})
}

func (s *Server) handleRemoveDate(w http.ResponseWriter, r *http.Request) {
	err := s.ledgerService.RemoveAvailableDate(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "date"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if s.images == nil {
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "image storage is not configured")
		return
	}

	carID := chi.URLParam(r, "id")
	c, err := s.carService.GetByID(r.Context(), carID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed multipart body")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "image file is required")
		return
	}
	defer file.Close()

	if !storage.AllowedExtension(header.Filename, s.allowedExtensions) {
		writeError(w, http.StatusBadRequest, "invalid_input",
			fmt.Sprintf("image must be one of: %s", strings.Join(s.allowedExtensions, ", ")))
		return
	}

	key := fmt.Sprintf("cars/%s/%s%s", c.ID, uuid.NewString(), strings.ToLower(filepath.Ext(header.Filename)))
	contentType := header.Header.Get("Content-Type")
	if err := s.images.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		s.writeServiceError(w, err)
		return
	}

	if _, err := s.carService.Update(r.Context(), c.ID, car.UpdateParams{ImageKey: &key}); err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"imageKey": key})
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed json body")
		return
	}

	res, err := s.ledgerService.Reserve(r.Context(), reservation.ReserveParams{
		CarID:  req.CarID,
		UserID: userIDFrom(r.Context()),
		Date:   req.Date,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReservationResponse(res))
}

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	var (
		details []reservation.Detail
		err     error
	)
	if roleFrom(r.Context()) == auth.RoleAdmin {
		details, err = s.ledgerService.ListAll(r.Context())
	} else {
		details, err = s.ledgerService.ListForUser(r.Context(), userIDFrom(r.Context()))
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	items := make([]reservationResponse, 0, len(details))
	for _, d := range details {
		items = append(items, toReservationDetailResponse(d))
	}
	writeJSON(w, http.StatusOK, toListResponse(items))
}

func (s *Server) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	if err := s.ledgerService.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
