package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"rentflow/auth"
	"rentflow/car"
	"rentflow/reservation"
)

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

func toUserResponse(u auth.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type carRequest struct {
	Brand       string          `json:"brand"`
	Model       string          `json:"model"`
	Type        string          `json:"type"`
	Year        int             `json:"year"`
	Horsepower  int             `json:"horsepower"`
	PricePerDay decimal.Decimal `json:"pricePerDay"`
	ImageKey    string          `json:"imageKey"`
}

// carUpdateRequest mirrors the update allow-list; absent fields stay nil and
// are never applied.
type carUpdateRequest struct {
	Brand       *string          `json:"brand"`
	Model       *string          `json:"model"`
	Type        *string          `json:"type"`
	Year        *int             `json:"year"`
	Horsepower  *int             `json:"horsepower"`
	PricePerDay *decimal.Decimal `json:"pricePerDay"`
	ImageKey    *string          `json:"imageKey"`
}

type carResponse struct {
	ID          string `json:"id"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Type        string `json:"type,omitempty"`
	Year        int    `json:"year,omitempty"`
	Horsepower  int    `json:"horsepower,omitempty"`
	PricePerDay string `json:"pricePerDay"`
	ImageKey    string `json:"imageKey,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toCarResponse(c car.Car) carResponse {
	return carResponse{
		ID:          c.ID,
		Brand:       c.Brand,
		Model:       c.Model,
		Type:        c.Type,
		Year:        c.Year,
		Horsepower:  c.Horsepower,
		PricePerDay: c.PricePerDay.String(),
		ImageKey:    c.ImageKey,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}

type addDateRequest struct {
	Date string `json:"date"`
}

type reserveRequest struct {
	CarID string `json:"carId"`
	Date  string `json:"date"`
}

type reservationResponse struct {
	ID        string `json:"id"`
	CarID     string `json:"carId"`
	UserID    string `json:"userId"`
	Date      string `json:"date"`
	CreatedAt string `json:"createdAt"`
	CarBrand  string `json:"carBrand,omitempty"`
	CarModel  string `json:"carModel,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

func toReservationResponse(res reservation.Reservation) reservationResponse {
	return reservationResponse{
		ID:        res.ID,
		CarID:     res.CarID,
		UserID:    res.UserID,
		Date:      res.Day,
		CreatedAt: res.CreatedAt.Format(time.RFC3339),
	}
}

func toReservationDetailResponse(d reservation.Detail) reservationResponse {
	resp := toReservationResponse(d.Reservation)
	resp.CarBrand = d.CarBrand
	resp.CarModel = d.CarModel
	resp.UserEmail = d.UserEmail
	return resp
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func toListResponse[T any](items []T) listResponse[T] {
	return listResponse[T]{Items: items, Total: len(items)}
}
