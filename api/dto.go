/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, so the stylist
  dashboard keeps its camelCase field names while the domain uses
  generic.Money and generic.Date.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Stylists:
    StylistDTO, CreateStylistRequest, UpdateStylistRequest

  Transactions:
    TransactionDTO, CollectedDTO

  Collection:
    CollectRentRequest, CollectRentResponse

  Schedules:
    ScheduleRequest, ValidateResponse, PreviewResponse,
    OverlapRequest, OverlapResponse, DateDTO

  Automated collection:
    AutomatedCollectionRequest, AutomatedCollectionResponse

MONEY:
  Amounts are JSON numbers (250.5), parsed into decimal on the way in.

VALIDATION:
  Validation is done in handlers and the domain, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/schedule.go: ScheduleJSON wire shape
*/
package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/warp/boothrent/factory"
	"github.com/warp/boothrent/generic"
	"github.com/warp/boothrent/rent"
	"github.com/warp/boothrent/schedule"
)

// =============================================================================
// ENVELOPES
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type HealthDTO struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// =============================================================================
// STYLISTS
// =============================================================================

type StylistDTO struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	BoothNumber    string   `json:"boothNumber"`
	WeeklyRent     float64  `json:"weeklyRent"`
	RentType       string   `json:"rentType"`
	Status         string   `json:"status"`
	LastPayment    *string  `json:"lastPayment"`
	PercentageRate *float64 `json:"percentageRate,omitempty"`
}

type CreateStylistRequest struct {
	Name           string           `json:"name"`
	BoothNumber    string           `json:"boothNumber"`
	WeeklyRent     decimal.Decimal  `json:"weeklyRent"`
	RentType       string           `json:"rentType"`
	PercentageRate *decimal.Decimal `json:"percentageRate"`
}

// UpdateStylistRequest is a partial update; omitted fields stay unchanged.
type UpdateStylistRequest struct {
	RentType       *string          `json:"rentType"`
	WeeklyRent     *decimal.Decimal `json:"weeklyRent"`
	PercentageRate *decimal.Decimal `json:"percentageRate"`
}

func (r CreateStylistRequest) toDomain() rent.NewStylist {
	return rent.NewStylist{
		Name:           r.Name,
		BoothNumber:    r.BoothNumber,
		WeeklyRent:     generic.Money{Amount: r.WeeklyRent, Currency: generic.USD},
		RentType:       rent.RentType(r.RentType),
		PercentageRate: r.PercentageRate,
	}
}

func (r UpdateStylistRequest) toDomain() rent.StylistUpdate {
	var u rent.StylistUpdate
	if r.RentType != nil {
		rt := rent.RentType(*r.RentType)
		u.RentType = &rt
	}
	if r.WeeklyRent != nil {
		m := generic.Money{Amount: *r.WeeklyRent, Currency: generic.USD}
		u.WeeklyRent = &m
	}
	u.PercentageRate = r.PercentageRate
	return u
}

func toStylistDTO(s rent.Stylist) StylistDTO {
	dto := StylistDTO{
		ID:          string(s.ID),
		Name:        s.Name,
		BoothNumber: s.BoothNumber,
		WeeklyRent:  s.WeeklyRent.Float64(),
		RentType:    string(s.RentType),
		Status:      string(s.Status),
	}
	if s.LastPayment != nil {
		paid := s.LastPayment.String()
		dto.LastPayment = &paid
	}
	if s.PercentageRate != nil {
		rate, _ := s.PercentageRate.Float64()
		dto.PercentageRate = &rate
	}
	return dto
}

func toStylistDTOs(stylists []rent.Stylist) []StylistDTO {
	dtos := make([]StylistDTO, len(stylists))
	for i, s := range stylists {
		dtos[i] = toStylistDTO(s)
	}
	return dtos
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

type TransactionDTO struct {
	ID            string  `json:"id"`
	TransactionID string  `json:"transactionId"`
	Date          string  `json:"date"`
	StylistName   string  `json:"stylistName"`
	StylistID     string  `json:"stylistId"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	Status        string  `json:"status"`
	Notes         string  `json:"notes"`
}

func toTransactionDTO(tx generic.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:            string(tx.ID),
		TransactionID: tx.Reference,
		Date:          tx.Date.String(),
		StylistName:   tx.EntityName,
		StylistID:     string(tx.EntityID),
		Amount:        tx.Amount.Float64(),
		PaymentMethod: string(tx.Method),
		Status:        string(tx.Status),
		Notes:         tx.Notes,
	}
}

func toTransactionDTOs(txs []generic.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

// CollectedDTO is a stylist's settled rent inside [From, To].
type CollectedDTO struct {
	StylistID string  `json:"stylistId"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Currency  string  `json:"currency"`
	Total     float64 `json:"total"`
}

// =============================================================================
// COLLECTION
// =============================================================================

// CollectRentRequest charges one stylist. The Idempotency-Key header, when
// present, takes precedence over the body field.
type CollectRentRequest struct {
	StylistID      string `json:"stylistId"`
	PaymentMethod  string `json:"paymentMethod"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

type CollectRentResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
	Status        string `json:"status,omitempty"`
	Replayed      bool   `json:"replayed,omitempty"`
}

// =============================================================================
// SCHEDULES
// =============================================================================

// DateDTO carries a date in both wire and display form.
type DateDTO struct {
	Date    string `json:"date"`
	Display string `json:"display"`
}

func toDateDTOs(dates []generic.Date) []DateDTO {
	display := schedule.FormatDates(dates)
	dtos := make([]DateDTO, len(dates))
	for i, d := range dates {
		dtos[i] = DateDTO{Date: d.String(), Display: display[i]}
	}
	return dtos
}

// ScheduleRequest is the body of validate and preview. From and To, when
// both set, switch preview from the next Count dates to a date window.
type ScheduleRequest struct {
	Schedule json.RawMessage `json:"schedule"`
	Count    *int            `json:"count,omitempty"`
	From     generic.Date    `json:"from"`
	To       generic.Date    `json:"to"`
}

type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type PreviewResponse struct {
	Valid     bool      `json:"valid"`
	Errors    []string  `json:"errors"`
	Summary   string    `json:"summary"`
	NextDates []DateDTO `json:"next_dates"`
	RRule     string    `json:"rrule,omitempty"`
}

type OverlapRequest struct {
	A json.RawMessage `json:"a"`
	B json.RawMessage `json:"b"`
}

type OverlapResponse struct {
	Overlap     bool      `json:"overlap"`
	SharedDates []DateDTO `json:"shared_dates"`
}

// =============================================================================
// AUTOMATED COLLECTION
// =============================================================================

type AutomatedCollectionRequest struct {
	StylistID string          `json:"stylistId"`
	Schedule  json.RawMessage `json:"schedule"`
}

// AutomatedCollectionResponse acknowledges a schedule. Schedule is nil when
// nothing has been saved for the stylist.
type AutomatedCollectionResponse struct {
	Success   bool                  `json:"success"`
	Message   string                `json:"message,omitempty"`
	StylistID string                `json:"stylistId"`
	Schedule  *factory.ScheduleJSON `json:"schedule"`
	Summary   string                `json:"summary,omitempty"`
	NextDates []DateDTO             `json:"next_dates,omitempty"`
}

// =============================================================================
// DEMO DATA
// =============================================================================

type SeedInfoDTO struct {
	Stylists     int    `json:"stylists"`
	Transactions int    `json:"transactions"`
	Mode         string `json:"mode"`
}
