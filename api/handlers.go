/*
handlers.go - HTTP API handlers for booth rent collection

PURPOSE:
  Exposes the stylist directory, the payment ledger, and the schedule
  engine via REST API. Handles HTTP request/response, JSON serialization,
  and delegates to domain logic.

ENDPOINTS:
  Health:
    GET    /api/health                        Liveness and simulation mode

  Stylists:
    GET    /api/stylists                      List booth renters
    POST   /api/stylists                      Create stylist
    GET    /api/stylists/{id}                 Get stylist
    PUT    /api/stylists/{id}                 Partial update (rent type, rent, rate)
    GET    /api/stylists/{id}/transactions    One stylist's payments, newest first
    GET    /api/stylists/{id}/collected       Settled rent in ?from=&to= (default: this month)

  Payments:
    GET    /api/transactions                  Payment history, newest first
    GET    /api/transactions/{id}             One transaction
    POST   /api/collect-rent                  Charge weekly rent (rate limited)
    POST   /api/webhook                       Processor callbacks (logged only)

  Schedules:
    POST   /api/schedules/validate            Validation problems
    POST   /api/schedules/preview             Summary, next dates (or dates in from/to), RRULE
    POST   /api/schedules/overlap             Shared dates of two schedules
    POST   /api/automated-collection          Acknowledge a stylist's schedule
    GET    /api/automated-collection/{id}     Saved schedule (always null)

  Demo data:
    GET    /api/seed                          Row counts
    POST   /api/seed/reset                    Reload demo stylists

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Stylists and the append-only transaction log
  - Directory / Collector: rent domain services
  - ScheduleFactory: JSON to schedule.Config conversion
  - Limiter: token bucket in front of collect-rent
  - Now: the clock; "today" for the schedule engine derives from it

ERROR HANDLING:
  Errors are returned as JSON {"success":false,"message":...,"error":...}:
  - 400: Validation errors, invalid input, declined payments
  - 404: Stylist or transaction not found
  - 409: Conflict (idempotency)
  - 429: Too many collection requests
  - 500: Internal errors

SECURITY NOTE:
  No authentication. Payments are simulated; nothing leaves the process.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/warp/boothrent/factory"
	"github.com/warp/boothrent/generic"
	"github.com/warp/boothrent/rent"
	"github.com/warp/boothrent/schedule"
)

const (
	SimulationMode = "SIMULATION - No real payments processed"

	msgStylistNotFound     = "Stylist not found"
	msgInvalidSchedule     = "Invalid schedule configuration"
	msgScheduleSaved       = "Automated collection schedule saved successfully"
	msgPaymentProcessed    = "Payment processed successfully"
	msgTooManyCollections  = "Too many collection requests, please retry shortly"
	msgEndpointNotFound    = "Endpoint not found"
	msgMethodNotAllowed    = "Method not allowed"
	msgInvalidRequestBody  = "Invalid request body"
	msgMissingScheduleBody = "Missing required fields: stylistId, schedule"
	msgInvalidPeriod       = "Invalid date range"

	// maxWindowDays bounds a preview from/to window.
	maxWindowDays = 366
	// maxWindowYears bounds how far past today a preview window may end.
	maxWindowYears = 5
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Options are the tunables the server reads from configuration.
type Options struct {
	PreviewCount int     // dates returned by preview when count is omitted
	MaxCount     int     // upper bound on a requested preview count
	RatePerSec   float64 // collect-rent refill rate; <= 0 disables limiting
	Burst        int
}

func DefaultOptions() Options {
	return Options{PreviewCount: 5, MaxCount: 100, RatePerSec: 5, Burst: 10}
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store           rent.Store
	Directory       *rent.Directory
	Collector       *rent.Collector
	ScheduleFactory *factory.ScheduleFactory
	Limiter         *rate.Limiter
	Logger          zerolog.Logger
	Now             func() time.Time

	PreviewCount int
	MaxCount     int
}

// NewHandler wires the rent services around one store and processor.
func NewHandler(store rent.Store, processor rent.Processor, logger zerolog.Logger, opts Options) *Handler {
	h := &Handler{
		Store:           store,
		ScheduleFactory: factory.NewScheduleFactory(),
		Logger:          logger.With().Str("component", "api").Logger(),
		Now:             time.Now,
		PreviewCount:    opts.PreviewCount,
		MaxCount:        opts.MaxCount,
	}
	if opts.RatePerSec > 0 {
		h.Limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), max(opts.Burst, 1))
	}

	clock := func() time.Time { return h.Now() }
	h.Directory = rent.NewDirectory(store, logger)
	h.Directory.Now = clock
	h.Collector = rent.NewCollector(store, processor, logger)
	h.Collector.Now = clock
	return h
}

func (h *Handler) today() generic.Date {
	return generic.DateOf(h.Now())
}

// =============================================================================
// HEALTH
// =============================================================================

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthDTO{
		Status:  "ok",
		Message: "Salon Booth Rent Automation API is running",
		Mode:    SimulationMode,
	})
}

// =============================================================================
// STYLIST HANDLERS
// =============================================================================

func (h *Handler) ListStylists(w http.ResponseWriter, r *http.Request) {
	stylists, err := h.Directory.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list stylists", err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: toStylistDTOs(stylists)})
}

func (h *Handler) GetStylist(w http.ResponseWriter, r *http.Request) {
	stylist, err := h.Directory.Get(r.Context(), generic.EntityID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, msgStylistNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: toStylistDTO(*stylist)})
}

func (h *Handler) CreateStylist(w http.ResponseWriter, r *http.Request) {
	var req CreateStylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody, err)
		return
	}

	stylist, err := h.Directory.Create(r.Context(), req.toDomain())
	if err != nil {
		h.writeDomainError(w, r, "Failed to create stylist", err)
		return
	}
	writeJSON(w, http.StatusCreated, DataResponse{Success: true, Data: toStylistDTO(stylist)})
}

func (h *Handler) UpdateStylist(w http.ResponseWriter, r *http.Request) {
	var req UpdateStylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody, err)
		return
	}

	stylist, err := h.Directory.Update(r.Context(), generic.EntityID(chi.URLParam(r, "id")), req.toDomain())
	if err != nil {
		h.writeDomainError(w, r, "Failed to update stylist", err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: toStylistDTO(stylist)})
}

// StylistTransactions returns one stylist's payment history, newest first.
func (h *Handler) StylistTransactions(w http.ResponseWriter, r *http.Request) {
	id := generic.EntityID(chi.URLParam(r, "id"))
	if _, err := h.Directory.Get(r.Context(), id); err != nil {
		h.writeDomainError(w, r, msgStylistNotFound, err)
		return
	}
	txs, err := h.Collector.Ledger.Transactions(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, "Failed to list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: toTransactionDTOs(txs)})
}

// StylistCollected sums a stylist's settled rent inside ?from=&to=. Either
// bound defaults to the edge of the current calendar month.
func (h *Handler) StylistCollected(w http.ResponseWriter, r *http.Request) {
	id := generic.EntityID(chi.URLParam(r, "id"))
	period, err := h.periodFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidPeriod, err)
		return
	}
	if _, err := h.Directory.Get(r.Context(), id); err != nil {
		h.writeDomainError(w, r, msgStylistNotFound, err)
		return
	}

	total, err := h.Collector.Ledger.Collected(r.Context(), id, period, generic.USD)
	if err != nil {
		h.writeDomainError(w, r, "Failed to sum collected rent", err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: CollectedDTO{
		StylistID: string(id),
		From:      period.Start.String(),
		To:        period.End.String(),
		Currency:  string(total.Currency),
		Total:     total.Float64(),
	}})
}

func (h *Handler) periodFromQuery(r *http.Request) (generic.Period, error) {
	today := h.today()
	period := generic.MonthPeriod(today.Year(), today.Month())

	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		d, err := generic.ParseDate(v)
		if err != nil {
			return generic.Period{}, err
		}
		period.Start = d
	}
	if v := q.Get("to"); v != "" {
		d, err := generic.ParseDate(v)
		if err != nil {
			return generic.Period{}, err
		}
		period.End = d
	}
	return period, period.Validate()
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Store.ListTransactions(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: toTransactionDTOs(txs)})
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Store.GetTransaction(r.Context(), generic.TransactionID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, "Transaction not found", err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: toTransactionDTO(*tx)})
}

// CollectRent charges a stylist's weekly rent through the simulated processor.
// A decline is a 400 that still carries the recorded reference.
func (h *Handler) CollectRent(w http.ResponseWriter, r *http.Request) {
	var req CollectRentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody, err)
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		key = req.IdempotencyKey
	}

	result, err := h.Collector.Collect(r.Context(), rent.CollectRequest{
		StylistID:      generic.EntityID(req.StylistID),
		Method:         generic.PaymentMethod(req.PaymentMethod),
		IdempotencyKey: key,
	})

	var declined *generic.PaymentFailedError
	switch {
	case errors.As(err, &declined):
		writeJSON(w, http.StatusBadRequest, CollectRentResponse{
			Success:       false,
			TransactionID: declined.Transaction.Reference,
			Message:       declined.Reason,
			Status:        string(declined.Transaction.Status),
			Replayed:      result.Replayed,
		})
	case err != nil:
		h.writeDomainError(w, r, "Payment processing failed", err)
	default:
		writeJSON(w, http.StatusOK, CollectRentResponse{
			Success:       true,
			TransactionID: result.Transaction.Reference,
			Message:       msgPaymentProcessed,
			Status:        string(result.Transaction.Status),
			Replayed:      result.Replayed,
		})
	}
}

// Webhook acknowledges processor callbacks. Payloads are logged, never acted on.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody, err)
		return
	}
	event, _ := payload["type"].(string)
	h.Logger.Info().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("event", event).
		Int("fields", len(payload)).
		Msg("webhook received")
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// parseSchedule returns the config and every problem with it. Structural
// problems caught by the factory come back as problems too; only a body
// that is not a schedule object at all is an error.
func (h *Handler) parseSchedule(raw json.RawMessage) (schedule.Config, []string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return schedule.Config{}, nil, fmt.Errorf("%w: schedule is required", generic.ErrInvalidInput)
	}
	cfg, err := h.ScheduleFactory.ParseSchedule(raw)
	if err != nil {
		var verr *generic.ValidationError
		if errors.As(err, &verr) {
			return schedule.Config{}, verr.Problems, nil
		}
		return schedule.Config{}, nil, err
	}
	return cfg, schedule.Validate(cfg, h.today()), nil
}

func (h *Handler) ValidateSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody, err)
		return
	}
	_, problems, err := h.parseSchedule(req.Schedule)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody, err)
		return
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Valid: len(problems) == 0, Errors: nonNil(problems)})
}

// PreviewSchedule renders the summary and the next dates of a valid schedule.
// With from/to it returns every date inside that window instead, capped at
// MaxCount.
func (h *Handler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody, err)
		return
	}
	count, err := h.previewCount(req.Count)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody, err)
		return
	}
	window, hasWindow, err := h.previewWindow(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidPeriod, err)
		return
	}
	cfg, problems, err := h.parseSchedule(req.Schedule)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody, err)
		return
	}

	resp := PreviewResponse{Valid: len(problems) == 0, Errors: nonNil(problems), NextDates: []DateDTO{}}
	if cfg.Rule != nil {
		resp.Summary = schedule.Summarize(cfg)
	}
	if !resp.Valid {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	today := h.today()
	var dates []generic.Date
	if hasWindow {
		dates, err = schedule.ProjectWithin(cfg, window, today)
		if h.MaxCount > 0 && len(dates) > h.MaxCount {
			dates = dates[:h.MaxCount]
		}
	} else {
		dates, err = schedule.Project(cfg, count, today)
	}
	if err != nil {
		h.writeDomainError(w, r, msgInvalidSchedule, err)
		return
	}
	resp.NextDates = toDateDTOs(dates)
	if rr, err := schedule.RRuleString(cfg, today); err == nil {
		resp.RRule = rr
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) previewCount(requested *int) (int, error) {
	if requested == nil {
		return h.PreviewCount, nil
	}
	if *requested < 1 {
		return 0, fmt.Errorf("%w: count must be at least 1", generic.ErrInvalidInput)
	}
	if h.MaxCount > 0 && *requested > h.MaxCount {
		return h.MaxCount, nil
	}
	return *requested, nil
}

// previewWindow reads the optional from/to pair. Both must be present, the
// window may not exceed maxWindowDays and must end within maxWindowYears.
func (h *Handler) previewWindow(req ScheduleRequest) (generic.Period, bool, error) {
	if req.From.IsZero() && req.To.IsZero() {
		return generic.Period{}, false, nil
	}
	window := generic.Period{Start: req.From, End: req.To}
	if err := window.Validate(); err != nil {
		return generic.Period{}, false, err
	}
	if window.Len() > maxWindowDays {
		return generic.Period{}, false, fmt.Errorf("%w: window longer than %d days", generic.ErrInvalidPeriod, maxWindowDays)
	}
	if window.End.After(h.today().AddMonths(12 * maxWindowYears)) {
		return generic.Period{}, false, fmt.Errorf("%w: window ends more than %d years out", generic.ErrInvalidPeriod, maxWindowYears)
	}
	return window, true, nil
}

// OverlapSchedules reports whether two schedules collect on the same day
// within their next schedule.OverlapHorizon dates.
func (h *Handler) OverlapSchedules(w http.ResponseWriter, r *http.Request) {
	var req OverlapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody, err)
		return
	}
	a, err := h.ScheduleFactory.ParseSchedule(req.A)
	if err != nil {
		h.writeDomainError(w, r, msgInvalidSchedule, err)
		return
	}
	b, err := h.ScheduleFactory.ParseSchedule(req.B)
	if err != nil {
		h.writeDomainError(w, r, msgInvalidSchedule, err)
		return
	}

	today := h.today()
	resp := OverlapResponse{Overlap: schedule.Overlap(a, b, today), SharedDates: []DateDTO{}}
	if resp.Overlap {
		shared, _ := schedule.SharedDates(a, b, schedule.OverlapHorizon, today)
		resp.SharedDates = toDateDTOs(shared)
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveAutomatedCollection acknowledges a stylist's schedule. Nothing is
// stored and no charge is ever triggered from it.
func (h *Handler) SaveAutomatedCollection(w http.ResponseWriter, r *http.Request) {
	var req AutomatedCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody, err)
		return
	}
	if req.StylistID == "" || len(req.Schedule) == 0 {
		writeError(w, http.StatusBadRequest, msgMissingScheduleBody, generic.ErrInvalidInput)
		return
	}

	ctx := r.Context()
	if _, err := h.Directory.Get(ctx, generic.EntityID(req.StylistID)); err != nil {
		h.writeDomainError(w, r, msgStylistNotFound, err)
		return
	}

	cfg, problems, err := h.parseSchedule(req.Schedule)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody, err)
		return
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: msgInvalidSchedule, Errors: problems})
		return
	}

	dates, err := schedule.Project(cfg, h.PreviewCount, h.today())
	if err != nil {
		h.writeDomainError(w, r, msgInvalidSchedule, err)
		return
	}
	sj := h.ScheduleFactory.ToJSON(cfg)
	summary := schedule.Summarize(cfg)

	h.Logger.Info().
		Str("stylist_id", req.StylistID).
		Str("frequency", sj.Frequency).
		Bool("enabled", cfg.Enabled).
		Str("summary", summary).
		Msg("automated collection schedule acknowledged")

	writeJSON(w, http.StatusOK, AutomatedCollectionResponse{
		Success:   true,
		Message:   msgScheduleSaved,
		StylistID: req.StylistID,
		Schedule:  &sj,
		Summary:   summary,
		NextDates: toDateDTOs(dates),
	})
}

func (h *Handler) GetAutomatedCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "stylistId")
	if _, err := h.Directory.Get(r.Context(), generic.EntityID(id)); err != nil {
		h.writeDomainError(w, r, msgStylistNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, AutomatedCollectionResponse{Success: true, StylistID: id})
}

// =============================================================================
// DEMO DATA HANDLERS
// =============================================================================

func (h *Handler) GetSeedInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.seedInfo(r)
	if err != nil {
		h.writeDomainError(w, r, "Failed to read demo data", err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: info})
}

// ResetSeed replaces every stylist and transaction with the demo data.
func (h *Handler) ResetSeed(w http.ResponseWriter, r *http.Request) {
	if err := rent.Seed(r.Context(), h.Store, h.Now()); err != nil {
		h.writeDomainError(w, r, "Failed to reset demo data", err)
		return
	}
	info, err := h.seedInfo(r)
	if err != nil {
		h.writeDomainError(w, r, "Failed to read demo data", err)
		return
	}
	h.Logger.Warn().Int("stylists", info.Stylists).Msg("demo data reset")
	writeJSON(w, http.StatusOK, DataResponse{Success: true, Data: info})
}

func (h *Handler) seedInfo(r *http.Request) (SeedInfoDTO, error) {
	stylists, err := h.Store.ListStylists(r.Context())
	if err != nil {
		return SeedInfoDTO{}, err
	}
	txs, err := h.Store.ListTransactions(r.Context())
	if err != nil {
		return SeedInfoDTO{}, err
	}
	return SeedInfoDTO{Stylists: len(stylists), Transactions: len(txs), Mode: SimulationMode}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP statuses. Server-side
// failures are logged; client errors are not.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var verr *generic.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: message, Error: err.Error(), Errors: verr.Problems})
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, generic.ErrDuplicateIdempotencyKey):
		writeError(w, http.StatusConflict, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func nonNil(problems []string) []string {
	if problems == nil {
		return []string{}
	}
	return problems
}
