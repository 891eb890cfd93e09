package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glowdesk/salon-scheduling/internal/booking"
	redisclient "github.com/glowdesk/salon-scheduling/internal/redis"
	"github.com/glowdesk/salon-scheduling/internal/schedule"
)

func bookAppointmentHandler(svc *booking.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_customer_id", "customer_id must be a valid UUID")
			return
		}

		stylistID, err := uuid.Parse(req.StylistID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_stylist_id", "stylist_id must be a valid UUID")
			return
		}

		serviceIDs, err := parseUUIDs(req.ServiceIDs)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_ids", "service_ids must be valid UUIDs")
			return
		}

		startTime, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be RFC 3339")
			return
		}

		appt, err := svc.Book(r.Context(), booking.CreateParams{
			CustomerID: customerID,
			StylistID:  stylistID,
			ServiceIDs: serviceIDs,
			StartTime:  startTime,
			Hold:       req.Hold,
			Notes:      req.Notes,
		})
		if err != nil {
			handleBookError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

type transitionFunc func(ctx context.Context, id uuid.UUID) (*booking.Appointment, error)

func transitionHandler(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "id")
		id, err := uuid.Parse(idStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := fn(r.Context(), id)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *booking.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "id")
		id, err := uuid.Parse(idStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		detail, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			if errors.Is(err, booking.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toDetailResponse(detail))
	}
}

func listAppointmentsHandler(svc *booking.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		var (
			details []booking.AppointmentDetail
			err     error
		)

		switch {
		case r.URL.Query().Get("customer_id") != "":
			id, parseErr := uuid.Parse(r.URL.Query().Get("customer_id"))
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_customer_id", "customer_id must be a valid UUID")
				return
			}
			details, err = svc.ListAppointmentsByCustomer(r.Context(), id, limit, offset)
		case r.URL.Query().Get("stylist_id") != "":
			id, parseErr := uuid.Parse(r.URL.Query().Get("stylist_id"))
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_stylist_id", "stylist_id must be a valid UUID")
				return
			}
			details, err = svc.ListAppointmentsByStylist(r.Context(), id, limit, offset)
		default:
			writeError(w, http.StatusBadRequest, "missing_filter", "customer_id or stylist_id query parameter is required")
			return
		}

		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]AppointmentDetailResponse, 0, len(details))
		for i := range details {
			resp = append(resp, toDetailResponse(&details[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listStylistsHandler(svc *booking.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stylists, err := svc.ListStylists(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]StylistResponse, 0, len(stylists))
		for _, s := range stylists {
			resp = append(resp, StylistResponse{
				ID:                 s.ID,
				Name:               s.Name,
				Level:              string(s.Level),
				Skills:             s.Skills,
				AllowDoubleBooking: s.AllowDoubleBooking,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listServicesHandler(svc *booking.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := svc.ListServices(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]ServiceResponse, 0, len(services))
		for _, s := range services {
			resp = append(resp, ServiceResponse{
				ID:             s.ID,
				Name:           s.Name,
				Category:       s.Category,
				DurationMin:    s.DurationMin,
				BufferBefore:   s.BufferBefore,
				BufferAfter:    s.BufferAfter,
				PriceCents:     s.PriceCents,
				RequiredSkills: s.RequiredSkills,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func availabilityHandler(assistant *schedule.Assistant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stylistID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_stylist_id", "id must be a valid UUID")
			return
		}

		q := r.URL.Query()

		date, err := time.Parse("2006-01-02", q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		view := schedule.ViewMode(q.Get("view"))
		if view == "" {
			view = schedule.ViewDay
		}

		var serviceIDs []uuid.UUID
		if raw := q.Get("services"); raw != "" {
			serviceIDs, err = parseUUIDs(strings.Split(raw, ","))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_service_ids", "services must be a comma-separated list of UUIDs")
				return
			}
		}

		days, err := assistant.Suggest(r.Context(), stylistID, serviceIDs, date, view)
		if err != nil {
			handleAvailabilityError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			StylistID: stylistID,
			View:      string(view),
			Days:      days,
		})
	}
}

func createBusyBlockHandler(assistant *schedule.Assistant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stylistID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_stylist_id", "id must be a valid UUID")
			return
		}

		var req CreateBusyBlockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be RFC 3339")
			return
		}
		end, err := time.Parse(time.RFC3339, req.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", "end must be RFC 3339")
			return
		}

		reason := schedule.BlockReason(req.Reason)
		switch reason {
		case schedule.ReasonPrayerTime, schedule.ReasonBreak, schedule.ReasonTimeOff:
		default:
			writeError(w, http.StatusBadRequest, "invalid_reason", "reason must be prayer_time, break or time_off")
			return
		}

		block, err := assistant.AddBusyBlock(r.Context(), &schedule.BusyBlock{
			StylistID: stylistID,
			Start:     start,
			End:       end,
			Reason:    reason,
		})
		if err != nil {
			if errors.Is(err, schedule.ErrInvalidBlock) {
				writeError(w, http.StatusBadRequest, "invalid_block", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toBusyBlockResponse(block))
	}
}

func listBusyBlocksHandler(assistant *schedule.Assistant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stylistID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_stylist_id", "id must be a valid UUID")
			return
		}

		q := r.URL.Query()
		from, err := time.Parse(time.RFC3339, q.Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be RFC 3339")
			return
		}
		to, err := time.Parse(time.RFC3339, q.Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be RFC 3339")
			return
		}

		blocks, err := assistant.ListBusyBlocks(r.Context(), stylistID, from, to)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]BusyBlockResponse, 0, len(blocks))
		for i := range blocks {
			resp = append(resp, toBusyBlockResponse(&blocks[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, "customer_not_found", err.Error())
	case errors.Is(err, booking.ErrStylistNotFound):
		writeError(w, http.StatusNotFound, "stylist_not_found", err.Error())
	case errors.Is(err, booking.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, booking.ErrNoServicesSelected):
		writeError(w, http.StatusUnprocessableEntity, "no_services_selected", err.Error())
	case errors.Is(err, booking.ErrStartTimeInPast):
		writeError(w, http.StatusUnprocessableEntity, "start_time_in_past", err.Error())
	case errors.Is(err, booking.ErrTimeSlotTaken):
		writeError(w, http.StatusConflict, "time_slot_taken", err.Error())
	case errors.Is(err, booking.ErrStylistBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "stylist_being_booked", "stylist is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrAppointmentExpiredState):
		writeError(w, http.StatusConflict, "appointment_expired", err.Error())
	case errors.Is(err, booking.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleAvailabilityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrNoServicesSelected):
		writeError(w, http.StatusUnprocessableEntity, "no_services_selected", err.Error())
	case errors.Is(err, schedule.ErrInvalidViewMode):
		writeError(w, http.StatusBadRequest, "invalid_view", err.Error())
	case errors.Is(err, schedule.ErrUnknownService):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
