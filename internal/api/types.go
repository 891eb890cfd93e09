package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/glowdesk/salon-scheduling/internal/booking"
	"github.com/glowdesk/salon-scheduling/internal/schedule"
)

type BookAppointmentRequest struct {
	CustomerID string   `json:"customer_id"`
	StylistID  string   `json:"stylist_id"`
	ServiceIDs []string `json:"service_ids"`
	StartTime  string   `json:"start_time"` // RFC 3339
	Hold       bool     `json:"hold"`
	Notes      *string  `json:"notes,omitempty"`
}

type AppointmentResponse struct {
	ID            uuid.UUID  `json:"id"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	StylistID     uuid.UUID  `json:"stylist_id"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	TotalCents    int64      `json:"total_cents"`
	Notes         *string    `json:"notes,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type AppointmentLineResponse struct {
	ServiceID    uuid.UUID `json:"service_id"`
	ServiceName  string    `json:"service_name"`
	Category     string    `json:"category"`
	DurationMin  int       `json:"duration_min"`
	BufferBefore int       `json:"buffer_before"`
	BufferAfter  int       `json:"buffer_after"`
	PriceCents   int64     `json:"price_cents"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	Lines        []AppointmentLineResponse `json:"lines"`
	CustomerName string                    `json:"customer_name,omitempty"`
	StylistName  string                    `json:"stylist_name,omitempty"`
}

type StylistResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Level              string    `json:"level"`
	Skills             []string  `json:"skills"`
	AllowDoubleBooking bool      `json:"allow_double_booking"`
}

type ServiceResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	DurationMin    int       `json:"duration_min"`
	BufferBefore   int       `json:"buffer_before"`
	BufferAfter    int       `json:"buffer_after"`
	PriceCents     int64     `json:"price_cents"`
	RequiredSkills []string  `json:"required_skills"`
}

type AvailabilityResponse struct {
	StylistID uuid.UUID                 `json:"stylist_id"`
	View      string                    `json:"view"`
	Days      []schedule.DaySuggestions `json:"days"`
}

type CreateBusyBlockRequest struct {
	Start  string `json:"start"` // RFC 3339
	End    string `json:"end"`   // RFC 3339
	Reason string `json:"reason"`
}

type BusyBlockResponse struct {
	ID                  uuid.UUID  `json:"id"`
	StylistID           uuid.UUID  `json:"stylist_id"`
	Start               time.Time  `json:"start"`
	End                 time.Time  `json:"end"`
	Reason              string     `json:"reason"`
	SourceAppointmentID *uuid.UUID `json:"source_appointment_id,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		CustomerID:    a.CustomerID,
		StylistID:     a.StylistID,
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		Status:        string(a.Status),
		PaymentStatus: string(a.PaymentStatus),
		TotalCents:    a.TotalCents,
		Notes:         a.Notes,
		ExpiresAt:     a.ExpiresAt,
	}
}

func toDetailResponse(d *booking.AppointmentDetail) AppointmentDetailResponse {
	resp := AppointmentDetailResponse{
		AppointmentResponse: toAppointmentResponse(&d.Appointment),
		Lines:               make([]AppointmentLineResponse, 0, len(d.Lines)),
	}
	for _, ln := range d.Lines {
		resp.Lines = append(resp.Lines, AppointmentLineResponse{
			ServiceID:    ln.ServiceID,
			ServiceName:  ln.ServiceName,
			Category:     ln.Category,
			DurationMin:  ln.DurationMin,
			BufferBefore: ln.BufferBefore,
			BufferAfter:  ln.BufferAfter,
			PriceCents:   ln.PriceCents,
		})
	}
	if d.Customer != nil {
		resp.CustomerName = d.Customer.Name
	}
	if d.Stylist != nil {
		resp.StylistName = d.Stylist.Name
	}
	return resp
}

func toBusyBlockResponse(b *schedule.BusyBlock) BusyBlockResponse {
	return BusyBlockResponse{
		ID:                  b.ID,
		StylistID:           b.StylistID,
		Start:               b.Start,
		End:                 b.End,
		Reason:              string(b.Reason),
		SourceAppointmentID: b.SourceAppointmentID,
	}
}
