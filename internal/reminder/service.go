package reminder

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	statusSent    = "sent"
	statusFailed  = "failed"
	statusSkipped = "skipped"
)

// Service runs reminder passes: it finds appointments starting within the lead
// window and sends each customer one message.
type Service struct {
	repo   Repository
	sender Sender
	lead   time.Duration
	now    func() time.Time
}

func NewService(repo Repository, sender Sender, lead time.Duration) *Service {
	return &Service{
		repo:   repo,
		sender: sender,
		lead:   lead,
		now:    time.Now,
	}
}

// Run performs one reminder pass. Send failures are recorded per appointment
// and do not abort the pass.
func (s *Service) Run(ctx context.Context) error {
	now := s.now()
	due, err := s.repo.FindDueReminders(ctx, now, now.Add(s.lead))
	if err != nil {
		return fmt.Errorf("find due reminders: %w", err)
	}

	log.Printf("reminder pass: %d appointments due", len(due))

	for _, u := range due {
		if u.CustomerPhone == nil || *u.CustomerPhone == "" {
			s.mark(ctx, u, statusSkipped, "customer has no phone number")
			continue
		}

		body := fmt.Sprintf(
			"Hi %s, a reminder of your appointment with %s on %s.",
			u.CustomerName,
			u.StylistName,
			u.StartTime.Format("Mon Jan 2 at 15:04"),
		)

		if err := s.sender.Send(ctx, *u.CustomerPhone, body); err != nil {
			log.Printf("reminder send failed for appointment %s: %v", u.AppointmentID, err)
			s.mark(ctx, u, statusFailed, err.Error())
			continue
		}

		s.mark(ctx, u, statusSent, "")
	}

	return nil
}

func (s *Service) mark(ctx context.Context, u Upcoming, status, detail string) {
	if err := s.repo.MarkReminded(ctx, u.AppointmentID, status, detail); err != nil {
		log.Printf("failed to record reminder log for appointment %s: %v", u.AppointmentID, err)
	}
}
