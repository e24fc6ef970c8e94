package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/clsasailing/weekly-blast/internal/config"
	"github.com/clsasailing/weekly-blast/internal/digest"
	"github.com/clsasailing/weekly-blast/internal/domain"
)

// EventRepository supplies the digest entries for one week window.
type EventRepository interface {
	GetWeekEvents(ctx context.Context, window domain.WeekWindow) ([]domain.Event, error)
}

// ContactRepository supplies the blast recipient list.
type ContactRepository interface {
	GetRecipients(ctx context.Context) ([]domain.Recipient, error)
}

// Mailer delivers a composed email and returns the platform's send id.
type Mailer interface {
	SendEmail(ctx context.Context, email domain.Email) (int64, error)
}

// BlastOptions carries the content and dispatch settings the use case needs.
type BlastOptions struct {
	Environment    string
	Subject        string
	ReplyToName    string
	ReplyToAddress string
	Location       *time.Location
}

// SendWeeklyBlastUseCase composes and dispatches one weekly email blast.
type SendWeeklyBlastUseCase struct {
	eventRepo   EventRepository
	contactRepo ContactRepository
	mailer      Mailer
	opts        BlastOptions
}

// NewSendWeeklyBlastUseCase wires the use case.
func NewSendWeeklyBlastUseCase(eventRepo EventRepository, contactRepo ContactRepository, mailer Mailer, opts BlastOptions) *SendWeeklyBlastUseCase {
	return &SendWeeklyBlastUseCase{
		eventRepo:   eventRepo,
		contactRepo: contactRepo,
		mailer:      mailer,
		opts:        opts,
	}
}

// Execute runs the pipeline for the given window: resolve events, resolve
// recipients, render the digest, and send it (PROD) or log a dry run (DEV).
// A week with no events sends nothing at all and reports skipped.
func (uc *SendWeeklyBlastUseCase) Execute(ctx context.Context, window domain.WeekWindow) (skipped bool, err error) {
	events, err := uc.eventRepo.GetWeekEvents(ctx, window)
	if err != nil {
		log.Printf("failed to resolve this week's events: %v", err)
		return false, err
	}

	if len(events) == 0 {
		log.Printf("no events between %s and %s, skipping the blast",
			window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))
		return true, nil
	}

	recipients, err := uc.contactRepo.GetRecipients(ctx)
	if err != nil {
		log.Printf("failed to resolve recipients: %v", err)
		return false, err
	}

	email := domain.Email{
		Subject:        uc.opts.Subject,
		Body:           digest.BuildEmailBody(events, uc.opts.Location),
		ReplyToAddress: uc.opts.ReplyToAddress,
		ReplyToName:    uc.opts.ReplyToName,
		Recipients:     recipients,
	}

	switch uc.opts.Environment {
	case config.EnvProd:
		sendID, err := uc.mailer.SendEmail(ctx, email)
		if err != nil {
			log.Printf("failed to send the weekly blast: %v", err)
			return false, err
		}
		log.Printf("weekly blast sent to %d recipients; processing details: "+
			"https://www.clsasailing.org/admin/emails/log/details/?emailId=%d&persistHeader=1",
			len(recipients), sendID)
	case config.EnvDev:
		log.Printf("DEV environment, not sending; digest would go to %d recipients", len(recipients))
	default:
		return false, fmt.Errorf("%w: unknown environment value %q", domain.ErrConfiguration, uc.opts.Environment)
	}

	return false, nil
}
