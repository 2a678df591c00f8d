package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/agency-cms-api/internal/config"
	"github.com/agency-cms-api/internal/mailer"
	"github.com/agency-cms-api/internal/metrics"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/rs/zerolog"
)

// subjects are the default subject lines per email type
var subjects = map[string]string{
	models.EmailWelcome:           "Bienvenue !",
	models.EmailPasswordReset:     "Réinitialisation de votre mot de passe",
	models.EmailContactReceived:   "Nouveau message de contact",
	models.EmailContactReply:      "Réponse à votre message",
	models.EmailNewsletterWelcome: "Bienvenue dans notre newsletter",
	models.EmailPaymentSuccess:    "Paiement confirmé",
	models.EmailPaymentFailed:     "Échec du paiement",
}

const (
	sendTimeout        = 30 * time.Second
	statusWriteTimeout = 10 * time.Second
)

// newEmail builds a queued email of the given type
func newEmail(emailType, to, toName string, data map[string]any) *models.Email {
	payload, err := json.Marshal(data)
	if err != nil || data == nil {
		payload = []byte("{}")
	}
	return &models.Email{
		RecipientEmail: to,
		RecipientName:  toName,
		Type:           emailType,
		Subject:        subjects[emailType],
		Payload:        payload,
		Status:         models.EmailPending,
	}
}

// mailService queues emails and delivers them from a background dispatcher
type mailService struct {
	repo      repository.EmailRepository
	sender    mailer.Sender
	templates *mailer.Templates
	cfg       config.MailConfig
	log       zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	done      chan struct{}
	running   bool
	mu        sync.Mutex
	// Semaphore bounding concurrent SMTP sessions
	sem chan struct{}
}

func newMailService(repo repository.EmailRepository, sender mailer.Sender, templates *mailer.Templates, cfg config.MailConfig, log zerolog.Logger) *mailService {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.SendingTimeout <= 0 {
		cfg.SendingTimeout = 10 * time.Minute
	}

	return &mailService{
		repo:      repo,
		sender:    sender,
		templates: templates,
		cfg:       cfg,
		log:       log.With().Str("service", "mail").Logger(),
		sem:       make(chan struct{}, workers),
	}
}

func (s *mailService) Enqueue(ctx context.Context, email *models.Email) {
	if email.Status == "" {
		email.Status = models.EmailPending
	}
	if len(email.Payload) == 0 {
		email.Payload = []byte("{}")
	}
	if err := s.repo.Create(ctx, email); err != nil {
		s.log.Error().Err(err).
			Str("email_type", email.Type).
			Str("to", email.RecipientEmail).
			Msg("Failed to enqueue email")
		return
	}
	metrics.RecordEmail(email.Type, string(models.EmailPending))
}

// StartDispatcher polls the queue until ctx is cancelled or StopDispatcher is called
func (s *mailService) StartDispatcher(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()
	defer close(s.done)

	s.log.Info().
		Int("workers", cap(s.sem)).
		Dur("interval", s.cfg.PollInterval).
		Msg("Mail dispatcher started")

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("Mail dispatcher stopping")
			return
		case <-ticker.C:
			s.dispatchPending()
		}
	}
}

// StopDispatcher cancels polling and waits for in-flight deliveries.
// Emails already handed to the sender finish and record their outcome.
func (s *mailService) StopDispatcher() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	<-s.done
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Mail dispatcher stopped")
}

// detached returns a context that outlives dispatcher shutdown
func (s *mailService) detached(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(s.ctx), timeout)
}

func (s *mailService) dispatchPending() {
	// rows left in sending by a crashed dispatcher are claimed again
	staleBefore := time.Now().Add(-s.cfg.SendingTimeout)
	emails, err := s.repo.GetPending(s.ctx, s.cfg.BatchSize, staleBefore)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to get pending emails")
		return
	}

	for _, email := range emails {
		select {
		case s.sem <- struct{}{}:
		case <-s.ctx.Done():
			return
		}

		if s.ctx.Err() != nil {
			<-s.sem
			return
		}
		claimed, err := s.repo.MarkSending(s.ctx, email.ID, staleBefore)
		if err != nil || !claimed {
			<-s.sem
			continue
		}

		s.wg.Add(1)
		go func(e *models.Email) {
			defer s.wg.Done()
			defer func() { <-s.sem }()

			defer func() {
				if r := recover(); r != nil {
					s.log.Error().
						Interface("panic", r).
						Str("email_id", e.ID).
						Msg("Email delivery panicked - recovered")
					ctx, cancel := s.detached(statusWriteTimeout)
					defer cancel()
					_ = s.repo.MarkFailed(ctx, e.ID, fmt.Sprint(r), false)
				}
			}()
			s.deliver(e)
		}(email)
	}
}

// deliver renders and sends one claimed email, then records the outcome
func (s *mailService) deliver(e *models.Email) {
	log := s.log.With().Str("email_id", e.ID).Str("email_type", e.Type).Logger()

	var data map[string]any
	if err := json.Unmarshal(e.Payload, &data); err != nil {
		s.fail(e, fmt.Errorf("decode payload: %w", err), false)
		return
	}
	if data == nil {
		data = map[string]any{}
	}

	html, err := s.templates.Render(e.Type, data)
	if err != nil {
		s.fail(e, err, false)
		return
	}

	ctx, cancel := s.detached(sendTimeout)
	defer cancel()

	err = s.sender.Send(ctx, mailer.Message{
		To:      e.RecipientEmail,
		ToName:  e.RecipientName,
		Subject: e.Subject,
		HTML:    html,
	})
	if err != nil {
		// MarkSending already counted this attempt
		s.fail(e, err, e.Attempts+1 < s.cfg.MaxAttempts)
		return
	}

	wctx, wcancel := s.detached(statusWriteTimeout)
	defer wcancel()
	if err := s.repo.MarkSent(wctx, e.ID); err != nil {
		log.Error().Err(err).Msg("Failed to mark email sent")
	}
	metrics.RecordEmail(e.Type, string(models.EmailSent))
	log.Info().Str("to", e.RecipientEmail).Msg("Email sent")
}

func (s *mailService) fail(e *models.Email, cause error, retry bool) {
	status := models.EmailFailed
	if retry {
		status = models.EmailPending
	}
	s.log.Warn().Err(cause).
		Str("email_id", e.ID).
		Str("email_type", e.Type).
		Bool("retry", retry).
		Msg("Email delivery failed")

	ctx, cancel := s.detached(statusWriteTimeout)
	defer cancel()
	if err := s.repo.MarkFailed(ctx, e.ID, cause.Error(), retry); err != nil {
		s.log.Error().Err(err).Str("email_id", e.ID).Msg("Failed to record email failure")
	}
	metrics.RecordEmail(e.Type, string(status))
}
