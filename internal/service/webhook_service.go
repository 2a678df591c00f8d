package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agency-cms-api/internal/metrics"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/payment"
	"github.com/agency-cms-api/internal/repository"
	"github.com/rs/zerolog"
)

// followUp is an email queued once the event transaction has committed
type followUp struct {
	emailType string
	userID    string
	projectID string
	data      map[string]any
}

// effects collects what a handler wants done after commit
type effects struct {
	mails []followUp
}

type webhookHandler func(ctx context.Context, tx repository.PaymentTx, evt *payment.Event, fx *effects) error

// logOnly event types are acknowledged without any write beyond the event record
var logOnly = []string{"customer.", "invoice.created"}

// webhookService is the concrete implementation of WebhookService
type webhookService struct {
	events    repository.WebhookRepository
	users     repository.UserRepository
	payments  repository.PaymentRepository
	processor payment.Processor
	mail      MailService
	handlers  map[string]webhookHandler
	log       zerolog.Logger
}

func newWebhookService(repos *repository.Repositories, processor payment.Processor, mail MailService, log zerolog.Logger) *webhookService {
	s := &webhookService{
		events:    repos.Webhook,
		users:     repos.User,
		payments:  repos.Payment,
		processor: processor,
		mail:      mail,
		log:       log.With().Str("service", "webhook").Logger(),
	}
	s.handlers = map[string]webhookHandler{
		"payment_intent.succeeded":       s.intentSucceeded,
		"payment_intent.payment_failed":  s.intentFailed,
		"payment_intent.canceled":        s.intentStatus(models.PaymentCanceled),
		"payment_intent.requires_action": s.intentStatus(models.PaymentRequiresAction),
		"checkout.session.completed":     s.checkoutCompleted,
		"checkout.session.expired":       s.checkoutExpired,
		"invoice.paid":                   s.invoicePaid,
		"invoice.payment_failed":         s.invoiceFailed,
		"charge.refunded":                s.chargeRefunded,
	}
	return s
}

// Handle verifies the signature, then applies the event exactly once
func (s *webhookService) Handle(ctx context.Context, payload []byte, signature string) (*payment.Event, WebhookOutcome, error) {
	evt, err := s.processor.VerifyWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrDisabled) {
			return nil, "", err
		}
		metrics.RecordWebhook("unknown", metrics.OutcomeRejected)
		if errors.Is(err, payment.ErrMissingSignature) {
			return nil, "", newError(ErrBadRequest, "missing signature")
		}
		s.log.Warn().Err(err).Msg("Rejected webhook with invalid signature")
		return nil, "", newError(ErrBadRequest, "invalid signature")
	}

	logger := s.log.With().Str("event_id", evt.ID).Str("event_type", evt.Type).Logger()
	record := &models.StripeEvent{EventID: evt.ID, EventType: evt.Type, Data: evt.Object}
	handler, known := s.handlers[evt.Type]

	fx := &effects{}
	applied, err := s.events.Apply(ctx, record, func(tx repository.PaymentTx) error {
		if !known {
			return nil
		}
		return handler(ctx, tx, evt, fx)
	})
	if err != nil {
		logger.Error().Err(err).Msg("Webhook handler failed")
		if rerr := s.events.RecordFailure(ctx, record, err); rerr != nil {
			logger.Error().Err(rerr).Msg("Failed to record webhook failure")
		}
		metrics.RecordWebhook(evt.Type, metrics.OutcomeFailed)
		return evt, "", err
	}

	if !applied {
		logger.Info().Msg("Duplicate webhook event acknowledged")
		metrics.RecordWebhook(evt.Type, metrics.OutcomeDuplicate)
		return evt, WebhookDuplicate, nil
	}

	if !known {
		if isLogOnly(evt.Type) {
			logger.Debug().Msg("Webhook event acknowledged")
		} else {
			logger.Warn().Msg("Unhandled webhook event type")
		}
		metrics.RecordWebhook(evt.Type, metrics.OutcomeIgnored)
		return evt, WebhookIgnored, nil
	}

	s.flush(ctx, fx)
	logger.Info().Msg("Webhook event applied")
	metrics.RecordWebhook(evt.Type, metrics.OutcomeApplied)
	return evt, WebhookApplied, nil
}

func isLogOnly(eventType string) bool {
	for _, prefix := range logOnly {
		if strings.HasPrefix(eventType, prefix) {
			return true
		}
	}
	return false
}

// flush enqueues the follow-up emails of a committed event
func (s *webhookService) flush(ctx context.Context, fx *effects) {
	for _, f := range fx.mails {
		user, err := s.users.GetByID(ctx, f.userID)
		if err != nil || user == nil {
			s.log.Warn().Err(err).Str("user_id", f.userID).Msg("Skipping payment email, user not found")
			continue
		}
		f.data["firstname"] = user.Firstname
		if f.projectID != "" {
			if project, err := s.payments.GetProject(ctx, f.projectID); err == nil && project != nil {
				f.data["project_title"] = project.Title
			}
		}
		s.mail.Enqueue(ctx, newEmail(f.emailType, user.Email, user.FullName(), f.data))
	}
}

func formatAmount(minor int64) string {
	return fmt.Sprintf("%.2f", float64(minor)/100)
}

func occurredAt(evt *payment.Event) time.Time {
	if evt.Created.IsZero() {
		return time.Now().UTC()
	}
	return evt.Created
}

func paymentTypeOr(meta map[string]string, fallback string) string {
	if t := meta[payment.MetaPaymentType]; t != "" {
		return t
	}
	return fallback
}

// settle runs the success side effects for a paid row: project flag, notification and email
func (s *webhookService) settle(ctx context.Context, tx repository.PaymentTx, row *models.PaymentLog, invoiceURL string, fx *effects) error {
	if row.ProjectID != "" {
		if err := tx.MarkProjectPaid(ctx, row.ProjectID, row.PaymentType); err != nil {
			return fmt.Errorf("mark project paid: %w", err)
		}
	}
	if row.UserID == "" {
		return nil
	}

	created, err := tx.AddNotification(ctx, &models.Notification{
		UserID:      row.UserID,
		Title:       "Paiement confirmé",
		Message:     fmt.Sprintf("Votre paiement de %s %s a été confirmé.", formatAmount(row.Amount), strings.ToUpper(row.Currency)),
		Type:        "success",
		RelatedType: "payment",
		RelatedID:   row.ID,
	})
	if err != nil {
		return fmt.Errorf("add notification: %w", err)
	}
	// one email per payment row, even when several events settle it
	if created {
		fx.mails = append(fx.mails, followUp{
			emailType: models.EmailPaymentSuccess,
			userID:    row.UserID,
			projectID: row.ProjectID,
			data: map[string]any{
				"amount":       formatAmount(row.Amount),
				"currency":     strings.ToUpper(row.Currency),
				"payment_date": time.Now().Format("02/01/2006"),
				"invoice_url":  invoiceURL,
			},
		})
	}
	return nil
}

// fail raises the admin alert and user notification for a failed row
func (s *webhookService) fail(ctx context.Context, tx repository.PaymentTx, row *models.PaymentLog, externalID string, fx *effects) error {
	if _, err := tx.AddAlert(ctx, &models.AdminAlert{
		AlertType: "payment_failed",
		Title:     "Paiement échoué",
		Message:   fmt.Sprintf("Paiement %s a échoué: %s", externalID, row.ErrorMessage),
		Severity:  models.SeverityError,
		RelatedID: row.ID,
	}); err != nil {
		return fmt.Errorf("add alert: %w", err)
	}
	if row.UserID == "" {
		return nil
	}

	created, err := tx.AddNotification(ctx, &models.Notification{
		UserID:      row.UserID,
		Title:       "Paiement échoué",
		Message:     fmt.Sprintf("Votre paiement de %s %s n'a pas pu être traité.", formatAmount(row.Amount), strings.ToUpper(row.Currency)),
		Type:        "error",
		RelatedType: "payment",
		RelatedID:   row.ID,
	})
	if err != nil {
		return fmt.Errorf("add notification: %w", err)
	}
	if created {
		fx.mails = append(fx.mails, followUp{
			emailType: models.EmailPaymentFailed,
			userID:    row.UserID,
			data: map[string]any{
				"amount":        formatAmount(row.Amount),
				"currency":      strings.ToUpper(row.Currency),
				"error_message": row.ErrorMessage,
			},
		})
	}
	return nil
}

func intentUpdate(intent *payment.Intent, status models.PaymentStatus, evt *payment.Event) *models.PaymentUpdate {
	return &models.PaymentUpdate{
		PaymentID:       intent.Metadata[payment.MetaPaymentID],
		PaymentIntentID: intent.ID,
		InvoiceID:       intent.InvoiceID,
		ChargeID:        intent.ChargeID,
		CustomerID:      intent.CustomerID,
		UserID:          intent.Metadata[payment.MetaUserID],
		ProjectID:       intent.Metadata[payment.MetaProjectID],
		Amount:          intent.Amount,
		Currency:        intent.Currency,
		PaymentType:     paymentTypeOr(intent.Metadata, models.PaymentTypeCustom),
		Status:          status,
		OccurredAt:      occurredAt(evt),
	}
}

func (s *webhookService) intentSucceeded(ctx context.Context, tx repository.PaymentTx, evt *payment.Event, fx *effects) error {
	intent, err := payment.DecodeIntent(evt.Object)
	if err != nil {
		return err
	}
	row, err := tx.UpsertPayment(ctx, repository.KeyPaymentIntent, intentUpdate(intent, models.PaymentSucceeded, evt))
	if err != nil {
		return fmt.Errorf("upsert payment: %w", err)
	}
	return s.settle(ctx, tx, row, "", fx)
}

func (s *webhookService) intentFailed(ctx context.Context, tx repository.PaymentTx, evt *payment.Event, fx *effects) error {
	intent, err := payment.DecodeIntent(evt.Object)
	if err != nil {
		return err
	}
	u := intentUpdate(intent, models.PaymentFailed, evt)
	u.ErrorMessage = intent.ErrorMessage
	if u.ErrorMessage == "" {
		u.ErrorMessage = "Paiement échoué"
	}
	row, err := tx.UpsertPayment(ctx, repository.KeyPaymentIntent, u)
	if err != nil {
		return fmt.Errorf("upsert payment: %w", err)
	}
	return s.fail(ctx, tx, row, intent.ID, fx)
}

// intentStatus records a status change that has no other side effect
func (s *webhookService) intentStatus(status models.PaymentStatus) webhookHandler {
	return func(ctx context.Context, tx repository.PaymentTx, evt *payment.Event, _ *effects) error {
		intent, err := payment.DecodeIntent(evt.Object)
		if err != nil {
			return err
		}
		row, err := tx.UpdatePayment(ctx, repository.KeyPaymentIntent, intentUpdate(intent, status, evt))
		if err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if row == nil {
			s.log.Warn().Str("payment_intent_id", intent.ID).Str("status", string(status)).Msg("No payment row for intent")
		}
		return nil
	}
}

func (s *webhookService) checkoutCompleted(ctx context.Context, tx repository.PaymentTx, evt *payment.Event, fx *effects) error {
	session, err := payment.DecodeCheckoutSession(evt.Object)
	if err != nil {
		return err
	}
	status := models.PaymentPending
	if session.PaymentStatus == "paid" || session.PaymentStatus == "no_payment_required" {
		status = models.PaymentSucceeded
	}

	row, err := tx.UpsertPayment(ctx, repository.KeyCheckoutSession, &models.PaymentUpdate{
		PaymentID:         session.Metadata[payment.MetaPaymentID],
		PaymentIntentID:   session.PaymentIntentID,
		CheckoutSessionID: session.ID,
		CustomerID:        session.CustomerID,
		UserID:            session.Metadata[payment.MetaUserID],
		ProjectID:         session.Metadata[payment.MetaProjectID],
		Amount:            session.AmountTotal,
		Currency:          session.Currency,
		PaymentType:       paymentTypeOr(session.Metadata, models.PaymentTypeCheckout),
		Status:            status,
		OccurredAt:        occurredAt(evt),
	})
	if err != nil {
		return fmt.Errorf("upsert payment: %w", err)
	}
	if status != models.PaymentSucceeded {
		return nil
	}
	return s.settle(ctx, tx, row, "", fx)
}

func (s *webhookService) checkoutExpired(ctx context.Context, tx repository.PaymentTx, evt *payment.Event, _ *effects) error {
	session, err := payment.DecodeCheckoutSession(evt.Object)
	if err != nil {
		return err
	}
	_, err = tx.UpdatePayment(ctx, repository.KeyCheckoutSession, &models.PaymentUpdate{
		CheckoutSessionID: session.ID,
		Status:            models.PaymentCanceled,
		OccurredAt:        occurredAt(evt),
	})
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

func (s *webhookService) invoicePaid(ctx context.Context, tx repository.PaymentTx, evt *payment.Event, fx *effects) error {
	inv, err := payment.DecodeInvoice(evt.Object)
	if err != nil {
		return err
	}
	row, err := tx.UpsertPayment(ctx, repository.KeyInvoice, &models.PaymentUpdate{
		PaymentID:       inv.Metadata[payment.MetaPaymentID],
		InvoiceID:       inv.ID,
		PaymentIntentID: inv.PaymentIntentID,
		ChargeID:        inv.ChargeID,
		CustomerID:      inv.CustomerID,
		UserID:          inv.Metadata[payment.MetaUserID],
		ProjectID:       inv.Metadata[payment.MetaProjectID],
		Amount:          inv.AmountPaid,
		Currency:        inv.Currency,
		PaymentType:     models.PaymentTypeInvoice,
		Status:          models.PaymentSucceeded,
		OccurredAt:      occurredAt(evt),
	})
	if err != nil {
		return fmt.Errorf("upsert payment: %w", err)
	}
	return s.settle(ctx, tx, row, inv.HostedURL, fx)
}

func (s *webhookService) invoiceFailed(ctx context.Context, tx repository.PaymentTx, evt *payment.Event, fx *effects) error {
	inv, err := payment.DecodeInvoice(evt.Object)
	if err != nil {
		return err
	}
	row, err := tx.UpdatePayment(ctx, repository.KeyInvoice, &models.PaymentUpdate{
		InvoiceID:    inv.ID,
		Status:       models.PaymentFailed,
		ErrorMessage: "Paiement de la facture échoué",
		OccurredAt:   occurredAt(evt),
	})
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if row == nil {
		s.log.Warn().Str("invoice_id", inv.ID).Msg("No payment row for invoice")
		return nil
	}
	return s.fail(ctx, tx, row, inv.ID, fx)
}

func (s *webhookService) chargeRefunded(ctx context.Context, tx repository.PaymentTx, evt *payment.Event, _ *effects) error {
	ch, err := payment.DecodeCharge(evt.Object)
	if err != nil {
		return err
	}
	row, err := tx.RecordRefund(ctx, ch.ID, ch.PaymentIntentID, ch.AmountRefunded)
	if err != nil {
		return fmt.Errorf("record refund: %w", err)
	}
	if row == nil {
		s.log.Warn().Str("charge_id", ch.ID).Msg("No payment row for refunded charge")
		return nil
	}
	if row.UserID == "" {
		return nil
	}
	_, err = tx.AddNotification(ctx, &models.Notification{
		UserID:      row.UserID,
		Title:       "Remboursement effectué",
		Message:     fmt.Sprintf("Un remboursement de %s %s a été effectué.", formatAmount(ch.AmountRefunded), strings.ToUpper(ch.Currency)),
		Type:        "info",
		RelatedType: "refund",
		RelatedID:   row.ID,
	})
	return err
}
