package service

import (
	"context"
	"strings"

	"github.com/agency-cms-api/internal/config"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/payment"
	"github.com/agency-cms-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// paymentService is the concrete implementation of PaymentService
type paymentService struct {
	payments  repository.PaymentRepository
	users     repository.UserRepository
	processor payment.Processor
	cfg       config.PaymentConfig
	audit     *auditor
	log       zerolog.Logger
}

func newPaymentService(repos *repository.Repositories, processor payment.Processor, cfg config.PaymentConfig, audit *auditor, log zerolog.Logger) *paymentService {
	return &paymentService{
		payments:  repos.Payment,
		users:     repos.User,
		processor: processor,
		cfg:       cfg,
		audit:     audit,
		log:       log.With().Str("service", "payment").Logger(),
	}
}

func (s *paymentService) currency(c string) string {
	if c == "" {
		c = s.cfg.Currency
	}
	return strings.ToLower(c)
}

// checkProject verifies the project exists and belongs to the actor unless staff
func (s *paymentService) checkProject(ctx context.Context, actor Actor, projectID string) (*models.Project, error) {
	if projectID == "" {
		return nil, nil
	}
	project, err := s.payments.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, notFound("project")
	}
	if project.UserID != actor.UserID && !actor.Is(models.RoleAdmin, models.RoleStaff) {
		return nil, newError(ErrForbidden, "project does not belong to you")
	}
	return project, nil
}

func (s *paymentService) CreateIntent(ctx context.Context, actor Actor, req *models.PaymentIntentRequest) (*payment.Intent, *models.PaymentLog, error) {
	if !s.processor.Enabled() {
		return nil, nil, payment.ErrDisabled
	}
	project, err := s.checkProject(ctx, actor, req.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	paymentType := req.PaymentType
	if paymentType == "" {
		paymentType = models.PaymentTypeCustom
	}
	description := req.Description
	if description == "" {
		description = "Paiement " + paymentType
		if project != nil {
			description += " - " + project.Title
		}
	}

	amount := models.ToMinorUnits(req.Amount)
	intent, err := s.processor.CreatePaymentIntent(ctx, payment.IntentParams{
		Amount:       amount,
		Currency:     s.currency(req.Currency),
		Description:  description,
		ReceiptEmail: actor.Email,
		Metadata: map[string]string{
			payment.MetaUserID:      actor.UserID,
			payment.MetaProjectID:   req.ProjectID,
			payment.MetaPaymentType: paymentType,
		},
	})
	if err != nil {
		return nil, nil, err
	}

	entry := &models.PaymentLog{
		UserID:          actor.UserID,
		ProjectID:       req.ProjectID,
		PaymentIntentID: intent.ID,
		Amount:          amount,
		Currency:        intent.Currency,
		PaymentType:     paymentType,
		Status:          models.PaymentPending,
		Description:     description,
	}
	if err := s.payments.Create(ctx, entry); err != nil {
		// the webhook upserts the row if this insert is lost
		s.log.Error().Err(err).Str("payment_intent_id", intent.ID).Msg("Failed to record payment intent")
		return intent, nil, nil
	}

	s.log.Info().Str("payment_intent_id", intent.ID).Int64("amount", amount).Msg("Payment intent created")
	return intent, entry, nil
}

func (s *paymentService) CreateCheckout(ctx context.Context, actor Actor, req *models.CheckoutRequest) (*payment.CheckoutSession, error) {
	if !s.processor.Enabled() {
		return nil, payment.ErrDisabled
	}
	if _, err := s.checkProject(ctx, actor, req.ProjectID); err != nil {
		return nil, err
	}

	lines := make([]payment.CheckoutLine, 0, len(req.Items))
	var total int64
	for _, item := range req.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		amount := models.ToMinorUnits(item.Amount)
		total += amount * qty
		lines = append(lines, payment.CheckoutLine{
			Name:        item.Name,
			Description: item.Description,
			Amount:      amount,
			Quantity:    qty,
		})
	}

	frontend := strings.TrimRight(s.cfg.FrontendURL, "/")
	successURL := req.SuccessURL
	if successURL == "" {
		successURL = frontend + "/payment/success?session_id={CHECKOUT_SESSION_ID}"
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = frontend + "/payment/cancel"
	}

	// the row id travels in metadata so payment_intent events, which do not
	// reference their checkout session, land on the same row
	paymentID := uuid.NewString()
	session, err := s.processor.CreateCheckoutSession(ctx, payment.CheckoutParams{
		Lines:         lines,
		Currency:      s.currency(req.Currency),
		CustomerEmail: actor.Email,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		Metadata: map[string]string{
			payment.MetaUserID:      actor.UserID,
			payment.MetaProjectID:   req.ProjectID,
			payment.MetaPaymentType: models.PaymentTypeCheckout,
			payment.MetaPaymentID:   paymentID,
		},
	})
	if err != nil {
		return nil, err
	}

	entry := &models.PaymentLog{
		ID:                paymentID,
		UserID:            actor.UserID,
		ProjectID:         req.ProjectID,
		CheckoutSessionID: session.ID,
		Amount:            total,
		Currency:          s.currency(req.Currency),
		PaymentType:       models.PaymentTypeCheckout,
		Status:            models.PaymentPending,
	}
	if err := s.payments.Create(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("checkout_session_id", session.ID).Msg("Failed to record checkout session")
	}
	return session, nil
}

func (s *paymentService) CreateCustomer(ctx context.Context, actor Actor, req *models.CustomerRequest) (*payment.Customer, error) {
	if !s.processor.Enabled() {
		return nil, payment.ErrDisabled
	}
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user")
	}

	customer, err := s.processor.CreateCustomer(ctx, payment.CustomerParams{
		Email:    user.Email,
		Name:     user.FullName(),
		Phone:    user.Phone,
		Metadata: map[string]string{payment.MetaUserID: user.ID},
	})
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, actor, "create_customer", "user", user.ID, map[string]string{"customer_id": customer.ID})
	return customer, nil
}

func (s *paymentService) CreateInvoice(ctx context.Context, actor Actor, req *models.InvoiceRequest) (*payment.Invoice, *models.PaymentLog, error) {
	if !s.processor.Enabled() {
		return nil, nil, payment.ErrDisabled
	}

	amount := models.ToMinorUnits(req.Amount)
	days := req.DaysUntilDue
	if days == 0 {
		days = 30
	}
	paymentID := uuid.NewString()
	invoice, err := s.processor.CreateInvoice(ctx, payment.InvoiceParams{
		CustomerID:   req.CustomerID,
		Amount:       amount,
		Currency:     s.currency(req.Currency),
		Description:  req.Description,
		DaysUntilDue: days,
		Metadata: map[string]string{
			payment.MetaUserID:      req.UserID,
			payment.MetaProjectID:   req.ProjectID,
			payment.MetaPaymentType: models.PaymentTypeInvoice,
			payment.MetaPaymentID:   paymentID,
		},
	})
	if err != nil {
		return nil, nil, err
	}

	entry := &models.PaymentLog{
		ID:              paymentID,
		UserID:          req.UserID,
		ProjectID:       req.ProjectID,
		InvoiceID:       invoice.ID,
		PaymentIntentID: invoice.PaymentIntentID,
		CustomerID:      req.CustomerID,
		Amount:          amount,
		Currency:        s.currency(req.Currency),
		PaymentType:     models.PaymentTypeInvoice,
		Status:          models.PaymentPending,
		Description:     req.Description,
	}
	if err := s.payments.Create(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("invoice_id", invoice.ID).Msg("Failed to record invoice")
		entry = nil
	}

	s.audit.record(ctx, actor, "create_invoice", "payment", invoice.ID, map[string]any{"amount": amount})
	return invoice, entry, nil
}

// Refund refunds a succeeded payment through the processor and records it
func (s *paymentService) Refund(ctx context.Context, actor Actor, id string, req *models.RefundRequest) (*payment.Refund, error) {
	if !s.processor.Enabled() {
		return nil, payment.ErrDisabled
	}
	entry, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, notFound("payment")
	}
	if entry.Status != models.PaymentSucceeded {
		return nil, newError(ErrBadRequest, "only succeeded payments can be refunded (status %s)", entry.Status)
	}
	if entry.PaymentIntentID == "" {
		return nil, newError(ErrBadRequest, "payment has no payment intent to refund")
	}

	var amount int64
	if req.Amount != nil {
		amount = models.ToMinorUnits(*req.Amount)
		if amount > entry.Amount {
			return nil, newError(ErrBadRequest, "refund amount exceeds the payment amount")
		}
	}

	refund, err := s.processor.Refund(ctx, payment.RefundParams{
		PaymentIntentID: entry.PaymentIntentID,
		Amount:          amount,
		Reason:          req.Reason,
		Metadata:        map[string]string{"refunded_by": actor.UserID},
	})
	if err != nil {
		return nil, err
	}

	if err := s.payments.MarkRefunded(ctx, id, refund.ID, refund.Amount, actor.UserID); err != nil {
		s.log.Error().Err(err).Str("payment_id", id).Str("refund_id", refund.ID).Msg("Failed to record refund")
	}
	s.audit.record(ctx, actor, "refund", "payment", id, map[string]any{"refund_id": refund.ID, "amount": refund.Amount})
	return refund, nil
}

func (s *paymentService) ListMine(ctx context.Context, actor Actor, filter models.PaymentFilter) ([]*models.PaymentLog, int, error) {
	filter.UserID = actor.UserID
	filter.Page = filter.Page.Normalize(20)
	return s.payments.List(ctx, filter)
}

func (s *paymentService) GetMine(ctx context.Context, actor Actor, id string) (*models.PaymentLog, error) {
	entry, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil || (entry.UserID != actor.UserID && !actor.Is(models.RoleAdmin)) {
		return nil, notFound("payment")
	}
	return entry, nil
}

func (s *paymentService) ListAll(ctx context.Context, filter models.PaymentFilter) ([]*models.PaymentLog, int, error) {
	filter.Page = filter.Page.Normalize(50)
	return s.payments.List(ctx, filter)
}

func (s *paymentService) Stats(ctx context.Context) (*models.PaymentStats, error) {
	return s.payments.Stats(ctx)
}
