package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/google/uuid"
)

// MockPaymentRepository is a mock implementation of PaymentRepository.
// It also backs the webhook repository so both views share the same rows.
type MockPaymentRepository struct {
	mu            sync.Mutex
	Payments      map[string]*models.PaymentLog
	Projects      map[string]*models.Project
	Notifications []*models.Notification
	Alerts        []*models.AdminAlert
	CreateError   error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		Payments: make(map[string]*models.PaymentLog),
		Projects: make(map[string]*models.Project),
	}
}

// Find returns the first payment matching pred
func (m *MockPaymentRepository) Find(pred func(*models.PaymentLog) bool) *models.PaymentLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Payments {
		if pred(p) {
			return p
		}
	}
	return nil
}

// NotificationCount returns the number of stored notifications
func (m *MockPaymentRepository) NotificationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Notifications)
}

// AlertCount returns the number of stored alerts
func (m *MockPaymentRepository) AlertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Alerts)
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *models.PaymentLog) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range uniqueKeys {
		if m.held(k, keyOf(p, k), nil) {
			return errUniqueViolation
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.Payments[p.ID] = p
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*models.PaymentLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Payments[id], nil
}

func (m *MockPaymentRepository) sorted() []*models.PaymentLog {
	out := make([]*models.PaymentLog, 0, len(m.Payments))
	for _, p := range m.Payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MockPaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]*models.PaymentLog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.PaymentLog
	for _, p := range m.sorted() {
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && string(p.Status) != filter.Status {
			continue
		}
		if filter.PaymentType != "" && p.PaymentType != filter.PaymentType {
			continue
		}
		if filter.ProjectID != "" && p.ProjectID != filter.ProjectID {
			continue
		}
		out = append(out, p)
	}
	return page(out, filter.Page), len(out), nil
}

func (m *MockPaymentRepository) Stats(ctx context.Context) (*models.PaymentStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.PaymentStats{Total: len(m.Payments)}
	for _, p := range m.Payments {
		switch p.Status {
		case models.PaymentSucceeded:
			stats.Succeeded++
			stats.TotalRevenue += p.Amount
		case models.PaymentFailed:
			stats.Failed++
		case models.PaymentPending:
			stats.Pending++
		case models.PaymentRefunded:
			stats.Refunded++
			if p.RefundAmount != nil {
				stats.TotalRefunded += *p.RefundAmount
			}
		}
	}
	return stats, nil
}

func (m *MockPaymentRepository) MarkRefunded(ctx context.Context, id, refundID string, amount int64, refundedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	p.Status = models.PaymentRefunded
	p.RefundID = refundID
	p.RefundAmount = &amount
	p.RefundedBy = refundedBy
	p.RefundedAt = &now
	return nil
}

func (m *MockPaymentRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Projects[id], nil
}

func (m *MockPaymentRepository) StreamAll(ctx context.Context, callback func(*models.PaymentLog) error) error {
	m.mu.Lock()
	all := m.sorted()
	m.mu.Unlock()
	for _, p := range all {
		if err := callback(p); err != nil {
			return err
		}
	}
	return nil
}

// snapshot deep-copies the mutable state so a failed transaction can be rolled back
type snapshot struct {
	payments      map[string]models.PaymentLog
	projects      map[string]models.Project
	notifications int
	alerts        int
}

func (m *MockPaymentRepository) snapshot() snapshot {
	s := snapshot{
		payments:      make(map[string]models.PaymentLog, len(m.Payments)),
		projects:      make(map[string]models.Project, len(m.Projects)),
		notifications: len(m.Notifications),
		alerts:        len(m.Alerts),
	}
	for id, p := range m.Payments {
		s.payments[id] = *p
	}
	for id, p := range m.Projects {
		s.projects[id] = *p
	}
	return s
}

func (m *MockPaymentRepository) restore(s snapshot) {
	m.Payments = make(map[string]*models.PaymentLog, len(s.payments))
	for id, p := range s.payments {
		p := p
		m.Payments[id] = &p
	}
	m.Projects = make(map[string]*models.Project, len(s.projects))
	for id, p := range s.projects {
		p := p
		m.Projects[id] = &p
	}
	m.Notifications = m.Notifications[:s.notifications]
	m.Alerts = m.Alerts[:s.alerts]
}

// MockWebhookRepository is a mock implementation of WebhookRepository.
// Apply runs under one lock and rolls back the payment state when fn fails.
type MockWebhookRepository struct {
	mu       sync.Mutex
	payments *MockPaymentRepository
	Events   map[string]*models.StripeEvent
	// FailWith makes the next handler call fail after it ran
	FailWith error
}

func NewMockWebhookRepository(payments *MockPaymentRepository) *MockWebhookRepository {
	return &MockWebhookRepository{
		payments: payments,
		Events:   make(map[string]*models.StripeEvent),
	}
}

func (m *MockWebhookRepository) Apply(ctx context.Context, evt *models.StripeEvent, fn func(tx repository.PaymentTx) error) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.Events[evt.EventID]
	if ok {
		existing.Attempts++
		if existing.ProcessedAt != nil && existing.Error == "" {
			return false, nil
		}
	} else {
		existing = &models.StripeEvent{
			EventID:   evt.EventID,
			EventType: evt.EventType,
			Data:      evt.Data,
			Attempts:  1,
			CreatedAt: time.Now(),
		}
	}

	m.payments.mu.Lock()
	snap := m.payments.snapshot()
	err := fn(&mockPaymentTx{repo: m.payments})
	if err == nil && m.FailWith != nil {
		err, m.FailWith = m.FailWith, nil
	}
	if err != nil {
		m.payments.restore(snap)
		m.payments.mu.Unlock()
		return false, err
	}
	m.payments.mu.Unlock()

	now := time.Now()
	existing.ProcessedAt = &now
	existing.Error = ""
	m.Events[evt.EventID] = existing
	return true, nil
}

func (m *MockWebhookRepository) RecordFailure(ctx context.Context, evt *models.StripeEvent, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Events[evt.EventID]
	if !ok {
		existing = &models.StripeEvent{EventID: evt.EventID, EventType: evt.EventType, Data: evt.Data, CreatedAt: time.Now()}
		m.Events[evt.EventID] = existing
	}
	existing.Error = cause.Error()
	return nil
}

func (m *MockWebhookRepository) GetEvent(ctx context.Context, eventID string) (*models.StripeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Events[eventID], nil
}

// mockPaymentTx applies writes to the payment repository, whose lock the caller holds
type mockPaymentTx struct {
	repo *MockPaymentRepository
}

func keyOf(p *models.PaymentLog, key repository.PaymentKey) string {
	switch key {
	case repository.KeyPaymentIntent:
		return p.PaymentIntentID
	case repository.KeyCheckoutSession:
		return p.CheckoutSessionID
	case repository.KeyInvoice:
		return p.InvoiceID
	case repository.KeyCharge:
		return p.ChargeID
	}
	return ""
}

func updateKey(u *models.PaymentUpdate, key repository.PaymentKey) string {
	return keyOf(&models.PaymentLog{
		PaymentIntentID:   u.PaymentIntentID,
		CheckoutSessionID: u.CheckoutSessionID,
		InvoiceID:         u.InvoiceID,
		ChargeID:          u.ChargeID,
	}, key)
}

func (t *mockPaymentTx) find(key repository.PaymentKey, value string) *models.PaymentLog {
	if value == "" {
		return nil
	}
	var found *models.PaymentLog
	for _, p := range t.repo.Payments {
		if keyOf(p, key) == value && (found == nil || p.CreatedAt.Before(found.CreatedAt)) {
			found = p
		}
	}
	return found
}

func applyStatus(p *models.PaymentLog, u *models.PaymentUpdate) {
	p.Status = u.Status
	p.ErrorMessage = u.ErrorMessage
	if u.ChargeID != "" {
		p.ChargeID = u.ChargeID
	}
	at := u.OccurredAt
	switch u.Status {
	case models.PaymentSucceeded:
		if p.PaidAt == nil {
			p.PaidAt = &at
		}
	case models.PaymentFailed:
		p.FailedAt = &at
	case models.PaymentCanceled:
		p.CanceledAt = &at
	}
	p.UpdatedAt = time.Now()
}

func (t *mockPaymentTx) UpdatePayment(ctx context.Context, key repository.PaymentKey, u *models.PaymentUpdate) (*models.PaymentLog, error) {
	p := t.find(key, updateKey(u, key))
	if p == nil {
		return nil, nil
	}
	applyStatus(p, u)
	cp := *p
	return &cp, nil
}

// held reports whether a row other than self already owns value under key,
// which postgres would reject as a unique violation
func (m *MockPaymentRepository) held(key repository.PaymentKey, value string, self *models.PaymentLog) bool {
	if value == "" {
		return false
	}
	for _, p := range m.Payments {
		if p != self && keyOf(p, key) == value {
			return true
		}
	}
	return false
}

var uniqueKeys = []repository.PaymentKey{repository.KeyPaymentIntent, repository.KeyCheckoutSession, repository.KeyInvoice}

// match follows the postgres lookup order: keyed id, own row id, then any other external id
func (t *mockPaymentTx) match(key repository.PaymentKey, u *models.PaymentUpdate) *models.PaymentLog {
	if p := t.find(key, updateKey(u, key)); p != nil {
		return p
	}
	if p, ok := t.repo.Payments[u.PaymentID]; ok && u.PaymentID != "" {
		return p
	}
	for _, k := range uniqueKeys {
		if p := t.find(k, updateKey(u, k)); p != nil {
			return p
		}
	}
	return nil
}

// absorbPlaceholder folds a pending row without intent into the row holding intentID
func (t *mockPaymentTx) absorbPlaceholder(p *models.PaymentLog, intentID string) *models.PaymentLog {
	other := t.find(repository.KeyPaymentIntent, intentID)
	if other == nil || other == p || p.PaymentIntentID != "" || p.Status != models.PaymentPending {
		return p
	}
	delete(t.repo.Payments, p.ID)
	if other.CheckoutSessionID == "" {
		other.CheckoutSessionID = p.CheckoutSessionID
	}
	if other.InvoiceID == "" {
		other.InvoiceID = p.InvoiceID
	}
	if other.UserID == "" {
		other.UserID = p.UserID
	}
	if other.ProjectID == "" {
		other.ProjectID = p.ProjectID
	}
	if other.Description == "" {
		other.Description = p.Description
	}
	return other
}

func (t *mockPaymentTx) UpsertPayment(ctx context.Context, key repository.PaymentKey, u *models.PaymentUpdate) (*models.PaymentLog, error) {
	if key == repository.KeyCharge {
		return nil, fmt.Errorf("invalid upsert key %q", key)
	}
	if updateKey(u, key) == "" {
		return nil, fmt.Errorf("upsert by %s without a value", key)
	}
	p := t.match(key, u)
	if p != nil && u.PaymentIntentID != "" {
		p = t.absorbPlaceholder(p, u.PaymentIntentID)
	}
	if p == nil {
		p = &models.PaymentLog{
			ID:                uuid.NewString(),
			PaymentIntentID:   u.PaymentIntentID,
			CheckoutSessionID: u.CheckoutSessionID,
			InvoiceID:         u.InvoiceID,
			CustomerID:        u.CustomerID,
			UserID:            u.UserID,
			ProjectID:         u.ProjectID,
			Amount:            u.Amount,
			Currency:          u.Currency,
			PaymentType:       u.PaymentType,
			CreatedAt:         time.Now(),
		}
		for _, k := range uniqueKeys {
			if t.repo.held(k, keyOf(p, k), nil) {
				return nil, errUniqueViolation
			}
		}
		t.repo.Payments[p.ID] = p
	} else {
		if p.PaymentIntentID == "" && !t.repo.held(repository.KeyPaymentIntent, u.PaymentIntentID, p) {
			p.PaymentIntentID = u.PaymentIntentID
		}
		if p.CheckoutSessionID == "" && !t.repo.held(repository.KeyCheckoutSession, u.CheckoutSessionID, p) {
			p.CheckoutSessionID = u.CheckoutSessionID
		}
		if p.InvoiceID == "" && !t.repo.held(repository.KeyInvoice, u.InvoiceID, p) {
			p.InvoiceID = u.InvoiceID
		}
		if u.CustomerID != "" {
			p.CustomerID = u.CustomerID
		}
		if p.UserID == "" {
			p.UserID = u.UserID
		}
		if p.ProjectID == "" {
			p.ProjectID = u.ProjectID
		}
		if u.Amount > 0 {
			p.Amount = u.Amount
		}
	}
	if u.Status == models.PaymentPending && (p.Status == models.PaymentSucceeded || p.Status == models.PaymentRefunded) {
		cp := *p
		return &cp, nil
	}
	applyStatus(p, u)
	cp := *p
	return &cp, nil
}

func (t *mockPaymentTx) RecordRefund(ctx context.Context, chargeID, intentID string, refunded int64) (*models.PaymentLog, error) {
	p := t.find(repository.KeyCharge, chargeID)
	if p == nil {
		p = t.find(repository.KeyPaymentIntent, intentID)
	}
	if p == nil {
		return nil, nil
	}
	now := time.Now()
	p.Status = models.PaymentRefunded
	p.RefundAmount = &refunded
	if p.RefundedAt == nil {
		p.RefundedAt = &now
	}
	if p.ChargeID == "" {
		p.ChargeID = chargeID
	}
	cp := *p
	return &cp, nil
}

func (t *mockPaymentTx) MarkProjectPaid(ctx context.Context, projectID, paymentType string) error {
	project, ok := t.repo.Projects[projectID]
	if !ok {
		return nil
	}
	switch paymentType {
	case models.PaymentTypeDeposit:
		project.DepositPaid = true
	case models.PaymentTypeFinal:
		project.FinalPaid = true
	}
	return nil
}

func (t *mockPaymentTx) AddNotification(ctx context.Context, n *models.Notification) (bool, error) {
	for _, existing := range t.repo.Notifications {
		if existing.UserID == n.UserID && existing.Type == n.Type &&
			existing.RelatedType == n.RelatedType && existing.RelatedID == n.RelatedID {
			return false, nil
		}
	}
	cp := *n
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	t.repo.Notifications = append(t.repo.Notifications, &cp)
	return true, nil
}

func (t *mockPaymentTx) AddAlert(ctx context.Context, a *models.AdminAlert) (bool, error) {
	for _, existing := range t.repo.Alerts {
		if existing.AlertType == a.AlertType && existing.RelatedID == a.RelatedID {
			return false, nil
		}
	}
	cp := *a
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	t.repo.Alerts = append(t.repo.Alerts, &cp)
	return true, nil
}
