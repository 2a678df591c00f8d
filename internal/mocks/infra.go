package mocks

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/agency-cms-api/internal/mailer"
	"github.com/agency-cms-api/internal/media"
	"github.com/agency-cms-api/internal/payment"
	"github.com/google/uuid"
)

// MockProcessor is a mock implementation of payment.Processor
type MockProcessor struct {
	mu         sync.Mutex
	Disabled   bool
	Intents    []payment.IntentParams
	Checkouts  []payment.CheckoutParams
	Invoices   []payment.InvoiceParams
	Refunds    []payment.RefundParams
	Err        error
	VerifyFunc func(payload []byte, signature string) (*payment.Event, error)
}

var _ payment.Processor = (*MockProcessor)(nil)

func NewMockProcessor() *MockProcessor {
	return &MockProcessor{}
}

func (m *MockProcessor) Enabled() bool { return !m.Disabled }

func (m *MockProcessor) CreatePaymentIntent(ctx context.Context, p payment.IntentParams) (*payment.Intent, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Intents = append(m.Intents, p)
	id := "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return &payment.Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       "requires_payment_method",
		Amount:       p.Amount,
		Currency:     p.Currency,
		Metadata:     p.Metadata,
	}, nil
}

func (m *MockProcessor) GetPaymentIntent(ctx context.Context, id string) (*payment.Intent, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &payment.Intent{ID: id, Status: "succeeded"}, nil
}

func (m *MockProcessor) CreateCheckoutSession(ctx context.Context, p payment.CheckoutParams) (*payment.CheckoutSession, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Checkouts = append(m.Checkouts, p)
	id := "cs_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return &payment.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.example/" + id,
		Status:        "open",
		PaymentStatus: "unpaid",
		Currency:      p.Currency,
		CustomerEmail: p.CustomerEmail,
		Metadata:      p.Metadata,
	}, nil
}

func (m *MockProcessor) CreateCustomer(ctx context.Context, p payment.CustomerParams) (*payment.Customer, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &payment.Customer{ID: "cus_" + uuid.NewString()[:8], Email: p.Email, Name: p.Name}, nil
}

func (m *MockProcessor) CreateInvoice(ctx context.Context, p payment.InvoiceParams) (*payment.Invoice, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invoices = append(m.Invoices, p)
	return &payment.Invoice{
		ID:         "in_" + uuid.NewString()[:8],
		CustomerID: p.CustomerID,
		Status:     "open",
		AmountDue:  p.Amount,
		Currency:   p.Currency,
		Metadata:   p.Metadata,
	}, nil
}

func (m *MockProcessor) Refund(ctx context.Context, p payment.RefundParams) (*payment.Refund, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refunds = append(m.Refunds, p)
	return &payment.Refund{
		ID:              "re_" + uuid.NewString()[:8],
		Status:          "succeeded",
		Amount:          p.Amount,
		PaymentIntentID: p.PaymentIntentID,
	}, nil
}

func (m *MockProcessor) VerifyWebhook(payload []byte, signature string) (*payment.Event, error) {
	if m.Disabled {
		return nil, payment.ErrDisabled
	}
	if m.VerifyFunc != nil {
		return m.VerifyFunc(payload, signature)
	}
	return nil, payment.ErrInvalidSignature
}

// MockSender is a mock implementation of mailer.Sender
type MockSender struct {
	mu   sync.Mutex
	Sent []mailer.Message
	// FailFor makes sends to these addresses fail
	FailFor map[string]bool
	// Hold, when set, makes Send wait for it to close (or ctx to end).
	// Each held send is announced on Started first.
	Hold    chan struct{}
	Started chan mailer.Message
}

var _ mailer.Sender = (*MockSender)(nil)

func NewMockSender() *MockSender {
	return &MockSender{FailFor: make(map[string]bool)}
}

func (m *MockSender) Send(ctx context.Context, msg mailer.Message) error {
	if m.Hold != nil {
		if m.Started != nil {
			m.Started <- msg
		}
		select {
		case <-m.Hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFor[msg.To] {
		return errors.New("smtp: mailbox unavailable")
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// Messages returns a copy of the sent messages
func (m *MockSender) Messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message{}, m.Sent...)
}

// MockStore is a mock implementation of media.Store
type MockStore struct {
	mu      sync.Mutex
	Assets  map[string]*media.Asset
	Deleted []string
	// FailOn makes uploads whose content equals this string fail
	FailOn string
}

var _ media.Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{Assets: make(map[string]*media.Asset)}
}

func (m *MockStore) Upload(ctx context.Context, r io.Reader, opts media.UploadOptions) (*media.Asset, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if m.FailOn != "" && string(body) == m.FailOn {
		return nil, errors.New("cdn: upload rejected")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := string(opts.Folder) + "/" + uuid.NewString()[:8]
	url := "https://res.cloudinary.com/demo/image/upload/v1/" + id + ".png"
	asset := &media.Asset{
		PublicID:     id,
		URL:          url,
		Format:       "png",
		ResourceType: opts.ResourceType,
		Bytes:        len(body),
		Variants: map[media.Preset]string{
			media.PresetAvatarMedium: url + "?preset=avatar_medium",
			media.PresetTeamPhoto:    url + "?preset=team_photo",
		},
	}
	m.Assets[id] = asset
	return asset, nil
}

func (m *MockStore) Delete(ctx context.Context, publicID, resourceType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, publicID)
	delete(m.Assets, publicID)
	return nil
}

func (m *MockStore) Search(ctx context.Context, opts media.SearchOptions) (*media.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := &media.SearchResult{}
	for _, a := range m.Assets {
		if opts.Folder == "" || strings.HasPrefix(a.PublicID, string(opts.Folder)+"/") {
			out.Assets = append(out.Assets, *a)
		}
	}
	out.Total = len(out.Assets)
	return out, nil
}

func (m *MockStore) URL(publicID string, preset media.Preset) (string, error) {
	return "https://res.cloudinary.com/demo/image/upload/" + string(preset) + "/" + publicID, nil
}
