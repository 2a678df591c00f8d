package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/rs/zerolog"
)

// flushEvery is how many records are written between flushes
const flushEvery = 100

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// source feeds records to a callback, one row at a time
type source[T any] func(callback func(T) error) error

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
}

func streamNDJSON[T any](w http.ResponseWriter, filename string, src source[T]) (int, error) {
	attachment(w, "application/x-ndjson", filename)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	count := 0
	err := src(func(record T) error {
		if err := enc.Encode(record); err != nil {
			return err
		}
		count++
		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	return count, err
}

func streamJSON[T any](w http.ResponseWriter, filename string, src source[T]) (int, error) {
	attachment(w, "application/json", filename)

	flusher, _ := w.(http.Flusher)
	w.Write([]byte("["))
	count := 0
	err := src(func(record T) error {
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if count > 0 {
			w.Write([]byte(","))
		}
		w.Write(data)
		count++
		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	w.Write([]byte("]"))
	return count, err
}

func streamCSV[T any](w http.ResponseWriter, filename string, header []string, row func(T) []string, src source[T]) (int, error) {
	attachment(w, "text/csv; charset=utf-8", filename)

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return 0, err
	}
	flusher, _ := w.(http.Flusher)
	count := 0
	err := src(func(record T) error {
		if err := writer.Write(row(record)); err != nil {
			return err
		}
		count++
		if count%flushEvery == 0 {
			writer.Flush()
			if flusher != nil {
				flusher.Flush()
			}
		}
		return nil
	})
	return count, err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func (s *exportService) done(resource, format string, count int, err error) error {
	if err != nil {
		s.log.Error().Err(err).Str("resource", resource).Int("count", count).Msg("Export aborted")
		return err
	}
	s.log.Info().Str("resource", resource).Str("format", format).Int("count", count).Msg("Export completed")
	return nil
}

// StreamSubscribers streams newsletter subscribers, optionally filtered by status
func (s *exportService) StreamSubscribers(ctx context.Context, w http.ResponseWriter, format, status string) error {
	src := source[*models.Subscriber](func(cb func(*models.Subscriber) error) error {
		return s.repos.Newsletter.StreamAll(ctx, status, cb)
	})

	var count int
	var err error
	switch format {
	case "ndjson":
		count, err = streamNDJSON(w, "subscribers.ndjson", src)
	case "json":
		count, err = streamJSON(w, "subscribers.json", src)
	case "csv":
		count, err = streamCSV(w, "subscribers.csv",
			[]string{"email", "firstname", "lastname", "status", "source", "subscribed_at", "unsubscribed_at"},
			func(sub *models.Subscriber) []string {
				return []string{
					sub.Email,
					sub.Firstname,
					sub.Lastname,
					sub.Status,
					sub.SubscriptionSource,
					formatTime(sub.SubscribedAt),
					formatTimePtr(sub.UnsubscribedAt),
				}
			}, src)
	default:
		return newError(ErrBadRequest, "unsupported format: %s", format)
	}
	return s.done("subscribers", format, count, err)
}

// StreamContacts streams contact messages
func (s *exportService) StreamContacts(ctx context.Context, w http.ResponseWriter, format string) error {
	src := source[*models.ContactMessage](func(cb func(*models.ContactMessage) error) error {
		return s.repos.Contact.StreamAll(ctx, cb)
	})

	var count int
	var err error
	switch format {
	case "ndjson":
		count, err = streamNDJSON(w, "contacts.ndjson", src)
	case "csv":
		count, err = streamCSV(w, "contacts.csv",
			[]string{"id", "name", "email", "phone", "subject", "message", "status", "priority", "created_at", "replied_at"},
			func(m *models.ContactMessage) []string {
				return []string{
					m.ID,
					m.Name,
					m.Email,
					m.Phone,
					m.Subject,
					m.Message,
					m.Status,
					m.Priority,
					formatTime(m.CreatedAt),
					formatTimePtr(m.RepliedAt),
				}
			}, src)
	default:
		return newError(ErrBadRequest, "unsupported format: %s", format)
	}
	return s.done("contacts", format, count, err)
}

// StreamPayments streams payment logs. Amounts are in minor units.
func (s *exportService) StreamPayments(ctx context.Context, w http.ResponseWriter, format string) error {
	src := source[*models.PaymentLog](func(cb func(*models.PaymentLog) error) error {
		return s.repos.Payment.StreamAll(ctx, cb)
	})

	var count int
	var err error
	switch format {
	case "ndjson":
		count, err = streamNDJSON(w, "payments.ndjson", src)
	case "csv":
		count, err = streamCSV(w, "payments.csv",
			[]string{"id", "user_id", "project_id", "payment_intent_id", "invoice_id", "amount", "currency",
				"payment_type", "status", "refund_amount", "created_at", "paid_at", "refunded_at"},
			func(p *models.PaymentLog) []string {
				refund := ""
				if p.RefundAmount != nil {
					refund = strconv.FormatInt(*p.RefundAmount, 10)
				}
				return []string{
					p.ID,
					p.UserID,
					p.ProjectID,
					p.PaymentIntentID,
					p.InvoiceID,
					strconv.FormatInt(p.Amount, 10),
					p.Currency,
					p.PaymentType,
					string(p.Status),
					refund,
					formatTime(p.CreatedAt),
					formatTimePtr(p.PaidAt),
					formatTimePtr(p.RefundedAt),
				}
			}, src)
	default:
		return newError(ErrBadRequest, "unsupported format: %s", format)
	}
	return s.done("payments", format, count, err)
}
