package service

import (
	"context"
	"strings"

	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/repository"
	"github.com/agency-cms-api/internal/validation"
	"github.com/rs/zerolog"
)

// contactService is the concrete implementation of ContactService
type contactService struct {
	contacts    repository.ContactRepository
	users       repository.UserRepository
	sanitizer   *validation.Sanitizer
	mail        MailService
	audit       *auditor
	notifyEmail string
	log         zerolog.Logger
}

func newContactService(repos *repository.Repositories, sanitizer *validation.Sanitizer, mail MailService, audit *auditor, notifyEmail string, log zerolog.Logger) *contactService {
	return &contactService{
		contacts:    repos.Contact,
		users:       repos.User,
		sanitizer:   sanitizer,
		mail:        mail,
		audit:       audit,
		notifyEmail: notifyEmail,
		log:         log.With().Str("service", "contact").Logger(),
	}
}

func (s *contactService) Submit(ctx context.Context, req *models.ContactRequest, meta RequestMeta) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:      strings.TrimSpace(req.Name),
		Email:     validation.NormalizeEmail(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Subject:   strings.TrimSpace(s.sanitizer.StripTags(req.Subject)),
		Message:   strings.TrimSpace(s.sanitizer.StripTags(req.Message)),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Status:    models.ContactNew,
		Priority:  "normal",
	}
	if msg.Name == "" || msg.Message == "" {
		return nil, newError(ErrBadRequest, "missing required fields (name, email, message)")
	}
	if !validation.IsValidEmail(msg.Email) {
		return nil, newError(ErrBadRequest, "invalid email address")
	}

	if err := s.contacts.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.notifyEmail != "" {
		s.mail.Enqueue(ctx, newEmail(models.EmailContactReceived, s.notifyEmail, "", map[string]any{
			"message_id": msg.ID,
			"name":       msg.Name,
			"email":      msg.Email,
			"subject":    msg.Subject,
			"message":    msg.Message,
		}))
	}

	s.log.Info().Str("message_id", msg.ID).Msg("Contact message received")
	return msg, nil
}

func (s *contactService) List(ctx context.Context, filter models.ContactFilter) ([]*models.ContactMessage, int, error) {
	filter.Page = filter.Page.Normalize(20)
	return s.contacts.List(ctx, filter)
}

func (s *contactService) Stats(ctx context.Context) (*models.ContactStats, error) {
	return s.contacts.Stats(ctx)
}

// Thread returns a message with its replies and marks it read
func (s *contactService) Thread(ctx context.Context, id string) (*models.ContactThread, error) {
	msg, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, notFound("message")
	}

	if !msg.IsRead {
		if err := s.contacts.MarkRead(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("message_id", id).Msg("Failed to mark message read")
		} else {
			msg.IsRead = true
			if msg.Status == models.ContactNew {
				msg.Status = models.ContactRead
			}
		}
	}

	replies, err := s.contacts.Replies(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ContactThread{Message: msg, Replies: replies}, nil
}

// Reply records an admin answer, moves the message to replied and emails the sender
func (s *contactService) Reply(ctx context.Context, actor Actor, id string, req *models.ContactReplyRequest) (*models.ContactThread, error) {
	text := strings.TrimSpace(req.ReplyText)
	if text == "" {
		return nil, newError(ErrBadRequest, "reply_text is required")
	}

	reply := &models.ContactReply{MessageID: id, AdminID: actor.UserID, ReplyText: text}
	msg, err := s.contacts.AddReply(ctx, reply)
	if err != nil {
		return nil, notFoundIf(err, "message")
	}

	adminName := ""
	if admin, err := s.users.GetByID(ctx, actor.UserID); err == nil && admin != nil {
		adminName = admin.FullName()
	}
	reply.AdminName = adminName

	s.audit.record(ctx, actor, "reply_message", "contact_message", id, map[string]string{"message_subject": msg.Subject})

	if req.SendEmail == nil || *req.SendEmail {
		firstname, _, _ := strings.Cut(msg.Name, " ")
		s.mail.Enqueue(ctx, newEmail(models.EmailContactReply, msg.Email, msg.Name, map[string]any{
			"firstname":        firstname,
			"reply_message":    text,
			"original_message": msg.Message,
			"admin_name":       adminName,
		}))
	}

	replies, err := s.contacts.Replies(ctx, id)
	if err != nil {
		s.log.Warn().Err(err).Str("message_id", id).Msg("Failed to reload replies")
		replies = []models.ContactReply{*reply}
	}
	return &models.ContactThread{Message: msg, Replies: replies}, nil
}

func (s *contactService) Update(ctx context.Context, actor Actor, id string, u *models.ContactUpdate) (*models.ContactMessage, error) {
	msg, err := s.contacts.Update(ctx, id, u)
	if err != nil {
		return nil, notFoundIf(err, "message")
	}
	s.audit.record(ctx, actor, "update", "contact_message", id, u)
	return msg, nil
}

func (s *contactService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.contacts.Delete(ctx, id); err != nil {
		return notFoundIf(err, "message")
	}
	s.audit.record(ctx, actor, "delete", "contact_message", id, nil)
	return nil
}
