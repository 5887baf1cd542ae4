// -----------------------------------------------------------------------
// Package dispatch delivers trip plans and contact inquiries by email.
// Service is the in-process collaborator; HTTPClient talks to a remote one.
// -----------------------------------------------------------------------

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/common"
	"github.com/ternarybob/serendib/internal/interfaces"
	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/planner"
	"github.com/ternarybob/serendib/internal/services/mailer"
	"github.com/ternarybob/serendib/internal/services/markdown"
	"github.com/ternarybob/serendib/internal/services/pdf"
	"github.com/ternarybob/serendib/internal/services/validation"
	"github.com/ternarybob/serendib/internal/services/workers"
)

// Mailer sends a composed email and returns its Message-ID
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) (string, error)
}

// ItineraryRenderer produces the PDF attached to trip plan emails
type ItineraryRenderer interface {
	RenderItinerary(siteName string, req models.TripPlanRequest, stats planner.Stats, generatedAt time.Time) ([]byte, error)
}

// Service is the in-process email-dispatch collaborator
type Service struct {
	mailer    Mailer
	renderer  ItineraryRenderer
	inquiries interfaces.InquiryStorage
	events    interfaces.EventService
	validator *validation.Service
	markdown  *markdown.Renderer
	limiter   *RateLimiter
	site      common.SiteConfig
	mail      common.MailConfig
	logger    arbor.ILogger
	now       func() time.Time
	pool      *workers.Pool
}

var _ planner.Dispatcher = (*Service)(nil)

// NewService creates the dispatch service. renderer and events may be nil.
func NewService(
	m Mailer,
	renderer ItineraryRenderer,
	inquiries interfaces.InquiryStorage,
	events interfaces.EventService,
	site common.SiteConfig,
	mail common.MailConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		mailer:    m,
		renderer:  renderer,
		inquiries: inquiries,
		events:    events,
		validator: planner.NewFormValidator(),
		markdown:  markdown.NewRenderer(),
		limiter:   NewRateLimiter(mail.RatePerMinute, mail.RateBurst),
		site:      site,
		mail:      mail,
		logger:    logger,
		now:       time.Now,
	}
}

// UseBackgroundPool routes confirmation emails through pool instead of a
// goroutine per message. Call before the service handles requests.
func (s *Service) UseBackgroundPool(pool *workers.Pool) {
	s.pool = pool
}

// Dispatch validates and emails a trip plan to the operator inbox.
// Delivery failures are reported through DispatchResult; the error is only
// set for invalid or rate limited requests.
func (s *Service) Dispatch(ctx context.Context, req models.TripPlanRequest) (*models.DispatchResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	if result, err := s.admit(ctx, req); result != nil {
		return result, err
	}

	stats := planner.ComputeStats(len(req.Places))
	now := s.now()
	body := pdf.ItineraryMarkdown(s.site.Name, req, stats, now)

	msg := mailer.Message{
		To:       []string{s.operatorInbox()},
		ReplyTo:  req.Email,
		Subject:  s.subject(fmt.Sprintf("Trip plan from %s (%d destinations)", req.Name, stats.DestinationCount)),
		TextBody: body,
		HTMLBody: s.emailHTML("New trip plan", body),
	}

	if s.mail.AttachItinerary && s.renderer != nil {
		if data, err := s.renderer.RenderItinerary(s.site.Name, req, stats, now); err != nil {
			s.logger.Warn().Err(err).Msg("Itinerary PDF failed, sending without attachment")
		} else {
			msg.Attachments = append(msg.Attachments, mailer.Attachment{
				Filename:    "trip-plan-" + slugName(req.Name) + ".pdf",
				ContentType: "application/pdf",
				Content:     data,
			})
		}
	}

	inquiry := &models.Inquiry{
		ID:       common.NewID("inq"),
		Kind:     models.InquiryKindTripPlan,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Message:  req.Notes,
		Places:   req.Places,
		ClientIP: ClientIPFromContext(ctx),
	}

	result := s.deliver(ctx, msg, inquiry)
	if result.Success && s.mail.SendConfirmation {
		s.sendConfirmation(req.Email, req.Name, "Your Sri Lanka trip plan", body)
	}
	return result, nil
}

// Contact validates and emails a general inquiry
func (s *Service) Contact(ctx context.Context, req models.ContactRequest) (*models.DispatchResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Subject = strings.TrimSpace(req.Subject)
	if result, err := s.admit(ctx, req); result != nil {
		return result, err
	}

	body := ContactMarkdown(req)
	subject := req.Subject
	if subject == "" {
		subject = "Website inquiry from " + req.Name
	}

	msg := mailer.Message{
		To:       []string{s.operatorInbox()},
		ReplyTo:  req.Email,
		Subject:  s.subject(subject),
		TextBody: body,
		HTMLBody: s.emailHTML("New inquiry", body),
	}

	inquiry := &models.Inquiry{
		ID:       common.NewID("inq"),
		Kind:     models.InquiryKindContact,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Subject:  req.Subject,
		Message:  req.Message,
		TourID:   req.TourID,
		ClientIP: ClientIPFromContext(ctx),
	}

	result := s.deliver(ctx, msg, inquiry)
	if result.Success && s.mail.SendConfirmation {
		s.sendConfirmation(req.Email, req.Name, "We received your message", body)
	}
	return result, nil
}

// admit applies the rate limit and validation shared by every submission
func (s *Service) admit(ctx context.Context, req interface{}) (*models.DispatchResult, error) {
	if ip := ClientIPFromContext(ctx); ip != "" && !s.limiter.Allow(ip) {
		s.logger.Warn().Str("client_ip", ip).Msg("Submission rate limited")
		return &models.DispatchResult{Success: false, Error: ErrRateLimited.Error()}, ErrRateLimited
	}

	if fieldErrors := s.validator.Struct(req); fieldErrors != nil {
		return &models.DispatchResult{Success: false, Error: fieldErrors.Error()}, fieldErrors
	}

	if s.operatorInbox() == "" {
		s.logger.Error().Msg("No operator inbox configured, set [mail] operator_inbox or [site] email")
		return &models.DispatchResult{Success: false, Error: "email delivery is not configured"}, nil
	}

	return nil, nil
}

// deliver sends msg, records the outcome and reports it as a DispatchResult
func (s *Service) deliver(ctx context.Context, msg mailer.Message, inquiry *models.Inquiry) *models.DispatchResult {
	emailID, err := s.mailer.Send(ctx, msg)

	inquiry.CreatedAt = s.now()
	inquiry.Status = models.InquiryStatusSent
	inquiry.EmailID = emailID
	result := &models.DispatchResult{Success: true, EmailID: emailID}
	if err != nil {
		inquiry.Status = models.InquiryStatusFailed
		inquiry.Error = err.Error()
		result = &models.DispatchResult{Success: false, Error: "We could not send your request right now. Please try again shortly."}
	}

	// Use a fresh context so a cancelled request still leaves a record
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if saveErr := s.inquiries.SaveInquiry(saveCtx, inquiry); saveErr != nil {
		s.logger.Error().Err(saveErr).Str("inquiry_id", inquiry.ID).Msg("Failed to record inquiry")
	}

	if s.events != nil {
		_ = s.events.Publish(saveCtx, interfaces.Event{
			Type: interfaces.EventInquirySubmitted,
			Payload: map[string]interface{}{
				"id":     inquiry.ID,
				"kind":   string(inquiry.Kind),
				"status": string(inquiry.Status),
			},
		})
	}

	logEvent := s.logger.Info()
	if err != nil {
		logEvent = s.logger.Error().Err(err)
	}
	logEvent.
		Str("inquiry_id", inquiry.ID).
		Str("kind", string(inquiry.Kind)).
		Str("status", string(inquiry.Status)).
		Str("email_id", emailID).
		Msg("Inquiry processed")

	return result
}

// sendConfirmation mails the traveller a copy. Failures are only logged.
func (s *Service) sendConfirmation(to, name, subject, body string) {
	intro := fmt.Sprintf("Hello %s,\n\nThank you for contacting %s. We will reply within one working day. "+
		"Here is a copy of what you sent us.\n\n---\n\n", escapeMarkdown(name), s.site.Name)
	text := intro + body

	msg := mailer.Message{
		To:       []string{to},
		ReplyTo:  s.operatorInbox(),
		Subject:  s.subject(subject),
		TextBody: text,
		HTMLBody: s.emailHTML(subject, text),
	}

	send := func(ctx context.Context) error {
		if _, err := s.mailer.Send(ctx, msg); err != nil {
			return fmt.Errorf("confirmation to %s: %w", to, err)
		}
		return nil
	}

	if s.pool != nil {
		if err := s.pool.Submit("dispatch-confirmation", send); err != nil {
			s.logger.Warn().Err(err).Str("to", to).Msg("Confirmation email not queued")
		}
		return
	}

	common.SafeGo(s.logger, "dispatch-confirmation", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := send(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Confirmation email failed")
		}
	})
}

func (s *Service) operatorInbox() string {
	if s.mail.OperatorInbox != "" {
		return s.mail.OperatorInbox
	}
	return s.site.Email
}

func (s *Service) subject(subject string) string {
	if s.mail.SubjectPrefix == "" {
		return subject
	}
	return s.mail.SubjectPrefix + " " + subject
}

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family:Helvetica,Arial,sans-serif;color:#1f2933;max-width:640px;margin:0 auto;padding:24px">
<h2 style="color:#0b6e4f">{{.Site}}</h2>
{{.Body}}
<hr style="border:none;border-top:1px solid #e4e7eb;margin-top:32px">
<p style="font-size:12px;color:#7b8794">{{.Site}}{{if .Phone}} &middot; {{.Phone}}{{end}}</p>
</body></html>`))

// emailHTML renders the markdown body inside the branded email layout
func (s *Service) emailHTML(title, body string) string {
	var buf strings.Builder
	err := emailTemplate.Execute(&buf, map[string]interface{}{
		"Title": title,
		"Site":  s.site.Name,
		"Phone": s.site.Phone,
		"Body":  s.markdown.ToTemplateHTML(body),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Email template failed, sending text only")
		return ""
	}
	return buf.String()
}

// IsValidationError reports whether err carries per-field validation messages
func IsValidationError(err error) (validation.FieldErrors, bool) {
	var fieldErrors validation.FieldErrors
	if errors.As(err, &fieldErrors) {
		return fieldErrors, true
	}
	return nil, false
}
