package mailer

import (
	"bytes"
	"fmt"
	"io"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// Compose renders msg as an RFC 5322 message. Bodies go into a
// multipart/alternative section followed by any attachments.
func Compose(config *Config, msg Message, now time.Time) ([]byte, string, error) {
	if msg.HTMLBody == "" && msg.TextBody == "" {
		return nil, "", fmt.Errorf("email has no body")
	}

	to := make([]*mail.Address, 0, len(msg.To))
	for _, addr := range msg.To {
		parsed, err := netmail.ParseAddress(addr)
		if err != nil {
			return nil, "", fmt.Errorf("invalid recipient %q: %w", addr, err)
		}
		to = append(to, parsed)
	}

	var h mail.Header
	h.SetDate(now)
	h.SetSubject(msg.Subject)
	h.SetAddressList("From", []*mail.Address{{Name: config.FromName, Address: config.From}})
	h.SetAddressList("To", to)
	if msg.ReplyTo != "" {
		replyTo, err := netmail.ParseAddress(msg.ReplyTo)
		if err != nil {
			return nil, "", fmt.Errorf("invalid reply-to %q: %w", msg.ReplyTo, err)
		}
		h.SetAddressList("Reply-To", []*mail.Address{replyTo})
	}
	if err := h.GenerateMessageID(); err != nil {
		return nil, "", fmt.Errorf("failed to generate message id: %w", err)
	}
	messageID, err := h.MessageID()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read message id: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create mail writer: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create body section: %w", err)
	}
	if msg.TextBody != "" {
		if err := writeInline(tw, "text/plain", msg.TextBody); err != nil {
			return nil, "", err
		}
	}
	if msg.HTMLBody != "" {
		if err := writeInline(tw, "text/html", msg.HTMLBody); err != nil {
			return nil, "", err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close body section: %w", err)
	}

	for _, att := range msg.Attachments {
		if err := writeAttachment(mw, att); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish message: %w", err)
	}

	return buf.Bytes(), messageID, nil
}

func writeInline(tw *mail.InlineWriter, contentType, body string) error {
	var h mail.InlineHeader
	h.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	w, err := tw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("failed to write %s part: %w", contentType, err)
	}
	return w.Close()
}

func writeAttachment(mw *mail.Writer, att Attachment) error {
	contentType := att.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var h mail.AttachmentHeader
	h.SetContentType(contentType, nil)
	h.Set("Content-Transfer-Encoding", "base64")
	h.SetFilename(sanitizeFilename(att.Filename))

	w, err := mw.CreateAttachment(h)
	if err != nil {
		return fmt.Errorf("failed to create attachment %s: %w", att.Filename, err)
	}
	if _, err := w.Write(att.Content); err != nil {
		return fmt.Errorf("failed to write attachment %s: %w", att.Filename, err)
	}
	return w.Close()
}

func sanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "attachment"
	}
	return name
}
