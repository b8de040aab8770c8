package email

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/smtp"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"Invoicing/Models"
)

// SendEmail delivers message over SMTP, with implicit TLS when configured.
func SendEmail(config Models.EmailConfig, message Models.EmailMessage) error {
	body, err := BuildMessage(config, message, time.Now())
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.SMTPServer)
	}

	var recipients []string
	recipients = append(recipients, message.To...)
	recipients = append(recipients, message.CC...)
	if config.ArchiveBCC != "" {
		recipients = append(recipients, config.ArchiveBCC)
	}
	if len(recipients) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	serverAddr := fmt.Sprintf("%s:%d", config.SMTPServer, config.SMTPPort)

	if !config.TLSEnabled {
		return smtp.SendMail(serverAddr, auth, config.FromEmail, recipients, body)
	}

	conn, err := tls.Dial("tcp", serverAddr, &tls.Config{ServerName: config.SMTPServer})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, config.SMTPServer)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err = client.Mail(config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, recipient := range recipients {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data connection: %w", err)
	}
	if _, err = w.Write(body); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data connection: %w", err)
	}
	return client.Quit()
}

// BuildMessage renders the RFC 5322 message. The text is a single part or
// multipart/alternative, wrapped in multipart/mixed when there are attachments.
func BuildMessage(config Models.EmailConfig, message Models.EmailMessage, now time.Time) ([]byte, error) {
	headers := map[string]string{
		"From":         (&mailAddress{config.FromName, config.FromEmail}).String(),
		"To":           strings.Join(message.To, ", "),
		"Subject":      mime.QEncoding.Encode("utf-8", message.Subject),
		"Date":         now.Format(time.RFC1123Z),
		"MIME-Version": "1.0",
	}
	if len(message.CC) > 0 {
		headers["Cc"] = strings.Join(message.CC, ", ")
	}
	if message.InvoiceNumber != "" {
		headers["X-Invoice-Number"] = message.InvoiceNumber
	}

	textHeader, text, err := bodyEntity(message)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if len(message.Attachments) == 0 {
		for k, v := range textHeader {
			headers[k] = v[0]
		}
		writeHeaders(&buf, headers)
		buf.Write(text)
		return buf.Bytes(), nil
	}

	var parts bytes.Buffer
	mw := multipart.NewWriter(&parts)
	headers["Content-Type"] = "multipart/mixed; boundary=" + mw.Boundary()

	textPart, err := mw.CreatePart(textHeader)
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write(text); err != nil {
		return nil, err
	}

	for _, a := range message.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("%s; name=%q", contentType, a.Filename)},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", a.Filename)},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64Lines(part, a.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	writeHeaders(&buf, headers)
	buf.Write(parts.Bytes())
	return buf.Bytes(), nil
}

type textBody struct {
	contentType, body string
}

// bodyEntity renders the message text with the headers describing it.
func bodyEntity(message Models.EmailMessage) (textproto.MIMEHeader, []byte, error) {
	var bodies []textBody
	if message.TextBody != "" {
		bodies = append(bodies, textBody{"text/plain; charset=UTF-8", message.TextBody})
	}
	if message.HTMLBody != "" {
		bodies = append(bodies, textBody{"text/html; charset=UTF-8", message.HTMLBody})
	}

	var buf bytes.Buffer
	switch len(bodies) {
	case 0:
		return nil, nil, fmt.Errorf("email has no body")
	case 1:
		if err := writeQuotedPrintable(&buf, bodies[0].body); err != nil {
			return nil, nil, err
		}
		return textproto.MIMEHeader{
			"Content-Type":              {bodies[0].contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		}, buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	for _, b := range bodies {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {b.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, nil, err
		}
		if err := writeQuotedPrintable(part, b.body); err != nil {
			return nil, nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, nil, err
	}
	return textproto.MIMEHeader{"Content-Type": {"multipart/alternative; boundary=" + mw.Boundary()}}, buf.Bytes(), nil
}

type mailAddress struct {
	name, email string
}

func (a *mailAddress) String() string {
	if a.name == "" {
		return a.email
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", a.name), a.email)
}

func writeHeaders(buf *bytes.Buffer, headers map[string]string) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s: %s\r\n", k, headers[k])
	}
	buf.WriteString("\r\n")
}

func writeQuotedPrintable(w io.Writer, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

func writeBase64Lines(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		if _, err := fmt.Fprintf(w, "%s\r\n", encoded[:76]); err != nil {
			return err
		}
		encoded = encoded[76:]
	}
	_, err := fmt.Fprintf(w, "%s\r\n", encoded)
	return err
}
