package Models

// EmailConfig is the SMTP account invoice mail goes out from.
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	Username   string
	Password   string
	FromEmail  string
	FromName   string
	TLSEnabled bool
	// ArchiveBCC gets a blind copy of every message when set.
	ArchiveBCC string
}

// EmailMessage is one mail about an invoice. With both bodies set it is
// sent as multipart/alternative, text first.
type EmailMessage struct {
	To            []string
	CC            []string
	Subject       string
	TextBody      string
	HTMLBody      string
	InvoiceNumber string
	Attachments   []Attachment
}

// Attachment is usually the invoice PDF.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}
