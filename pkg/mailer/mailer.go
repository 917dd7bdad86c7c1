package mailer

import "context"

// Attachment is a file included with an outbound message, content base64-encoded.
type Attachment struct {
	Filename    string
	ContentType string
	Content     string
}

// Message is a single outbound email. Recipients go on the BCC list so bulk
// sends never leak addresses to each other.
type Message struct {
	Subject     string
	HTMLContent string
	TextContent string
	Recipients  []string
	Attachments []Attachment
}

// Mailer delivers messages through a configured backend.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
