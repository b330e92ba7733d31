package mailer

import (
	"html"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/folio/internal/htmlsanitize"
)

// Contact is a contact form submission.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Normalize trims fields and strips markup.
func (c Contact) Normalize() Contact {
	return Contact{
		Name:    htmlsanitize.StripTags(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Subject: htmlsanitize.StripTags(c.Subject),
		Message: htmlsanitize.StripTags(c.Message),
	}
}

// Validate checks required fields and limits.
func (c Contact) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&c.Email, validation.Required, is.EmailFormat),
		validation.Field(&c.Subject, validation.Length(0, 200)),
		validation.Field(&c.Message, validation.Required, validation.Length(1, 5000)),
	)
}

// ToEmail addresses the submission to the site owner with Reply-To set to the
// visitor.
func (c Contact) ToEmail(to string) Email {
	subject := c.Subject
	if subject == "" {
		subject = "New message"
	}
	text := "From: " + c.Name + " <" + c.Email + ">\n\n" + c.Message
	body := "<p><strong>" + html.EscapeString(c.Name) + "</strong> &lt;" + html.EscapeString(c.Email) + "&gt;</p>" +
		"<p>" + strings.ReplaceAll(html.EscapeString(c.Message), "\n", "<br>") + "</p>"
	return Email{
		To:       to,
		ReplyTo:  c.Email,
		Subject:  "[contact] " + subject,
		TextBody: text,
		HTMLBody: body,
	}
}
