package events

import "time"

// VerificationEmail is the queued work item consumed by the mail relay.
// The JSON shape {to, subject, text, html} is what the relay reads.
type VerificationEmail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// AccountRegistered is logged once per successful registration.
type AccountRegistered struct {
	AccountID string    `json:"accountId"`
	Email     string    `json:"email"`
	At        time.Time `json:"at"`
}

const VerificationSubject = "Verify Your Email"

// NewVerificationEmail renders the message that carries the verification link.
func NewVerificationEmail(to, link string) VerificationEmail {
	return VerificationEmail{
		To:      to,
		Subject: VerificationSubject,
		Text:    "Click the link to verify your email: " + link,
		HTML:    `<p>Click <a href="` + link + `">here</a> to verify your email.</p>`,
	}
}
