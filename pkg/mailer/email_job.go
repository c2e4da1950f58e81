package mailer

// Job types understood by the email worker.
const (
	TypeWelcome = "welcome"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Text is the fallback body; HTML is optional.
type EmailJob struct {
	To      string         `json:"to"`
	Type    string         `json:"type"`
	Subject string         `json:"subject,omitempty"`
	Text    string         `json:"text,omitempty"`
	HTML    string         `json:"html,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}
