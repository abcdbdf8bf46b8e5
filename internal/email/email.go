package emails

// Email is a single outbound message handed to SMTP delivery
type Email struct {
	From     string
	To       []string
	Subject  string
	HtmlBody string
}
