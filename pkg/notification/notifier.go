package notification

// NotificationSystem represents a delivery channel (e.g. email, sms)
type NotificationSystem string

// NoticeType represents a kind of notice (e.g. "account_verification")
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"
	SMSSystem   NotificationSystem = "sms"

	// AccountVerificationNotice is the notice carrying the verification link
	AccountVerificationNotice NoticeType = "account_verification"
)

// NotificationData is the payload handed to a notifier
type NotificationData struct {
	To      string            // Recipient identifier (e.g. email address, phone number)
	Subject string            // Optional subject override
	Body    string            // Optional pre-rendered body
	Data    map[string]string // Template data (e.g. VerificationLink)
}

// NoticeTemplate holds the subject and body templates for a notice
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// Notifier delivers a rendered notice over one channel
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
