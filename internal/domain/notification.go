package domain

// NoticeLevel is the severity of a user-facing toast.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notification is a transient message shown to the user.
type Notification struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}
