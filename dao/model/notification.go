package model

import (
	"time"

	"gorm.io/gorm"
)

type NotificationKind string

const (
	NotificationRequestAccess     NotificationKind = "request_access"
	NotificationRequestAccepted   NotificationKind = "request_accepted"
	NotificationInvitation        NotificationKind = "invitation"
	NotificationInvitationNewUser NotificationKind = "invitation_new_user"
	NotificationEmailVerification NotificationKind = "email_verification"
)

// Notification is an outbox row. Rows are inserted inside the same
// transaction as the membership transition that caused them, and
// delivered by a background worker afterwards. Delivery is
// at-least-once; a delivery failure bumps Attempts and is retried on
// the next sweep, it never affects the transition that enqueued it.
type Notification struct {
	gorm.Model
	Kind      NotificationKind `gorm:"type:varchar(32);not null;index"`
	Recipient string           `gorm:"type:varchar(254);not null"`
	Subject   string           `gorm:"type:varchar(254);not null"`
	Body      string           `gorm:"type:text;not null"`
	Attempts  int              `gorm:"not null;default:0"`
	LastError *string          `gorm:"type:text"`
	SentAt    *time.Time       `gorm:"index"`
}
