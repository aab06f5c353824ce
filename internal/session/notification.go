package session

import "time"

const notificationTTL = 3 * time.Second

type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is the transient banner shown after a scan. It replaces any
// pending notification together with that notification's dismiss timer; the
// timer handle lives on the controller, never in package state.
type Notification struct {
	Text string
	Kind NotificationKind
	seq  uint64
}
