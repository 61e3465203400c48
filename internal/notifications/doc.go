// Package notifications delivers push notifications for capture and server
// events through ntfy. With no topic configured every notification is a no-op.
package notifications
