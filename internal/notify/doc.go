// Package notify delivers new-season announcements to Telegram chats, with a
// noop fallback when no bot credentials are configured.
package notify
