// Package services defines the shared error taxonomy used across the bot.
//
// Command handlers map sentinels to user-facing chat text; the reconciler
// logs them and continues its cycle.
package services
