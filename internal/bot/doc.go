// Package bot implements the Telegram command surface: update transport,
// guided add and update dialogs, and list rendering.
package bot
