// Package storage persists the bot's small amount of state.
//
// It currently supports:
//   - Broadcast audit appends (one record per dispatch)
//   - The Telegram subscriber registry (chat ids that sent /start)
package storage
