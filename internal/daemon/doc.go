// Package daemon ties the bot transport and reconciliation scheduler into a
// single-instance background process.
package daemon
