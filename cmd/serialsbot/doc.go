// Command serialsbot runs the series-tracking Telegram bot and its
// supporting utilities.
package main
