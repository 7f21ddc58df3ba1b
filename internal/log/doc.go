// Package log builds the zerolog loggers used by the commands.
package log
