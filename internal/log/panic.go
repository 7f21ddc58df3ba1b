package log

import (
	"bytes"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// Panic adds a recovered panic value and the stack trace to an event:
//
//	defer func() {
//	    if r := recover(); r != nil {
//	        logger.Error().Func(log.Panic(r)).Msg("handler panicked")
//	    }
//	}()
func Panic(thing any) func(e *zerolog.Event) {
	return func(e *zerolog.Event) {
		dict := zerolog.Dict().Any("content", thing)
		stack := debug.Stack()
		lines := bytes.Split(stack, []byte("\n"))
		if len(lines) > 9 {
			lines = lines[9:]
		}
		dict.Bytes("stack_traces", bytes.Join(lines, []byte("\n")))
		e.Dict("panic", dict)
	}
}
