package cli

import (
	"errors"
	"strings"
)

// ErrorChain splits a chain of wrapped errors into one message per link.
// Each message has the text contributed by its wrapped cause removed, so
// "failed to create deployment: connection refused" becomes
// ["failed to create deployment", "connection refused"]. Causes wrapped at
// the front of a message, as in "installation not found: no account x", are
// removed the same way.
func ErrorChain(err error) []string {
	var messages []string
	for err != nil {
		msg := err.Error()
		next := errors.Unwrap(err)
		if next != nil {
			own, found := ownMessage(msg, next.Error())
			if found && own == "" {
				err = next
				continue
			}
			if found {
				msg = own
			}
		}
		messages = append(messages, msg)
		err = next
	}
	return messages
}

func ownMessage(msg, cause string) (string, bool) {
	if own, found := strings.CutSuffix(msg, cause); found {
		return strings.TrimRight(own, ": "), true
	}
	if own, found := strings.CutPrefix(msg, cause); found {
		return strings.TrimLeft(own, ": "), true
	}
	return msg, false
}
