package v1

import "strings"

// sanitizeValidationError returns a client-safe message for binding errors.
// Raw decoder and validator messages expose internal structure.
func sanitizeValidationError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if strings.Contains(msg, "validation") ||
		strings.Contains(msg, "cannot unmarshal") ||
		strings.Contains(msg, "invalid character") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "Key:") {
		return msgInvalidRequest
	}
	if len(msg) < 100 && !strings.Contains(msg, "Error:") {
		return msg
	}
	return msgInvalidRequest
}
