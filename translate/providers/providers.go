// Package providers holds the pieces shared by the concrete translation
// providers: HTTP status classification and the translation prompt.
package providers

import (
	"net/http"
	"strings"

	"github.com/alouette/alouette/backend"
)

// KindForStatus maps an HTTP status to a failure kind so the retry layer
// can tell a missing model from a busy server.
func KindForStatus(status int) backend.Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return backend.KindAuthFailure
	case status == http.StatusNotFound || status == http.StatusBadRequest:
		return backend.KindInvalidInput
	case status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable:
		return backend.KindBusy
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return backend.KindTimeout
	case status >= 500:
		return backend.KindUnavailable
	default:
		return backend.KindUnknown
	}
}

// TranslationPrompt builds the system prompt for one translation. The
// model is told to answer with the translation alone so the response can
// be used verbatim.
func TranslationPrompt(source, target string) string {
	var b strings.Builder
	b.WriteString("You are a translation engine. Translate the user's text")
	if source != "" {
		b.WriteString(" from ")
		b.WriteString(source)
	}
	b.WriteString(" into ")
	b.WriteString(target)
	b.WriteString(". Respond with the translation only, no explanations or quotes.")
	return b.String()
}
