// Package translator maps service names to stable, user-facing failure messages.
package translator

// DefaultMessage is returned for any service without a dedicated entry.
const DefaultMessage = "We're experiencing technical difficulties. Our team has been notified and is working to resolve the issue."

var builtinMessages = map[string]string{
	"api-gateway":     "Our main service gateway is temporarily unavailable. Please try again later.",
	"bus-booking":     "We're experiencing issues with our bus booking system. Please try again in a few minutes.",
	"bus-service":     "We're having trouble accessing bus information. Please check back soon.",
	"user-service":    "We're unable to process user requests at the moment. Please try again later.",
	"agent-service":   "Our agent support system is temporarily unavailable. Please try again shortly.",
	"booking-service": "We're experiencing issues with our booking system. Please try again in a few minutes.",
}

// Translator is an immutable per-service message table. It never looks at
// the failure itself, so the same service always yields the same message.
type Translator struct {
	messages       map[string]string
	defaultMessage string
}

// New builds a translator from the builtin table plus overrides.
// A "default" key in overrides replaces DefaultMessage.
func New(overrides map[string]string) *Translator {
	messages := make(map[string]string, len(builtinMessages)+len(overrides))
	for name, msg := range builtinMessages {
		messages[name] = msg
	}

	defaultMessage := DefaultMessage
	for name, msg := range overrides {
		if msg == "" {
			continue
		}
		if name == "default" {
			defaultMessage = msg
			continue
		}
		messages[name] = msg
	}

	return &Translator{
		messages:       messages,
		defaultMessage: defaultMessage,
	}
}

// Translate returns the user-facing message for serviceName.
func (t *Translator) Translate(serviceName string) string {
	if msg, ok := t.messages[serviceName]; ok {
		return msg
	}
	return t.defaultMessage
}
