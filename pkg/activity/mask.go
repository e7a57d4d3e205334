package activity

import (
	"strings"

	masker "github.com/goliatone/go-masker"
)

var piiFields = []string{
	"email", "purchaser_email", "actor_email", "owner_email", "phone_number",
}

func init() {
	// Register attendee-identifying fields so masking uses sane defaults.
	for _, field := range piiFields {
		masker.Default.RegisterMaskField(field, "preserveEnds(2,2)")
	}
}

// MaskEmail obscures the bulk of an address while keeping enough of it to
// correlate log lines. Activity records carry the masked form only.
func MaskEmail(value string) string {
	if value == "" {
		return ""
	}
	if masked, err := masker.Default.String("preserveEnds(2,2)", value); err == nil {
		return masked
	}
	// Fallback masking if no rule is registered.
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}
