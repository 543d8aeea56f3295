package remote

import "strings"

const baseInstructions = "To answer questions, just speak clearly after I ask each question. You can also say 'edit [field name]' to change a field, or 'submit' when you're done."

var welcomeMessages = map[string]string{
	"passport": "Welcome to the Passport application form! I'm your FormEase assistant, and I'll help you complete this form using voice commands. " + baseInstructions,
	"aadhaar":  "Welcome to the Aadhaar application form! I'm your FormEase assistant here to guide you through each section of this form. " + baseInstructions,
	"voterid":  "Welcome to the Voter ID application form! I'm your FormEase assistant here to help you complete this form using voice commands. " + baseInstructions,
	"default":  "Welcome to FormEase! I'm your digital assistant, ready to help you complete your form using voice commands. " + baseInstructions,
}

// DefaultWelcomeMessage returns the static per-form greeting used when the
// remote service cannot generate one.
func DefaultWelcomeMessage(formCode string) string {
	if msg, ok := welcomeMessages[strings.ToLower(formCode)]; ok {
		return msg
	}
	return welcomeMessages["default"]
}
