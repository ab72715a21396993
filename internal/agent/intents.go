package agent

import "strings"

// Intent is a structured action carried by a quick-reply or postback payload.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentGetStarted
	IntentMainMenu
	IntentClinicHours
	IntentAppointment
	IntentHealthConcern
	IntentConcern
	IntentEmergency
	IntentContact
	IntentTalkToAdmin
)

const concernPrefix = "CONCERN_"

// ParseIntent maps a raw postback payload to an intent. For concern
// payloads ("CONCERN_FEVER") the second return value names the concern.
func ParseIntent(payload string) (Intent, string) {
	switch payload {
	case "GET_STARTED":
		return IntentGetStarted, ""
	case "MAIN_MENU":
		return IntentMainMenu, ""
	case "CLINIC_HOURS":
		return IntentClinicHours, ""
	case "APPOINTMENT":
		return IntentAppointment, ""
	case "HEALTH_CONCERN":
		return IntentHealthConcern, ""
	case "EMERGENCY":
		return IntentEmergency, ""
	case "CONTACT":
		return IntentContact, ""
	case "TALK_TO_ADMIN":
		return IntentTalkToAdmin, ""
	}
	if strings.HasPrefix(payload, concernPrefix) {
		return IntentConcern, strings.ToLower(strings.TrimPrefix(payload, concernPrefix))
	}
	return IntentUnknown, ""
}
