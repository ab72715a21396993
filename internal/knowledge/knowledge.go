// Package knowledge holds the static clinic facts, canned replies and keyword
// tables the responder works from. The compiled-in defaults describe the school
// clinic; deployments can overlay any subset from a yaml file.
package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category identifies one deterministic reply category.
type Category string

const (
	CategoryGreeting    Category = "greeting"
	CategoryLocation    Category = "location"
	CategoryHours       Category = "hours"
	CategoryDoctor      Category = "doctor"
	CategoryDentist     Category = "dentist"
	CategoryMedicines   Category = "medicines"
	CategoryExtraction  Category = "extraction"
	CategoryCertificate Category = "certificate"
	CategoryEmergency   Category = "emergency"
	CategoryReferral    Category = "referral"
	CategoryServices    Category = "services"
	CategoryDefault     Category = "default"
)

// Reply keys that are not matcher categories but share the reply table.
const (
	ReplyWelcome      Category = "welcome"
	ReplyMenuPrompt   Category = "menu_prompt"
	ReplyConcernMenu  Category = "concern_menu"
	ReplyHandoffAck   Category = "handoff_ack"
	ReplyReactivated  Category = "reactivated"
	ReplyApology      Category = "apology"
	ReplyGoodbye      Category = "goodbye"
	ReplyAdviceFooter Category = "advice_footer"
)

// OrderedCategories is the match order for the deterministic responder.
// Order matters: categories are not mutually exclusive. The responder applies
// two suppression rules on top of this order: hours loses to doctor/dentist,
// and greeting loses to any other matched category.
var OrderedCategories = []Category{
	CategoryGreeting,
	CategoryLocation,
	CategoryHours,
	CategoryDoctor,
	CategoryDentist,
	CategoryMedicines,
	CategoryExtraction,
	CategoryCertificate,
	CategoryEmergency,
	CategoryReferral,
	CategoryServices,
}

// ClinicInfo is the fact sheet about the clinic itself.
type ClinicInfo struct {
	WeekdayHours  string `yaml:"weekday_hours"`
	SaturdayHours string `yaml:"saturday_hours"`
	SundayHours   string `yaml:"sunday_hours"`
	Location      string `yaml:"location"`
	Phone         string `yaml:"phone"`
	Email         string `yaml:"email"`
}

// LanguageProfile configures one detectable language tag.
type LanguageProfile struct {
	Tag       string   `yaml:"tag"`
	Markers   []string `yaml:"markers"`
	Threshold int      `yaml:"threshold"`
}

// MenuItem is one quick-reply button on the main menu.
type MenuItem struct {
	Titles  map[string]string `yaml:"titles"`
	Payload string            `yaml:"payload"`
}

// Pack bundles every piece of static data the core is configured with.
type Pack struct {
	Clinic           ClinicInfo                     `yaml:"clinic"`
	Languages        []LanguageProfile              `yaml:"languages"`
	DefaultLanguage  string                         `yaml:"default_language"`
	Replies          map[Category]map[string]string `yaml:"replies"`
	Advice           map[string]map[string]string   `yaml:"advice"`
	CategoryKeywords map[Category][]string          `yaml:"category_keywords"`
	ConcernKeywords  map[string][]string            `yaml:"concern_keywords"`
	AdminKeywords    []string                       `yaml:"admin_keywords"`
	FarewellKeywords []string                       `yaml:"farewell_keywords"`
	Menu             []MenuItem                     `yaml:"menu"`
}

// Reply returns the canned reply for a category in the given language,
// falling back to the default language.
func (p *Pack) Reply(cat Category, lang string) string {
	byLang, ok := p.Replies[cat]
	if !ok {
		byLang = p.Replies[CategoryDefault]
	}
	if text, ok := byLang[lang]; ok {
		return text
	}
	return byLang[p.DefaultLanguage]
}

// AdviceFor returns the pre-authored advice for a health concern, or "" when
// the concern is unknown.
func (p *Pack) AdviceFor(concern, lang string) string {
	byLang, ok := p.Advice[concern]
	if !ok {
		return ""
	}
	if text, ok := byLang[lang]; ok {
		return text
	}
	return byLang[p.DefaultLanguage]
}

// MenuTitle returns a menu item's button title in the given language.
func (m MenuItem) Title(lang, fallback string) string {
	if t, ok := m.Titles[lang]; ok {
		return t
	}
	return m.Titles[fallback]
}

// FactSheet renders the clinic facts as prompt context for generative models.
func (p *Pack) FactSheet() string {
	c := p.Clinic
	return fmt.Sprintf(
		"School clinic facts:\n"+
			"- Hours: Mon-Fri %s, Sat %s, Sun %s\n"+
			"- Location: %s\n"+
			"- Phone: %s\n"+
			"- Email: %s\n"+
			"- Services: general consultation, dental check-up and tooth extraction, "+
			"free basic medicines, medical certificates, hospital referrals",
		c.WeekdayHours, c.SaturdayHours, c.SundayHours, c.Location, c.Phone, c.Email)
}

// Load returns the default pack overlaid with values from a yaml file.
// An empty path returns the defaults unchanged.
func Load(path string) (*Pack, error) {
	pack := Default()
	if path == "" {
		return pack, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge pack: %w", err)
	}
	if err := yaml.Unmarshal(data, pack); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge pack: %w", err)
	}
	return pack, nil
}
