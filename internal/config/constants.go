package config

import "time"

const (
	// Messages
	MaxMessageLength     = 3900
	SummaryTextLimit     = 500
	CaseSummaryTextLimit = 240
	ReviewerListLimit    = 5

	// Short IDs
	ShortIDLength   = 8
	ShortIDAttempts = 5
	ShortIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// Contact extraction
	MinPhoneDigits = 6

	// Dispatcher
	UserLockTTL  = 30 * time.Second
	UserLockWait = 5 * time.Second

	// Date layout used in status replies
	DateTimeLayout = "02.01.2006 15:04"
)

// ResetCommands clear the session from any state.
var ResetCommands = []string{"/start", "/menu"}

// CategorySpec is one category entry of the catalog.
type CategorySpec struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DefaultCategories apply to every organization.
var DefaultCategories = []CategorySpec{
	{ID: "CAT_BRIBERY", Name: "Взяточничество и коррупция"},
	{ID: "CAT_FRAUD", Name: "Мошенничество"},
	{ID: "CAT_CONFLICT", Name: "Конфликт интересов"},
	{ID: "CAT_HARASS", Name: "Дискриминация/домогательства"},
	{ID: "CAT_PRIVACY", Name: "Нарушение защиты данных"},
	{ID: "CAT_INSIDER", Name: "Использование инсайдерской информации"},
	{ID: "CAT_ABUSE", Name: "Злоупотребление полномочиями"},
	{ID: "CAT_OTHER", Name: "Иное"},
}
