package core

import (
	"errors"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type (
	Kind string

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string
		OwnerID     string
		OrderNumber string // optional, free-form voucher number
		Date        time.Time
		Description string
		Reference   string // optional
		Amount      Money  // always positive, Kind carries the sign
		Kind        Kind
		CategoryID  string // empty means unclassified
		CreatedAt   time.Time
	}

	Category struct {
		ID        string
		OwnerID   string
		Name      string
		Kind      Kind
		CreatedAt time.Time
	}

	// BudgetEntry is the planned amount for a category in a calendar month.
	// Month is always normalized to the first day of the month.
	BudgetEntry struct {
		ID         string
		OwnerID    string
		CategoryID string
		Month      time.Time
		Planned    Money // >= 0
		Kind       Kind
	}

	// Settings holds the letterhead data printed on every exported document.
	Settings struct {
		OwnerID     string
		CompanyName string
		Address     string
		LogoURL     string // empty means no logo
		RCCM        string
		NIU         string
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNegativePlanned   = errors.New("planned amount cannot be negative")
	ErrEmptyDescription  = errors.New("empty description")
	ErrInvalidKind       = errors.New("invalid kind")
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrCategoryNameLong  = errors.New("category name too long (max 50 characters)")
	ErrInvalidDate       = errors.New("invalid date")
	ErrCategoryInUse     = errors.New("category is referenced by transactions")
	ErrNotFound          = errors.New("not found")
	ErrSettingsNotLoaded = errors.New("settings not loaded")
)

func (k Kind) Validate() error {
	switch k {
	case KindIncome, KindExpense:
		return nil
	}
	return ErrInvalidKind
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.Kind.Validate()
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyCategoryName
	}
	if len([]rune(name)) > 50 {
		return ErrCategoryNameLong
	}
	return c.Kind.Validate()
}

func (b BudgetEntry) Validate() error {
	if b.CategoryID == "" {
		return errors.New("budget entry requires a category")
	}
	if b.Month.IsZero() {
		return ErrInvalidDate
	}
	if b.Planned.Cents < 0 {
		return ErrNegativePlanned
	}
	return b.Kind.Validate()
}

// MonthStart truncates t to the first day of its calendar month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// WithDefaults fills absent letterhead fields so documents never render blanks.
func (s Settings) WithDefaults() Settings {
	if strings.TrimSpace(s.CompanyName) == "" {
		s.CompanyName = "Ma Caisse"
	}
	return s
}
