package core

import (
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	Forint Currency = "Ft"
	Dollar Currency = "$"
	Euro   Currency = "€"

	DefaultCurrency = Forint
)

const (
	MaxUsernameLen     = 150
	MaxCategoryNameLen = 50
	MaxTitleLen        = 100
	MaxGoalNameLen     = 100
	MinPasswordLen     = 8
)

// DefaultCategories are seeded for every newly registered account.
var DefaultCategories = []string{"Salary", "Food", "Rent", "Books", "Party"}

type (
	TransactionType string

	Currency string

	User struct {
		ID           int64      `json:"id"`
		Username     string     `json:"username"`
		Email        string     `json:"email"`
		PasswordHash string     `json:"-"`
		IsActive     bool       `json:"is_active"`
		IsStaff      bool       `json:"is_staff"`
		IsSuperuser  bool       `json:"is_superuser"`
		DateJoined   time.Time  `json:"date_joined"`
		LastLogin    *time.Time `json:"last_login,omitempty"`
	}

	// Profile holds per-user display preferences; exactly one per user.
	Profile struct {
		UserID   int64    `json:"user_id"`
		Currency Currency `json:"currency"`
	}

	Category struct {
		ID     int64  `json:"id"`
		UserID int64  `json:"-"`
		Name   string `json:"name"`
	}

	Transaction struct {
		ID           int64           `json:"id"`
		UserID       int64           `json:"-"`
		CategoryID   *int64          `json:"category_id"`
		CategoryName string          `json:"category,omitempty"`
		Title        string          `json:"title"`
		Amount       Money           `json:"amount"`
		Type         TransactionType `json:"transaction_type"`
		Date         Date            `json:"date"`
		CreatedAt    time.Time       `json:"created_at"`
	}

	// TransactionInput carries the user-editable transaction fields; an update
	// overwrites all of them.
	TransactionInput struct {
		Title      string
		Amount     Money
		Type       TransactionType
		Date       Date
		CategoryID *int64
	}

	// Registration is the sign-up form.
	Registration struct {
		Username        string
		Email           string
		Password        string
		ConfirmPassword string
	}

	// UserUpdate is what an administrator may change on another account.
	UserUpdate struct {
		Username string
		Email    string
		IsActive bool
	}
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToUpper(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	default:
		return "", ErrInvalidType
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseCurrency accepts only the enumerated currency codes.
func ParseCurrency(s string) (Currency, error) {
	switch c := Currency(strings.TrimSpace(s)); c {
	case Forint, Dollar, Euro:
		return c, nil
	default:
		return "", ErrInvalidCurrency
	}
}

// Currencies lists the selectable codes in display order.
func Currencies() []Currency {
	return []Currency{Forint, Dollar, Euro}
}

func (c Category) Validate() error {
	return ValidateCategoryName(c.Name)
}

func ValidateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Invalid("name", "this field is required")
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLen {
		return Invalid("name", "ensure this value has at most 50 characters")
	}
	return nil
}

func (in TransactionInput) Validate() error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Invalid("title", "this field is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return Invalid("title", "ensure this value has at most 100 characters")
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return ErrInvalidType
	}
	if err := in.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (r Registration) Validate() error {
	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if r.Password != r.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return ValidatePassword(r.Password)
}

func (u UserUpdate) Validate() error {
	if err := ValidateUsername(u.Username); err != nil {
		return err
	}
	return ValidateEmail(u.Email)
}

// ValidateUsername allows letters, digits and @/./+/-/_ up to 150 characters.
func ValidateUsername(username string) error {
	if username == "" {
		return Invalid("username", "this field is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLen {
		return Invalid("username", "ensure this value has at most 150 characters")
	}
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@.+-_", r) {
			continue
		}
		return Invalid("username", "enter a valid username; letters, digits and @/./+/-/_ only")
	}
	return nil
}

// ValidateEmail accepts an empty email, like the account model it replaces.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return Invalid("email", "enter a valid email address")
	}
	return nil
}

func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return Invalid("password", "this password is too short; it must contain at least 8 characters")
	}
	numeric := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return Invalid("password", "this password is entirely numeric")
	}
	return nil
}

// RequireSuperuser is the capability check for account administration. It is
// independent of the per-resource ownership scoping done in storage.
func RequireSuperuser(actor User) error {
	if !actor.IsActive || !actor.IsSuperuser {
		return ErrPermissionDenied
	}
	return nil
}
