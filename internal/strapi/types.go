package strapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Date is a calendar date as Strapi encodes it (YYYY-MM-DD). It carries no timezone.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// datetime fields are accepted too, only the date part is kept
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Role is a users-permissions role.
type Role struct {
	ID          int    `json:"id" validate:"required"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Deposit is a single deposit booked on a dashboard.
type Deposit struct {
	ID          int             `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	DepositDate Date            `json:"deposit_date"`
}

// Dashboard is the per-user balance projection.
type Dashboard struct {
	ID       int             `json:"id"`
	Balance  decimal.Decimal `json:"balance"`
	Deposits []Deposit       `json:"deposits" validate:"dive"`
}

// User is a users-permissions user with the custom profile fields.
type User struct {
	ID                 int        `json:"id" validate:"required"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	Confirmed          bool       `json:"confirmed"`
	Blocked            bool       `json:"blocked"`
	RecommenderID      string     `json:"recommenderId"`
	Name               string     `json:"name"`
	Surname            string     `json:"surname"`
	ResidentialAddress string     `json:"residentialAddress"`
	Role               *Role      `json:"role,omitempty"`
	Dashboard          *Dashboard `json:"dashboard,omitempty"`
}

// RoleID returns the id of the user's role, or 0 if the role was not populated.
func (u *User) RoleID() int {
	if u.Role == nil {
		return 0
	}
	return u.Role.ID
}

// TransactionType is the type tag of a transaction form.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// TransactionForm is a deposit or withdrawal request submitted by a user.
type TransactionForm struct {
	ID                int             `json:"id,omitempty"`
	IBAN              string          `json:"iban"`
	BIC               string          `json:"bic,omitempty"`
	BankName          string          `json:"bank_name,omitempty"`
	AccountHolderName string          `json:"account_holder_name,omitempty"`
	Type              TransactionType `json:"type" validate:"omitempty,oneof=deposit withdrawal"`
	RecommenderID     string          `json:"recommenderId"`
}

// BankEntry is one entry of the banks-data collection.
type BankEntry struct {
	ID               int               `json:"id" validate:"required"`
	Users            []User            `json:"users_permissions_users" validate:"dive"`
	TransactionForms []TransactionForm `json:"transactions_forms" validate:"dive"`
}

// Contact is the single contact entry.
type Contact struct {
	TelegramGroup string `json:"TelegramGroup"`
	Owner         *User  `json:"users_permissions_user,omitempty"`
}

// AuthResponse is the answer of the sign-in and register endpoints.
type AuthResponse struct {
	JWT  string `json:"jwt" validate:"required"`
	User User   `json:"user"`
}

type collection[T any] struct {
	Data []T `json:"data" validate:"dive"`
}

type single[T any] struct {
	Data T `json:"data"`
}
