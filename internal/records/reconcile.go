// Package records builds the bank-record table: deposit rows of every user
// dashboard joined with the transaction form submitted under the same
// recommender id.
package records

import (
	"github.com/minecom/minedash/internal/strapi"
	"github.com/minecom/minedash/internal/table"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Placeholder is shown for bank details that could not be matched.
const Placeholder = "-"

// Row is one deposit of one user, with the bank details of the matched transaction form.
type Row struct {
	UserID            int             `json:"userId"`
	Username          string          `json:"username"`
	Email             string          `json:"email"`
	RecommenderID     string          `json:"recommenderId"`
	Balance           decimal.Decimal `json:"balance"`
	DepositAmount     decimal.Decimal `json:"depositAmount"`
	DepositDate       strapi.Date     `json:"depositDate"`
	IBAN              string          `json:"iban"`
	AccountHolder     string          `json:"accountHolder"`
	TransactionFormID int             `json:"transactionFormId,omitempty"`
}

// Field implements table.Row.
func (r Row) Field(name string) table.Value {
	switch name {
	case "userId", "id":
		return table.Int(r.UserID)
	case "username", "name":
		return table.Text(r.Username)
	case "email":
		return table.Text(r.Email)
	case "recommenderId":
		return table.Text(r.RecommenderID)
	case "balance":
		return table.Number(r.Balance)
	case "depositAmount", "deposit_amount":
		return table.Number(r.DepositAmount)
	case "depositDate", "deposit_date":
		return table.Text(r.DepositDate.String())
	case "iban":
		return table.Text(r.IBAN)
	case "accountHolder", "account_holder":
		return table.Text(r.AccountHolder)
	default:
		return table.Text("")
	}
}

// Reconcile joins every deposit of every user dashboard with the first
// transaction form carrying the user's recommender id. A form is reused for
// all deposits of its user. Users without a dashboard or without deposits
// produce no rows; an empty recommender id never matches.
func Reconcile(entries []strapi.BankEntry, forms []strapi.TransactionForm) []Row {
	byRecommender := lo.KeyBy(
		lo.UniqBy(forms, func(f strapi.TransactionForm) string { return f.RecommenderID }),
		func(f strapi.TransactionForm) string { return f.RecommenderID },
	)

	rows := []Row{}
	for _, entry := range entries {
		for _, user := range entry.Users {
			if user.Dashboard == nil {
				continue
			}
			form, matched := byRecommender[user.RecommenderID]
			matched = matched && user.RecommenderID != ""

			for _, deposit := range user.Dashboard.Deposits {
				row := Row{
					UserID:        user.ID,
					Username:      user.Username,
					Email:         user.Email,
					RecommenderID: user.RecommenderID,
					Balance:       user.Dashboard.Balance,
					DepositAmount: deposit.Amount,
					DepositDate:   deposit.DepositDate,
					IBAN:          Placeholder,
					AccountHolder: Placeholder,
				}
				if matched {
					row.TransactionFormID = form.ID
					row.IBAN = orPlaceholder(form.IBAN)
					row.AccountHolder = orPlaceholder(form.AccountHolderName)
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// UserIDs returns the distinct user ids of rows in order of first appearance.
func UserIDs(rows []Row) []int {
	return lo.Uniq(lo.Map(rows, func(r Row, _ int) int { return r.UserID }))
}
