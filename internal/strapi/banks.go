package strapi

import (
	"context"
)

// BankUsers returns the banks-data entries with their users, dashboards and deposits.
func (c *Client) BankUsers(ctx context.Context) ([]BankEntry, error) {
	const path = "/banks-data?populate=users_permissions_users.dashboard.deposits"
	var resp collection[BankEntry]
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if err := c.check(path, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// TransactionForms returns the transaction forms of the first banks-data entry.
// An empty collection yields no forms.
func (c *Client) TransactionForms(ctx context.Context) ([]TransactionForm, error) {
	const path = "/banks-data?populate=transactions_forms"
	var resp collection[BankEntry]
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if err := c.check(path, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return []TransactionForm{}, nil
	}
	return resp.Data[0].TransactionForms, nil
}

// CreateTransactionForm submits a deposit or withdrawal request.
func (c *Client) CreateTransactionForm(ctx context.Context, form TransactionForm) (*TransactionForm, error) {
	const path = "/transactions-forms"
	var resp single[TransactionForm]
	if err := c.Post(ctx, path, single[TransactionForm]{Data: form}, &resp); err != nil {
		return nil, err
	}
	if err := c.check(path, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Contact returns the contact entry with its owner.
func (c *Client) Contact(ctx context.Context) (*Contact, error) {
	const path = "/contact?populate=*"
	var resp single[Contact]
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if err := c.check(path, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
