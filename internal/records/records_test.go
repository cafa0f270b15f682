package records

import (
	"context"
	"errors"
	"testing"

	"github.com/minecom/minedash/internal/strapi"
	"github.com/minecom/minedash/internal/table"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(t *testing.T, s string) strapi.Date {
	t.Helper()
	d, err := strapi.ParseDate(s)
	require.NoError(t, err)
	return d
}

func user(id int, name, recommender, balance string, amounts ...string) strapi.User {
	deposits := lo.Map(amounts, func(a string, i int) strapi.Deposit {
		return strapi.Deposit{ID: id*100 + i, Amount: dec(a)}
	})
	return strapi.User{
		ID:            id,
		Username:      name,
		RecommenderID: recommender,
		Dashboard:     &strapi.Dashboard{Balance: dec(balance), Deposits: deposits},
	}
}

func rowUserIDs(rows []Row) []int {
	return lo.Map(rows, func(r Row, _ int) int { return r.UserID })
}

func TestReconcile_MatchesByRecommenderID(t *testing.T) {
	entries := []strapi.BankEntry{{
		ID: 1,
		Users: []strapi.User{
			user(1, "alice", "R1", "500", "100", "200", "300"),
			user(2, "bob", "R2", "50", "25", "25"),
		},
	}}
	forms := []strapi.TransactionForm{
		{ID: 9, IBAN: "DE89370400440532013000", AccountHolderName: "Alice A", RecommenderID: "R1"},
	}

	rows := Reconcile(entries, forms)
	require.Len(t, rows, 5)

	for _, r := range rows[:3] {
		assert.Equal(t, "R1", r.RecommenderID)
		assert.Equal(t, "DE89370400440532013000", r.IBAN, "the same form joins every deposit of R1")
		assert.Equal(t, "Alice A", r.AccountHolder)
		assert.Equal(t, 9, r.TransactionFormID)
	}
	for _, r := range rows[3:] {
		assert.Equal(t, "R2", r.RecommenderID)
		assert.Equal(t, Placeholder, r.IBAN)
		assert.Equal(t, Placeholder, r.AccountHolder)
		assert.Zero(t, r.TransactionFormID)
	}
}

func TestReconcile_FirstMatchWins(t *testing.T) {
	entries := []strapi.BankEntry{{ID: 1, Users: []strapi.User{user(1, "alice", "R1", "10", "1", "2")}}}
	forms := []strapi.TransactionForm{
		{ID: 3, IBAN: "FIRST", RecommenderID: "R1"},
		{ID: 4, IBAN: "SECOND", RecommenderID: "R1"},
	}

	rows := Reconcile(entries, forms)
	require.Len(t, rows, 2)
	assert.Equal(t, "FIRST", rows[0].IBAN)
	assert.Equal(t, "FIRST", rows[1].IBAN)
}

func TestReconcile_EmptyFieldsUsePlaceholder(t *testing.T) {
	entries := []strapi.BankEntry{{ID: 1, Users: []strapi.User{user(1, "alice", "R1", "10", "1")}}}
	forms := []strapi.TransactionForm{{ID: 3, RecommenderID: "R1"}}

	rows := Reconcile(entries, forms)
	require.Len(t, rows, 1)
	assert.Equal(t, Placeholder, rows[0].IBAN)
	assert.Equal(t, Placeholder, rows[0].AccountHolder)
	assert.Equal(t, 3, rows[0].TransactionFormID)
}

func TestReconcile_EmptyRecommenderNeverMatches(t *testing.T) {
	entries := []strapi.BankEntry{{ID: 1, Users: []strapi.User{user(1, "alice", "", "10", "1")}}}
	forms := []strapi.TransactionForm{{ID: 3, IBAN: "DE89", RecommenderID: ""}}

	rows := Reconcile(entries, forms)
	require.Len(t, rows, 1)
	assert.Equal(t, Placeholder, rows[0].IBAN)
}

func TestReconcile_SkipsUsersWithoutDeposits(t *testing.T) {
	noDashboard := strapi.User{ID: 3, Username: "carol", RecommenderID: "R3"}
	entries := []strapi.BankEntry{{
		ID: 1,
		Users: []strapi.User{
			user(1, "alice", "R1", "10"),
			noDashboard,
			user(2, "bob", "R2", "10", "5"),
		},
	}}

	rows := Reconcile(entries, nil)
	assert.Equal(t, []int{2}, rowUserIDs(rows))
}

func TestReconcile_KeepsDepositFields(t *testing.T) {
	u := user(1, "alice", "R1", "1250.50", "99.99")
	u.Email = "alice@example.com"
	u.Dashboard.Deposits[0].DepositDate = date(t, "2024-02-29")

	rows := Reconcile([]strapi.BankEntry{{ID: 1, Users: []strapi.User{u}}}, nil)
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "alice@example.com", r.Email)
	assert.True(t, r.Balance.Equal(dec("1250.5")))
	assert.True(t, r.DepositAmount.Equal(dec("99.99")))
	assert.Equal(t, "2024-02-29", r.DepositDate.String())
	assert.Equal(t, "2024-02-29", r.Field("deposit_date").String())
	assert.Equal(t, "99.99", r.Field("depositAmount").String())
}

func TestReconcile_Empty(t *testing.T) {
	rows := Reconcile(nil, nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

type fakeBackend struct {
	entries   []strapi.BankEntry
	forms     []strapi.TransactionForm
	usersErr  error
	formsErr  error
	deleteErr error
	deleted   []int
	calls     int
}

func (f *fakeBackend) BankUsers(ctx context.Context) ([]strapi.BankEntry, error) {
	f.calls++
	return f.entries, f.usersErr
}

func (f *fakeBackend) TransactionForms(ctx context.Context) ([]strapi.TransactionForm, error) {
	return f.forms, f.formsErr
}

func (f *fakeBackend) DeleteUser(ctx context.Context, id int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

var defaults = Defaults{
	FilterField:     "username",
	OrderBy:         "username",
	PageSize:        5,
	PageSizeOptions: []int{5, 10, 25},
}

func backend() *fakeBackend {
	return &fakeBackend{
		entries: []strapi.BankEntry{{
			ID: 1,
			Users: []strapi.User{
				user(1, "carol", "R1", "300", "10", "20"),
				user(2, "alice", "R2", "100", "30"),
				user(3, "bob", "R3", "300", "40"),
				user(4, "dave", "R4", "50", "50"),
			},
		}},
		forms: []strapi.TransactionForm{{ID: 1, IBAN: "DE89", RecommenderID: "R1"}},
	}
}

func TestView_LoadAndPage(t *testing.T) {
	b := backend()
	v := NewView(defaults)

	p := v.Page(table.Query{})
	assert.True(t, p.Loading, "idle view shows the loading placeholder")
	assert.False(t, p.NotFound)

	require.NoError(t, v.Ensure(context.Background(), b))
	require.NoError(t, v.Ensure(context.Background(), b))
	assert.Equal(t, 1, b.calls, "loaded views are not refetched")
	assert.Equal(t, StateLoaded, v.State())

	p = v.Page(table.Query{})
	assert.False(t, p.Loading)
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 5, p.PageSize)
	assert.Equal(t, "username", p.OrderBy)
	assert.Equal(t, []int{2, 3, 1, 1, 4}, rowUserIDs(p.Rows))
}

func TestView_LoadFailure(t *testing.T) {
	for name, b := range map[string]*fakeBackend{
		"users fail": {usersErr: errors.New("boom")},
		"forms fail": {formsErr: errors.New("boom")},
	} {
		t.Run(name, func(t *testing.T) {
			v := NewView(defaults)
			require.Error(t, v.Load(context.Background(), b))
			assert.Equal(t, StateError, v.State())

			p := v.Page(table.Query{})
			assert.Equal(t, LoadErrorMessage, p.Error)
			assert.Empty(t, p.Rows)
			assert.False(t, p.Loading)
		})
	}
}

func TestView_ErrorRecoversOnRefresh(t *testing.T) {
	b := backend()
	b.formsErr = errors.New("timeout")
	v := NewView(defaults)
	require.Error(t, v.Ensure(context.Background(), b))

	b.formsErr = nil
	require.NoError(t, v.Ensure(context.Background(), b))
	assert.Equal(t, StateLoaded, v.State())
	assert.Empty(t, v.Page(table.Query{}).Error)
}

func TestView_NotFoundDistinctFromLoading(t *testing.T) {
	v := NewView(defaults)
	require.NoError(t, v.Load(context.Background(), backend()))

	p := v.Page(table.Query{Filter: "zzz"})
	assert.True(t, p.NotFound)
	assert.False(t, p.Loading)
	assert.False(t, p.NoDeposits)
	assert.Empty(t, p.Rows)
}

func TestView_NoDeposits(t *testing.T) {
	b := &fakeBackend{entries: []strapi.BankEntry{{ID: 1, Users: []strapi.User{user(1, "alice", "R1", "0")}}}}
	v := NewView(defaults)
	require.NoError(t, v.Load(context.Background(), b))

	p := v.Page(table.Query{})
	assert.True(t, p.NoDeposits)
	assert.False(t, p.NotFound)
}

func TestView_FilterChangeResetsPage(t *testing.T) {
	v := NewView(defaults)
	require.NoError(t, v.Load(context.Background(), backend()))

	p := v.Page(table.Query{Page: 1, PageSize: 5})
	assert.Equal(t, 1, p.Page)

	p = v.Page(table.Query{Filter: "a", Page: 1})
	assert.Equal(t, 0, p.Page, "new filter starts on the first page")

	p = v.Page(table.Query{Filter: "a", Page: 1})
	assert.Equal(t, 1, p.Page, "same filter keeps the requested page")
}

func TestView_SetFilterKeepsPage(t *testing.T) {
	v := NewView(defaults)
	require.NoError(t, v.Load(context.Background(), backend()))

	v.SetFilter("a")
	p := v.Page(table.Query{Filter: "a", Page: 1})
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 4, p.Filtered)
	assert.Empty(t, p.Rows)
	assert.Zero(t, p.EmptyRows, "pages past the end are not padded")
	assert.Equal(t, "a", v.Snapshot().Filter)
}

func TestView_BalanceSortReversal(t *testing.T) {
	v := NewView(defaults)
	require.NoError(t, v.Load(context.Background(), backend()))

	asc := v.Page(table.Query{OrderBy: "balance", Order: table.Asc, PageSize: 10})
	desc := v.Page(table.Query{OrderBy: "balance", Order: table.Desc, PageSize: 10})

	// input order: carol(300) carol(300) alice(100) bob(300) dave(50)
	assert.Equal(t, []int{4, 2, 1, 1, 3}, rowUserIDs(asc.Rows))
	assert.Equal(t, []int{1, 1, 3, 2, 4}, rowUserIDs(desc.Rows))
}

func TestView_UnknownPageSizeFallsBack(t *testing.T) {
	v := NewView(defaults)
	require.NoError(t, v.Load(context.Background(), backend()))
	assert.Equal(t, 5, v.Page(table.Query{PageSize: 7}).PageSize)
	assert.Equal(t, 10, v.Page(table.Query{PageSize: 10}).PageSize)
}

func TestView_Delete(t *testing.T) {
	b := backend()
	v := NewView(defaults)
	require.NoError(t, v.Load(context.Background(), b))
	v.Toggle(1)
	v.Toggle(3)

	require.NoError(t, v.Delete(context.Background(), b, 1))
	assert.Equal(t, []int{1}, b.deleted)

	snap := v.Snapshot()
	assert.Equal(t, []int{2, 3, 4}, rowUserIDs(snap.Rows), "remaining rows keep their order")
	assert.Equal(t, []int{3}, snap.Selected)
}

func TestView_DeleteFailureLeavesState(t *testing.T) {
	b := backend()
	v := NewView(defaults)
	require.NoError(t, v.Load(context.Background(), b))
	before := v.Snapshot()

	b.deleteErr = errors.New("forbidden")
	require.Error(t, v.Delete(context.Background(), b, 2))
	assert.Equal(t, before, v.Snapshot())
}

func TestView_SelectAll(t *testing.T) {
	v := NewView(defaults)
	require.NoError(t, v.Load(context.Background(), backend()))

	v.SelectAll(true)
	assert.Equal(t, []int{1, 2, 3, 4}, v.Page(table.Query{}).Selected)

	v.SelectAll(false)
	assert.Empty(t, v.Page(table.Query{}).Selected)
}

func TestView_SnapshotRestore(t *testing.T) {
	v := NewView(defaults)
	require.NoError(t, v.Load(context.Background(), backend()))
	v.Toggle(2)
	v.Page(table.Query{Filter: "o"})

	restored := Restore(v.Snapshot(), defaults)
	assert.Equal(t, StateLoaded, restored.State())
	assert.Equal(t, v.Snapshot(), restored.Snapshot())

	p := restored.Page(table.Query{Filter: "o", Page: 0})
	assert.Equal(t, []int{3, 1, 1}, rowUserIDs(p.Rows))
	assert.Equal(t, []int{2}, p.Selected)
}

func TestView_LoadingSnapshotIsIdle(t *testing.T) {
	v := NewView(defaults)
	v.state = StateLoading
	assert.Equal(t, StateIdle, v.Snapshot().State)
}
