package records

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/minecom/minedash/internal/strapi"
	"github.com/minecom/minedash/internal/table"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of a View.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateError   State = "error"
)

// LoadErrorMessage is shown when either fetch fails.
const LoadErrorMessage = "Failed to load users"

// Loader fetches the two collections the table is built from.
type Loader interface {
	BankUsers(ctx context.Context) ([]strapi.BankEntry, error)
	TransactionForms(ctx context.Context) ([]strapi.TransactionForm, error)
}

// Deleter removes a user.
type Deleter interface {
	DeleteUser(ctx context.Context, id int) error
}

// Defaults are the table settings used when a query leaves them open.
type Defaults struct {
	FilterField     string
	OrderBy         string
	PageSize        int
	PageSizeOptions []int
}

// View is the bank-record table of one session.
type View struct {
	mu        sync.Mutex
	defaults  Defaults
	state     State
	err       string
	rows      []Row
	selection *table.Selection
	filter    string
}

// NewView returns an idle view.
func NewView(defaults Defaults) *View {
	return &View{
		defaults:  defaults,
		state:     StateIdle,
		selection: table.NewSelection(),
	}
}

// State returns the current state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Ensure loads the view unless it already holds rows.
func (v *View) Ensure(ctx context.Context, loader Loader) error {
	switch v.State() {
	case StateLoaded, StateLoading:
		return nil
	default:
		return v.Load(ctx, loader)
	}
}

// Refresh reloads the view regardless of its state.
func (v *View) Refresh(ctx context.Context, loader Loader) error {
	return v.Load(ctx, loader)
}

// Load fetches both collections concurrently and rebuilds the rows. If either
// fetch fails the view ends up in StateError without rows.
func (v *View) Load(ctx context.Context, loader Loader) error {
	v.mu.Lock()
	v.state = StateLoading
	v.err = ""
	v.mu.Unlock()

	var (
		entries []strapi.BankEntry
		forms   []strapi.TransactionForm
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = loader.BankUsers(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch bank users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		forms, err = loader.TransactionForms(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch transaction forms: %w", err)
		}
		return nil
	})

	err := g.Wait()

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		log.Error("Failed to load bank records", "error", err)
		v.state = StateError
		v.err = LoadErrorMessage
		v.rows = nil
		return err
	}

	v.rows = Reconcile(entries, forms)
	v.state = StateLoaded
	log.Debug("Loaded bank records", "entries", len(entries), "forms", len(forms), "rows", len(v.rows))
	return nil
}

// Page is one rendered page of the view.
type Page struct {
	table.Result[Row]
	State           State  `json:"state"`
	Error           string `json:"error,omitempty"`
	Loading         bool   `json:"loading"`
	NoDeposits      bool   `json:"noDeposits"`
	NotFound        bool   `json:"notFound"`
	Selected        []int  `json:"selected"`
	FilterField     string `json:"filterField"`
	Filter          string `json:"filter"`
	OrderBy         string `json:"orderBy"`
	Order           string `json:"order"`
	PageSizeOptions []int  `json:"pageSizeOptions"`
}

// Page applies q to the loaded rows. A filter that differs from the previous
// one resets the page to 0.
func (v *View) Page(q table.Query) Page {
	v.mu.Lock()
	defer v.mu.Unlock()

	q = v.normalize(q)
	if q.Filter != v.filter {
		q.Page = 0
		v.filter = q.Filter
	}

	p := Page{
		State:           v.state,
		Error:           v.err,
		Selected:        v.selection.IDs(),
		FilterField:     q.FilterField,
		Filter:          q.Filter,
		OrderBy:         q.OrderBy,
		Order:           string(q.Order),
		PageSizeOptions: v.defaults.PageSizeOptions,
	}
	p.Page = q.Page
	p.PageSize = q.PageSize
	p.Rows = []Row{}

	switch v.state {
	case StateIdle, StateLoading:
		p.Loading = true
		return p
	case StateError:
		return p
	}

	p.Result = table.Apply(v.rows, q)
	p.NoDeposits = len(v.rows) == 0 && q.Filter == ""
	p.NotFound = p.Filtered == 0 && q.Filter != ""
	return p
}

// SetFilter makes filter the current one, so the next Page with the same
// filter keeps its requested page.
func (v *View) SetFilter(filter string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = filter
}

func (v *View) normalize(q table.Query) table.Query {
	if q.FilterField == "" {
		q.FilterField = v.defaults.FilterField
	}
	if q.OrderBy == "" {
		q.OrderBy = v.defaults.OrderBy
	}
	if q.Order != table.Desc {
		q.Order = table.Asc
	}
	if !slices.Contains(v.defaults.PageSizeOptions, q.PageSize) {
		q.PageSize = v.defaults.PageSize
	}
	if q.Page < 0 {
		q.Page = 0
	}
	return q
}

// Delete removes a user remotely and, on success, drops all of its rows and
// its selection. On failure the view is left unchanged.
func (v *View) Delete(ctx context.Context, deleter Deleter, userID int) error {
	if err := deleter.DeleteUser(ctx, userID); err != nil {
		log.Error("Failed to delete user", "id", userID, "error", err)
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = slices.DeleteFunc(slices.Clone(v.rows), func(r Row) bool { return r.UserID == userID })
	v.selection.Remove(userID)
	log.Info("Deleted user", "id", userID)
	return nil
}

// Toggle flips the selection of a user id.
func (v *View) Toggle(userID int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection.Toggle(userID)
}

// SelectAll selects every loaded user id, or clears the selection.
func (v *View) SelectAll(checked bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selection.SelectAll(checked, UserIDs(v.rows))
}

// Snapshot is the serializable form of a View.
type Snapshot struct {
	State    State  `json:"state"`
	Error    string `json:"error,omitempty"`
	Rows     []Row  `json:"rows"`
	Selected []int  `json:"selected"`
	Filter   string `json:"filter"`
}

// Snapshot captures the view. A view caught while loading is stored as idle.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	state := v.state
	if state == StateLoading {
		state = StateIdle
	}
	return Snapshot{
		State:    state,
		Error:    v.err,
		Rows:     slices.Clone(v.rows),
		Selected: v.selection.IDs(),
		Filter:   v.filter,
	}
}

// Restore rebuilds a view from a snapshot.
func Restore(s Snapshot, defaults Defaults) *View {
	v := NewView(defaults)
	if s.State != "" {
		v.state = s.State
	}
	v.err = s.Error
	v.rows = slices.Clone(s.Rows)
	v.selection = table.NewSelection(s.Selected...)
	v.filter = s.Filter
	return v
}
