package handler

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/minecom/minedash/internal/api/auth"
	"github.com/minecom/minedash/internal/strapi"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DashboardLoadErrorMessage is shown when the signed-in user cannot be loaded.
const DashboardLoadErrorMessage = "Failed to load user data"

// DepositView is one line of the deposit list.
type DepositView struct {
	Serial int    `json:"serial"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

// DashboardView is the home page of a signed-in user.
type DashboardView struct {
	UserID         int           `json:"userId"`
	RecommenderID  string        `json:"recommenderId"`
	Balance        string        `json:"balance"`
	BalanceDisplay string        `json:"balanceDisplay"`
	Deposits       []DepositView `json:"deposits"`
	TotalDeposits  string        `json:"totalDeposits"`
	NoDeposits     bool          `json:"noDeposits"`
	IsAdmin        bool          `json:"isAdmin"`
	Error          string        `json:"error,omitempty"`
}

// Dashboard shows the balance and deposits of the signed-in user.
func (h *Handler) Dashboard(c *gin.Context) {
	id := auth.CurrentIdentity(c)

	me, err := h.client.MeWithDashboard(c.Request.Context())
	if err != nil {
		log.Error("Failed to load dashboard", "user_id", id.UserID, "error", err)
		if strapi.IsUnauthorized(err) {
			fail(c, http.StatusUnauthorized, err, DashboardLoadErrorMessage)
			return
		}
		c.JSON(http.StatusBadGateway, DashboardView{
			UserID:        id.UserID,
			RecommenderID: id.RecommenderID,
			Deposits:      []DepositView{},
			Error:         DashboardLoadErrorMessage,
		})
		return
	}

	view := buildDashboard(me)
	view.IsAdmin = h.cfg.Auth.IsAdminRole(id.RoleID)
	c.JSON(http.StatusOK, view)
}

func buildDashboard(me *strapi.User) DashboardView {
	view := DashboardView{
		UserID:        me.ID,
		RecommenderID: me.RecommenderID,
		Balance:       decimal.Zero.StringFixed(2),
		Deposits:      []DepositView{},
		TotalDeposits: decimal.Zero.StringFixed(2),
	}

	balance := decimal.Zero
	var deposits []strapi.Deposit
	if me.Dashboard != nil {
		balance = me.Dashboard.Balance
		deposits = me.Dashboard.Deposits
	}
	view.Balance = balance.StringFixed(2)
	view.BalanceDisplay = humanize.FormatFloat("#,###.##", balance.InexactFloat64())

	view.Deposits = lo.Map(deposits, func(d strapi.Deposit, i int) DepositView {
		return DepositView{
			Serial: i + 1,
			Amount: d.Amount.StringFixed(2),
			Date:   d.DepositDate.String(),
		}
	})
	total := lo.Reduce(deposits, func(sum decimal.Decimal, d strapi.Deposit, _ int) decimal.Decimal {
		return sum.Add(d.Amount)
	}, decimal.Zero)
	view.TotalDeposits = total.StringFixed(2)
	view.NoDeposits = len(deposits) == 0
	return view
}
