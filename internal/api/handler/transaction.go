package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/minecom/minedash/internal/api/auth"
	"github.com/minecom/minedash/internal/database"
	"github.com/minecom/minedash/internal/notify/email"
	"github.com/minecom/minedash/internal/strapi"
)

type depositForm struct {
	IBAN string `form:"iban" json:"iban" binding:"required"`
}

type withdrawalForm struct {
	IBAN              string `form:"iban" json:"iban" binding:"required"`
	BIC               string `form:"bic" json:"bic" binding:"required"`
	BankName          string `form:"bankName" json:"bankName" binding:"required"`
	AccountHolderName string `form:"accountHolderName" json:"accountHolderName" binding:"required"`
}

// Transaction shows the identifiers the transaction forms are submitted under.
func (h *Handler) Transaction(c *gin.Context) {
	id := auth.CurrentIdentity(c)
	c.JSON(http.StatusOK, gin.H{
		"userId":        id.UserID,
		"recommenderId": id.RecommenderID,
	})
}

// Deposit submits a deposit request.
func (h *Handler) Deposit(c *gin.Context) {
	var form depositForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "IBAN is required"})
		return
	}
	h.submitTransaction(c, strapi.TransactionForm{
		IBAN: form.IBAN,
		Type: strapi.TransactionDeposit,
	})
}

// Withdrawal submits a withdrawal request.
func (h *Handler) Withdrawal(c *gin.Context) {
	var form withdrawalForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Please fill in all required fields"})
		return
	}
	h.submitTransaction(c, strapi.TransactionForm{
		IBAN:              form.IBAN,
		BIC:               form.BIC,
		BankName:          form.BankName,
		AccountHolderName: form.AccountHolderName,
		Type:              strapi.TransactionWithdrawal,
	})
}

func (h *Handler) submitTransaction(c *gin.Context, form strapi.TransactionForm) {
	ctx := c.Request.Context()
	id := auth.CurrentIdentity(c)
	form.RecommenderID = id.RecommenderID

	created, err := h.client.CreateTransactionForm(ctx, form)
	if err != nil {
		log.Error("Failed to submit transaction form", "type", form.Type, "user_id", id.UserID, "error", err)
		fail(c, http.StatusBadGateway, err, fmt.Sprintf("Failed to submit %s request", form.Type))
		return
	}

	eventType := database.HistoryEventDepositRequested
	if form.Type == strapi.TransactionWithdrawal {
		eventType = database.HistoryEventWithdrawalRequested
	}
	database.RecordEvent(ctx, h.db, database.HistoryEvent{
		EventType: eventType,
		ActorID:   id.UserID,
		Details:   form.RecommenderID,
	})
	log.Info("Transaction form submitted", "id", created.ID, "type", form.Type, "user_id", id.UserID)

	go h.notifyOperator(email.TransactionNotification{
		Type:              string(form.Type),
		UserID:            id.UserID,
		RecommenderID:     form.RecommenderID,
		IBAN:              form.IBAN,
		BIC:               form.BIC,
		BankName:          form.BankName,
		AccountHolderName: form.AccountHolderName,
		SubmittedAt:       time.Now(),
		DashboardURL:      h.cfg.ServerURL + "/bank-record",
	})

	succeed(c, fmt.Sprintf("%s request sent successfully", transactionTitle(form.Type)))
}

func (h *Handler) notifyOperator(n email.TransactionNotification) {
	if h.email == nil {
		return
	}
	if err := h.email.SendTransactionNotification(n); err != nil {
		log.Error("Failed to send transaction notification", "type", n.Type, "user_id", n.UserID, "error", err)
	}
}

func transactionTitle(t strapi.TransactionType) string {
	if t == strapi.TransactionWithdrawal {
		return "Withdrawal"
	}
	return "Deposit"
}
