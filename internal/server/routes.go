package server

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banktrust/bankbot/internal/config"
	"github.com/banktrust/bankbot/internal/dialog"
	"github.com/banktrust/bankbot/internal/ledger"
	"github.com/banktrust/bankbot/internal/metrics"
	"github.com/banktrust/bankbot/internal/models"
	"github.com/banktrust/bankbot/internal/nlu"
)

// historyLimit caps the rows returned by the history endpoints.
const historyLimit = 100

type handlers struct {
	store      *ledger.Store
	engine     *dialog.Engine
	classifier *nlu.Classifier
	cfg        *config.Config
	sessions   *sessionStore
}

// register sets up all routes on the Gin router.
func (h *handlers) register(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.POST("/login", h.handleLogin)

	authed := api.Group("", h.requireSession)
	authed.POST("/chat", h.handleChat)
	authed.POST("/reset", h.handleReset)
	authed.POST("/logout", h.handleLogout)
	authed.GET("/history", h.handleHistory)
	authed.GET("/transactions", h.handleTransactions)
	authed.GET("/export", h.handleExport)

	admin := router.Group("/admin", gin.BasicAuth(gin.Accounts{
		h.cfg.Admin.User: h.cfg.Admin.Password,
	}))
	admin.POST("/retrain", h.handleRetrain)
	admin.GET("/faqs", h.handleListFAQs)
	admin.POST("/faqs", h.handleAddFAQ)
	admin.GET("/training", h.handleListTraining)
	admin.POST("/training", h.handleAddTraining)
	admin.GET("/analytics", h.handleAnalytics)
	admin.GET("/export", h.handleAdminExport)
}

// requireSession resolves the session token, from X-Session-Token or a
// bearer Authorization header, to a live session.
func (h *handlers) requireSession(c *gin.Context) {
	token := trimToken(c.GetHeader("X-Session-Token"))
	if token == "" {
		token = trimToken(c.GetHeader("Authorization"))
	}
	sess, ok := h.sessions.get(token)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
		return
	}
	c.Set("session", sess)
	c.Set("token", token)
	c.Next()
}

func currentSession(c *gin.Context) *session {
	return c.MustGet("session").(*session)
}

func (h *handlers) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.store.VerifyLogin(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token := h.sessions.create(user.AccountNumber)
	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"name":    user.Name,
		"account": user.AccountNumber,
	})
}

func (h *handlers) handleChat(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sess := currentSession(c)
	sess.mu.Lock()
	result := h.engine.HandleMessage(sess.state, req.Message)
	sess.mu.Unlock()

	metrics.RecordMessage(result.Intent, result.Confidence)

	if err := h.store.SaveChat(models.ChatLog{
		Account:     sess.account,
		UserMessage: req.Message,
		BotResponse: result.Response,
		Intent:      result.Intent,
		Confidence:  result.Confidence,
		IsFallback:  result.Intent == "fallback",
	}); err != nil {
		log.Printf("server: save chat: %v", err)
	}

	c.JSON(http.StatusOK, result)
}

func (h *handlers) handleReset(c *gin.Context) {
	sess := currentSession(c)
	sess.mu.Lock()
	sess.state.ResetAll()
	sess.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (h *handlers) handleLogout(c *gin.Context) {
	h.sessions.drop(c.GetString("token"))
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *handlers) handleHistory(c *gin.Context) {
	sess := currentSession(c)
	logs, err := h.store.ChatHistory(sess.account, historyLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (h *handlers) handleTransactions(c *gin.Context) {
	sess := currentSession(c)
	entries, err := h.store.Transactions(sess.account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load transactions"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// handleExport streams the caller's chat history as CSV.
func (h *handlers) handleExport(c *gin.Context) {
	sess := currentSession(c)
	logs, err := h.store.ChatHistory(sess.account, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}
	writeChatCSV(c, "chat_history.csv", logs)
}

func (h *handlers) handleRetrain(c *gin.Context) {
	if h.classifier == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "classifier not configured"})
		return
	}
	ok, detail := h.classifier.Retrain()
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	metrics.Retrains.WithLabelValues(outcome).Inc()
	c.JSON(http.StatusOK, gin.H{"ok": ok, "detail": detail})
}

func (h *handlers) handleListFAQs(c *gin.Context) {
	faqs, err := h.store.AllFAQs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load faqs"})
		return
	}
	c.JSON(http.StatusOK, faqs)
}

func (h *handlers) handleAddFAQ(c *gin.Context) {
	var req struct {
		Question string `json:"question" binding:"required"`
		Answer   string `json:"answer" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question and answer are required"})
		return
	}
	if err := h.store.AddFAQ(req.Question, req.Answer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save faq"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "added"})
}

// handleListTraining returns the newest rows of the labeled corpus. A limit
// query parameter caps the count, default 50.
func (h *handlers) handleListTraining(c *gin.Context) {
	rows, err := nlu.LoadCorpus(h.cfg.Classifier.CorpusPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load training data"})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	c.JSON(http.StatusOK, gin.H{"total": len(rows), "rows": rows})
}

func (h *handlers) handleAddTraining(c *gin.Context) {
	var req struct {
		Text     string `json:"text" binding:"required"`
		Intent   string `json:"intent" binding:"required"`
		Response string `json:"response"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text and intent are required"})
		return
	}
	ex := nlu.TrainingExample{Text: req.Text, Intent: req.Intent, Response: req.Response}
	if err := nlu.AppendExample(h.cfg.Classifier.CorpusPath, ex); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not append example"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "added"})
}

func (h *handlers) handleAnalytics(c *gin.Context) {
	stats, err := h.store.Analytics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute analytics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// handleAdminExport streams the full chat log as CSV.
func (h *handlers) handleAdminExport(c *gin.Context) {
	logs, err := h.store.AllChats(0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chat log"})
		return
	}
	writeChatCSV(c, "all_chats.csv", logs)
}

func writeChatCSV(c *gin.Context, filename string, logs []models.ChatLog) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	w := csv.NewWriter(c.Writer)
	w.Write([]string{"date", "account", "message", "response", "intent", "confidence", "fallback"})
	for _, l := range logs {
		w.Write([]string{
			l.CreatedAt.Format("2006-01-02 15:04:05"),
			l.Account,
			l.UserMessage,
			l.BotResponse,
			l.Intent,
			strconv.FormatFloat(l.Confidence, 'f', 4, 64),
			strconv.FormatBool(l.IsFallback),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Printf("server: write csv %s: %v", filename, err)
	}
}

// trimToken normalizes an Authorization style header value.
func trimToken(v string) string {
	return strings.TrimSpace(strings.TrimPrefix(v, "Bearer "))
}
