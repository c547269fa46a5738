package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/chat"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/mail"
)

const apiPrefix = "/api"

func (s *Server) registerAPIRoutes(engine *gin.Engine) {
	api := engine.Group(apiPrefix)
	api.POST("/chat", s.ginChat(SitePortfolio))
	api.POST("/contact/send", s.ginContactSend(SitePortfolio))
	api.GET("/debug/env", s.ginDebugEnv)

	vueverse := api.Group("/vueverse")
	vueverse.POST("/chat", s.ginChat(SiteVueverse))
	vueverse.POST("/contact/send", s.ginContactSend(SiteVueverse))
}

type chatRequest struct {
	Messages any `json:"messages"`
}

// ginChat is the stateless chat endpoint. Tool calls are returned to the
// caller for client-side gating and execution, never executed here.
func (s *Server) ginChat(site string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body chatRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body."})
			return
		}

		messages := chat.NormalizeMessages(body.Messages)
		if len(messages) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "messages must include at least one user or assistant entry."})
			return
		}

		cfg := s.cfg()
		orch, _, _ := s.orchestratorFor(site, cfg)
		reply, errReply := orch.Respond(c.Request.Context(), cfg, messages)
		if errReply != nil {
			c.JSON(errReply.Status, errReply)
			return
		}
		c.JSON(http.StatusOK, reply)
	}
}

func (s *Server) ginContactSend(site string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload mail.Payload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body."})
			return
		}

		cfg := s.cfg()
		svc := s.mailService(site, cfg)
		status, err := svc.Deliver(c.Request.Context(), payload)
		if err != nil {
			code, msg := mailErrorStatus(err)
			c.JSON(code, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": status})
	}
}

// mailErrorStatus maps the mail error taxonomy onto HTTP statuses: rejected
// input is the caller's fault, missing transport is a deployment fault, and
// upstream failures carry the status the transport reported.
func mailErrorStatus(err error) (int, string) {
	var validation *mail.ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest, validation.Msg
	}
	var config *mail.ConfigError
	if errors.As(err, &config) {
		return http.StatusInternalServerError, config.Msg
	}
	var upstream *mail.UpstreamError
	if errors.As(err, &upstream) {
		status := upstream.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		return status, upstream.Msg
	}
	return http.StatusInternalServerError, "Failed to send email."
}

// ginDebugEnv reports which credentials are present without revealing them.
func (s *Server) ginDebugEnv(c *gin.Context) {
	cfg := s.cfg()
	c.JSON(http.StatusOK, gin.H{
		"hasGeminiKey":  cfg.HasGemini(),
		"hasMistralKey": cfg.HasMistral(),
		"geminiModel":   cfg.Providers.Gemini.Model,
		"mistralModel":  cfg.Providers.Mistral.Model,
		"mailConfigured": cfg.Mail.Resend.APIKey != "" ||
			(cfg.Mail.SMTP.Host != "" && cfg.Mail.SMTP.User != ""),
		"deploy": gin.H{
			"env":    cfg.Deploy.Env,
			"id":     cfg.Deploy.ID,
			"region": cfg.Deploy.Region,
		},
	})
}
