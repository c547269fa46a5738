package gateway

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/assistant"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/chat"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/config"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/llm"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/mail"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/prompts"
	"github.com/SaikalyanLabhishetty/portfolio-agent/internal/tool"
)

//go:embed web/widget.js web/embed.html
var webFS embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	SitePortfolio = "portfolio"
	SiteVueverse  = "vueverse"
)

// Server is the portfolio-agent gateway. It serves the HTTP chat and contact
// endpoints, the widget WebSocket, and the embeddable widget assets.
type Server struct {
	cfg      func() *config.Config
	Sessions *assistant.Store
	Conns    *ConnManager
	httpSrv  *http.Server
	startAt  time.Time
}

func NewServer(cfg func() *config.Config) *Server {
	return &Server{
		cfg:      cfg,
		Sessions: assistant.NewStore(),
		Conns:    NewConnManager(),
		startAt:  time.Now(),
	}
}

// orchestratorFor builds the fallback orchestrator for one site variant from
// the current config snapshot. Built per request so config hot reloads take
// effect without restarting.
func (s *Server) orchestratorFor(site string, cfg *config.Config) (*chat.Orchestrator, *tool.Registry, config.SiteConfig) {
	var siteCfg config.SiteConfig
	var system string
	switch site {
	case SiteVueverse:
		siteCfg = cfg.Vueverse
		system = prompts.Vueverse(siteCfg.Name, siteCfg.URL, siteCfg.Context)
	default:
		siteCfg = cfg.Portfolio
		system = prompts.Portfolio()
	}
	links := tool.NewRegistry(siteCfg.Links)
	specs := tool.Specs(links.Targets())
	orch := chat.NewOrchestrator(llm.NewGeminiClient(), llm.NewMistralClient(), system, specs)
	return orch, links, siteCfg
}

func (s *Server) mailService(site string, cfg *config.Config) *mail.Service {
	persona := "Kalyan"
	if site == SiteVueverse {
		persona = cfg.Vueverse.Name + " team"
	}
	return &mail.Service{
		Sender:      mail.SenderFromConfig(cfg.Mail),
		SuccessName: persona,
	}
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	engine.GET("/health", s.ginHealth)
	engine.GET("/ws", s.ginWebSocket)
	s.registerAPIRoutes(engine)
	s.registerWidgetRoutes(engine)
	return engine
}

// Start begins listening for connections and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	engine := s.Handler()

	addr := fmt.Sprintf(":%d", s.cfg().Gateway.Port)
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	slog.Info("gateway starting", "port", s.cfg().Gateway.Port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpSrv.Shutdown(shutdownCtx)
	}()

	if err := s.httpSrv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) ginHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"uptime":   time.Since(s.startAt).String(),
		"sessions": s.Sessions.Count(),
		"widgets":  s.Conns.Count(),
	})
}

func (s *Server) registerWidgetRoutes(engine *gin.Engine) {
	engine.GET("/widget.js", s.ginWidgetAsset("web/widget.js", "application/javascript; charset=utf-8"))
	engine.GET("/embed", s.ginWidgetAsset("web/embed.html", "text/html; charset=utf-8"))
}

func (s *Server) ginWidgetAsset(path, contentType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := fs.ReadFile(webFS, path)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, contentType, data)
	}
}

func siteOrDefault(site string) string {
	if site == SiteVueverse {
		return SiteVueverse
	}
	return SitePortfolio
}

func (s *Server) ginWebSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	conn := &Conn{
		ID:          fmt.Sprintf("conn_%d", time.Now().UnixNano()),
		WS:          ws,
		ConnectedAt: time.Now(),
	}

	// First message must be a connect request.
	frame, err := ReadFrame(ws)
	if err != nil {
		slog.Warn("failed to read connect frame", "error", err)
		return
	}
	if frame.Method != "connect" {
		conn.Send(ResErr(frame.ID, "HANDSHAKE_REQUIRED", "first message must be a connect request"))
		return
	}

	var connectParams ConnectParams
	if err := json.Unmarshal(frame.Params, &connectParams); err != nil {
		conn.Send(ResErr(frame.ID, "INVALID_PARAMS", "invalid connect params"))
		return
	}

	conn.Site = siteOrDefault(connectParams.Site)
	sess := s.attachSession(conn, connectParams.SessionID)
	conn.SessionID = sess.ID

	s.Conns.Add(conn)
	defer s.Conns.Remove(conn.ID)

	slog.Info("widget connected", "conn", conn.ID, "site", conn.Site, "session", sess.ID)

	conn.Send(ResOK(frame.ID, gin.H{
		"sessionId":  sess.ID,
		"protocol":   1,
		"transcript": sess.Transcript(),
	}))

	for {
		frame, err := ReadFrame(ws)
		if err != nil {
			slog.Debug("widget disconnected", "conn", conn.ID, "error", err)
			return
		}
		if frame.Type != "req" {
			continue
		}
		s.handleWidgetRequest(conn, sess, frame)
	}
}

// attachSession resumes the named session when it is still live, rebinding
// its side effects to the new connection, otherwise creates a fresh one.
func (s *Server) attachSession(conn *Conn, sessionID string) *assistant.Session {
	if sessionID != "" {
		if existing := s.Sessions.Get(sessionID); existing != nil {
			existing.BindCapabilities(&connCaps{conn: conn, mail: s.mailService(conn.Site, s.cfg())})
			return existing
		}
	}

	id := uuid.NewString()
	sess, _ := s.Sessions.GetOrCreate(id, func() *assistant.Session {
		return s.buildSession(id, conn)
	})
	return sess
}

func (s *Server) buildSession(id string, conn *Conn) *assistant.Session {
	cfg := s.cfg()
	site := conn.Site
	_, links, siteCfg := s.orchestratorFor(site, cfg)

	mode := tool.ScheduleCalendar
	if siteCfg.Calendly != "" {
		mode = tool.ScheduleCalendly
	}

	executor := &tool.Executor{
		Links:        links,
		Caps:         &connCaps{conn: conn, mail: s.mailService(site, cfg)},
		ScheduleMode: mode,
		CalendlyURL:  siteCfg.Calendly,
		SiteName:     siteCfg.Name,
	}

	return assistant.NewSession(assistant.SessionParams{
		ID:        id,
		SiteName:  siteCfg.Name,
		Responder: sessionResponder{server: s, site: site},
		Executor:  executor,
		Config:    s.cfg,
	})
}

// sessionResponder rebuilds the orchestrator per turn so model and prompt
// changes from a config reload apply to long-lived sessions.
type sessionResponder struct {
	server *Server
	site   string
}

func (r sessionResponder) Respond(ctx context.Context, cfg *config.Config, messages []llm.Message) (*chat.Reply, *chat.ErrorReply) {
	orch, _, _ := r.server.orchestratorFor(r.site, cfg)
	return orch.Respond(ctx, cfg, messages)
}

func (s *Server) handleWidgetRequest(conn *Conn, sess *assistant.Session, frame Frame) {
	switch frame.Method {
	case "chat.turn":
		var params TurnParams
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			conn.Send(ResErr(frame.ID, "INVALID_PARAMS", "invalid turn params"))
			return
		}
		go func(f Frame, text string) {
			appended := sess.HandleTurn(context.Background(), text)
			conn.Send(ResOK(f.ID, gin.H{"messages": appended}))
		}(frame, params.Text)

	case "chat.quick":
		var params QuickActionParams
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			conn.Send(ResErr(frame.ID, "INVALID_PARAMS", "invalid quick action params"))
			return
		}
		go func(f Frame, action string) {
			appended := sess.QuickAction(context.Background(), action)
			conn.Send(ResOK(f.ID, gin.H{"messages": appended}))
		}(frame, params.Action)

	case "chat.transcript":
		conn.Send(ResOK(frame.ID, gin.H{"messages": sess.Transcript()}))

	default:
		conn.Send(ResErr(frame.ID, "UNKNOWN_METHOD", "supported methods: chat.turn, chat.quick, chat.transcript"))
	}
}
