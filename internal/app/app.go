package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"projectsync/internal/config"
	cacheadapter "projectsync/internal/infrastructure/cache/adapter"
	cacheport "projectsync/internal/infrastructure/cache/port"
	"projectsync/internal/infrastructure/database"
	"projectsync/internal/infrastructure/mail"
	"projectsync/internal/infrastructure/metrics"
	qadapter "projectsync/internal/infrastructure/queue/adapter"
	"projectsync/internal/infrastructure/realtime"
	"projectsync/internal/infrastructure/roomtoken"
	authuc "projectsync/internal/pkg/auth/application/usecase"
	authadapter "projectsync/internal/pkg/auth/persistence/repository/adapter"
	authrepo "projectsync/internal/pkg/auth/persistence/repository/port"
	authctl "projectsync/internal/pkg/auth/presentation/controller"
	chatuc "projectsync/internal/pkg/chat/application/usecase"
	chatadapter "projectsync/internal/pkg/chat/persistence/repository/adapter"
	chatrepo "projectsync/internal/pkg/chat/persistence/repository/port"
	chatctl "projectsync/internal/pkg/chat/presentation/controller"
	gatewayctl "projectsync/internal/pkg/gateway/presentation/controller"
	"projectsync/internal/pkg/meeting/application/task"
	meetinguc "projectsync/internal/pkg/meeting/application/usecase"
	meetingadapter "projectsync/internal/pkg/meeting/persistence/repository/adapter"
	meetingrepo "projectsync/internal/pkg/meeting/persistence/repository/port"
	meetingctl "projectsync/internal/pkg/meeting/presentation/controller"
)

// App holds the wired server components. Close releases everything New opened.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *realtime.Registry
	Sessions *authuc.SessionTokens

	Otp              *authctl.OtpController
	OpenConversation *chatctl.OpenConversationController
	History          *chatctl.GetMessageController
	Schedule         *meetingctl.ScheduleMeetingController
	Socket           *gatewayctl.GatewaySocketController
	Presence         *gatewayctl.PresenceController

	closers   []func()
	readiness []readinessCheck
}

// readinessCheck pings one backend.
type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

type stores struct {
	chat     chatrepo.ChatRepository
	meetings meetingrepo.MeetingRepository
	members  authrepo.MembershipRepository
}

// New connects the configured backends and builds every use case and controller.
// reg receives the gateway collectors; pass prometheus.DefaultRegisterer in production.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	st, err := a.openStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	cache, err := a.openCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	mailer, err := NewMailer(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	inviter, err := a.openInviter(mailer)
	if err != nil {
		a.Close()
		return nil, err
	}

	sessions, err := authuc.NewSessionTokens(cfg.JWTSecret, 0)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Sessions = sessions

	gauges := metrics.NewGateway(reg)
	a.Registry = realtime.NewRegistry(gauges)
	a.closers = append(a.closers, a.Registry.Close)

	issuer := roomtoken.NewIssuer(cfg.RoomAPIKey, cfg.RoomAPISecret, cfg.RoomTokenTTL)

	sendUC := chatuc.NewSendMessageUseCase(st.chat, a.Registry)
	readUC := chatuc.NewMarkMessagesReadUseCase(st.chat)
	admissionUC := meetinguc.NewAdmissionUseCase(st.meetings, issuer)

	a.Otp = authctl.NewOtpController(
		authuc.NewRequestOtpUseCase(cache, mailer, cfg.OTPTTL),
		authuc.NewVerifyOtpUseCase(cache, sessions),
		cfg.SessionCookie,
		logger,
	)
	a.OpenConversation = chatctl.NewOpenConversationController(chatuc.NewOpenConversationUseCase(st.chat), logger)
	a.History = chatctl.NewGetMessageController(chatuc.NewGetMessageUseCase(st.chat), logger)
	a.Schedule = meetingctl.NewScheduleMeetingController(
		meetinguc.NewScheduleMeetingUseCase(st.meetings, st.members, inviter, logger),
		logger,
	)
	a.Socket = gatewayctl.NewGatewaySocketController(gatewayctl.Options{
		Registry:        a.Registry,
		Verifier:        sessions,
		CookieName:      cfg.SessionCookie,
		SendMessageUC:   sendUC,
		MarkReadUC:      readUC,
		AdmissionUC:     admissionUC,
		Metrics:         gauges,
		Logger:          logger,
		EventsPerSecond: cfg.WSEventsPerSecond,
		EventBurst:      cfg.WSEventBurst,
	})
	a.Presence = gatewayctl.NewPresenceController(a.Registry)
	return a, nil
}

// Ready pings every configured backend and returns the failures keyed by backend
// name. An empty map means the process can serve traffic.
func (a *App) Ready(ctx context.Context) map[string]error {
	failed := make(map[string]error)
	for _, p := range a.readiness {
		if err := p.check(ctx); err != nil {
			failed[p.name] = err
		}
	}
	return failed
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStores(ctx context.Context) (*stores, error) {
	switch a.Config.DBDriver {
	case config.DriverPostgres:
		pool, err := database.Connect(ctx, a.Config.DBURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		a.readiness = append(a.readiness, readinessCheck{name: config.DriverPostgres, check: pool.Ping})
		if err := database.EnsureSchema(ctx, pool); err != nil {
			return nil, err
		}
		a.Logger.Info("store ready", "driver", config.DriverPostgres)
		return &stores{
			chat:     chatadapter.NewPgChatRepository(pool),
			meetings: meetingadapter.NewPgMeetingRepository(pool),
			members:  authadapter.NewPgMembershipRepository(pool),
		}, nil

	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, a.Config.MongoURL, a.Config.MongoDatabase)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		})
		a.readiness = append(a.readiness, readinessCheck{name: config.DriverMongo, check: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}})
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			return nil, err
		}
		a.Logger.Info("store ready", "driver", config.DriverMongo, "database", a.Config.MongoDatabase)
		return &stores{
			chat:     chatadapter.NewMongoChatRepository(db),
			meetings: meetingadapter.NewMongoMeetingRepository(db),
			members:  authadapter.NewMongoMembershipRepository(db),
		}, nil

	default:
		a.Logger.Warn("using in-memory store, data is lost on restart")
		return &stores{
			chat:     chatadapter.NewMemoryChatRepository(),
			meetings: meetingadapter.NewMemoryMeetingRepository(),
			members:  authadapter.NewMemoryMembershipRepository(),
		}, nil
	}
}

func (a *App) openCache(ctx context.Context) (cacheport.Cache, error) {
	if a.Config.RedisURL == "" {
		mc := cacheadapter.NewMemoryCache()
		a.readiness = append(a.readiness, readinessCheck{name: "cache", check: mc.Ping})
		return mc, nil
	}
	rc, err := cacheadapter.NewRedisAdapter(ctx, a.Config.RedisURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = rc.Close() })
	a.readiness = append(a.readiness, readinessCheck{name: "redis", check: rc.Ping})
	return rc, nil
}

// Invites go through the asynq mail queue when Redis is configured, otherwise
// they are sent in-process.
func (a *App) openInviter(mailer mail.Sender) (meetinguc.Inviter, error) {
	if a.Config.RedisURL == "" {
		return task.NewDirectInviter(mailer, a.Logger), nil
	}
	client, err := qadapter.NewAsynqClient(a.Config.RedisURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	return task.NewQueuedInviter(client), nil
}

// NewMailer returns an SMTP relay when SMTP_HOST is set and a logging sender otherwise.
func NewMailer(cfg *config.Config, logger *slog.Logger) (mail.Sender, error) {
	if cfg.SMTPHost == "" {
		return mail.LogSender{Logger: logger}, nil
	}
	s, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		return nil, fmt.Errorf("mail: %w", err)
	}
	return s, nil
}
