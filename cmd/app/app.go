package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Badsnus/festival-booking/internal/adapters/config"
	"github.com/Badsnus/festival-booking/internal/adapters/database/postgres"
	"github.com/Badsnus/festival-booking/internal/adapters/database/redis"
	"github.com/Badsnus/festival-booking/internal/adapters/imagehost"
	"github.com/Badsnus/festival-booking/internal/adapters/push"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/internal/domain/service"
	"github.com/Badsnus/festival-booking/pkg/logger"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"github.com/Badsnus/festival-booking/pkg/smtp"
	"github.com/Badsnus/festival-booking/pkg/tracing"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

type Services struct {
	Auth         *service.AuthService
	Roles        *service.RoleService
	Users        *service.UserService
	Events       *service.EventService
	Reservations *service.ReservationService
	Applications *service.ApplicationService
	Notify       *service.NotifyService
}

type App struct {
	Router     *chi.Mux
	DB         *gorm.DB
	Redis      *redis.Client
	SMTPDialer *gomail.Dialer
	Logger     *types.Logger
	Telegram   *push.Telegram
	Images     *imagehost.Host
	Services   Services

	shutdownTracing func(context.Context) error
}

func New(config *config.Config) (*App, error) {
	httpLogger, err := logger.Named("http")
	if err != nil {
		return nil, err
	}
	serviceLogger, err := logger.Named("service")
	if err != nil {
		return nil, err
	}
	notifyLogger, err := logger.Named("notify")
	if err != nil {
		return nil, err
	}
	pushLogger, err := logger.Named("push")
	if err != nil {
		return nil, err
	}

	shutdownTracing, err := tracing.Init(context.Background(), tracing.Config{
		ServiceName: "festival-booking",
		Endpoint:    viper.GetString("service.tracing.endpoint"),
		Insecure:    viper.GetBool("service.tracing.insecure"),
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	userStorage := postgres.NewUserStorage(config.Database)
	eventStorage := postgres.NewEventStorage(config.Database)
	reservationStorage := postgres.NewReservationStorage(config.Database)
	applicationStorage := postgres.NewApplicationStorage(config.Database)
	subscriptionStorage := postgres.NewSubscriptionStorage(config.Database)
	notificationStorage := postgres.NewNotificationStorage(config.Database)
	images := imagehost.New(postgres.NewImageStorage(config.Database), viper.GetString("service.http.public-url"))

	mailer := smtp.NewClient(
		config.SMTPDialer,
		viper.GetString("service.smtp.email"),
		viper.GetString("service.smtp.domain"),
		pushLogger,
	)

	dispatcher := push.NewDispatcher().Register(entity.PushChannelEmail, push.NewEmail(mailer))

	var telegram *push.Telegram
	if token := viper.GetString("service.telegram.token"); token != "" {
		telegram, err = push.NewTelegram(token, pushLogger)
		if err != nil {
			return nil, fmt.Errorf("init telegram sender: %w", err)
		}
		dispatcher.Register(entity.PushChannelTelegram, telegram)
	}
	if publicKey := viper.GetString("service.webpush.public-key"); publicKey != "" {
		dispatcher.Register(entity.PushChannelWebPush, push.NewWebPush(push.WebPushConfig{
			PublicKey:  publicKey,
			PrivateKey: viper.GetString("service.webpush.private-key"),
			Subscriber: viper.GetString("service.webpush.subscriber"),
		}))
	}

	changes := config.Redis.Changes

	return &App{
		Router:     chi.NewRouter(),
		DB:         config.Database,
		Redis:      config.Redis,
		SMTPDialer: config.SMTPDialer,
		Logger:     httpLogger,
		Telegram:   telegram,
		Images:     images,
		Services: Services{
			Auth: service.NewAuthService(
				config.Redis.Codes,
				config.Redis.Sessions,
				mailer,
				service.AuthConfig{
					CodeTTL:        viper.GetDuration("settings.auth.code-ttl"),
					SessionTTL:     viper.GetDuration("settings.auth.session-ttl"),
					CodesPerMinute: viper.GetInt("settings.auth.codes-per-minute"),
				},
				serviceLogger,
			),
			Roles: service.NewRoleService(
				userStorage,
				changes,
				service.SetupKey{
					Plain: viper.GetString("settings.admin.setup-key"),
					Hash:  viper.GetString("settings.admin.setup-key-hash"),
				},
				serviceLogger,
			),
			Users: service.NewUserService(userStorage, subscriptionStorage, changes, serviceLogger),
			Events: service.NewEventService(
				eventStorage,
				userStorage,
				images,
				changes,
				service.EventConfig{
					DefaultThreshold: viper.GetUint("settings.events.default-threshold"),
					OpenHour:         viper.GetInt("settings.festival.open-hour"),
					CloseHour:        viper.GetInt("settings.festival.close-hour"),
				},
				serviceLogger,
			),
			Reservations: service.NewReservationService(
				reservationStorage,
				eventStorage,
				changes,
				service.ReservationConfig{
					SnapshotEventDetails: viper.GetBool("settings.booking.snapshot-event-details"),
					StrictCodes:          viper.GetBool("settings.booking.strict-codes"),
					CodeAttempts:         viper.GetInt("settings.booking.code-attempts"),
				},
				serviceLogger,
			),
			Applications: service.NewApplicationService(applicationStorage, userStorage, changes, serviceLogger),
			Notify: service.NewNotifyService(
				eventStorage,
				reservationStorage,
				subscriptionStorage,
				notificationStorage,
				dispatcher,
				notifyLogger,
			),
		},
		shutdownTracing: shutdownTracing,
	}, nil
}

func (a *App) Start() {
	if viper.GetBool("settings.logging.log-to-channel") {
		if a.Telegram == nil {
			logger.Log.Errorf("Failed to create log hook: service.telegram.token is not set")
		} else {
			logger.SetLogHook(a.Telegram.LogHook(
				viper.GetInt64("settings.logging.channel-id"),
				zapcore.Level(viper.GetInt("settings.logging.channel-log-level")),
			))
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", viper.GetInt("service.http.port")),
		Handler:      a.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Panicf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Errorf("Graceful shutdown failed: %v", err)
	}
	a.Close(ctx)
	logger.Log.Info("Server stopped")
}

// Close releases connections held outside the HTTP server.
func (a *App) Close(ctx context.Context) {
	if err := a.Redis.Close(); err != nil {
		logger.Log.Errorf("Failed to close redis: %v", err)
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err = sqlDB.Close(); err != nil {
			logger.Log.Errorf("Failed to close database: %v", err)
		}
	}
	if err := a.shutdownTracing(ctx); err != nil {
		logger.Log.Errorf("Failed to flush traces: %v", err)
	}
}
