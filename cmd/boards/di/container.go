package di

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"boards-backend/cmd/boards/infrastructure"
	"boards-backend/internal/adapter/cache"
	"boards-backend/internal/adapter/db/postgres"
	ginhandler "boards-backend/internal/adapter/gin/handler"
	"boards-backend/internal/adapter/gin/middleware"
	ginrouter "boards-backend/internal/adapter/gin/router"
	"boards-backend/internal/adapter/repository/cached"
	"boards-backend/internal/announce"
	"boards-backend/internal/config"
	"boards-backend/internal/notify"
	"boards-backend/internal/sockets"
	"boards-backend/internal/storage"
	accountuc "boards-backend/internal/usecase/account"
	authuc "boards-backend/internal/usecase/auth"
	boarduc "boards-backend/internal/usecase/board"
	carduc "boards-backend/internal/usecase/card"
	commentuc "boards-backend/internal/usecase/comment"
	inviteuc "boards-backend/internal/usecase/invite"
	notificationuc "boards-backend/internal/usecase/notification"
	useruc "boards-backend/internal/usecase/user"
	pkgauth "boards-backend/pkg/auth"
	redisclient "boards-backend/pkg/redis"
)

// Container holds the API process dependency graph.
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	Router      *gin.Engine
}

// NewContainer wires the API process: repositories, usecases, handlers,
// and the gin router.
func NewContainer(cfg *config.Config, l *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	userDBRepo := postgres.NewUserRepo(db, l)
	userCache := cache.NewRedisUserCache(rdb.Client,
		time.Duration(cfg.Redis.CacheTTL)*time.Second, l)
	userRepo := cached.NewCachedUserRepository(userDBRepo, userCache, l)

	accountRepo := postgres.NewAccountRepo(db, l)
	boardRepo := postgres.NewBoardRepo(db, l)
	cardRepo := postgres.NewCardRepo(db, l)
	commentRepo := postgres.NewCommentRepo(db, l)
	inviteRepo := postgres.NewInviteRepo(db, l)
	notificationRepo := postgres.NewNotificationRepo(db, l)

	var announcer announce.Announcer
	if cfg.Notify.AnnounceTestMode {
		announcer = announce.NewMemoryAnnouncer()
	} else {
		announcer = announce.NewRedisAnnouncer(rdb.Client, cfg.Redis.SocketsChannel, l)
	}

	emailSender := notify.NewConsoleEmailSender(cfg.Notify.DefaultFromEmail, l)
	notifier := notify.New(notificationRepo, emailSender, announcer, l)

	tokens := pkgauth.NewTokenService(cfg.Auth.SecretKey,
		time.Duration(cfg.Auth.JWTExpiryDays)*24*time.Hour)
	hasher := pkgauth.NewPasswordHasher(cfg.Auth.BcryptCost)

	var signer *storage.Signer
	if cfg.Storage.AWSBucketName != "" {
		signer = storage.NewSigner(cfg.Storage.AWSAccessKeyID, cfg.Storage.AWSSecretAccessKey,
			cfg.Storage.AWSBucketName, time.Duration(cfg.Storage.SignatureExpiresIn)*time.Second)
	}
	previews := storage.NewPreviewsClient(cfg.Storage.PreviewsURL,
		cfg.Storage.PreviewsAPIKey, cfg.Storage.PreviewsSecretKey, l)

	appURL := cfg.App.ApplicationURL

	boards := boarduc.New(boardRepo, accountRepo, userRepo, inviteRepo,
		announcer, notifier, tokens, appURL, l)
	cards := carduc.New(cardRepo, boards, boardRepo, userRepo,
		announcer, notifier, tokens, signer, previews, l)

	handlers := ginrouter.Handlers{
		Auth:          ginhandler.NewAuthHandler(authuc.New(userRepo, inviteRepo, tokens, hasher, notifier, cfg.Auth.SignupOpen, appURL, l), l),
		Users:         ginhandler.NewUserHandler(useruc.New(userRepo, tokens, hasher, l), l),
		Accounts:      ginhandler.NewAccountHandler(accountuc.New(accountRepo, boardRepo, l), l),
		Boards:        ginhandler.NewBoardHandler(boards, l),
		Cards:         ginhandler.NewCardHandler(cards, l),
		Comments:      ginhandler.NewCommentHandler(commentuc.New(commentRepo, cardRepo, boards, userRepo, announcer, notifier, l), l),
		Invites:       ginhandler.NewInviteHandler(inviteuc.New(inviteRepo, userRepo, notifier, tokens, appURL, l), l),
		Notifications: ginhandler.NewNotificationHandler(notificationuc.New(notificationRepo, l), l),
		Previews:      ginhandler.NewPreviewsHandler(cards, cfg.Storage.PreviewsSecretKey, l),
	}

	auth := middleware.NewAuth(tokens, userRepo, l)
	router := ginrouter.SetupRouter(handlers, auth, rdb.Client, cfg, "api/openapi.json", l)

	return &Container{
		Config:      cfg,
		Logger:      l,
		DB:          db,
		RedisClient: rdb,
		Router:      router,
	}, nil
}

// Close releases the container's connections.
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}
	return nil
}

// SocketsContainer holds the sockets process dependency graph.
type SocketsContainer struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	Hub         *sockets.Hub
	Listener    *sockets.Listener
	Router      *gin.Engine
}

// NewSocketsContainer wires the sockets process: the hub, the Redis
// listener feeding it, and the websocket routes.
func NewSocketsContainer(cfg *config.Config, l *zap.Logger) (*SocketsContainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	userRepo := postgres.NewUserRepo(db, l)
	accountRepo := postgres.NewAccountRepo(db, l)
	tokens := pkgauth.NewTokenService(cfg.Auth.SecretKey,
		time.Duration(cfg.Auth.JWTExpiryDays)*24*time.Hour)

	hub := sockets.NewHub(l)
	listener := sockets.NewListener(rdb.Client, cfg.Redis.SocketsChannel, hub, l)
	srv := sockets.NewServer(hub, sockets.NewRoomAuthorizer(accountRepo, l), l)
	router := srv.SetupRouter(middleware.NewAuth(tokens, userRepo, l), cfg.App.Debug)

	return &SocketsContainer{
		Config:      cfg,
		Logger:      l,
		DB:          db,
		RedisClient: rdb,
		Hub:         hub,
		Listener:    listener,
		Router:      router,
	}, nil
}

// Close releases the sockets container's connections.
func (c *SocketsContainer) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}
	return nil
}
