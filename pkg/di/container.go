// Package di wires the application graph: repositories over the
// relational store, the real-time store client, the chat pipeline and
// the services the handlers consume.
package di

import (
	"immigration-case-portal/backend/internal/chat"
	"immigration-case-portal/backend/internal/repository"
	"immigration-case-portal/backend/internal/rtdb"
	"immigration-case-portal/backend/internal/service"
	"immigration-case-portal/backend/internal/ws"
	"immigration-case-portal/backend/pkg/cache"
	"immigration-case-portal/backend/pkg/config"
	"immigration-case-portal/backend/pkg/jwt"
	"immigration-case-portal/backend/pkg/logger"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	Config *config.Config
	DB     *gorm.DB
	Store  rtdb.Client
	Logger *logger.Logger
	Hub    *ws.Hub

	JWTService *jwt.Service

	Users         repository.UserRepository
	Cases         repository.CaseRepository
	Documents     repository.DocumentRepository
	Appointments  repository.AppointmentRepository
	Notifications repository.NotificationRepository
	Messages      repository.ChatMessageRepository

	UserService         *service.UserService
	CaseService         *service.CaseService
	DocumentService     *service.DocumentService
	AppointmentService  *service.AppointmentService
	NotificationService *service.NotificationService
	ReportService       *service.ReportService

	RoomLocator *chat.RoomLocator
	ChatService *chat.Service
	Migrator    *chat.Migrator
	ReadSyncer  *chat.ReadSyncer
}

// New builds the container from an open database handle and store client
func New(cfg *config.Config, db *gorm.DB, store rtdb.Client, log *logger.Logger) *Container {
	c := &Container{
		Config: cfg,
		DB:     db,
		Store:  store,
		Logger: log,
	}

	c.JWTService = jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry)
	c.Hub = ws.NewHub(log, nil)

	c.Users = repository.NewGormUserRepository(db)
	c.Cases = repository.NewGormCaseRepository(db)
	c.Documents = repository.NewGormDocumentRepository(db)
	c.Appointments = repository.NewGormAppointmentRepository(db)
	c.Notifications = repository.NewGormNotificationRepository(db)
	c.Messages = repository.NewGormChatMessageRepository(db)

	mail := service.NewEmailSender(cfg, log)
	c.NotificationService = service.NewNotificationService(c.Notifications, c.Users, store, c.Hub, mail, log)

	c.RoomLocator = chat.NewRoomLocator(c.Cases, c.Users)
	merger := chat.NewMerger(store, log)
	c.Migrator = chat.NewMigrator(c.Cases, c.RoomLocator, merger, store, log)
	c.ReadSyncer = chat.NewReadSyncer(c.Messages, c.Notifications, c.RoomLocator, store, log)
	c.ChatService = chat.NewService(c.Messages, c.Cases, c.Users, c.RoomLocator, store, c.NotificationService, log)

	c.UserService = service.NewUserService(c.Users, store, c.JWTService, c.NotificationService, log)
	c.CaseService = service.NewCaseService(c.Cases, c.Users, c.RoomLocator, store, c.NotificationService, log)
	c.DocumentService = service.NewDocumentService(c.Documents, c.Cases, c.Users, c.NotificationService, log)
	c.AppointmentService = service.NewAppointmentService(c.Appointments, c.Cases, c.Users, c.NotificationService, log)

	var reportCache *cache.Cache
	if cfg.Cache.Enabled {
		reportCache = cache.NewCacheWithOptions(cfg.Cache.TTL, cfg.Cache.PurgeWindow, cfg.Cache.MaxSize)
	}
	c.ReportService = service.NewReportService(c.Cases, c.Documents, reportCache, log)

	return c
}
