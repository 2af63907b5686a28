package service

import (
	"context"

	"panelsound/internal/logger"
	"panelsound/internal/models"
	"panelsound/internal/repository"
)

// Authorization guards the HTTP API with a single operator password.
type Authorization interface {
	Enabled() bool
	GenerateToken(password string) (string, error)
	ParseToken(accessToken string) (string, error)
}

// Monitoring exposes the latest recorded panel snapshot.
type Monitoring interface {
	GetState(ctx context.Context) (models.PanelSnapshot, error)
}

// EventLog exposes the routing journal with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.PanelEvent, error)
}

// Injector hands operator-submitted events to the dispatcher.
type Injector interface {
	Inject(ev models.InboundEvent) error
}

// Recorder journals routed events in the background. Observe never blocks;
// Run drains until ctx is canceled. Reset replaces the stored snapshot with
// the boot state so a previous run's state is never served.
type Recorder interface {
	Reset(ctx context.Context, snap models.PanelSnapshot) error
	Observe(rec models.RoutedEvent)
	Run(ctx context.Context)
}

type Service struct {
	Monitoring
	EventLog
	Injector
	Recorder
	Authorization
}

// Deps are the non-repository collaborators of the services.
type Deps struct {
	Controllers []string
	Sink        EventSink
	Publisher   Publisher
	Auth        AuthConfig
	Log         *logger.Logger
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		Monitoring:    NewMonitoringService(repos.StateRepo, deps.Controllers),
		EventLog:      NewEventLogService(repos.EventRepo),
		Injector:      NewInjectorService(deps.Sink, log.Named("injector")),
		Recorder:      NewRecorderService(repos.StateRepo, repos.EventRepo, deps.Publisher, defaultRecorderBuffer, log.Named("recorder")),
		Authorization: NewAuthService(deps.Auth),
	}
}
