// Package flashcore wires the claim core together: storage, the claim
// lifecycle controller, the realtime listener, and the notification pipeline.
package flashcore

import (
	"context"
	"log/slog"
	"time"

	"github.com/venueflash/flashcore/flashcore/database"
	"github.com/venueflash/flashcore/flashcore/database/repositories"
	"github.com/venueflash/flashcore/flashcore/notify"
	"github.com/venueflash/flashcore/flashcore/offers/claimerr"
	"github.com/venueflash/flashcore/flashcore/offers/conflict"
	"github.com/venueflash/flashcore/flashcore/offers/lifecycle"
	"github.com/venueflash/flashcore/flashcore/offers/realtime"
	"github.com/venueflash/flashcore/flashcore/services"
	"github.com/venueflash/flashcore/flashcore/utils"
)

func New(cfg Config, version string, commit string) *App {
	return &App{
		Cfg:       cfg,
		Version:   version,
		Commit:    commit,
		Processes: utils.NewBackgroundProcessManager(),
	}
}

type App struct {
	Cfg       Config
	Version   string
	Commit    string
	DB        *database.DB
	Processes *utils.BackgroundProcessManager

	OfferRepository       repositories.OfferRepository
	ClaimRepository       *repositories.ClaimRepository
	AuditRepository       repositories.AuditRepository
	PreferencesRepository repositories.PreferencesRepository
	DeviceRepository      repositories.DeviceRepository

	Errors     *claimerr.Service
	Controller *lifecycle.Controller
	Listener   *realtime.Listener

	AuditLog   *notify.AuditLog
	Dispatcher *notify.Dispatcher
	Reports    *notify.ReportTracker

	OfferSearch *services.OfferSearchService
	Watcher     *services.OfferWatcher
	Archive     *services.ArchiveService
}

// Setup builds every component on top of an already-connected database.
func (a *App) Setup(db *database.DB) error {
	a.DB = db
	bunDB := db.BunDB()

	a.OfferRepository = repositories.NewOfferRepository(bunDB, utils.CacheExpiration)
	a.ClaimRepository = repositories.NewClaimRepository(bunDB, utils.DefaultClaimTTL)
	a.AuditRepository = repositories.NewAuditRepository(bunDB)
	a.PreferencesRepository = repositories.NewPreferencesRepository(bunDB)
	a.DeviceRepository = repositories.NewDeviceRepository(bunDB)

	a.Errors = claimerr.NewDefaultService(claimerr.NewLogSink())
	a.Controller = lifecycle.NewController(a.ClaimRepository, conflict.NewDefaultClassifier(), a.Errors)
	a.Listener = realtime.NewListener(a.ClaimRepository, a.Errors)

	a.AuditLog = notify.NewAuditLog(a.Cfg.Notify.AuditCapacity, a.AuditRepository)
	a.Reports = notify.NewReportTracker(a.AuditRepository)
	a.Dispatcher = notify.NewDispatcher(
		notify.NewDefaultPipeline(),
		notify.LogTransport{},
		a.AuditLog,
		a.DeviceRepository,
		a.PreferencesRepository,
	)

	a.OfferSearch = services.NewOfferSearchService(a.OfferRepository)
	a.Watcher = services.NewOfferWatcher(a.OfferRepository, a.Dispatcher, a.DeviceRepository, a.Cfg.Notify.WarnWindow)

	if a.Cfg.Archive.Key != "" {
		archive, err := services.NewArchiveService(
			a.Cfg.Archive.Key,
			a.Cfg.Archive.Secret,
			a.Cfg.Archive.Region,
			a.Cfg.Archive.Bucket,
			a.Cfg.Archive.Prefix,
		)
		if err != nil {
			return err
		}
		a.Archive = archive
	}

	return nil
}

// StartBackground launches the recurring maintenance loops.
func (a *App) StartBackground() {
	// The Start* helpers spawn their own ticker goroutine; blocking on ctx
	// here keeps the process manager's wait group accurate.
	a.Processes.StartProcess("claim-sweeper", func(ctx context.Context) {
		a.ClaimRepository.StartCleanupRoutine(ctx, utils.ClaimCleanupInterval)
		<-ctx.Done()
	})
	a.Processes.StartProcess("pending-eviction", func(ctx context.Context) {
		a.Controller.StartEvictionRoutine(ctx, utils.PendingEvictInterval, utils.PendingMaxAge)
		<-ctx.Done()
	})
	a.Processes.StartProcess("offer-watcher", func(ctx context.Context) {
		a.Watcher.Start(ctx, a.Cfg.Notify.ScanInterval)
		<-ctx.Done()
	})
	if a.Archive != nil {
		a.Processes.StartProcess("audit-archiver", func(ctx context.Context) {
			a.Archive.StartArchiveRoutine(ctx, a.AuditRepository, a.Cfg.Archive.Interval)
			<-ctx.Done()
		})
	}
}

// Shutdown stops background work and closes the database.
func (a *App) Shutdown(timeout time.Duration) {
	if !a.Processes.Shutdown(timeout) {
		slog.Warn("Shutdown timed out waiting for background processes")
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
