package notify

import (
	"context"
	"sync/atomic"

	"github.com/venueflash/flashcore/flashcore/database/models"
	"github.com/venueflash/flashcore/flashcore/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const maxConcurrentSends = 16

// DeviceSource resolves a user's registered push targets.
type DeviceSource interface {
	DevicesForUser(ctx context.Context, userID string) ([]*models.Device, error)
}

// PreferenceSource resolves a user's notification preferences.
type PreferenceSource interface {
	PreferencesForUser(ctx context.Context, userID string) (models.NotificationPreferences, error)
}

// Dispatcher fans a gated notification out to every recipient device and
// journals one audit entry per recipient.
type Dispatcher struct {
	pipeline  *Pipeline
	transport PushTransport
	audit     *AuditLog
	devices   DeviceSource
	prefs     PreferenceSource
	sem       *semaphore.Weighted
}

func NewDispatcher(pipeline *Pipeline, transport PushTransport, audit *AuditLog, devices DeviceSource, prefs PreferenceSource) *Dispatcher {
	return &Dispatcher{
		pipeline:  pipeline,
		transport: transport,
		audit:     audit,
		devices:   devices,
		prefs:     prefs,
		sem:       semaphore.NewWeighted(maxConcurrentSends),
	}
}

// DispatchResult summarizes one Dispatch call.
type DispatchResult struct {
	Recipients int
	Delivered  int
	Failed     int
	Skipped    int
}

// Dispatch gates and sends one notification to each user. Blocked users are
// journaled with success=false and zero deliveries; they never reach the
// transport. Per-device sends run concurrently under a semaphore.
func (d *Dispatcher) Dispatch(ctx context.Context, userIDs []string, notificationType, title, body string, data map[string]string) (DispatchResult, error) {
	var result DispatchResult
	result.Recipients = len(userIDs)

	for _, userID := range userIDs {
		prefs, err := d.prefs.PreferencesForUser(ctx, userID)
		if err != nil {
			logger.LogError("Preference lookup failed", err, "user_id", userID)
			result.Failed++
			continue
		}

		check := d.pipeline.PerformComplianceCheck(userID, notificationType, title, body, data, prefs.OptedIn(notificationType))
		if !check.Allowed {
			d.audit.Append(ctx, models.NotificationAudit{
				UserID:           userID,
				NotificationType: notificationType,
				Title:            title,
				Body:             body,
				RecipientCount:   1,
				Success:          false,
				Metadata:         map[string]string{"blocked": check.Reason},
			})
			result.Skipped++
			continue
		}

		delivered, failed := d.sendToUser(ctx, userID, title, body, data)

		d.audit.Append(ctx, models.NotificationAudit{
			UserID:           userID,
			NotificationType: notificationType,
			Title:            title,
			Body:             body,
			RecipientCount:   1,
			Success:          delivered > 0,
			DeliveredCount:   delivered,
			FailedCount:      failed,
		})
		result.Delivered += delivered
		result.Failed += failed
	}

	logger.LogNotify(notificationType, result.Recipients, result.Delivered, result.Failed)
	return result, ctx.Err()
}

func (d *Dispatcher) sendToUser(ctx context.Context, userID, title, body string, data map[string]string) (delivered, failed int) {
	devices, err := d.devices.DevicesForUser(ctx, userID)
	if err != nil {
		logger.LogError("Device lookup failed", err, "user_id", userID)
		return 0, 1
	}
	if len(devices) == 0 {
		return 0, 0
	}

	var ok, bad int32
	g, gctx := errgroup.WithContext(ctx)
	for _, device := range devices {
		token := device.Token
		g.Go(func() error {
			if err := d.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer d.sem.Release(1)

			sent, err := d.transport.Send(gctx, token, title, body, data)
			if err != nil || !sent {
				atomic.AddInt32(&bad, 1)
				if err != nil {
					logger.LogError("Push send failed", err, "user_id", userID)
				}
				return nil // keep sending to the user's other devices
			}
			atomic.AddInt32(&ok, 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.LogError("Push fan-out aborted", err, "user_id", userID)
	}
	return int(atomic.LoadInt32(&ok)), int(atomic.LoadInt32(&bad))
}
