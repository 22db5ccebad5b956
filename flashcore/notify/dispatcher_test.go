package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/venueflash/flashcore/flashcore/database/models"
)

type stubDevices struct {
	devices map[string][]*models.Device
	err     error
}

func (s *stubDevices) DevicesForUser(_ context.Context, userID string) ([]*models.Device, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.devices[userID], nil
}

type stubPrefs struct {
	optedOut map[string]bool
}

func (s *stubPrefs) PreferencesForUser(_ context.Context, userID string) (models.NotificationPreferences, error) {
	if s.optedOut[userID] {
		return models.NotificationPreferences{}, nil
	}
	return models.DefaultPreferences(), nil
}

type countingTransport struct {
	mu        sync.Mutex
	sent      []string
	failToken string
}

func (c *countingTransport) Send(_ context.Context, deviceToken, title, body string, data map[string]string) (bool, error) {
	if deviceToken == c.failToken {
		return false, errors.New("provider rejected token")
	}
	c.mu.Lock()
	c.sent = append(c.sent, deviceToken)
	c.mu.Unlock()
	return true, nil
}

func devicesFor(tokens map[string][]string) map[string][]*models.Device {
	out := make(map[string][]*models.Device)
	for userID, ts := range tokens {
		for _, token := range ts {
			out[userID] = append(out[userID], &models.Device{Token: token, UserID: userID})
		}
	}
	return out
}

func TestDispatcher_DispatchFansOutPerDevice(t *testing.T) {
	transport := &countingTransport{}
	audit := NewAuditLog(16)
	d := NewDispatcher(
		NewDefaultPipeline(),
		transport,
		audit,
		&stubDevices{devices: devicesFor(map[string][]string{
			"u1": {"t1", "t2"},
			"u2": {"t3"},
		})},
		&stubPrefs{},
	)

	result, err := d.Dispatch(context.Background(), []string{"u1", "u2"}, "offer_created", "New offer", "A venue posted a deal.", nil)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if result.Recipients != 2 || result.Delivered != 3 || result.Failed != 0 || result.Skipped != 0 {
		t.Errorf("result = %+v, want 2 recipients, 3 delivered", result)
	}
	if audit.Len() != 2 {
		t.Errorf("audit entries = %d, want one per recipient", audit.Len())
	}
}

func TestDispatcher_OptedOutUserNeverReachesTransport(t *testing.T) {
	transport := &countingTransport{}
	audit := NewAuditLog(16)
	d := NewDispatcher(
		NewDefaultPipeline(),
		transport,
		audit,
		&stubDevices{devices: devicesFor(map[string][]string{"u1": {"t1"}})},
		&stubPrefs{optedOut: map[string]bool{"u1": true}},
	)

	result, err := d.Dispatch(context.Background(), []string{"u1"}, "offer_created", "New offer", "A venue posted a deal.", nil)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if result.Skipped != 1 || result.Delivered != 0 {
		t.Errorf("result = %+v, want 1 skipped, 0 delivered", result)
	}
	if len(transport.sent) != 0 {
		t.Errorf("transport got %d sends for opted-out user, want 0", len(transport.sent))
	}

	// The block still leaves an audit trail.
	entries := audit.ByUser("u1")
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	if entries[0].Success || entries[0].DeliveredCount != 0 {
		t.Errorf("audit entry = %+v, want success=false with zero deliveries", entries[0])
	}
	if entries[0].Metadata["blocked"] == "" {
		t.Error("audit entry missing blocked reason")
	}
}

func TestDispatcher_DeviceFailureCountsAsFailed(t *testing.T) {
	transport := &countingTransport{failToken: "bad"}
	audit := NewAuditLog(16)
	d := NewDispatcher(
		NewDefaultPipeline(),
		transport,
		audit,
		&stubDevices{devices: devicesFor(map[string][]string{"u1": {"good", "bad"}})},
		&stubPrefs{},
	)

	result, err := d.Dispatch(context.Background(), []string{"u1"}, "receipt", "Receipt", "Thanks for visiting.", nil)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if result.Delivered != 1 || result.Failed != 1 {
		t.Errorf("result = %+v, want 1 delivered, 1 failed", result)
	}

	entries := audit.ByUser("u1")
	if len(entries) != 1 || !entries[0].Success {
		t.Errorf("audit = %+v, want one successful entry (partial delivery counts)", entries)
	}
}

func TestDispatcher_BlockedTypeIsSkipped(t *testing.T) {
	transport := &countingTransport{}
	d := NewDispatcher(
		NewDefaultPipeline(),
		transport,
		NewAuditLog(16),
		&stubDevices{devices: devicesFor(map[string][]string{"u1": {"t1"}})},
		&stubPrefs{},
	)

	result, err := d.Dispatch(context.Background(), []string{"u1"}, "marketing_promo", "Deal!", "Buy things.", nil)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if result.Skipped != 1 || len(transport.sent) != 0 {
		t.Errorf("result = %+v with %d sends, want skip and no sends", result, len(transport.sent))
	}
}
