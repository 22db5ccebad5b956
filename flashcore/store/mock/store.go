package mock

import (
	context "context"
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	models "github.com/venueflash/flashcore/flashcore/database/models"
	store "github.com/venueflash/flashcore/flashcore/store"
)

// MockClaimStore is a mock of ClaimStore interface.
type MockClaimStore struct {
	ctrl     *gomock.Controller
	recorder *MockClaimStoreMockRecorder
	isgomock struct{}
}

// MockClaimStoreMockRecorder is the mock recorder for MockClaimStore.
type MockClaimStoreMockRecorder struct {
	mock *MockClaimStore
}

// NewMockClaimStore creates a new mock instance.
func NewMockClaimStore(ctrl *gomock.Controller) *MockClaimStore {
	mock := &MockClaimStore{ctrl: ctrl}
	mock.recorder = &MockClaimStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockClaimStore) EXPECT() *MockClaimStoreMockRecorder {
	return m.recorder
}

// CreateClaim mocks base method.
func (m *MockClaimStore) CreateClaim(ctx context.Context, offerID, userID string) (*models.Claim, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateClaim", ctx, offerID, userID)
	ret0, _ := ret[0].(*models.Claim)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CreateClaim indicates an expected call of CreateClaim.
func (mr *MockClaimStoreMockRecorder) CreateClaim(ctx, offerID, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateClaim", reflect.TypeOf((*MockClaimStore)(nil).CreateClaim), ctx, offerID, userID)
}

// GetClaim mocks base method.
func (m *MockClaimStore) GetClaim(ctx context.Context, claimID string) (*models.Claim, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetClaim", ctx, claimID)
	ret0, _ := ret[0].(*models.Claim)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetClaim indicates an expected call of GetClaim.
func (mr *MockClaimStoreMockRecorder) GetClaim(ctx, claimID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetClaim", reflect.TypeOf((*MockClaimStore)(nil).GetClaim), ctx, claimID)
}

// GetOffer mocks base method.
func (m *MockClaimStore) GetOffer(ctx context.Context, offerID string) (*models.Offer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetOffer", ctx, offerID)
	ret0, _ := ret[0].(*models.Offer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetOffer indicates an expected call of GetOffer.
func (mr *MockClaimStoreMockRecorder) GetOffer(ctx, offerID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetOffer", reflect.TypeOf((*MockClaimStore)(nil).GetOffer), ctx, offerID)
}

// RedeemClaim mocks base method.
func (m *MockClaimStore) RedeemClaim(ctx context.Context, token string) (*models.Claim, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RedeemClaim", ctx, token)
	ret0, _ := ret[0].(*models.Claim)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// RedeemClaim indicates an expected call of RedeemClaim.
func (mr *MockClaimStoreMockRecorder) RedeemClaim(ctx, token any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RedeemClaim", reflect.TypeOf((*MockClaimStore)(nil).RedeemClaim), ctx, token)
}

// SubscribeToClaim mocks base method.
func (m *MockClaimStore) SubscribeToClaim(ctx context.Context, claimID string) (store.Subscription, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SubscribeToClaim", ctx, claimID)
	ret0, _ := ret[0].(store.Subscription)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// SubscribeToClaim indicates an expected call of SubscribeToClaim.
func (mr *MockClaimStoreMockRecorder) SubscribeToClaim(ctx, claimID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SubscribeToClaim", reflect.TypeOf((*MockClaimStore)(nil).SubscribeToClaim), ctx, claimID)
}

// UpdateClaimStatus mocks base method.
func (m *MockClaimStore) UpdateClaimStatus(ctx context.Context, claimID string, status models.ClaimStatus, rejectionReason string) (*models.Claim, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateClaimStatus", ctx, claimID, status, rejectionReason)
	ret0, _ := ret[0].(*models.Claim)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// UpdateClaimStatus indicates an expected call of UpdateClaimStatus.
func (mr *MockClaimStoreMockRecorder) UpdateClaimStatus(ctx, claimID, status, rejectionReason any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateClaimStatus", reflect.TypeOf((*MockClaimStore)(nil).UpdateClaimStatus), ctx, claimID, status, rejectionReason)
}
