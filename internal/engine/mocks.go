package engine

import (
	"context"
	"time"

	"github.com/montelibero/npi/internal/model"
	"github.com/montelibero/npi/internal/service"
)

// MockLedger is a mock implementation of service.LedgerQuery for testing.
type MockLedger struct {
	GetBalanceFn func(ctx context.Context, account model.Account, assetCode, assetIssuer string) (string, error)
	DataValueFn  func(ctx context.Context, account model.Account, key string) (*string, error)
	AllDataFn    func(ctx context.Context, account model.Account) (map[string]string, error)
	PaymentsFn   func(ctx context.Context, account model.Account, since time.Time) ([]model.PaymentRecord, error)

	// Call tracking
	GetBalanceCalls int
	DataValueCalls  int
	AllDataCalls    int
	PaymentsCalls   []PaymentsCall
}

// PaymentsCall records the parameters of a Payments call.
type PaymentsCall struct {
	Since   time.Time
	Account model.Account
}

// GetBalance implements service.LedgerQuery.
func (m *MockLedger) GetBalance(ctx context.Context, account model.Account, assetCode, assetIssuer string) (string, error) {
	m.GetBalanceCalls++
	if m.GetBalanceFn != nil {
		return m.GetBalanceFn(ctx, account, assetCode, assetIssuer)
	}
	return "0", nil
}

// DataValue implements service.LedgerQuery.
func (m *MockLedger) DataValue(ctx context.Context, account model.Account, key string) (*string, error) {
	m.DataValueCalls++
	if m.DataValueFn != nil {
		return m.DataValueFn(ctx, account, key)
	}
	return nil, nil
}

// AllData implements service.LedgerQuery.
func (m *MockLedger) AllData(ctx context.Context, account model.Account) (map[string]string, error) {
	m.AllDataCalls++
	if m.AllDataFn != nil {
		return m.AllDataFn(ctx, account)
	}
	return map[string]string{}, nil
}

// Payments implements service.LedgerQuery.
func (m *MockLedger) Payments(ctx context.Context, account model.Account, since time.Time) ([]model.PaymentRecord, error) {
	m.PaymentsCalls = append(m.PaymentsCalls, PaymentsCall{Account: account, Since: since})
	if m.PaymentsFn != nil {
		return m.PaymentsFn(ctx, account, since)
	}
	return []model.PaymentRecord{}, nil
}

// MockIdentity is a mock implementation of service.IdentityDirectory.
type MockIdentity struct {
	ResolveAccountFn       func(ctx context.Context, handle string) (model.Account, error)
	ResolvePersonalTokenFn func(ctx context.Context, handle string) (*model.PersonalToken, error)

	ResolveAccountCalls       []string
	ResolvePersonalTokenCalls []string
}

// ResolveAccount implements service.IdentityDirectory.
func (m *MockIdentity) ResolveAccount(ctx context.Context, handle string) (model.Account, error) {
	m.ResolveAccountCalls = append(m.ResolveAccountCalls, handle)
	if m.ResolveAccountFn != nil {
		return m.ResolveAccountFn(ctx, handle)
	}
	return "", nil
}

// ResolvePersonalToken implements service.IdentityDirectory.
func (m *MockIdentity) ResolvePersonalToken(ctx context.Context, handle string) (*model.PersonalToken, error) {
	m.ResolvePersonalTokenCalls = append(m.ResolvePersonalTokenCalls, handle)
	if m.ResolvePersonalTokenFn != nil {
		return m.ResolvePersonalTokenFn(ctx, handle)
	}
	return nil, nil
}

// MockChat is a mock implementation of service.ChatDirectory.
type MockChat struct {
	MembersFn func(ctx context.Context, chatID int64) ([]model.Member, error)

	MembersCalls []int64
}

// Members implements service.ChatDirectory.
func (m *MockChat) Members(ctx context.Context, chatID int64) ([]model.Member, error) {
	m.MembersCalls = append(m.MembersCalls, chatID)
	if m.MembersFn != nil {
		return m.MembersFn(ctx, chatID)
	}
	return []model.Member{}, nil
}

// Ensure the mocks satisfy the port interfaces.
var (
	_ service.LedgerQuery       = (*MockLedger)(nil)
	_ service.IdentityDirectory = (*MockIdentity)(nil)
	_ service.ChatDirectory     = (*MockChat)(nil)
)
