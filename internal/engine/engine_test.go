package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/montelibero/npi/internal/model"
)

const testAssociation = model.Account("GASSOC")

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		AssociationAccount: testAssociation,
		ChatID:             -100123,
		TokensPerMonth:     decimal.NewFromInt(4),
		Lookback:           365 * 24 * time.Hour,
	}
}

// testFixture wires mocks for a chat with alice (expert), bob (token payer)
// and carl (no account).
type testFixture struct {
	ledger   *MockLedger
	identity *MockIdentity
	chat     *MockChat
}

func newTestFixture() *testFixture {
	bobPayment := func(amount string, age time.Duration, hash string, from model.Account) model.PaymentRecord {
		return model.PaymentRecord{
			Asset:     model.AssetSpec{Code: "BOB", Issuer: "I"},
			From:      from,
			To:        testAssociation,
			CreatedAt: testNow.Add(-age),
			Hash:      hash,
			Amount:    decimal.RequireFromString(amount),
		}
	}

	ledger := &MockLedger{
		AllDataFn: func(_ context.Context, account model.Account) (map[string]string, error) {
			if account == testAssociation {
				return map[string]string{
					"Expert1": "GALICE",
					"Expert2": "GDAVE",
					"Website": "example.org",
				}, nil
			}
			return map[string]string{}, nil
		},
		PaymentsFn: func(_ context.Context, account model.Account, _ time.Time) ([]model.PaymentRecord, error) {
			if account == "GBOB" {
				return []model.PaymentRecord{
					bobPayment("2", 2*24*time.Hour, "tx3", "GBOB"),
					bobPayment("2", 5*24*time.Hour, "tx2", "GBOB"),
					bobPayment("2", 10*24*time.Hour, "tx1", "GBOB"),
				}, nil
			}
			return []model.PaymentRecord{}, nil
		},
	}

	identity := &MockIdentity{
		ResolveAccountFn: func(_ context.Context, handle string) (model.Account, error) {
			switch handle {
			case "alice":
				return "GALICE", nil
			case "bob":
				return "GBOB", nil
			default:
				return "", nil
			}
		},
		ResolvePersonalTokenFn: func(_ context.Context, handle string) (*model.PersonalToken, error) {
			if handle == "bob" {
				return &model.PersonalToken{Code: "BOB", Issuer: "I"}, nil
			}
			return nil, nil
		},
	}

	chat := &MockChat{
		MembersFn: func(_ context.Context, _ int64) ([]model.Member, error) {
			return []model.Member{{Handle: "alice"}, {Handle: "bob"}, {Handle: "carl"}}, nil
		},
	}

	return &testFixture{ledger: ledger, identity: identity, chat: chat}
}

func (f *testFixture) engine(opts ...Option) *Engine {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return New(f.ledger, f.identity, f.chat, testConfig(), opts...)
}

func TestEngine_Run(t *testing.T) {
	f := newTestFixture()

	report, err := f.engine().Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Verifications, 2)
	require.Len(t, report.Violations, 1)
	assert.False(t, report.Success())

	// alice: expert basis, no payment lookup performed for her account.
	alice := report.Verifications[0]
	assert.Equal(t, "alice", alice.Username)
	assert.Equal(t, model.Account("GALICE"), alice.Stellar)
	assert.Equal(t, model.BasisExpert, alice.Basis.Type)
	assert.Empty(t, alice.Basis.Details.TransactionHash)
	for _, call := range f.ledger.PaymentsCalls {
		assert.NotEqual(t, model.Account("GALICE"), call.Account)
	}

	// bob: three payments of 2 tokens each against four tokens per month.
	bob := report.Verifications[1]
	assert.Equal(t, "bob", bob.Username)
	assert.Equal(t, model.BasisTokenPayment, bob.Basis.Type)
	assert.Equal(t, "tx3", bob.Basis.Details.TransactionHash)
	assert.Equal(t, "6", bob.Basis.Details.TokensAmount)
	require.NotNil(t, bob.Basis.Details.MonthsCovered)
	assert.Equal(t, 1, *bob.Basis.Details.MonthsCovered)
	// Bob paid from his own account, so no sponsor is reported.
	assert.Empty(t, bob.Basis.Details.PaymentFrom)

	// carl: no account, no further lookups.
	carl := report.Violations[0]
	assert.Equal(t, "carl", carl.Username)
	assert.Empty(t, carl.Stellar)
	assert.Equal(t, []string{"No Stellar account found"}, carl.Reasons)
	assert.NotContains(t, f.identity.ResolvePersonalTokenCalls, "carl")

	// The payment lookup window is the lookback behind the injected clock.
	require.Len(t, f.ledger.PaymentsCalls, 1)
	assert.Equal(t, testNow.Add(-365*24*time.Hour), f.ledger.PaymentsCalls[0].Since)
}

func TestEngine_Run_ExpertShortCircuitsPaymentCheck(t *testing.T) {
	f := newTestFixture()
	f.chat.MembersFn = func(_ context.Context, _ int64) ([]model.Member, error) {
		return []model.Member{{Handle: "alice"}}, nil
	}

	report, err := f.engine().Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Success())
	assert.Empty(t, f.identity.ResolvePersonalTokenCalls)
	assert.Empty(t, f.ledger.PaymentsCalls)
}

func TestEngine_Run_NoPersonalToken(t *testing.T) {
	f := newTestFixture()
	f.chat.MembersFn = func(_ context.Context, _ int64) ([]model.Member, error) {
		return []model.Member{{Handle: "bob"}}, nil
	}
	f.identity.ResolvePersonalTokenFn = func(_ context.Context, _ string) (*model.PersonalToken, error) {
		return nil, nil
	}

	report, err := f.engine().Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Violations, 1)
	assert.Equal(t, []string{"No expert tag and no personal token found"}, report.Violations[0].Reasons)
	assert.Equal(t, model.Account("GBOB"), report.Violations[0].Stellar)
}

func TestEngine_Run_InsufficientPayments(t *testing.T) {
	f := newTestFixture()
	f.chat.MembersFn = func(_ context.Context, _ int64) ([]model.Member, error) {
		return []model.Member{{Handle: "bob"}}, nil
	}
	f.ledger.PaymentsFn = func(_ context.Context, _ model.Account, _ time.Time) ([]model.PaymentRecord, error) {
		return []model.PaymentRecord{{
			Asset:     model.AssetSpec{Code: "BOB", Issuer: "I"},
			From:      "GBOB",
			To:        testAssociation,
			CreatedAt: testNow.Add(-80 * 24 * time.Hour),
			Hash:      "stale",
			Amount:    decimal.NewFromInt(4),
		}}, nil
	}

	report, err := f.engine().Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Violations, 1)
	assert.Equal(t, []string{
		"No expert tag found",
		"Insufficient token payments: 4 tokens cover only 1 months",
	}, report.Violations[0].Reasons)
}

func TestEngine_Run_NoPaymentsFound(t *testing.T) {
	f := newTestFixture()
	f.chat.MembersFn = func(_ context.Context, _ int64) ([]model.Member, error) {
		return []model.Member{{Handle: "bob"}}, nil
	}
	f.ledger.PaymentsFn = func(_ context.Context, _ model.Account, _ time.Time) ([]model.PaymentRecord, error) {
		// Payments exist but none match the personal token paid into the
		// association: wrong issuer and wrong beneficiary.
		return []model.PaymentRecord{
			{
				Asset:     model.AssetSpec{Code: "BOB", Issuer: "OTHER"},
				From:      "GBOB",
				To:        testAssociation,
				CreatedAt: testNow.Add(-24 * time.Hour),
				Hash:      "wrong-issuer",
				Amount:    decimal.NewFromInt(100),
			},
			{
				Asset:     model.AssetSpec{Code: "BOB", Issuer: "I"},
				From:      testAssociation,
				To:        "GBOB",
				CreatedAt: testNow.Add(-24 * time.Hour),
				Hash:      "wrong-way",
				Amount:    decimal.NewFromInt(100),
			},
		}, nil
	}

	report, err := f.engine().Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Violations, 1)
	assert.Equal(t, []string{
		"No expert tag found",
		"No token payments found in last year",
	}, report.Violations[0].Reasons)
}

func TestEngine_Run_ThirdPartySponsorReported(t *testing.T) {
	f := newTestFixture()
	f.chat.MembersFn = func(_ context.Context, _ int64) ([]model.Member, error) {
		return []model.Member{{Handle: "bob"}}, nil
	}
	f.ledger.PaymentsFn = func(_ context.Context, _ model.Account, _ time.Time) ([]model.PaymentRecord, error) {
		return []model.PaymentRecord{{
			Asset:     model.AssetSpec{Code: "BOB", Issuer: "I"},
			From:      "GSPONSOR",
			To:        testAssociation,
			CreatedAt: testNow.Add(-24 * time.Hour),
			Hash:      "sponsored",
			Amount:    decimal.NewFromInt(8),
		}}, nil
	}

	report, err := f.engine().Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Verifications, 1)
	assert.Equal(t, model.Account("GSPONSOR"), report.Verifications[0].Basis.Details.PaymentFrom)
}

func TestEngine_Run_MemberErrorIsIsolated(t *testing.T) {
	f := newTestFixture()
	f.ledger.PaymentsFn = func(_ context.Context, account model.Account, _ time.Time) ([]model.PaymentRecord, error) {
		if account == "GBOB" {
			return nil, errors.New("horizon unreachable")
		}
		return []model.PaymentRecord{}, nil
	}

	report, err := f.engine().Run(context.Background())
	require.NoError(t, err)

	// bob's failure becomes bob's violation; alice and carl still get their
	// verdicts and the member order is preserved.
	require.Len(t, report.Violations, 2)
	assert.Equal(t, "bob", report.Violations[0].Username)
	require.Len(t, report.Violations[0].Reasons, 1)
	assert.Contains(t, report.Violations[0].Reasons[0], "evaluation failed")
	assert.Contains(t, report.Violations[0].Reasons[0], "horizon unreachable")
	assert.Equal(t, "carl", report.Violations[1].Username)

	require.Len(t, report.Verifications, 1)
	assert.Equal(t, "alice", report.Verifications[0].Username)
}

func TestEngine_Run_RegistryLoadErrorAbortsRun(t *testing.T) {
	f := newTestFixture()
	f.ledger.AllDataFn = func(_ context.Context, _ model.Account) (map[string]string, error) {
		return nil, errors.New("horizon unreachable")
	}

	_, err := f.engine().Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.chat.MembersCalls)
}

func TestEngine_Run_Idempotent(t *testing.T) {
	f := newTestFixture()
	e := f.engine()

	first, err := e.Run(context.Background())
	require.NoError(t, err)
	second, err := e.Run(context.Background())
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestEngine_Run_MemberHook(t *testing.T) {
	f := newTestFixture()

	var seen []string
	e := f.engine(WithMemberHook(func(member model.Member) {
		seen = append(seen, member.Handle)
	}))

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carl"}, seen)
}
