// Package engine implements the membership compliance engine: it pages
// through each member's payment history, resolves expert tags, and produces a
// per-member verdict with an auditable justification.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/montelibero/npi/internal/model"
	"github.com/montelibero/npi/internal/service"
)

// Config holds the membership protocol parameters.
type Config struct {
	AssociationAccount model.Account
	TokensPerMonth     decimal.Decimal
	ChatID             int64
	Lookback           time.Duration
}

// DefaultConfig returns the parameters of the management chat protocol.
func DefaultConfig() Config {
	return Config{
		AssociationAccount: "GCNVDZIHGX473FEI7IXCUAEXUJ4BGCKEMHF36VYP5EMS7PX2QBLAMTLA",
		ChatID:             -1001798357244,
		TokensPerMonth:     decimal.NewFromInt(4),
		Lookback:           365 * 24 * time.Hour,
	}
}

// Engine orchestrates the per-member membership checks.
type Engine struct {
	ledger   service.LedgerQuery
	identity service.IdentityDirectory
	chat     service.ChatDirectory
	logger   *slog.Logger
	now      func() time.Time
	onMember func(member model.Member)
	config   Config
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock fixes the engine's notion of now, making runs reproducible.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMemberHook registers a callback invoked before each member is checked.
func WithMemberHook(fn func(member model.Member)) Option {
	return func(e *Engine) {
		e.onMember = fn
	}
}

// New creates a compliance engine with the given collaborators.
func New(ledger service.LedgerQuery, identity service.IdentityDirectory, chat service.ChatDirectory, config Config, opts ...Option) *Engine {
	e := &Engine{
		ledger:   ledger,
		identity: identity,
		chat:     chat,
		config:   config,
		logger:   slog.Default().With("component", "engine"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run performs one full compliance pass over the chat members.
//
// Members are checked sequentially in directory order and the report keeps
// that order. A collaborator failure while checking a single member becomes
// that member's violation and the pass continues; failures before the member
// loop abort the run.
func (e *Engine) Run(ctx context.Context) (*model.Report, error) {
	registry, err := LoadExpertRegistry(ctx, e.ledger, e.config.AssociationAccount)
	if err != nil {
		return nil, err
	}

	members, err := e.chat.Members(ctx, e.config.ChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat members: %w", err)
	}

	e.logger.Info("Starting membership check",
		"members", len(members),
		"experts", len(registry))

	report := &model.Report{
		Violations:    []model.Violation{},
		Verifications: []model.Verification{},
	}

	for _, member := range members {
		if e.onMember != nil {
			e.onMember(member)
		}
		e.logger.Debug("Checking member", "handle", member.Handle)

		verification, violation, err := e.checkMember(ctx, registry, member)
		switch {
		case err != nil:
			e.logger.Error("Member evaluation failed", "handle", member.Handle, "error", err)
			report.Violations = append(report.Violations, model.Violation{
				Username: member.Handle,
				Reasons:  []string{fmt.Sprintf("evaluation failed: %v", err)},
			})
		case violation != nil:
			report.Violations = append(report.Violations, *violation)
		default:
			report.Verifications = append(report.Verifications, *verification)
		}
	}

	e.logger.Info("Membership check finished",
		"violations", len(report.Violations),
		"verifications", len(report.Verifications))

	return report, nil
}

// checkMember evaluates one member. The checks run in a fixed order and the
// first terminal state wins: unresolved handle, expert tag, missing personal
// token, then the payment coverage check.
func (e *Engine) checkMember(ctx context.Context, registry ExpertRegistry, member model.Member) (*model.Verification, *model.Violation, error) {
	account, err := e.identity.ResolveAccount(ctx, member.Handle)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving account for %s: %w", member.Handle, err)
	}
	if account == "" {
		return nil, &model.Violation{
			Username: member.Handle,
			Reasons:  []string{"No Stellar account found"},
		}, nil
	}

	if registry.IsExpert(account) {
		return &model.Verification{
			Username: member.Handle,
			Stellar:  account,
			Basis:    model.Basis{Type: model.BasisExpert},
		}, nil, nil
	}

	token, err := e.identity.ResolvePersonalToken(ctx, member.Handle)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving personal token for %s: %w", member.Handle, err)
	}
	if token == nil {
		return nil, &model.Violation{
			Username: member.Handle,
			Stellar:  account,
			Reasons:  []string{"No expert tag and no personal token found"},
		}, nil
	}

	coverage, err := e.checkTokenPayments(ctx, account, *token)
	if err != nil {
		return nil, nil, fmt.Errorf("checking token payments for %s: %w", member.Handle, err)
	}

	if !coverage.Success {
		reason := "No token payments found in last year"
		if coverage.Last != nil {
			reason = fmt.Sprintf("Insufficient token payments: %s tokens cover only %d months",
				coverage.Total.String(), coverage.MonthsCovered)
		}
		return nil, &model.Violation{
			Username: member.Handle,
			Stellar:  account,
			Reasons:  []string{"No expert tag found", reason},
		}, nil
	}

	months := coverage.MonthsCovered
	details := model.BasisDetails{
		TransactionHash: coverage.Last.Hash,
		Date:            coverage.Last.CreatedAt.UTC().Format(time.RFC3339),
		TokensAmount:    coverage.Total.String(),
		MonthsCovered:   &months,
	}
	if coverage.Last.From != account {
		details.PaymentFrom = coverage.Last.From
	}

	return &model.Verification{
		Username: member.Handle,
		Stellar:  account,
		Basis:    model.Basis{Type: model.BasisTokenPayment, Details: details},
	}, nil, nil
}

func (e *Engine) checkTokenPayments(ctx context.Context, account model.Account, token model.PersonalToken) (Coverage, error) {
	now := e.now()
	since := now.Add(-e.config.Lookback)

	payments, err := e.ledger.Payments(ctx, account, since)
	if err != nil {
		return Coverage{}, err
	}

	spec := token.AssetSpec()
	relevant := make([]model.PaymentRecord, 0, len(payments))
	for _, rec := range payments {
		// Only payments of the member's token into the association count.
		if Matches(rec, e.config.AssociationAccount, spec, DirectionIn, "") {
			relevant = append(relevant, rec)
		}
	}

	return EvaluateCoverage(relevant, e.config.TokensPerMonth, now), nil
}
