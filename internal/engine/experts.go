package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/montelibero/npi/internal/model"
	"github.com/montelibero/npi/internal/service"
)

// expertSlotPattern matches the data entry keys that grant expert status.
var expertSlotPattern = regexp.MustCompile(`^Expert[0-9]+$`)

// ExpertRegistry maps expert slot keys to the accounts placed in them. It is
// built fresh per run and read-only afterwards, so it may be shared freely.
type ExpertRegistry map[string]model.Account

// IsExpert reports whether the account occupies any expert slot. Membership
// is by slot value, never by slot name; duplicate slot values are harmless.
func (r ExpertRegistry) IsExpert(account model.Account) bool {
	for _, registered := range r {
		if registered == account {
			return true
		}
	}
	return false
}

// LoadExpertRegistry scans the association account's data entries for expert
// slots.
func LoadExpertRegistry(ctx context.Context, ledger service.LedgerQuery, association model.Account) (ExpertRegistry, error) {
	data, err := ledger.AllData(ctx, association)
	if err != nil {
		return nil, fmt.Errorf("failed to load expert tags from %s: %w", association, err)
	}

	registry := make(ExpertRegistry)
	for key, value := range data {
		if expertSlotPattern.MatchString(key) {
			registry[key] = model.Account(value)
		}
	}

	slog.Debug("Expert tags loaded", "count", len(registry))

	return registry, nil
}
