package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/montelibero/npi/internal/checks"
	"github.com/montelibero/npi/internal/cli"
	"github.com/montelibero/npi/internal/config"
	"github.com/montelibero/npi/internal/engine"
	"github.com/montelibero/npi/internal/grist"
	"github.com/montelibero/npi/internal/horizon"
	"github.com/montelibero/npi/internal/model"
	"github.com/montelibero/npi/internal/tgmembers"
)

// errCheckFailed signals a failed check so the process exits non-zero.
var errCheckFailed = errors.New("check failed")

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run membership and account checks",
		Long: `Run compliance checks against the Stellar ledger.

The membership subcommand audits the whole governance chat; token, tx and
tag check a single account against a concrete condition.`,
	}

	cmd.AddCommand(checkMembershipCmd())
	cmd.AddCommand(checkTokenCmd())
	cmd.AddCommand(checkTxCmd())
	cmd.AddCommand(checkTagCmd())

	return cmd
}

func checkMembershipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "membership",
		Short: "Audit all chat members for a valid membership basis",
		Long: `Check every member of the governance chat for a valid basis of
membership: an expert tag in the association's registry, or membership-fee
payments in the member's personal token covering the elapsed time.

Exits non-zero when any member is in violation.`,
		RunE:         runCheckMembership,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("json", false, "Print the report as JSON")

	return cmd
}

func runCheckMembership(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	ledger, identity, chat, engineCfg, err := buildEngineDeps()
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("Checking members..."),
	)

	eng := engine.New(ledger, identity, chat, engineCfg,
		engine.WithMemberHook(func(member model.Member) {
			bar.Describe(fmt.Sprintf("Checking @%s", member.Handle))
			_ = bar.Add(1)
		}))

	report, err := eng.Run(cmd.Context())
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Print(cli.RenderReport(report))
	}

	if !report.Success() {
		return fmt.Errorf("found %d violations", len(report.Violations))
	}
	return nil
}

func checkTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "token",
		Short:        "Check that an account holds the required token balance",
		RunE:         runCheckToken,
		SilenceUsage: true,
	}

	cmd.Flags().String("account", "", "Account to check")
	cmd.Flags().String("asset", "", "Asset code (XLM for the native asset)")
	cmd.Flags().String("issuer", "", "Asset issuer account")
	cmd.Flags().String("min-amount", "", "Required amount")
	cmd.Flags().String("comparison", "gte", "Comparison operator (gte, lte, eq)")
	cmd.Flags().Bool("json", false, "Print the result as JSON")

	return cmd
}

func runCheckToken(cmd *cobra.Command, _ []string) error {
	ledger, err := buildLedger()
	if err != nil {
		return err
	}

	account, _ := cmd.Flags().GetString("account")
	asset, _ := cmd.Flags().GetString("asset")
	issuer, _ := cmd.Flags().GetString("issuer")
	minAmount, _ := cmd.Flags().GetString("min-amount")
	comparison, _ := cmd.Flags().GetString("comparison")

	result, err := checks.CheckToken(cmd.Context(), ledger, checks.TokenParams{
		Account:    model.Account(account),
		Asset:      asset,
		Issuer:     issuer,
		MinAmount:  minAmount,
		Comparison: comparison,
	})
	if err != nil {
		return err
	}

	return printCheckResult(cmd, result)
}

func checkTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tx",
		Short:        "Check that an account has a matching payment",
		RunE:         runCheckTx,
		SilenceUsage: true,
	}

	cmd.Flags().String("account", "", "Account to check")
	cmd.Flags().String("asset", "", "Asset code (XLM for the native asset)")
	cmd.Flags().String("issuer", "", "Asset issuer account (optional)")
	cmd.Flags().String("counterparty", "", "Required counterparty account (optional)")
	cmd.Flags().String("direction", "", "Payment direction (in, out; default either)")
	cmd.Flags().String("since", "", "Earliest payment time (RFC3339)")
	cmd.Flags().Bool("json", false, "Print the result as JSON")

	return cmd
}

func runCheckTx(cmd *cobra.Command, _ []string) error {
	ledger, err := buildLedger()
	if err != nil {
		return err
	}

	account, _ := cmd.Flags().GetString("account")
	asset, _ := cmd.Flags().GetString("asset")
	issuer, _ := cmd.Flags().GetString("issuer")
	counterparty, _ := cmd.Flags().GetString("counterparty")
	direction, _ := cmd.Flags().GetString("direction")
	sinceRaw, _ := cmd.Flags().GetString("since")

	var since time.Time
	if sinceRaw != "" {
		since, err = time.Parse(time.RFC3339, sinceRaw)
		if err != nil {
			return fmt.Errorf("invalid --since %q: %w", sinceRaw, err)
		}
	}

	result, err := checks.CheckTx(cmd.Context(), ledger, checks.TxParams{
		Account:      model.Account(account),
		Asset:        asset,
		Issuer:       issuer,
		Counterparty: model.Account(counterparty),
		Direction:    engine.Direction(direction),
		Since:        since,
	})
	if err != nil {
		return err
	}

	return printCheckResult(cmd, result)
}

func checkTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tag",
		Short:        "Check that two accounts are paired through data entry tags",
		RunE:         runCheckTag,
		SilenceUsage: true,
	}

	cmd.Flags().String("account", "", "Account to check")
	cmd.Flags().String("key", "", "Data entry key on the account")
	cmd.Flags().String("pair-key", "", "Data entry key on the pair account (defaults to --key)")
	cmd.Flags().Bool("json", false, "Print the result as JSON")

	return cmd
}

func runCheckTag(cmd *cobra.Command, _ []string) error {
	ledger, err := buildLedger()
	if err != nil {
		return err
	}

	account, _ := cmd.Flags().GetString("account")
	key, _ := cmd.Flags().GetString("key")
	pairKey, _ := cmd.Flags().GetString("pair-key")

	result, err := checks.CheckTag(cmd.Context(), ledger, checks.TagParams{
		Account: model.Account(account),
		Key:     key,
		PairKey: pairKey,
	})
	if err != nil {
		return err
	}

	return printCheckResult(cmd, result)
}

func printCheckResult(cmd *cobra.Command, result checks.Result) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	if asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Print(cli.RenderCheckResult(result))
	}

	if !result.Success {
		return errCheckFailed
	}
	return nil
}

func buildLedger() (*horizon.Client, error) {
	horizonCfg, err := config.LoadHorizonConfig()
	if err != nil {
		return nil, err
	}
	return horizon.NewClient(*horizonCfg)
}

func buildEngineDeps() (*horizon.Client, *grist.Client, *tgmembers.Client, engine.Config, error) {
	ledger, err := buildLedger()
	if err != nil {
		return nil, nil, nil, engine.Config{}, err
	}

	gristCfg, err := config.LoadGristConfig()
	if err != nil {
		return nil, nil, nil, engine.Config{}, err
	}
	identity, err := grist.NewClient(*gristCfg)
	if err != nil {
		return nil, nil, nil, engine.Config{}, err
	}

	tgCfg, err := config.LoadTgMembersConfig()
	if err != nil {
		return nil, nil, nil, engine.Config{}, err
	}
	chat, err := tgmembers.NewClient(*tgCfg)
	if err != nil {
		return nil, nil, nil, engine.Config{}, err
	}

	engineCfg, err := config.LoadMembershipConfig()
	if err != nil {
		return nil, nil, nil, engine.Config{}, err
	}

	return ledger, identity, chat, engineCfg, nil
}
