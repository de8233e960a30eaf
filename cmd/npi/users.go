package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/montelibero/npi/internal/common"
	"github.com/montelibero/npi/internal/config"
	"github.com/montelibero/npi/internal/grist"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Look up users in the association directory",
	}

	cmd.AddCommand(usersStellarByTelegramCmd())

	return cmd
}

func usersStellarByTelegramCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "stellar-by-telegram <handle>",
		Short:        "Print the Stellar account registered for a Telegram handle",
		Args:         cobra.ExactArgs(1),
		RunE:         runUsersStellarByTelegram,
		SilenceUsage: true,
	}
}

func runUsersStellarByTelegram(cmd *cobra.Command, args []string) error {
	gristCfg, err := config.LoadGristConfig()
	if err != nil {
		return err
	}
	identity, err := grist.NewClient(*gristCfg)
	if err != nil {
		return err
	}

	account, err := identity.ResolveAccount(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if account == "" {
		return common.NewUserError(fmt.Sprintf("no Stellar account registered for %s", args[0]), nil)
	}

	fmt.Println(account)

	return nil
}
