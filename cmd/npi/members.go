package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/montelibero/npi/internal/config"
	"github.com/montelibero/npi/internal/tgmembers"
)

func membersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "members",
		Short:        "List the members of the governance chat",
		RunE:         runMembers,
		SilenceUsage: true,
	}

	cmd.Flags().Int64("chat-id", 0, "Chat to list (defaults to the governance chat)")
	_ = viper.BindPFlag("members.chat_id", cmd.Flags().Lookup("chat-id"))

	return cmd
}

func runMembers(cmd *cobra.Command, _ []string) error {
	tgCfg, err := config.LoadTgMembersConfig()
	if err != nil {
		return err
	}
	chat, err := tgmembers.NewClient(*tgCfg)
	if err != nil {
		return err
	}

	chatID := viper.GetInt64("members.chat_id")
	if chatID == 0 {
		engineCfg, err := config.LoadMembershipConfig()
		if err != nil {
			return err
		}
		chatID = engineCfg.ChatID
	}

	members, err := chat.Members(cmd.Context(), chatID)
	if err != nil {
		return err
	}

	for _, member := range members {
		fmt.Println(member.Handle)
	}

	return nil
}
