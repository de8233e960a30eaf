// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/montelibero/npi/internal/engine"
	"github.com/montelibero/npi/internal/grist"
	"github.com/montelibero/npi/internal/horizon"
	"github.com/montelibero/npi/internal/model"
	"github.com/montelibero/npi/internal/tgmembers"
)

// LoadHorizonConfig loads the Horizon client configuration from Viper and
// environment variables. It follows this precedence:
// 1. Viper configuration (from config file or NPI_ env vars)
// 2. Direct environment variables (HORIZON_*)
// 3. Default values
func LoadHorizonConfig() (*horizon.Config, error) {
	config := horizon.DefaultConfig()

	if v := viper.GetString("horizon.url"); v != "" {
		config.URL = v
	} else if v := os.Getenv("HORIZON_URL"); v != "" {
		config.URL = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadGristConfig loads the Grist client configuration from Viper and
// environment variables.
func LoadGristConfig() (*grist.Config, error) {
	config := grist.DefaultConfig()

	if v := viper.GetString("grist.token"); v != "" {
		config.Token = v
	}
	if v := viper.GetString("grist.base_url"); v != "" {
		config.BaseURL = v
	}
	if v := viper.GetString("grist.doc_id"); v != "" {
		config.DocID = v
	}
	if v := viper.GetString("grist.users_table"); v != "" {
		config.UsersTable = v
	}

	if config.Token == "" {
		config.Token = os.Getenv("GRIST_TOKEN")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadTgMembersConfig loads the chat membership service configuration from
// Viper and environment variables.
func LoadTgMembersConfig() (*tgmembers.Config, error) {
	config := tgmembers.DefaultConfig()

	if v := viper.GetString("tgmembers.token"); v != "" {
		config.Token = v
	}
	if v := viper.GetString("tgmembers.base_url"); v != "" {
		config.BaseURL = v
	}

	if config.Token == "" {
		config.Token = os.Getenv("TELEGRAM_MEMBERS_TOKEN")
	}
	if v := os.Getenv("TELEGRAM_MEMBERS_BASE_URL"); v != "" && viper.GetString("tgmembers.base_url") == "" {
		config.BaseURL = v
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadMembershipConfig loads the compliance engine configuration. The
// defaults correspond to the production association deployment.
func LoadMembershipConfig() (engine.Config, error) {
	config := engine.DefaultConfig()

	if v := viper.GetString("membership.association_account"); v != "" {
		config.AssociationAccount = model.Account(v)
	}
	if viper.IsSet("membership.chat_id") {
		config.ChatID = viper.GetInt64("membership.chat_id")
	}
	if v := viper.GetString("membership.tokens_per_month"); v != "" {
		tokens, err := decimal.NewFromString(v)
		if err != nil {
			return engine.Config{}, fmt.Errorf("invalid membership.tokens_per_month %q: %w", v, err)
		}
		config.TokensPerMonth = tokens
	}
	if viper.IsSet("membership.lookback") {
		config.Lookback = viper.GetDuration("membership.lookback")
	}

	if config.TokensPerMonth.LessThanOrEqual(decimal.Zero) {
		return engine.Config{}, fmt.Errorf("membership.tokens_per_month must be positive")
	}
	if config.Lookback <= 0 {
		return engine.Config{}, fmt.Errorf("membership.lookback must be positive")
	}

	return config, nil
}
