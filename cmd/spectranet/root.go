// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"spectranet/internal/config"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "spectranet",
	Short: "SpectraNet - spectral dataset catalog",
	Long: `SpectraNet is the web front end of the spectral dataset catalog. It renders
the public catalog, the upload wizard and the administration pages on top of
the catalog REST API.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
}

// loadConfig seeds the environment from the dotenv file and reads the
// configuration.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr(), "api", cfg.APIURL)
	return cfg, nil
}
