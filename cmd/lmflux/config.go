package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lmflux/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration or write a default config file",
	RunE:  runConfig,
}

var configInit string

func init() {
	configCmd.Flags().StringVar(&configInit, "init", "", "Write a default config file to this path")
}

func runConfig(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if configInit != "" {
		if _, err := os.Stat(configInit); err == nil {
			return fmt.Errorf("%s already exists", configInit)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := config.Default().Save(configInit); err != nil {
			return err
		}
		fmt.Fprintln(out, valueStyle.Render("Created "+configInit))
		return nil
	}

	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, titleStyle.Render("Effective configuration"))
	fmt.Fprintln(out)
	fmt.Fprint(out, data)

	fmt.Fprintln(out)
	fmt.Fprintln(out, labelStyle.Render("Sources (highest precedence first):"))
	fmt.Fprintln(out, "  1. LMFLUX_* environment variables (also read from .env)")
	fmt.Fprintln(out, "  2. OPENAI_API_BASE / OPENAI_API_KEY")
	fmt.Fprintln(out, "  3. --config, ./lmflux.yaml or ~/.lmflux/lmflux.yaml")
	return nil
}
