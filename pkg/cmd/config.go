// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = ".qrpm"
	envPrefix  = "QRPM"
)

// ConfigureFlagsFunc fills flags that were not given on the command line
// from QRPM_* environment variables (eg. QRPM_SEARCH_DIR) and from
// .qrpm.yml in configDir (the home directory when empty).
func ConfigureFlagsFunc(configDir string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		v, err := newConfig(configDir)
		if err != nil {
			return err
		}
		return applyConfig(v, cmd.Flags())
	}
}

func newConfig(configDir string) (*viper.Viper, error) {
	if configDir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("Finding home directory: %s", err)
		}
		configDir = home
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	err := v.ReadInConfig()
	if err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("Reading configuration '%s': %s", v.ConfigFileUsed(), err)
		}
	}
	return v, nil
}

func applyConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	var lastErr error

	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Changed || flag.Name == "help" || flag.Name == "version" {
			return
		}
		// AutomaticEnv only applies to keys viper knows about
		err := v.BindEnv(flag.Name)
		if err != nil {
			lastErr = err
			return
		}
		if !v.IsSet(flag.Name) {
			return
		}

		var vals []string
		switch flag.Value.Type() {
		case "stringArray", "stringSlice":
			vals = v.GetStringSlice(flag.Name)
		default:
			vals = []string{v.GetString(flag.Name)}
		}

		for _, val := range vals {
			err := flags.Set(flag.Name, val)
			if err != nil {
				lastErr = fmt.Errorf("Setting flag '%s' from configuration: %s", flag.Name, err)
			}
		}
	})

	return lastErr
}
