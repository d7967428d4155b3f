package main

import (
	"fmt"
	"os"

	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	deorbit "github.com/TenessyD/MGA802-projet-final"
)

var logger = kitlog.With(kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr)), "ts", kitlog.DefaultTimestampUTC)

var rootCmd = &cobra.Command{
	Use:   "deorbit",
	Short: "Electrodynamic tether deorbit time estimator",
	Long: `Estimates the time a satellite takes to decay from its orbit down to the re-entry
altitude (100 km) under atmospheric drag and the Lorentz braking of an electrodynamic tether.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(runCmd, serveCmd, materialsCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readScenario reads the scenario file of the command, letting the bound flags override it.
func readScenario(v *viper.Viper, filename string) (*deorbit.Scenario, error) {
	if filename == "" {
		return nil, fmt.Errorf("no scenario provided (--scenario)")
	}
	v.SetConfigFile(filename)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	logger.Log("level", "info", "subsys", "config", "file", v.ConfigFileUsed())
	return deorbit.ScenarioFromViper(v)
}

// bindFlags binds the named flags of cmd to their scenario keys.
func bindFlags(cmd *cobra.Command, v *viper.Viper, keys map[string]string) error {
	for flag, key := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}
