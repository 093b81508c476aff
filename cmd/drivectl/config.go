package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "DRIVECTL"
	configFileName = ".drivectl"
	configFileType = "yaml"

	cfgKeyServer     = "server"
	cfgKeyToken      = "token"
	cfgKeyAdminToken = "admin-token"
	cfgKeySigningKey = "signing-key"
	cfgKeyOutput     = "output"

	defaultServer = "http://localhost:8080"
	defaultOutput = outputYAML
)

// settings is the resolved CLI configuration. Flags win over DRIVECTL_*
// environment variables, which win over the config file.
type settings struct {
	Server     string
	Token      string
	AdminToken string
	SigningKey string
	Output     string
}

// loadSettings reads configPath, or ~/.drivectl.yaml when it is empty.
// A missing default file is not an error.
func loadSettings(v *viper.Viper, flags *pflag.FlagSet, configPath string) (settings, error) {
	v.SetDefault(cfgKeyServer, defaultServer)
	v.SetDefault(cfgKeyOutput, defaultOutput)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return settings{}, fmt.Errorf("bind flags: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := settings{
		Server:     strings.TrimRight(v.GetString(cfgKeyServer), "/"),
		Token:      v.GetString(cfgKeyToken),
		AdminToken: v.GetString(cfgKeyAdminToken),
		SigningKey: v.GetString(cfgKeySigningKey),
		Output:     v.GetString(cfgKeyOutput),
	}
	if s.Output != outputYAML && s.Output != outputJSON {
		return settings{}, fmt.Errorf("output must be %s or %s, got %q", outputYAML, outputJSON, s.Output)
	}
	return s, nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configFileName + "." + configFileType
	}
	return filepath.Join(home, configFileName+"."+configFileType)
}
