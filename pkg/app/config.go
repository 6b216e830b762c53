package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFlagName = "config"

// envPrefix is prepended to every environment variable read by the bridge,
// e.g. EFLS_MQTT_BROKER for --mqtt.broker.
const envPrefix = "EFLS"

func addConfigFlag(basename string, fs *pflag.FlagSet) *string {
	return fs.StringP(configFlagName, "c", "", fmt.Sprintf("Read %s configuration from the specified YAML file; flags override file values.", basename))
}

// loadConfig layers the config file and EFLS_* environment variables under the
// command line flags and decodes the result onto opts.
func loadConfig(v *viper.Viper, cfgFile string, fs *pflag.FlagSet, opts any) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read configuration file %q: %w", cfgFile, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return err
	}

	if err := v.Unmarshal(opts); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
