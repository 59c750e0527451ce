package cmd

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config controls formatting and batch behavior of the CLI.
type Config struct {
	Name       string   `yaml:"name"`
	Indent     string   `yaml:"indent"`
	Extensions []string `yaml:"extensions"`
	Compress   bool     `yaml:"compress"`
}

func defaultConfig() Config {
	return Config{
		Name:       "entkit",
		Indent:     "\t",
		Extensions: []string{".entities"},
		Compress:   false,
	}
}

// loadConfig reads the configuration file, falling back to defaults when no
// path is given and no .entkit.yaml exists in the working directory.
func loadConfig(configurationPath string) (Config, error) {
	config := defaultConfig()

	if configurationPath == "" {
		if _, err := os.Stat(".entkit.yaml"); err != nil {
			return config, nil
		}
		configurationPath = ".entkit.yaml"
	}

	f, err := os.Open(configurationPath)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&config); err != nil {
		return config, err
	}
	if config.Indent == "" {
		config.Indent = "\t"
	}
	if len(config.Extensions) == 0 {
		config.Extensions = []string{".entities"}
	}
	return config, nil
}
