package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/credence/internal/model"
)

// Oracle and link check flags shared by check and batch
var (
	providerName string
	modelName    string
	payloadPath  string
	noLinkCheck  bool
	linkBudget   int
	noCache      bool
	noFooter     bool
	httpProxy    string
	httpsProxy   string
	metricsFile  string
)

func addOracleFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&providerName, "provider", "", "oracle provider (openai, anthropic, ollama, file)")
	cmd.Flags().StringVar(&modelName, "model", "", "oracle model name")
	cmd.Flags().StringVar(&payloadPath, "sources", "", "evaluate a saved oracle payload instead of calling a provider")
	cmd.Flags().BoolVar(&noLinkCheck, "no-link-check", false, "skip live link verification")
	cmd.Flags().IntVar(&linkBudget, "link-budget", 0, "maximum live link checks per claim (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the oracle response cache")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
}

// registerDefaults makes every config key known to viper so that CREDENCE_*
// environment variables apply to keys absent from the config file
func registerDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}

	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for k, val := range node {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if child, ok := val.(map[string]any); ok {
				walk(key, child)
				continue
			}
			v.SetDefault(key, val)
		}
	}
	walk("", tree)

	// Secrets are never written to config files, so they have no YAML key
	return v.BindEnv("oracle.api_key")
}

// loadConfig resolves defaults, config file and environment into a Config
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	return cfg, nil
}

// applyFlags layers command line flags over the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *model.Config) error {
	if cmd.Flags().Changed("provider") {
		cfg.Oracle.Provider = providerName
	}
	if cmd.Flags().Changed("model") {
		cfg.Oracle.Model = modelName
	}
	if payloadPath != "" {
		cfg.Oracle.Provider = "file"
		cfg.Oracle.PayloadPath = payloadPath
	}
	if noLinkCheck {
		cfg.LinkCheck.Enabled = false
	}
	if linkBudget > 0 {
		cfg.LinkCheck.Budget = linkBudget
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if httpProxy != "" {
		cfg.LinkCheck.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.LinkCheck.HTTPSProxy = httpsProxy
	}
	cfg.Output.Verbose = verbose

	return applyProviderEnv(cfg)
}

// applyProviderEnv fills provider credentials from the conventional
// environment variables when the configuration carries none
func applyProviderEnv(cfg *model.Config) error {
	switch strings.ToLower(cfg.Oracle.Provider) {
	case "openai":
		if cfg.Oracle.APIKey == "" {
			cfg.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.Oracle.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if cfg.Oracle.APIKey == "" {
			cfg.Oracle.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.Oracle.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.Oracle.BaseURL == "" {
			cfg.Oracle.BaseURL = baseURL
		}
	}
	return nil
}
