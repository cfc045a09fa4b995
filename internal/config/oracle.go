package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/chrishsmith/sourcify-sub007/internal/oracle"
)

// OracleFromViper builds the oracle configuration from the loaded viper
// state, applying defaults for everything unset.
func OracleFromViper() oracle.Config {
	cfg := oracle.Config{
		Provider:   viper.GetString("oracle.provider"),
		APIKey:     viper.GetString("oracle.api_key"),
		BaseURL:    viper.GetString("oracle.base_url"),
		Model:      viper.GetString("oracle.model"),
		MaxRetries: viper.GetInt("oracle.max_retries"),
		RetryDelay: viper.GetDuration("oracle.retry_delay"),
		CacheTTL:   viper.GetDuration("oracle.cache_ttl"),
		RateLimit:  viper.GetInt("oracle.rate_limit"),
		MaxTokens:  viper.GetInt("oracle.max_tokens"),
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 60
	}
	return cfg
}
