package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chrishsmith/sourcify-sub007/internal/cli"
	"github.com/chrishsmith/sourcify-sub007/internal/config"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect rate and oracle caching configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the configured cache behavior",
		Long: `Show how rate and oracle caching is configured. Both caches are held
in memory for the duration of a single invocation, so there is nothing
persistent to clear between runs.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Println(cli.FormatTitle("Cache configuration"))

			liveURL := viper.GetString("rates.live_url")
			if liveURL == "" {
				fmt.Println(cli.FormatInfo("live rates disabled; live-flagged programs use catalog rates"))
			} else {
				ttl := viper.GetDuration("rates.cache_ttl")
				if ttl == 0 {
					ttl = 15 * time.Minute
				}
				fmt.Println(cli.FormatInfo("live rate source: " + liveURL))
				fmt.Printf("  rate cache TTL: %s\n", ttl)
				fmt.Println(cli.SubtleStyle.Render("  expired entries are kept and served stale when the source is down"))
			}

			oracleCfg := config.OracleFromViper()
			if oracleCfg.Provider == "" || oracleCfg.Provider == "none" {
				fmt.Println(cli.FormatInfo("oracle disabled; classification is keyword-only"))
			} else {
				fmt.Println(cli.FormatInfo("oracle provider: " + oracleCfg.Provider))
				fmt.Printf("  suggestion cache TTL: %s\n", oracleCfg.CacheTTL)
				fmt.Printf("  rate limit: %d requests/minute\n", oracleCfg.RateLimit)
			}
			return nil
		},
	})

	return cmd
}
