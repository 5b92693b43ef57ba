// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litfinder/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the fetch cache",
	Long: `The fetch cache keeps the merged records of recent searches in a SQLite
database so that repeating a search within the TTL (1h by default) does not
query the sources again.`,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached fetches",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig(viper.GetViper(), loadedSecrets)
		store, err := cache.NewStore(cfg.Cache)
		if err != nil {
			return err
		}
		defer store.Close()

		expired, _ := cmd.Flags().GetBool("expired")
		n, err := store.Purge(cmd.Context(), expired)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d cached fetch(es)\n", n)
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().Bool("expired", false, "only remove entries older than the TTL")

	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
