package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the persistent identifier cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired identifier-cache entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := openCacheStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return eris.New("cache purge: no persistent cache configured (set cache.driver)")
		}
		defer store.Close()

		if err := store.Migrate(ctx); err != nil {
			return err
		}
		purged, err := store.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d expired cache entries.\n", purged)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
