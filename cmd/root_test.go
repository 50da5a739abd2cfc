package main

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lotus-cli/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{Driver: "off"},
		Input: config.InputConfig{
			ChemicalNameColumn: "compound",
			SMILESColumn:       "structure",
			TaxonColumn:        "organism",
			DOIColumn:          "doi",
		},
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"import", "validate", "serve", "cache"} {
		assert.True(t, names[want], "command %q not registered", want)
	}
}

func TestImportRequiresInputFlag(t *testing.T) {
	flag := importCmd.Flags().Lookup("input")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
	assert.Equal(t, "batch.qs", importCmd.Flags().Lookup("output").DefValue)
}

func TestInputColumnsFromConfig(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()
	cfg = testConfig()

	cols := inputColumns()
	assert.Equal(t, "compound", cols.ChemicalName)
	assert.Equal(t, "structure", cols.SMILES)
	assert.Equal(t, "organism", cols.Taxon)
	assert.Equal(t, "doi", cols.DOI)
}

func TestOpenCacheStoreOff(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()
	cfg = testConfig()

	store, err := openCacheStore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestSignalContextCancelsOnInterrupt(t *testing.T) {
	ctx, stop := signalContext(context.Background())
	defer stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled after interrupt")
	}
}

func TestOpenCacheStoreUnknownDriver(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()
	cfg = testConfig()
	cfg.Cache.Driver = "bolt"

	_, err := openCacheStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown cache driver "bolt"`)
}
