package config

import (
	"runtime"
	"testing"

	"gogsea/domain/core"
	"gogsea/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HUMAN_GMT_PATH", "/data/human.gmt")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8070", cfg.Server.Port)
	assert.Equal(t, "6060", cfg.Admin.Port)
	assert.True(t, cfg.Admin.Enabled)
	assert.Equal(t, 1000, cfg.Engine.DefaultPermutations)
	assert.Equal(t, 10000, cfg.Engine.MaxPermutations)
	assert.Equal(t, runtime.NumCPU(), cfg.Engine.Workers)
	assert.Equal(t, 2, cfg.Engine.MaxConcurrentAnalyses)
	assert.Equal(t, "memory", cfg.RunStore.Driver)
	assert.False(t, cfg.Catalogs.UpperCase)
	assert.Equal(t, []core.Species{core.SpeciesHuman}, cfg.SpeciesList())
}

func TestLoad_ExtraSpecies(t *testing.T) {
	t.Setenv("HUMAN_GMT_PATH", "/data/human.gmt")
	t.Setenv("MOUSE_GMT_PATH", "s3://catalogs/mouse.gmt.gz")
	t.Setenv("GMT_PATH_RAT", "/data/rat.gmt")
	t.Setenv("SYMBOL_CASE", "upper")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []core.Species{core.SpeciesHuman, core.SpeciesMouse, "rat"}, cfg.SpeciesList())
	assert.Equal(t, "s3://catalogs/mouse.gmt.gz", cfg.Catalogs.Locations[core.SpeciesMouse])
	assert.True(t, cfg.Catalogs.UpperCase)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "no catalogs", env: map[string]string{}},
		{name: "zero permutations", env: map[string]string{"HUMAN_GMT_PATH": "h.gmt", "DEFAULT_PERMUTATIONS": "0"}},
		{name: "max below default", env: map[string]string{"HUMAN_GMT_PATH": "h.gmt", "MAX_PERMUTATIONS": "10"}},
		{name: "zero workers", env: map[string]string{"HUMAN_GMT_PATH": "h.gmt", "ENGINE_WORKERS": "0"}},
		{name: "unknown store", env: map[string]string{"HUMAN_GMT_PATH": "h.gmt", "RUN_STORE_DRIVER": "mysql"}},
		{name: "postgres without url", env: map[string]string{"HUMAN_GMT_PATH": "h.gmt", "RUN_STORE_DRIVER": "postgres"}},
		{name: "same ports", env: map[string]string{"HUMAN_GMT_PATH": "h.gmt", "PORT": "9000", "ADMIN_PORT": "9000"}},
		{name: "bad norm mode", env: map[string]string{"HUMAN_GMT_PATH": "h.gmt", "NORM_MODE": "median"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HUMAN_GMT_PATH", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoadCatalogConfig_IgnoresEmptyEntries(t *testing.T) {
	t.Setenv("HUMAN_GMT_PATH", "")
	t.Setenv("MOUSE_GMT_PATH", "")
	cfg := loadCatalogConfig([]string{"GMT_PATH_FLY=", "GMT_PATH_WORM=/data/worm.gmt", "OTHER=1"})
	assert.Equal(t, map[core.Species]string{"worm": "/data/worm.gmt"}, cfg.Locations)
}
