package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatekit/gatekit/pkg/config"
)

// Each test uses its own config type because parsed values are cached
// per type for the life of the process.

func TestLoad(t *testing.T) {
	t.Run("reads environment variables", func(t *testing.T) {
		type basicConfig struct {
			Name    string        `env:"LOADER_TEST_NAME"`
			Port    int           `env:"LOADER_TEST_PORT"`
			Timeout time.Duration `env:"LOADER_TEST_TIMEOUT"`
		}

		t.Setenv("LOADER_TEST_NAME", "gatekit")
		t.Setenv("LOADER_TEST_PORT", "8080")
		t.Setenv("LOADER_TEST_TIMEOUT", "30s")

		var cfg basicConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "gatekit", cfg.Name)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
	})

	t.Run("applies defaults", func(t *testing.T) {
		type defaultConfig struct {
			Addr string `env:"LOADER_TEST_UNSET_ADDR" envDefault:":8080"`
		}

		var cfg defaultConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, ":8080", cfg.Addr)
	})

	t.Run("required variable missing", func(t *testing.T) {
		type requiredConfig struct {
			Secret string `env:"LOADER_TEST_UNSET_SECRET,required"`
		}

		var cfg requiredConfig
		err := config.Load(&cfg)
		require.ErrorIs(t, err, config.ErrParseFailed)
	})

	t.Run("nil pointer", func(t *testing.T) {
		err := config.Load[struct{}](nil)
		require.ErrorIs(t, err, config.ErrNilPointer)
	})

	t.Run("caches by type", func(t *testing.T) {
		type cachedConfig struct {
			Value string `env:"LOADER_TEST_CACHED"`
		}

		t.Setenv("LOADER_TEST_CACHED", "first")
		var first cachedConfig
		require.NoError(t, config.Load(&first))
		require.Equal(t, "first", first.Value)

		// Later environment changes must not leak into the cached copy.
		t.Setenv("LOADER_TEST_CACHED", "second")
		var second cachedConfig
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "first", second.Value)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("panics on failure", func(t *testing.T) {
		type mustConfig struct {
			Secret string `env:"LOADER_TEST_UNSET_MUST,required"`
		}

		assert.Panics(t, func() {
			var cfg mustConfig
			config.MustLoad(&cfg)
		})
	})

	t.Run("succeeds", func(t *testing.T) {
		type mustOKConfig struct {
			Addr string `env:"LOADER_TEST_MUST_ADDR" envDefault:":9090"`
		}

		var cfg mustOKConfig
		assert.NotPanics(t, func() { config.MustLoad(&cfg) })
		assert.Equal(t, ":9090", cfg.Addr)
	})
}
