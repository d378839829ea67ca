package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Profile is the runtime configuration for the coach engine.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Data is the data directory
	Data string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// DSN points to where coach stores its own data
	DSN string
	// Version is the current version of the binary
	Version string
	// TokenBudget caps the assembled context packet size
	TokenBudget int

	// Advisor configuration
	AdvisorEnabled bool   // COACH_ADVISOR_ENABLED (default: false)
	AdvisorAPIKey  string // COACH_ADVISOR_API_KEY
	AdvisorBaseURL string // COACH_ADVISOR_BASE_URL (default: https://api.openai.com/v1)
	AdvisorModel   string // COACH_ADVISOR_MODEL (default: gpt-4o-mini)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAdvisorEnabled returns true if the advisor is enabled and an API key is configured.
func (p *Profile) IsAdvisorEnabled() bool {
	return p.AdvisorEnabled && p.AdvisorAPIKey != ""
}

// FromViper loads configuration from bound flags and COACH_* environment variables.
func FromViper() (*Profile, error) {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("data", "")
	viper.SetDefault("token-budget", 0)
	viper.SetDefault("advisor-base-url", "https://api.openai.com/v1")
	viper.SetDefault("advisor-model", "gpt-4o-mini")

	p := &Profile{
		Mode:           viper.GetString("mode"),
		Data:           viper.GetString("data"),
		Driver:         viper.GetString("driver"),
		DSN:            viper.GetString("dsn"),
		TokenBudget:    viper.GetInt("token-budget"),
		AdvisorEnabled: viper.GetBool("advisor-enabled"),
		AdvisorAPIKey:  viper.GetString("advisor-api-key"),
		AdvisorBaseURL: viper.GetString("advisor-base-url"),
		AdvisorModel:   viper.GetString("advisor-model"),
	}
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid profile")
	}
	return p, nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver: %s", p.Driver)
	}

	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for postgres driver")
	}

	if p.Data == "" {
		if p.Mode == "prod" {
			if runtime.GOOS == "windows" {
				p.Data = filepath.Join(os.Getenv("ProgramData"), "coach")
				if _, err := os.Stat(p.Data); os.IsNotExist(err) {
					if err := os.MkdirAll(p.Data, 0770); err != nil {
						slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
						return err
					}
				}
			} else {
				p.Data = "/var/opt/coach"
			}
		} else {
			p.Data = "."
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("coach_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
