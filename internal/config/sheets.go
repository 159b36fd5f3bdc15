package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/hostelctl/hostelctl/internal/sheets"
)

func setSheetsDefaults(v *viper.Viper) {
	defaults := sheets.DefaultConfig()

	v.SetDefault("sheets.spreadsheet_name", defaults.SpreadsheetName)
	v.SetDefault("sheets.time_zone", defaults.TimeZone)
	v.SetDefault("sheets.batch_size", defaults.BatchSize)
	v.SetDefault("sheets.retry_attempts", defaults.RetryAttempts)
	v.SetDefault("sheets.retry_delay", defaults.RetryDelay)
	v.SetDefault("sheets.formatting", defaults.EnableFormatting)
	v.SetDefault("sheets.token_file", filepath.Join(Dir(), "sheets-token.json"))
}

// LoadSheetsConfig loads Google Sheets configuration. Precedence:
// 1. the config file, HOSTEL_SHEETS_* env vars and flags (through v)
// 2. GOOGLE_SHEETS_* environment variables
// 3. a refresh token saved by `hostelctl sheets auth`
// 4. defaults
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	setSheetsDefaults(v)

	config := sheets.DefaultConfig()
	config.ServiceAccountPath = ExpandPath(v.GetString("sheets.service_account_path"))
	config.ClientID = v.GetString("sheets.client_id")
	config.ClientSecret = v.GetString("sheets.client_secret")
	config.RefreshToken = v.GetString("sheets.refresh_token")
	config.SpreadsheetID = v.GetString("sheets.spreadsheet_id")
	config.SpreadsheetName = v.GetString("sheets.spreadsheet_name")
	config.TimeZone = v.GetString("sheets.time_zone")
	config.BatchSize = v.GetInt("sheets.batch_size")
	config.RetryAttempts = v.GetInt("sheets.retry_attempts")
	config.RetryDelay = v.GetDuration("sheets.retry_delay")
	config.EnableFormatting = v.GetBool("sheets.formatting")
	config.TokenFile = ExpandPath(v.GetString("sheets.token_file"))

	if config.ServiceAccountPath == "" {
		config.ServiceAccountPath = ExpandPath(os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"))
	}
	if config.ClientID == "" {
		config.ClientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	}
	if config.ClientSecret == "" {
		config.ClientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	}
	if config.RefreshToken == "" {
		config.RefreshToken = os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN")
	}
	if config.SpreadsheetID == "" {
		config.SpreadsheetID = os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")
	}

	if config.RefreshToken == "" && config.ServiceAccountPath == "" && config.TokenFile != "" {
		if token, err := sheets.LoadToken(config.TokenFile); err == nil {
			config.RefreshToken = token.RefreshToken
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
