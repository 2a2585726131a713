package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// StructuredJSONConfig mirrors [StructuredConfig] with json tags for the
// optional configuration file.
type StructuredJSONConfig struct {
	Vault struct {
		Path          string `json:"path"`
		FECRedundancy int    `json:"fec_redundancy"`
		DisableFEC    bool   `json:"disable_fec"`
	} `json:"vault,omitempty"`

	Backup struct {
		Retention int `json:"retention"`
	} `json:"backup,omitempty"`

	Security struct {
		UsernameHashAlgorithm string `json:"username_hash_algorithm"`
		PBKDF2Iterations      uint32 `json:"pbkdf2_iterations"`
		Argon2MemoryKB        uint32 `json:"argon2_memory_kb"`
		Argon2Iterations      uint32 `json:"argon2_iterations"`
		Argon2Parallelism     uint8  `json:"argon2_parallelism"`
		MinPasswordLength     uint32 `json:"min_password_length"`
		PasswordHistoryDepth  uint32 `json:"password_history_depth"`
		RequireToken          bool   `json:"require_token"`
		FIPSMode              bool   `json:"fips_mode"`
	} `json:"security,omitempty"`

	Log struct {
		Level string `json:"level"`
	} `json:"log,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Vault: Vault{
			Path:          jsonCfg.Vault.Path,
			FECRedundancy: jsonCfg.Vault.FECRedundancy,
			DisableFEC:    jsonCfg.Vault.DisableFEC,
		},
		Backup: Backup{
			Retention: jsonCfg.Backup.Retention,
		},
		Security: Security{
			UsernameHashAlgorithm: jsonCfg.Security.UsernameHashAlgorithm,
			PBKDF2Iterations:      jsonCfg.Security.PBKDF2Iterations,
			Argon2MemoryKB:        jsonCfg.Security.Argon2MemoryKB,
			Argon2Iterations:      jsonCfg.Security.Argon2Iterations,
			Argon2Parallelism:     jsonCfg.Security.Argon2Parallelism,
			MinPasswordLength:     jsonCfg.Security.MinPasswordLength,
			PasswordHistoryDepth:  jsonCfg.Security.PasswordHistoryDepth,
			RequireToken:          jsonCfg.Security.RequireToken,
			FIPSMode:              jsonCfg.Security.FIPSMode,
		},
		Log: Log{
			Level: jsonCfg.Log.Level,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}
