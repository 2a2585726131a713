package config

import "flag"

// ParseFlags parses all configuration flags. Positional arguments (the
// command verb and its operands) are left in flag.Args for the caller.
//
// Flags:
//
//	-f vault file path
//	-c/-config json file path with configs
//	-fec-redundancy header error-correction redundancy percent (5-50)
//	-disable-fec write new containers without header error correction
//	-backup-retention number of backup copies kept per vault file
//	-hash-algorithm username hash algorithm (e.g. "sha3-256", "argon2id")
//	-pbkdf2-iterations PBKDF2 iteration count
//	-min-password-length minimum accepted password length
//	-history-depth previous password hashes kept per user
//	-require-token require a hardware token second factor
//	-fips restrict the vault to FIPS-approved algorithms
//	-log-level zerolog level name
func ParseFlags() *StructuredConfig {
	var vaultPath string
	var jsonConfigPath string
	var fecRedundancy int
	var disableFEC bool
	var backupRetention int
	var hashAlgorithm string
	var pbkdf2Iterations uint
	var minPasswordLength uint
	var historyDepth uint
	var requireToken bool
	var fipsMode bool
	var logLevel string

	flag.StringVar(&vaultPath, "f", "", "Vault file path")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.IntVar(&fecRedundancy, "fec-redundancy", 0, "Header error-correction redundancy percent (5-50)")
	flag.BoolVar(&disableFEC, "disable-fec", false, "Disable header error correction for new containers")
	flag.IntVar(&backupRetention, "backup-retention", 0, "Backup copies kept per vault file")
	flag.StringVar(&hashAlgorithm, "hash-algorithm", "", "Username hash algorithm")
	flag.UintVar(&pbkdf2Iterations, "pbkdf2-iterations", 0, "PBKDF2 iteration count")
	flag.UintVar(&minPasswordLength, "min-password-length", 0, "Minimum accepted password length")
	flag.UintVar(&historyDepth, "history-depth", 0, "Previous password hashes kept per user")
	flag.BoolVar(&requireToken, "require-token", false, "Require a hardware token second factor")
	flag.BoolVar(&fipsMode, "fips", false, "Restrict the vault to FIPS-approved algorithms")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	flag.Parse()

	return &StructuredConfig{
		Vault: Vault{
			Path:          vaultPath,
			FECRedundancy: fecRedundancy,
			DisableFEC:    disableFEC,
		},
		Backup: Backup{
			Retention: backupRetention,
		},
		Security: Security{
			UsernameHashAlgorithm: hashAlgorithm,
			PBKDF2Iterations:      uint32(pbkdf2Iterations),
			MinPasswordLength:     uint32(minPasswordLength),
			PasswordHistoryDepth:  uint32(historyDepth),
			RequireToken:          requireToken,
			FIPSMode:              fipsMode,
		},
		Log: Log{
			Level: logLevel,
		},
		JSONFilePath: jsonConfigPath,
	}
}
