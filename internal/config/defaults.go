package config

// Fallback values applied by [configBuilder.build] for fields no
// configuration source set.
const (
	// DefaultFECRedundancy is the header redundancy percentage used when
	// the configuration does not override it.
	DefaultFECRedundancy = 20

	// DefaultBackupRetention is how many backup copies are kept per vault
	// file when the configuration does not override it.
	DefaultBackupRetention = 5

	// DefaultLogLevel is the zerolog level used when the configuration
	// does not override it.
	DefaultLogLevel = "info"
)

func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		Vault: Vault{
			FECRedundancy: DefaultFECRedundancy,
		},
		Backup: Backup{
			Retention: DefaultBackupRetention,
		},
		Log: Log{
			Level: DefaultLogLevel,
		},
	}
}
