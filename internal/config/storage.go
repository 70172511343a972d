package config

type StorageConfig struct {
	BackendName string `yaml:"backend"`
	Dir         string `yaml:"ledger-dir"`
}

// Backend selects the ledger storage implementation: file, memory or postgres.
func (s *StorageConfig) Backend() string {
	if s.BackendName == "" {
		return "file"
	}
	return s.BackendName
}

func (s *StorageConfig) LedgerDir() string {
	return s.Dir
}
