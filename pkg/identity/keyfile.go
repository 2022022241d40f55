package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadKeypairFile reads a keypair written by SaveKeypairFile.
func LoadKeypairFile(path string) (*KeypairSigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair %s: %w", path, err)
	}
	return KeypairFromJSON(data)
}

// SaveKeypairFile writes the keypair with owner-only permissions and refuses
// to overwrite an existing file.
func SaveKeypairFile(path string, s *KeypairSigner) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("keypair %s already exists", path)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o600)
}
