package store

// SetValidatedCode records an accepted access code.
func (s *Store) SetValidatedCode(code string) error {
	return s.setBlob(keyValidatedCode, []byte(code))
}

// ValidatedCode returns the recorded access code, or empty when no code has
// been validated.
func (s *Store) ValidatedCode() (string, error) {
	blob, err := s.getBlob(keyValidatedCode)
	if err != nil {
		return "", err
	}
	return string(blob), nil
}

// ClearValidatedCode drops the recorded access code.
func (s *Store) ClearValidatedCode() error {
	return s.deleteBlob(keyValidatedCode)
}
