package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// TokenEnv overrides any stored access token.
const TokenEnv = "CHECKLIST_TOKEN"

const credFileName = "credentials.json"

// TokenInfo is a persisted access token.
type TokenInfo struct {
	Token     string    `json:"token"`
	Source    string    `json:"source"` // "env" | "file" | "memory"
	CreatedAt time.Time `json:"created_at"`
}

// TokenStore persists the access token between runs.
type TokenStore interface {
	// Load returns the stored token, or nil when there is none.
	Load() (*TokenInfo, error)
	Save(token string) error
	Clear() error
}

// DefaultCredentialsPath returns ~/.checklist/credentials.json.
func DefaultCredentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".checklist", credFileName), nil
}

// FileTokenStore keeps the token in a JSON file readable only by its owner.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a store at path, or at DefaultCredentialsPath
// when path is empty.
func NewFileTokenStore(path string) (*FileTokenStore, error) {
	if path == "" {
		p, err := DefaultCredentialsPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &FileTokenStore{path: path}, nil
}

// Path returns the credentials file location.
func (s *FileTokenStore) Path() string {
	return s.path
}

func (s *FileTokenStore) Load() (*TokenInfo, error) {
	if env := strings.TrimSpace(os.Getenv(TokenEnv)); env != "" {
		return &TokenInfo{Token: stripBearer(env), Source: "env"}, nil
	}

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	ti.Token = stripBearer(ti.Token)
	if ti.Token == "" {
		return nil, nil
	}
	return &ti, nil
}

func (s *FileTokenStore) Save(token string) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return fmt.Errorf("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(TokenInfo{
		Token:     token,
		Source:    "file",
		CreatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps the token for the life of the process.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token *TokenInfo
}

func (s *MemoryTokenStore) Load() (*TokenInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return nil, nil
	}
	ti := *s.token
	return &ti, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return fmt.Errorf("empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = &TokenInfo{Token: token, Source: "memory", CreatedAt: time.Now().UTC()}
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	return nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
