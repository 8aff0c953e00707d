package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cinehub/cinehub/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket and slot names
var (
	bucketSession = []byte("session")

	keyAccess  = []byte("access")
	keyRefresh = []byte("refresh")
	keyUser    = []byte("user")
)

const dbFileName = "session.db"

// SessionStore implements domain.TokenStore using BoltDB.
type SessionStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects slots

	// In-memory copy of every slot; the only storage in memory-only mode
	slots map[string][]byte
}

// NewSessionStore opens (or creates) the session database under dataDir.
// An empty dataDir yields a memory-only store.
func NewSessionStore(dataDir string) (*SessionStore, error) {
	if dataDir == "" {
		return &SessionStore{slots: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	slots := make(map[string][]byte)
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketSession)
		if err != nil {
			return err
		}
		// Warm the memory copy so reads never touch disk
		return b.ForEach(func(k, v []byte) error {
			slots[string(k)] = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SessionStore{db: db, slots: slots}, nil
}

func (s *SessionStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *SessionStore) get(key []byte) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[string(key)]
}

// put writes several slots in one transaction
func (s *SessionStore) put(values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketSession)
			for k, v := range values {
				if err := b.Put([]byte(k), v); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to write session: %w", err)
		}
	}

	for k, v := range values {
		s.slots[k] = v
	}
	return nil
}

// === Credentials ===

func (s *SessionStore) AccessToken() (string, error) {
	return string(s.get(keyAccess)), nil
}

func (s *SessionStore) RefreshToken() (string, error) {
	return string(s.get(keyRefresh)), nil
}

func (s *SessionStore) SaveCredentials(creds domain.Credentials) error {
	return s.put(map[string][]byte{
		string(keyAccess):  []byte(creds.AccessToken),
		string(keyRefresh): []byte(creds.RefreshToken),
	})
}

func (s *SessionStore) SaveAccessToken(token string) error {
	return s.put(map[string][]byte{string(keyAccess): []byte(token)})
}

// === Profile ===

func (s *SessionStore) Profile() (*domain.UserProfile, error) {
	data := s.get(keyUser)
	if len(data) == 0 {
		return nil, nil
	}
	var profile domain.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse stored profile: %w", err)
	}
	return &profile, nil
}

func (s *SessionStore) SaveProfile(profile *domain.UserProfile) error {
	if profile == nil {
		return fmt.Errorf("profile is nil")
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.put(map[string][]byte{string(keyUser): data})
}

// === Invalidation ===

// Clear deletes access token, refresh token and profile in one transaction.
// The memory copy is wiped even if the disk write fails.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots = make(map[string][]byte)

	if s.db == nil {
		return nil
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		for _, k := range [][]byte{keyAccess, keyRefresh, keyUser} {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
