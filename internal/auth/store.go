package auth

import (
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/bozorplus/bozoradmin/internal/domain"
)

var (
	bucketAuth = []byte("auth")
	keyAccess  = []byte("access")
	keyRefresh = []byte("refresh")
)

// TokenPair is the credential pair issued by the login endpoint
type TokenPair struct {
	Access  string
	Refresh string
}

// Store persists the token pair across restarts in a local bbolt file,
// so an operator session survives a process restart.
type Store struct {
	db *bolt.DB
}

// OpenStore opens (creating if needed) the token database at path
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open token store %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAuth)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init token bucket")
	}
	return &Store{db: db}, nil
}

// Close releases the database file
func (s *Store) Close() error { return s.db.Close() }

// Save persists the token pair atomically
func (s *Store) Save(pair TokenPair) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAuth)
		if err := b.Put(keyAccess, []byte(pair.Access)); err != nil {
			return err
		}
		return b.Put(keyRefresh, []byte(pair.Refresh))
	})
}

// Load returns the stored pair, or ErrNoToken when no session exists
func (s *Store) Load() (TokenPair, error) {
	var pair TokenPair
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAuth)
		pair.Access = string(b.Get(keyAccess))
		pair.Refresh = string(b.Get(keyRefresh))
		return nil
	})
	if err != nil {
		return pair, err
	}
	if pair.Access == "" {
		return pair, domain.ErrNoToken
	}
	return pair, nil
}

// Clear removes any stored session
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAuth)
		if err := b.Delete(keyAccess); err != nil {
			return err
		}
		return b.Delete(keyRefresh)
	})
}
