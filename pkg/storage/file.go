package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"igdash/pkg/errors"
	"igdash/pkg/logger"
	"igdash/pkg/models"
)

const fileExt = ".json"

var validUsername = regexp.MustCompile(`^[A-Za-z0-9._]+$`)

// FileStore keeps one JSON document per username in a directory. Writes go
// to a temporary file first and are renamed into place.
type FileStore struct {
	dir    string
	clock  clockwork.Clock
	logger logger.Logger
	mu     sync.RWMutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the directory if needed and returns a store on it
func NewFileStore(dir string, log logger.Logger) (*FileStore, error) {
	return NewFileStoreWithClock(dir, clockwork.NewRealClock(), log)
}

// NewFileStoreWithClock is NewFileStore with an explicit clock for ingested_at
func NewFileStoreWithClock(dir string, clock clockwork.Clock, log logger.Logger) (*FileStore, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewStorageError("open", fmt.Errorf("failed to create storage directory: %w", err))
	}
	return &FileStore{
		dir:    dir,
		clock:  clock,
		logger: log.WithField("component", "file_store"),
	}, nil
}

// Dir returns the storage directory
func (s *FileStore) Dir() string {
	return s.dir
}

// InsertPosts appends posts to the username's document
func (s *FileStore) InsertPosts(ctx context.Context, username string, posts []models.Post) (int, error) {
	if username == "" {
		return 0, &errors.MissingInputError{Field: "username"}
	}
	path, err := s.path(username)
	if err != nil {
		return 0, errors.NewStorageError("insert", err)
	}
	if len(posts) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, errors.NewStorageError("insert", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := readPosts(path)
	if err != nil {
		return 0, errors.NewStorageError("insert", err)
	}

	now := s.clock.Now().UTC()
	for _, post := range posts {
		if post.TopComments == nil {
			post.TopComments = []string{}
		}
		stored = append(stored, models.StoredPost{Post: post, Username: username, IngestedAt: now})
	}

	if err := writeAtomic(path, stored); err != nil {
		s.logger.WithError(err).WithField("username", username).Error("failed to write posts")
		return 0, errors.NewStorageError("insert", err)
	}

	return len(posts), nil
}

// PostsByUsername returns the username's posts in insertion order. An
// unknown username yields an empty slice.
func (s *FileStore) PostsByUsername(ctx context.Context, username string) ([]models.StoredPost, error) {
	path, err := s.path(username)
	if err != nil {
		// no such handle can have been stored
		return []models.StoredPost{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	posts, err := readPosts(path)
	if err != nil {
		return nil, errors.NewStorageError("select", err)
	}
	return posts, nil
}

// Usernames lists every username with a document, sorted
func (s *FileStore) Usernames(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.NewStorageError("distinct", fmt.Errorf("failed to read directory: %w", err))
	}

	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileExt {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), fileExt))
	}
	sort.Strings(names)

	return names, nil
}

func (s *FileStore) path(username string) (string, error) {
	if !validUsername.MatchString(username) {
		return "", fmt.Errorf("invalid username %q", username)
	}
	return filepath.Join(s.dir, username+fileExt), nil
}

func readPosts(path string) ([]models.StoredPost, error) {
	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return []models.StoredPost{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	var posts []models.StoredPost
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return posts, nil
}

func writeAtomic(path string, posts []models.StoredPost) error {
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode posts: %w", err)
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
