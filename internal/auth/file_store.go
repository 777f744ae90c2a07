package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

type FileStore struct {
	path  string
	mu    sync.RWMutex
	users map[string]*User
}

func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path:  path,
		users: make(map[string]*User),
	}

	if err := fs.load(); err != nil {
		return nil, err
	}

	return fs, nil
}

// Load the user catalog from fs.path
func (fs *FileStore) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.Open(fs.path)
	if os.IsNotExist(err) {
		// First run, nothing saved yet
		return nil
	}

	if err != nil {
		return err
	}
	defer f.Close()

	// parse the json file and populate the users map
	var list []*User
	if err := json.NewDecoder(f).Decode(&list); err != nil {
		return err
	}

	for _, u := range list {
		fs.users[u.Username] = u
	}
	return nil
}

// write from memory to user catalog, replacing the file atomically
func (fs *FileStore) persist() error {
	tmp := fs.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fs.sorted()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, fs.path)
}

func (fs *FileStore) sorted() []*User {
	list := make([]*User, 0, len(fs.users))
	for _, u := range fs.users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return list
}

func (fs *FileStore) GetUser(username string) (*User, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	u, ok := fs.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	// Copy so callers cannot mutate the catalog
	user := *u
	return &user, nil
}

func (fs *FileStore) SaveUser(u *User) error {
	if _, err := ParseRole(string(u.Role)); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	saved := *u
	fs.users[u.Username] = &saved
	return fs.persist()
}

func (fs *FileStore) DeleteUser(username string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.users[username]; !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	delete(fs.users, username)
	return fs.persist()
}

func (fs *FileStore) ListUsers() ([]*User, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	list := fs.sorted()
	for i, u := range list {
		c := *u
		list[i] = &c
	}
	return list, nil
}
