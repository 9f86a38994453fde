package auth

import (
	_ "embed"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

//go:embed data/default_avatar.png
var defaultAvatar []byte

// AvatarStore keeps one directory per account under its root, each holding
// that account's avatar file.
type AvatarStore struct {
	root   string
	logger Logger
}

// NewAvatarStore creates an avatar store rooted at dir.
func NewAvatarStore(dir string) *AvatarStore {
	return &AvatarStore{
		root:   dir,
		logger: defLogger{},
	}
}

// WithLogger sets the logger instance
func (a *AvatarStore) WithLogger(logger Logger) *AvatarStore {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// RandomFileName generates a non-guessable stored name for an upload,
// keeping the original extension.
func RandomFileName(original string) string {
	return uuid.New().String() + filepath.Ext(original)
}

// Save writes the avatar content under the account's directory.
func (a *AvatarStore) Save(accountID int64, filename string, r io.Reader) error {
	if filename == "" {
		return errors.New("avatar filename must not be empty", errors.CategoryBadInput)
	}

	dir := a.accountDir(accountID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create avatar directory")
	}

	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create avatar file")
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to write avatar file")
	}

	return nil
}

// Remove deletes a stored avatar file. Missing files are tolerated.
func (a *AvatarStore) Remove(accountID int64, filename string) error {
	if filename == "" {
		return nil
	}

	err := os.Remove(filepath.Join(a.accountDir(accountID), filename))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CategoryInternal, "failed to remove avatar file")
	}

	return nil
}

// RemoveAll deletes the account's avatar directory and everything in it.
func (a *AvatarStore) RemoveAll(accountID int64) error {
	if err := os.RemoveAll(a.accountDir(accountID)); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to remove avatar directory")
	}
	return nil
}

// Read returns the avatar bytes and content type for the person. A missing
// person, an unset avatar, or an unreadable file all fall back to the
// default image.
func (a *AvatarStore) Read(person *Person) ([]byte, string) {
	if person == nil || person.Avatar == "" {
		return defaultAvatar, "image/png"
	}

	data, err := os.ReadFile(filepath.Join(a.accountDir(person.ID), person.Avatar))
	if err != nil {
		a.logger.Warn("AvatarStore read falling back to default: %s", err)
		return defaultAvatar, "image/png"
	}

	return data, mimetype.Detect(data).String()
}

func (a *AvatarStore) accountDir(accountID int64) string {
	return filepath.Join(a.root, strconv.FormatInt(accountID, 10))
}
