package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chepyr/go-task-board/internal/taskclient"
)

var errNotSignedIn = errors.New("not signed in, run `taskctl signin` first")

func (a *app) loadSession() (taskclient.Session, error) {
	var s taskclient.Session
	data, err := os.ReadFile(a.cfg.SessionFile)
	if errors.Is(err, fs.ErrNotExist) {
		return s, errNotSignedIn
	}
	if err != nil {
		return s, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode session: %w", err)
	}
	if s.User.ID == "" || s.AccessToken == "" {
		return s, errNotSignedIn
	}
	return s, nil
}

func (a *app) saveSession(s taskclient.Session) error {
	if err := os.MkdirAll(filepath.Dir(a.cfg.SessionFile), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return os.WriteFile(a.cfg.SessionFile, data, 0o600)
}

func (a *app) clearSession() error {
	err := os.Remove(a.cfg.SessionFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
