// Package boards loads the list of boards the watcher polls from a YAML or
// JSON file.
package boards

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-board-client/pkg/api"
	"gopkg.in/yaml.v3"
)

const defaultRequestDelayMs = 500

// Board is one deployment of the board service.
type Board struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	BaseURL        string            `json:"base_url" yaml:"base_url"`
	APIKey         string            `json:"api_key" yaml:"api_key"`
	Token          string            `json:"token" yaml:"token"`
	RequestDelayMs int               `json:"request_delay_ms" yaml:"request_delay_ms"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
}

type configFile struct {
	Boards []Board `json:"boards" yaml:"boards"`
}

// Registry is the set of boards loaded from a file.
type Registry struct {
	mu     sync.RWMutex
	boards []Board
	idx    map[string]Board
}

// LoadRegistry loads the boards registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("boards file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open boards file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read boards file: %w", err)
	}

	parsed, err := parseBoards(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(parsed.Boards)
}

// NewRegistry validates boards and indexes them by id.
func NewRegistry(list []Board) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("boards file contains no boards entries")
	}

	reg := &Registry{
		boards: make([]Board, len(list)),
		idx:    make(map[string]Board, len(list)),
	}
	for i := range list {
		b := sanitizeBoard(list[i])
		if err := validateBoard(b); err != nil {
			return nil, fmt.Errorf("boards[%d]: %w", i, err)
		}
		if _, exists := reg.idx[b.ID]; exists {
			return nil, fmt.Errorf("duplicate board id %q", b.ID)
		}
		reg.boards[i] = b
		reg.idx[b.ID] = b
	}
	return reg, nil
}

type unmarshalFn func([]byte, any) error

func parseBoards(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var cfg configFile
		if err := d.fn(data, &cfg); err == nil {
			return cfg, nil
		}
	}
	return configFile{}, errors.New("boards file format not recognized (expected YAML or JSON)")
}

func sanitizeBoard(b Board) Board {
	b.ID = strings.TrimSpace(b.ID)
	b.Name = strings.TrimSpace(b.Name)
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	b.APIKey = strings.TrimSpace(b.APIKey)
	b.Token = strings.TrimSpace(b.Token)
	if b.RequestDelayMs <= 0 {
		b.RequestDelayMs = defaultRequestDelayMs
	}
	if len(b.Headers) > 0 {
		headers := make(map[string]string, len(b.Headers))
		for k, v := range b.Headers {
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if k == "" || v == "" {
				continue
			}
			headers[k] = v
		}
		b.Headers = headers
	}
	return b
}

func validateBoard(b Board) error {
	if b.ID == "" {
		return errors.New("id is required")
	}
	if b.Name == "" {
		return fmt.Errorf("name is required for board %q", b.ID)
	}
	if b.BaseURL == "" {
		return fmt.Errorf("base_url is required for board %q", b.ID)
	}
	u, err := url.Parse(b.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url for board %q must be an absolute http(s) URL", b.ID)
	}
	return nil
}

// All returns all configured boards in file order.
func (r *Registry) All() []Board {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Board, len(r.boards))
	copy(out, r.boards)
	return out
}

// ByID returns the board with the given id.
func (r *Registry) ByID(id string) (Board, bool) {
	if r == nil {
		return Board{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.idx[strings.TrimSpace(id)]
	return b, ok
}

// RequestDelay returns the pause after polling this board.
func (b Board) RequestDelay() time.Duration {
	if b.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(b.RequestDelayMs) * time.Millisecond
}

// Environment returns the API environment for this board.
func (b Board) Environment() api.StaticEnvironment {
	return api.StaticEnvironment{
		BaseURL: b.BaseURL,
		APIKey:  b.APIKey,
		Token:   b.Token,
		Headers: b.Headers,
	}
}
