package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"kvbench/lineclient"
)

// ErrEmpty is returned when popping from a board without tweets.
var ErrEmpty = errors.New("board is empty")

// ErrInvalidText rejects tweets the line protocol cannot carry.
var ErrInvalidText = errors.New("tweet must be non-empty and fit on one line")

// Store keeps the tweets in one list on the server. The lineclient is not safe for
// concurrent use, so every call holds mu for the whole request/reply exchange.
type Store struct {
	mu     sync.Mutex
	client *lineclient.Client
	key    string
}

func NewStore(client *lineclient.Client, key string) *Store {
	return &Store{client: client, key: key}
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Close()
}

func checkText(text string) error {
	if strings.TrimSpace(text) == "" || strings.ContainsAny(text, "\r\n") {
		return ErrInvalidText
	}
	return nil
}

// Append adds a tweet at the bottom of the board (RPUSH).
func (s *Store) Append(text string) error {
	if err := checkText(text); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.client.RPush(s.key, text)
	return err
}

// Prepend adds a tweet at the top of the board (LPUSH).
func (s *Store) Prepend(text string) error {
	if err := checkText(text); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.client.LPush(s.key, text)
	return err
}

func (s *Store) PopLast() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return popped(s.client.RPop(s.key))
}

func (s *Store) PopFirst() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return popped(s.client.LPop(s.key))
}

func popped(reply string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if lineclient.IsNull(reply) || reply == "" {
		return "", ErrEmpty
	}
	return reply, nil
}

func (s *Store) Count() (int, error) {
	s.mu.Lock()
	reply, err := s.client.LLen(s.key)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}
	if lineclient.IsNull(reply) {
		return 0, nil
	}
	n, err := strconv.Atoi(reply)
	if err != nil {
		return 0, fmt.Errorf("unexpected LLEN reply %q", reply)
	}
	return n, nil
}

// List returns every tweet, top first.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	reply, err := s.client.LRange(s.key, 0, -1)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return lineclient.ParseList(reply)
}
