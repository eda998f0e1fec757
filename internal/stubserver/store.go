package stubserver

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const csrfTokenTTL = 10 * time.Minute

type User struct {
	CustomID     string
	Name         string
	passwordHash []byte
}

type Client struct {
	ID           string
	Name         string
	RedirectURIs []string
	Scope        string
}

type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

// Store is the stub server's in-memory state: users, registered clients,
// outstanding CSRF tokens and login sessions.
type Store struct {
	mu       sync.Mutex
	users    map[string]User
	clients  map[string]Client
	csrf     map[string]time.Time
	sessions map[string]Session
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]User),
		clients:  make(map[string]Client),
		csrf:     make(map[string]time.Time),
		sessions: make(map[string]Session),
	}
}

func (s *Store) AddUser(customID, name, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[customID] = User{CustomID: customID, Name: name, passwordHash: hash}
	return nil
}

// Authenticate checks the credential pair against the stored hash.
func (s *Store) Authenticate(customID, password string) (User, bool) {
	s.mu.Lock()
	u, ok := s.users[customID]
	s.mu.Unlock()
	if !ok {
		return User{}, false
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		return User{}, false
	}
	return u, true
}

func (s *Store) AddClient(c Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

func (s *Store) GetClient(id string) (Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	return c, ok
}

// IssueCSRF mints a fresh single-use token bound to a login page render.
func (s *Store) IssueCSRF() string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.csrf[token] = time.Now().Add(csrfTokenTTL)
	return token
}

// ConsumeCSRF validates and burns a token. The server, not the client, is
// authoritative on single use.
func (s *Store) ConsumeCSRF(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.csrf[token]
	if !ok {
		return false
	}
	delete(s.csrf, token)
	return time.Now().Before(expiry)
}

func (s *Store) CreateSession(userID string) Session {
	sess := Session{ID: uuid.NewString(), UserID: userID, CreatedAt: time.Now()}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

func (s *Store) GetSession(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Store) GetUser(customID string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[customID]
	return u, ok
}
