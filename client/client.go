// Package client implements the client side of the registry handshake.
//
// A Client registers a name with its public key, then proves possession
// of the matching secret key by sealing messages against the server key
// under the nonce most recently issued by the registry. The client keeps
// that nonce between calls; every successful Send consumes it and stores
// the replacement from the response.
package client

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/SchrodingerZhu/new-chat/crypto"
	"github.com/SchrodingerZhu/new-chat/protocol"
	"github.com/SchrodingerZhu/new-chat/registry"
)

// Client drives the handshake against a running registry.
type Client struct {
	baseURL string
	http    *http.Client
	keys    *crypto.KeyPair

	mu         sync.Mutex
	name       string
	serverKey  crypto.PublicKey
	nonce      crypto.Nonce
	registered bool
}

// New creates a client for the registry at baseURL using the given keypair.
func New(baseURL string, keys *crypto.KeyPair) (*Client, error) {
	if keys == nil {
		return nil, errors.New("keys cannot be nil")
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		keys:    keys,
	}, nil
}

// Register claims name with the client's public key. On success the
// client holds the first nonce and is ready to Send.
func (c *Client) Register(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registered {
		return errors.New("already registered")
	}

	serverKey, err := c.fetchServerKey()
	if err != nil {
		return fmt.Errorf("fetch server key: %w", err)
	}

	body, err := json.Marshal(protocol.HandshakeRequest{Name: name, Key: c.keys.PublicKeyBase64()})
	if err != nil {
		return err
	}

	res, err := c.http.Post(c.baseURL+"/handshake", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("handshake request: %w", err)
	}
	defer res.Body.Close()

	var result protocol.Result
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode handshake response: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("registration rejected: %s", result.Err)
	}
	if result.Nonce == nil {
		return errors.New("registration succeeded without a nonce")
	}

	nonce, err := crypto.ParseNonce(*result.Nonce)
	if err != nil {
		return fmt.Errorf("parse nonce: %w", err)
	}

	c.name = name
	c.serverKey = serverKey
	c.nonce = nonce
	c.registered = true
	return nil
}

// Send seals plaintext under the current nonce and submits it for
// decoding. It returns the plaintext as echoed by the registry and
// advances to the newly issued nonce.
func (c *Client) Send(plaintext string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.registered {
		return "", errors.New("not registered")
	}

	sealed := crypto.Seal([]byte(plaintext), c.nonce, c.serverKey, c.keys)
	body, err := json.Marshal(protocol.DecodeRequest{
		Name:    c.name,
		Message: base64.StdEncoding.EncodeToString(sealed),
	})
	if err != nil {
		return "", err
	}

	res, err := c.http.Post(c.baseURL+"/decode", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("decode request: %w", err)
	}
	defer res.Body.Close()

	var decoded protocol.DecodeResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if res.StatusCode != http.StatusOK || decoded.Message == nil || decoded.Nonce == nil {
		return "", errors.New("handshake rejected")
	}

	nonce, err := crypto.ParseNonce(*decoded.Nonce)
	if err != nil {
		return "", fmt.Errorf("parse nonce: %w", err)
	}

	c.nonce = nonce
	return *decoded.Message, nil
}

// ListUsers returns the registry's current user listing.
func (c *Client) ListUsers() ([]registry.UserView, error) {
	res, err := c.http.Get(c.baseURL + "/list")
	if err != nil {
		return nil, fmt.Errorf("list request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned %d", res.StatusCode)
	}

	var users []registry.UserView
	if err := json.NewDecoder(res.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return users, nil
}

// ServerKey fetches the registry's box public key.
func (c *Client) ServerKey() (crypto.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchServerKey()
}

// Name returns the registered name, or the empty string before Register.
func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *Client) fetchServerKey() (crypto.PublicKey, error) {
	res, err := c.http.Get(c.baseURL + "/public-key")
	if err != nil {
		return crypto.PublicKey{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return crypto.PublicKey{}, fmt.Errorf("registry returned %d", res.StatusCode)
	}

	var resp protocol.PublicKeyResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return crypto.PublicKey{}, fmt.Errorf("decode key response: %w", err)
	}

	return crypto.ParsePublicKey(resp.PublicKey)
}
