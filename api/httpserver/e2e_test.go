package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/SchrodingerZhu/new-chat/crypto"
	"github.com/SchrodingerZhu/new-chat/protocol"
	"github.com/SchrodingerZhu/new-chat/registry"
	"github.com/SchrodingerZhu/new-chat/testutil"
)

// startTestRegistry brings up the full stack on an ephemeral listener:
// store, handshake, reaper, and the HTTP routes.
func startTestRegistry(t *testing.T, reapInterval, idleWindow time.Duration) (*httptest.Server, *crypto.KeyPair) {
	t.Helper()

	log := testutil.NewDiscardLogger()

	keys, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	store := registry.NewStore()
	handshake := protocol.NewHandshake(keys, store, log)

	reaper := registry.NewReaper(store, reapInterval, idleWindow, log)
	reaper.Start()
	t.Cleanup(reaper.Stop)

	r := chi.NewRouter()
	NewRegistryHandler(handshake).RegisterRoutes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	return ts, keys
}

func fetchUsers(t *testing.T, baseURL string) []registry.UserView {
	t.Helper()

	res, err := http.Get(baseURL + "/list")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var users []registry.UserView
	require.NoError(t, json.NewDecoder(res.Body).Decode(&users))
	return users
}

func postHandshake(t *testing.T, baseURL, name, key string) protocol.Result {
	t.Helper()

	body, err := json.Marshal(protocol.HandshakeRequest{Name: name, Key: key})
	require.NoError(t, err)

	res, err := http.Post(baseURL+"/handshake", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	var result protocol.Result
	require.NoError(t, json.NewDecoder(res.Body).Decode(&result))
	return result
}

func postDecode(t *testing.T, baseURL, name, message string) (int, protocol.DecodeResponse) {
	t.Helper()

	body, err := json.Marshal(protocol.DecodeRequest{Name: name, Message: message})
	require.NoError(t, err)

	res, err := http.Post(baseURL+"/decode", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	var resp protocol.DecodeResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&resp))
	return res.StatusCode, resp
}

func registryEmpty(baseURL string) func() bool {
	return func() bool {
		res, err := http.Get(baseURL + "/list")
		if err != nil {
			return false
		}
		defer res.Body.Close()

		var users []registry.UserView
		if err := json.NewDecoder(res.Body).Decode(&users); err != nil {
			return false
		}
		return len(users) == 0
	}
}

func TestE2E_HandshakeLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	ts, keys := startTestRegistry(t, 25*time.Millisecond, 150*time.Millisecond)
	client := testutil.GenerateKeyPair(t)

	// The advertised key matches the in-process keypair.
	res, err := http.Get(ts.URL + "/public-key")
	require.NoError(t, err)
	defer res.Body.Close()

	var keyResp protocol.PublicKeyResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&keyResp))
	require.Equal(t, keys.PublicKeyBase64(), keyResp.PublicKey)

	// Register and receive the initial nonce.
	result := postHandshake(t, ts.URL, "alice", client.PublicKeyBase64())
	require.True(t, result.Success)
	require.NotNil(t, result.Nonce)

	users := fetchUsers(t, ts.URL)
	require.Len(t, users, 1)
	require.Equal(t, "alice", users[0].Name)
	require.Equal(t, client.PublicKeyBase64(), users[0].PublicKey)

	// Prove possession of the registered key.
	ciphertext := testutil.SealFor(t, []byte("hello registry"), *result.Nonce, keys.Public(), client)
	status, decoded := postDecode(t, ts.URL, "alice", ciphertext)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, decoded.Message)
	require.Equal(t, "hello registry", *decoded.Message)
	require.NotNil(t, decoded.Nonce)
	rotated := *decoded.Nonce

	// The consumed nonce cannot be replayed.
	status, replayed := postDecode(t, ts.URL, "alice", ciphertext)
	require.Equal(t, http.StatusBadRequest, status)
	require.Nil(t, replayed.Message)
	require.Nil(t, replayed.Nonce)

	// Left idle, the record is reaped.
	require.Eventually(t, registryEmpty(ts.URL), 5*time.Second, 50*time.Millisecond,
		"idle record was not evicted")

	// Decoding for an evicted name fails like an unknown one.
	late := testutil.SealFor(t, []byte("too late"), rotated, keys.Public(), client)
	status, _ = postDecode(t, ts.URL, "alice", late)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestE2E_ActivityDefersEviction(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}

	ts, keys := startTestRegistry(t, 50*time.Millisecond, 500*time.Millisecond)
	client := testutil.GenerateKeyPair(t)

	result := postHandshake(t, ts.URL, "bob", client.PublicKeyBase64())
	require.True(t, result.Success)
	require.NotNil(t, result.Nonce)

	// Keep decoding well inside the idle window; each success refreshes
	// the record and hands back the next nonce.
	nonce := *result.Nonce
	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		ciphertext := testutil.SealFor(t, []byte("ping"), nonce, keys.Public(), client)
		status, decoded := postDecode(t, ts.URL, "bob", ciphertext)
		require.Equal(t, http.StatusOK, status)
		require.NotNil(t, decoded.Nonce)
		nonce = *decoded.Nonce

		time.Sleep(100 * time.Millisecond)
	}

	// Two idle windows elapsed since registration, yet the record lives.
	require.Len(t, fetchUsers(t, ts.URL), 1)

	// Once the client goes quiet the reaper takes it.
	require.Eventually(t, registryEmpty(ts.URL), 5*time.Second, 50*time.Millisecond,
		"record was not evicted after activity stopped")
}
