// Command client provides CLI tools for interacting with a running registry.
//
// # Commands
//
// send: Register a name and submit sealed messages through the handshake.
//
//	client send --registry=http://localhost:7878 --name=alice --message="Hello"
//
// list: Display registered users.
//
//	client list --registry=http://localhost:7878 --format=json
//
// status: Display registry health.
//
//	client status --registry=http://localhost:7878
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/SchrodingerZhu/new-chat/client"
	"github.com/SchrodingerZhu/new-chat/crypto"
	"github.com/SchrodingerZhu/new-chat/protocol"
	"github.com/SchrodingerZhu/new-chat/registry"
)

const defaultRegistryURL = "http://localhost:7878"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "send":
		err = runSend(args)
	case "list":
		err = runList(args)
	case "status":
		err = runStatus(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`new-chat - CLI for the credential registry

Usage:
  client <command> [options]

Commands:
  send      Register a name and submit sealed messages
  list      Display registered users
  status    Display registry health

Run 'client <command> --help' for command-specific options.`)
}

// --- Send Command ---

func runSend(args []string) error {
	var (
		registryURL string
		name        string
		message     string
		count       int
	)

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--registry", "-r":
			i++
			if i < len(args) {
				registryURL = args[i]
			}
		case "--name", "-n":
			i++
			if i < len(args) {
				name = args[i]
			}
		case "--message", "-m":
			i++
			if i < len(args) {
				message = args[i]
			}
		case "--count", "-c":
			i++
			if i < len(args) {
				fmt.Sscanf(args[i], "%d", &count)
			}
		case "--help", "-h":
			printSendHelp()
			return nil
		}
	}

	if registryURL == "" {
		registryURL = defaultRegistryURL
	}
	if name == "" {
		return fmt.Errorf("--name is required")
	}
	if message == "" {
		return fmt.Errorf("--message is required")
	}
	if count <= 0 {
		count = 1
	}

	keys, err := crypto.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("generate keypair: %w", err)
	}

	c, err := client.New(registryURL, keys)
	if err != nil {
		return err
	}

	if err := c.Register(name); err != nil {
		return err
	}
	fmt.Printf("Registered %q with key %s\n", name, keys.PublicKeyBase64())

	for i := 0; i < count; i++ {
		echoed, err := c.Send(message)
		if err != nil {
			return fmt.Errorf("send %d: %w", i+1, err)
		}
		fmt.Printf("[%d] registry decoded: %q\n", i+1, echoed)
	}

	return nil
}

func printSendHelp() {
	fmt.Println(`client send - Register a name and submit sealed messages

Each send seals the message against the server key under the current
nonce; the registry returns the decoded plaintext and the next nonce.

Usage:
  client send --registry=<url> --name=<name> --message=<text>

Options:
  --registry, -r    Registry URL (default: http://localhost:7878)
  --name, -n        Name to register (required)
  --message, -m     Message text to seal and send (required)
  --count, -c       Number of sends under rotating nonces (default: 1)

Example:
  client send -r http://localhost:7878 -n alice -m "Hello" -c 3`)
}

// --- List Command ---

func runList(args []string) error {
	var (
		registryURL string
		format      string
	)

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--registry", "-r":
			i++
			if i < len(args) {
				registryURL = args[i]
			}
		case "--format", "-f":
			i++
			if i < len(args) {
				format = args[i]
			}
		case "--help", "-h":
			printListHelp()
			return nil
		}
	}

	if registryURL == "" {
		registryURL = defaultRegistryURL
	}
	if format == "" {
		format = "text"
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	users, err := fetchUsers(httpClient, registryURL)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	}

	if len(users) == 0 {
		fmt.Println("No registered users")
		return nil
	}
	for _, user := range users {
		fmt.Printf("%s\t%s\t%s\n", user.Name, user.PublicKey, user.LastActive)
	}
	return nil
}

func printListHelp() {
	fmt.Println(`client list - Display registered users

Usage:
  client list --registry=<url> [options]

Options:
  --registry, -r    Registry URL (default: http://localhost:7878)
  --format, -f      Output format: text, json (default: text)

Example:
  client list -r http://localhost:7878 --format=json`)
}

// --- Status Command ---

func runStatus(args []string) error {
	var registryURL string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--registry", "-r":
			i++
			if i < len(args) {
				registryURL = args[i]
			}
		case "--help", "-h":
			printStatusHelp()
			return nil
		}
	}

	if registryURL == "" {
		registryURL = defaultRegistryURL
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}

	fmt.Printf("Registry: %s\n", registryURL)
	fmt.Printf("Alive: %v\n", checkEndpoint(httpClient, registryURL+"/livez"))
	fmt.Printf("Ready: %v\n", checkEndpoint(httpClient, registryURL+"/readyz"))

	if key, err := fetchServerKey(httpClient, registryURL); err == nil {
		fmt.Printf("Server key: %s\n", key)
	}

	if users, err := fetchUsers(httpClient, registryURL); err == nil {
		fmt.Printf("Users: %d registered\n", len(users))
	}

	return nil
}

func printStatusHelp() {
	fmt.Println(`client status - Display registry health

Usage:
  client status --registry=<url>

Example:
  client status -r http://localhost:7878`)
}

// --- Shared Utilities ---

func fetchUsers(httpClient *http.Client, registryURL string) ([]registry.UserView, error) {
	resp, err := httpClient.Get(registryURL + "/list")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned %d", resp.StatusCode)
	}

	var users []registry.UserView
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, err
	}
	return users, nil
}

func fetchServerKey(httpClient *http.Client, registryURL string) (string, error) {
	resp, err := httpClient.Get(registryURL + "/public-key")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("registry returned %d", resp.StatusCode)
	}

	var keyResp protocol.PublicKeyResponse
	if err := json.NewDecoder(resp.Body).Decode(&keyResp); err != nil {
		return "", err
	}
	return keyResp.PublicKey, nil
}

func checkEndpoint(httpClient *http.Client, url string) bool {
	resp, err := httpClient.Get(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
