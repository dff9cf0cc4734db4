// Package main provides the user CLI entry point for testing.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/tunecast/tunecast/internal/app/relay"
)

var (
	app    = kingpin.New("tunecast-usercli", "tunecast user client for testing")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Session token").Envar("TUNECAST_TOKEN").String()

	// register command
	registerCmd      = app.Command("register", "Register a new account")
	registerEmail    = registerCmd.Arg("email", "Email address").Required().String()
	registerPassword = registerCmd.Arg("password", "Password (min 8 characters)").Required().String()
	registerUsername = registerCmd.Arg("username", "Alphanumeric username").Required().String()

	// login command
	loginCmd      = app.Command("login", "Log in and print a session token")
	loginEmail    = loginCmd.Arg("email", "Email address").Required().String()
	loginPassword = loginCmd.Arg("password", "Password").Required().String()

	// profile command
	profileCmd = app.Command("profile", "Show the account profile")

	// settings command
	settingsCmd    = app.Command("settings", "Update the default playback offset")
	settingsOffset = settingsCmd.Arg("seconds", "Playback offset in seconds").Required().Int()

	// status command
	statusCmd = app.Command("status", "Show whether the spectator is connected")

	// send command
	sendCmd     = app.Command("send", "Resolve a song and push it to the spectator")
	sendService = sendCmd.Arg("service", "Catalog service (spotify, apple, youtube)").Required().String()
	sendQuery   = sendCmd.Arg("query", "Free-text song query").Required().Strings()

	// spectate command
	spectateCmd      = app.Command("spectate", "Connect as a spectator and print play commands")
	spectateUsername = spectateCmd.Arg("username", "Username to spectate").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := &apiClient{
		baseURL: strings.TrimRight(*server, "/"),
		token:   *token,
	}
	ctx := context.Background()

	switch command {
	case registerCmd.FullCommand():
		register(ctx, client, *registerEmail, *registerPassword, *registerUsername)
	case loginCmd.FullCommand():
		login(ctx, client, *loginEmail, *loginPassword)
	case profileCmd.FullCommand():
		profile(ctx, client)
	case settingsCmd.FullCommand():
		settings(ctx, client, *settingsOffset)
	case statusCmd.FullCommand():
		status(ctx, client)
	case sendCmd.FullCommand():
		send(ctx, client, *sendService, strings.Join(*sendQuery, " "))
	case spectateCmd.FullCommand():
		spectate(client.baseURL, *spectateUsername)
	}
}

// apiClient is a small JSON client for the REST API.
type apiClient struct {
	baseURL string
	token   string
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			return fmt.Errorf("%s (status %d)", e.Error, resp.StatusCode)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func register(ctx context.Context, client *apiClient, email, password, username string) {
	var resp struct {
		Token        string `json:"token"`
		SpectatorURL string `json:"spectatorUrl"`
	}
	err := client.do(ctx, http.MethodPost, "/api/register", map[string]string{
		"email":    email,
		"password": password,
		"username": username,
	}, &resp)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Registered! Your spectator URL: %s\n", resp.SpectatorURL)
	fmt.Printf("Token: %s\n", resp.Token)
	fmt.Println("Export it as TUNECAST_TOKEN to authenticate further commands.")
}

func login(ctx context.Context, client *apiClient, email, password string) {
	var resp struct {
		Token            string `json:"token"`
		DefaultTimestamp int    `json:"defaultTimestamp"`
		SpectatorURL     string `json:"spectatorUrl"`
	}
	err := client.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Logged in! Default offset: %ds, spectator URL: %s\n", resp.DefaultTimestamp, resp.SpectatorURL)
	fmt.Printf("Token: %s\n", resp.Token)
}

func profile(ctx context.Context, client *apiClient) {
	var resp struct {
		ID               int64  `json:"id"`
		Email            string `json:"email"`
		Username         string `json:"username"`
		DefaultTimestamp int    `json:"defaultTimestamp"`
		SpectatorURL     string `json:"spectatorUrl"`
	}
	if err := client.do(ctx, http.MethodGet, "/api/profile", nil, &resp); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Profile:")
	fmt.Printf("  ID: %d\n", resp.ID)
	fmt.Printf("  Email: %s\n", resp.Email)
	fmt.Printf("  Username: %s\n", resp.Username)
	fmt.Printf("  Default offset: %ds\n", resp.DefaultTimestamp)
	fmt.Printf("  Spectator URL: %s\n", resp.SpectatorURL)
}

func settings(ctx context.Context, client *apiClient, offset int) {
	var resp struct {
		DefaultTimestamp int `json:"defaultTimestamp"`
	}
	err := client.do(ctx, http.MethodPost, "/api/settings", map[string]int{
		"defaultTimestamp": offset,
	}, &resp)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Default offset updated to %ds\n", resp.DefaultTimestamp)
}

func status(ctx context.Context, client *apiClient) {
	var resp struct {
		Connected bool `json:"connected"`
	}
	if err := client.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if resp.Connected {
		fmt.Println("Spectator: connected")
	} else {
		fmt.Println("Spectator: not connected")
	}
}

func send(ctx context.Context, client *apiClient, service, query string) {
	var resp struct {
		Success bool `json:"success"`
		Track   struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Artist  string `json:"artist"`
			Service string `json:"service"`
		} `json:"track"`
	}
	err := client.do(ctx, http.MethodPost, "/api/send", map[string]string{
		"songQuery": query,
		"service":   service,
	}, &resp)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sent! Now playing %q by %s (%s, track %s)\n",
		resp.Track.Name, resp.Track.Artist, resp.Track.Service, resp.Track.ID)
}

func spectate(baseURL, username string) {
	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/ws?username=" + url.QueryEscape(username)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			fmt.Printf("Error: no such spectator %q\n", username)
		} else {
			fmt.Printf("Error: %v\n", err)
		}
		os.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	fmt.Printf("Spectating as %s. Press Ctrl+C to exit.\n", username)

	// Handle shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nDisconnecting...")
		_ = conn.Close()
		os.Exit(0)
	}()

	for {
		var cmd relay.PlayCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			fmt.Printf("Connection closed: %v\n", err)
			return
		}
		printPlayCommand(cmd)
	}
}

func printPlayCommand(cmd relay.PlayCommand) {
	fmt.Println("\n=== PLAY ===")
	fmt.Printf("  Service: %s\n", cmd.Service)
	fmt.Printf("  Track ID: %s\n", cmd.TrackID)
	fmt.Printf("  Name: %s\n", cmd.Name)
	fmt.Printf("  Artist: %s\n", cmd.Artist)
	fmt.Printf("  Start at: %ds\n", cmd.Timestamp)
	fmt.Println()
}
