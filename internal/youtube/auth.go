package youtube

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"
)

var oauthScopes = []string{
	youtubeapi.YoutubeUploadScope,
	youtubeapi.YoutubeReadonlyScope,
}

const authTimeout = 5 * time.Minute

// Auth manages the OAuth2 token lifecycle for one YouTube account.
type Auth struct {
	config  *oauth2.Config
	dataDir string
	token   *oauth2.Token
	logger  *slog.Logger
}

func NewAuth(clientID, clientSecret, dataDir string, logger *slog.Logger) *Auth {
	return &Auth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       oauthScopes,
			Endpoint:     google.Endpoint,
			// RedirectURL is set per flow from the loopback listener.
		},
		dataDir: dataDir,
		logger:  logger,
	}
}

// IsAuthenticated reports whether a usable token is available, loading
// from disk if needed.
func (a *Auth) IsAuthenticated() bool {
	if a.token != nil && a.token.Valid() {
		return true
	}

	token, err := a.loadToken()
	if err != nil {
		return false
	}
	a.token = token
	return token.Valid() || token.RefreshToken != ""
}

// Authenticate runs the loopback OAuth2 flow: start a localhost callback
// server, open the consent page in a browser, exchange the code with a
// PKCE verifier, and persist the resulting token.
func (a *Auth) Authenticate(ctx context.Context) error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	defer func() { _ = listener.Close() }()

	port := listener.Addr().(*net.TCPAddr).Port
	a.config.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/callback", port)

	verifier, err := randomToken(32)
	if err != nil {
		return fmt.Errorf("failed to generate code verifier: %w", err)
	}
	challenge := sha256.Sum256([]byte(verifier))

	state, err := randomToken(16)
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}

	authURL := a.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("code_challenge", base64.RawURLEncoding.EncodeToString(challenge[:])),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/callback" {
				http.NotFound(w, r)
				return
			}
			if r.URL.Query().Get("state") != state {
				errChan <- fmt.Errorf("invalid state parameter")
				http.Error(w, "Invalid state", http.StatusBadRequest)
				return
			}
			if errParam := r.URL.Query().Get("error"); errParam != "" {
				errChan <- fmt.Errorf("authorization error: %s", errParam)
				fmt.Fprint(w, "Authorization failed. You can close this window.")
				return
			}
			code := r.URL.Query().Get("code")
			if code == "" {
				errChan <- fmt.Errorf("no authorization code received")
				http.Error(w, "No code", http.StatusBadRequest)
				return
			}
			codeChan <- code
			fmt.Fprint(w, "Authorization successful. You can close this window.")
		}),
	}

	go func() {
		if err := server.Serve(listener); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	a.logger.Info("waiting for authorization", "url", authURL)
	if err := openBrowser(authURL); err != nil {
		a.logger.Warn("could not open browser, visit the URL manually", "error", err)
	}

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(authTimeout):
		return fmt.Errorf("authorization timeout")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	token, err := a.config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", verifier),
	)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	a.token = token
	if err := a.saveToken(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	a.logger.Info("authenticated", "expiry", token.Expiry)
	return nil
}

// Client returns an HTTP client carrying auto-refreshing credentials.
// A refreshed token is persisted so the next run skips the refresh.
func (a *Auth) Client(ctx context.Context) (*http.Client, error) {
	if a.token == nil {
		token, err := a.loadToken()
		if err != nil {
			return nil, fmt.Errorf("not authenticated: %w", err)
		}
		a.token = token
	}

	tokenSource := a.config.TokenSource(ctx, a.token)
	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get valid token: %w", err)
	}

	if newToken.AccessToken != a.token.AccessToken {
		a.token = newToken
		if err := a.saveToken(newToken); err != nil {
			a.logger.Warn("failed to save refreshed token", "error", err)
		}
	}

	return oauth2.NewClient(ctx, tokenSource), nil
}

// ChannelName returns the title of the authenticated channel.
func (a *Auth) ChannelName(ctx context.Context) (string, error) {
	client, err := a.Client(ctx)
	if err != nil {
		return "", err
	}

	service, err := youtubeapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", err
	}

	response, err := service.Channels.List([]string{"snippet"}).Mine(true).Do()
	if err != nil {
		return "", err
	}
	if len(response.Items) == 0 {
		return "", fmt.Errorf("no channel found")
	}
	return response.Items[0].Snippet.Title, nil
}

// Logout drops the in-memory and persisted token.
func (a *Auth) Logout() error {
	a.token = nil
	return DeleteToken(a.dataDir)
}

func (a *Auth) loadToken() (*oauth2.Token, error) {
	stored, err := LoadToken(a.dataDir)
	if err != nil {
		return nil, err
	}

	expiry, _ := time.Parse(time.RFC3339, stored.Expiry)
	return &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    stored.TokenType,
		Expiry:       expiry,
	}, nil
}

func (a *Auth) saveToken(token *oauth2.Token) error {
	return SaveToken(a.dataDir, &Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry.Format(time.RFC3339),
	})
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func openBrowser(urlStr string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", urlStr)
	case "darwin":
		cmd = exec.Command("open", urlStr)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", urlStr)
	default:
		return fmt.Errorf("unsupported platform")
	}
	return cmd.Start()
}
