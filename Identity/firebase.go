package Identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	secureTokenURL     = "https://securetoken.googleapis.com/v1/token"
	// tokens are refreshed this long before they expire
	expirySkew = time.Minute
)

// FirebaseProvider signs users in with the Firebase Auth REST API and keeps
// their ID token fresh
type FirebaseProvider struct {
	APIKey             string
	HTTPClient         *http.Client
	IdentityToolkitURL string
	SecureTokenURL     string
	Now                func() time.Time

	mu           sync.Mutex
	uid          string
	displayName  string
	idToken      string
	refreshToken string
	expiresAt    time.Time
}

func NewFirebaseProvider(apiKey string) *FirebaseProvider {
	return &FirebaseProvider{
		APIKey:             apiKey,
		HTTPClient:         &http.Client{Timeout: 20 * time.Second},
		IdentityToolkitURL: identityToolkitURL,
		SecureTokenURL:     secureTokenURL,
		Now:                time.Now,
	}
}

type authResponse struct {
	LocalID      string `json:"localId"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	DisplayName  string `json:"displayName"`
}

type refreshResponse struct {
	UserID       string `json:"user_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

type firebaseError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn authenticates with email and password
func (f *FirebaseProvider) SignIn(ctx context.Context, email, password string) error {
	return f.passwordAuth(ctx, "accounts:signInWithPassword", email, password)
}

// SignUp creates the account and signs it in
func (f *FirebaseProvider) SignUp(ctx context.Context, email, password string) error {
	return f.passwordAuth(ctx, "accounts:signUp", email, password)
}

// UpdateDisplayName sets the profile name of the signed-in user
func (f *FirebaseProvider) UpdateDisplayName(ctx context.Context, name string) error {
	token, err := f.IDToken(ctx, false)
	if err != nil {
		return err
	}
	body := map[string]interface{}{"idToken": token, "displayName": name, "returnSecureToken": false}
	if err := f.postJSON(ctx, f.IdentityToolkitURL+"/accounts:update", body, nil); err != nil {
		return err
	}
	f.mu.Lock()
	f.displayName = name
	f.mu.Unlock()
	return nil
}

// SignOut forgets the current session
func (f *FirebaseProvider) SignOut() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uid, f.displayName, f.idToken, f.refreshToken = "", "", "", ""
	f.expiresAt = time.Time{}
}

func (f *FirebaseProvider) CurrentUserID() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uid, f.uid != ""
}

func (f *FirebaseProvider) DisplayName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.displayName
}

// IDToken returns the cached token, refreshing it when it is about to expire
// or when forceRefresh is set
func (f *FirebaseProvider) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	f.mu.Lock()
	uid, token, refresh, expiresAt := f.uid, f.idToken, f.refreshToken, f.expiresAt
	f.mu.Unlock()

	if uid == "" {
		return "", ErrNotAuthenticated
	}
	if !forceRefresh && token != "" && f.Now().Add(expirySkew).Before(expiresAt) {
		return token, nil
	}

	form := url.Values{"grant_type": {"refresh_token"}, "refresh_token": {refresh}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.SecureTokenURL+"?key="+url.QueryEscape(f.APIKey), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out refreshResponse
	if err := f.send(req, &out); err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.idToken = out.IDToken
	if out.RefreshToken != "" {
		f.refreshToken = out.RefreshToken
	}
	f.expiresAt = f.Now().Add(parseSeconds(out.ExpiresIn))
	return f.idToken, nil
}

func (f *FirebaseProvider) passwordAuth(ctx context.Context, method, email, password string) error {
	body := map[string]interface{}{"email": email, "password": password, "returnSecureToken": true}
	var out authResponse
	if err := f.postJSON(ctx, f.IdentityToolkitURL+"/"+method, body, &out); err != nil {
		return err
	}
	if out.LocalID == "" || out.IDToken == "" {
		return fmt.Errorf("firebase %s returned no session", method)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uid = out.LocalID
	f.displayName = out.DisplayName
	f.idToken = out.IDToken
	f.refreshToken = out.RefreshToken
	f.expiresAt = f.Now().Add(parseSeconds(out.ExpiresIn))
	log.Printf("identity: signed in uid=%s", out.LocalID)
	return nil
}

func (f *FirebaseProvider) postJSON(ctx context.Context, endpoint string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?key="+url.QueryEscape(f.APIKey), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return f.send(req, out)
}

func (f *FirebaseProvider) send(req *http.Request, out interface{}) error {
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var fe firebaseError
		if json.Unmarshal(raw, &fe) == nil && fe.Error.Message != "" {
			return fmt.Errorf("firebase: %s", fe.Error.Message)
		}
		return fmt.Errorf("firebase: status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func parseSeconds(raw string) time.Duration {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return time.Hour
	}
	return time.Duration(n) * time.Second
}
