// ABOUTME: HTTP client for the master-data service (users, machines)
// ABOUTME: Authenticates with short-lived HS256-signed service tokens

package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Client is the HTTP implementation of UserLookup and MachineLookup.
type Client struct {
	baseURL  string
	secret   []byte
	issuer   string
	tokenTTL time.Duration
	client   *http.Client
}

// NewClient creates a master-data client for the given base URL.
// Requests carry a JWT service token signed with secret.
func NewClient(baseURL string, secret []byte, issuer string, tokenTTL time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		secret:   secret,
		issuer:   issuer,
		tokenTTL: tokenTTL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// serviceToken mints a short-lived HS256 token identifying this service.
func (c *Client) serviceToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": "assist-core",
		"iss": c.issuer,
		"iat": now.Unix(),
		"exp": now.Add(c.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// userRecord is the master-data service's user representation.
type userRecord struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
	Language     string `json:"language"`
}

// GetUserLanguage returns the user's preferred language code.
func (c *Client) GetUserLanguage(ctx context.Context, userID, credential string) (string, error) {
	var user userRecord
	if err := c.get(ctx, "/api/users/"+userID, credential, &user); err != nil {
		return "", fmt.Errorf("looking up user language: %w", err)
	}
	if user.Language == "" {
		return "en", nil
	}
	return user.Language, nil
}

// GetUserContact returns the user's contact record.
func (c *Client) GetUserContact(ctx context.Context, userID string) (*Contact, error) {
	var user userRecord
	if err := c.get(ctx, "/api/users/"+userID, "", &user); err != nil {
		return nil, fmt.Errorf("looking up user contact: %w", err)
	}
	return &Contact{
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		Organization: user.Organization,
	}, nil
}

// GetMachine returns the machine record, or nil when the machine is absent.
func (c *Client) GetMachine(ctx context.Context, machineID string) (*Machine, error) {
	var machine Machine
	err := c.get(ctx, "/api/machines/"+machineID, "", &machine)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up machine: %w", err)
	}
	return &machine, nil
}

// statusError preserves the HTTP status of a failed lookup.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("master-data service returned status %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	serr, ok := err.(*statusError)
	return ok && serr.status == http.StatusNotFound
}

// get issues an authenticated GET and decodes the JSON response into out.
// credential overrides the minted service token when non-empty.
func (c *Client) get(ctx context.Context, path, credential string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	token := credential
	if token == "" {
		token, err = c.serviceToken()
		if err != nil {
			return fmt.Errorf("minting service token: %w", err)
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
