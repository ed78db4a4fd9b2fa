package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sony/gobreaker"
)

// GoogleCertsURL serves the x509 certificates Firebase signs ID tokens with.
const GoogleCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

const issuerPrefix = "https://securetoken.google.com/"

// minRefetchInterval bounds how often an unknown kid can refresh a key set
// that has not expired yet.
const minRefetchInterval = time.Minute

var (
	// ErrUnauthenticated is returned for a missing, malformed, expired or
	// badly signed token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrKeySource is returned when Google's signing keys cannot be loaded.
	ErrKeySource = errors.New("signing keys unavailable")
)

// Verifier checks a bearer token and returns the caller's email.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Claims are the Firebase ID token claims we read.
type Claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// FirebaseVerifier validates Firebase ID tokens against Google's current
// signing certificates.
type FirebaseVerifier struct {
	projectID string
	certsURL  string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker

	refetchInterval time.Duration

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	fetchedAt time.Time
}

// NewFirebaseVerifier creates a verifier for the given Firebase project.
func NewFirebaseVerifier(projectID, certsURL string, client *http.Client, breaker *gobreaker.CircuitBreaker) *FirebaseVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &FirebaseVerifier{
		projectID:       projectID,
		certsURL:        certsURL,
		client:          client,
		breaker:         breaker,
		refetchInterval: minRefetchInterval,
	}
}

// Verify parses and validates tokenString. A rejected token wraps
// ErrUnauthenticated; a key source failure wraps ErrKeySource instead.
func (v *FirebaseVerifier) Verify(ctx context.Context, tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid header")
		}
		return v.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(issuerPrefix+v.projectID),
		jwt.WithExpirationRequired(),
	)
	if errors.Is(err, ErrKeySource) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	if claims.Email == "" {
		return "", fmt.Errorf("%w: token has no email", ErrUnauthenticated)
	}
	return claims.Email, nil
}

// key returns the public key for kid. The key set is refreshed when it has
// expired, or when it does not know kid and was last fetched more than
// refetchInterval ago.
func (v *FirebaseVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok, refresh := v.cached(kid)
	v.mu.RUnlock()
	if !refresh {
		return lookup(key, ok, kid)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// another request may have refreshed while we waited
	if key, ok, refresh := v.cached(kid); !refresh {
		return lookup(key, ok, kid)
	}

	keys, maxAge, err := v.fetch(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	v.keys = keys
	v.expiresAt = now.Add(maxAge)
	v.fetchedAt = now

	key, ok = keys[kid]
	return lookup(key, ok, kid)
}

// cached reports the cached key for kid and whether the key set has to be
// fetched again. Callers hold v.mu.
func (v *FirebaseVerifier) cached(kid string) (*rsa.PublicKey, bool, bool) {
	key, ok := v.keys[kid]
	now := time.Now()
	if !now.Before(v.expiresAt) {
		return key, ok, true
	}
	if ok {
		return key, true, false
	}
	return nil, false, now.Sub(v.fetchedAt) >= v.refetchInterval
}

func lookup(key *rsa.PublicKey, ok bool, kid string) (*rsa.PublicKey, error) {
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return key, nil
}

type keySet struct {
	keys   map[string]*rsa.PublicKey
	maxAge time.Duration
}

func (v *FirebaseVerifier) fetch(ctx context.Context) (map[string]*rsa.PublicKey, time.Duration, error) {
	call := func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := v.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch signing keys: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return nil, fmt.Errorf("fetch signing keys: status %d: %s", resp.StatusCode, string(body))
		}

		var certs map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
			return nil, fmt.Errorf("decode signing keys: %w", err)
		}

		keys := make(map[string]*rsa.PublicKey, len(certs))
		for kid, pemCert := range certs {
			key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemCert))
			if err != nil {
				return nil, fmt.Errorf("parse signing key %q: %w", kid, err)
			}
			keys[kid] = key
		}
		return keySet{keys: keys, maxAge: maxAge(resp.Header.Get("Cache-Control"))}, nil
	}

	var (
		result interface{}
		err    error
	)
	if v.breaker != nil {
		result, err = v.breaker.Execute(call)
	} else {
		result, err = call()
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrKeySource, err)
	}
	set := result.(keySet)
	return set.keys, set.maxAge, nil
}

// maxAge reads max-age from a Cache-Control header. Zero means the key
// set is refetched on the next verification.
func maxAge(header string) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		directive = strings.TrimSpace(directive)
		if value, ok := strings.CutPrefix(directive, "max-age="); ok {
			seconds, err := strconv.Atoi(value)
			if err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	return 0
}
