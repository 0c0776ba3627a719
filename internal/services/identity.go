package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/barberzap/barberzap-backend/internal/models"
	"github.com/barberzap/barberzap-backend/internal/storage"
)

// Auth failure values. ErrInvalidCredentials deliberately covers both
// unknown email and wrong password so the reply cannot be used to
// enumerate accounts.
var (
	ErrInvalidCredentials = errors.New("email ou senha incorretos")
	ErrInactiveAccount    = errors.New("conta desativada")
)

// dummyHash is compared against when the email does not exist, so the
// miss path costs the same as a real bcrypt comparison.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// ShopMatch pairs a client record with the shop it belongs to, for
// phone+name login resolution.
type ShopMatch struct {
	Client *models.Client
	Shop   *models.Shop
}

// IdentityResolver maps inbound phone numbers and claimed names onto
// stored client and shop accounts.
type IdentityResolver struct {
	store storage.Store
}

// NewIdentityResolver creates a new identity resolver
func NewIdentityResolver(store storage.Store) *IdentityResolver {
	return &IdentityResolver{store: store}
}

// PhoneVariants expands a raw phone string into every representation it
// may have been stored under. Rows created at different times carry the
// number with or without the mobile 9 prefix and with or without the 55
// country code; the resolver compensates instead of requiring canonical
// storage.
//
// Given the digits of the input:
//  1. an 11-digit number also yields the 10-digit form with the 3rd
//     digit removed;
//  2. a 10-digit number also yields the 11-digit form with a 9 inserted
//     after the area code;
//  3. every variant also yields its 55-prefixed form;
//  4. every 55-prefixed variant longer than 11 digits also yields the
//     form with the prefix stripped.
//
// The result is de-duplicated and includes the original digits.
func PhoneVariants(raw string) []string {
	digits := onlyDigits(raw)
	if digits == "" {
		return nil
	}

	seen := map[string]bool{digits: true}
	variants := []string{digits}
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			variants = append(variants, v)
		}
	}

	if len(digits) == 11 {
		// Area code + 9-digit mobile: drop the leading mobile digit
		add(digits[:2] + digits[3:])
	}
	if len(digits) == 10 {
		// Insert the mobile 9 after the area code
		add(digits[:2] + "9" + digits[2:])
	}

	// Country-code prefixed forms of everything so far
	for _, v := range append([]string(nil), variants...) {
		if !strings.HasPrefix(v, "55") {
			add("55" + v)
		}
	}

	// Stripped forms of long 55-prefixed variants
	for _, v := range append([]string(nil), variants...) {
		if strings.HasPrefix(v, "55") && len(v) > 11 {
			add(v[2:])
		}
	}

	return variants
}

func onlyDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FindShopsForClient resolves the shops a person is a client of, given
// their phone number and claimed name. The name match is a
// case-insensitive substring against the stored name. An empty result
// is a valid outcome, not an error: the caller prompts a retry.
func (r *IdentityResolver) FindShopsForClient(rawPhone, claimedName string) ([]ShopMatch, error) {
	variants := PhoneVariants(rawPhone)
	if len(variants) == 0 {
		return nil, nil
	}

	clients, err := r.store.FindClientsByPhoneAndName(variants, claimedName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up clients: %w", err)
	}

	var matches []ShopMatch
	seenShops := make(map[string]bool)
	for _, client := range clients {
		if seenShops[client.ShopID] {
			continue
		}
		shop, err := r.store.GetShopByID(client.ShopID)
		if err != nil {
			log.Printf("⚠️  Client %s references missing shop %s", client.ClientID, client.ShopID)
			continue
		}
		seenShops[client.ShopID] = true
		matches = append(matches, ShopMatch{Client: client, Shop: shop})
	}

	return matches, nil
}

// AuthenticateShop verifies shop owner credentials. The stored password
// is a bcrypt hash; comparison is constant-time. Missing email and
// wrong password fail identically with ErrInvalidCredentials.
func (r *IdentityResolver) AuthenticateShop(email, password string) (*models.Shop, error) {
	shop, err := r.store.GetShopByEmail(email)
	if err != nil {
		// Burn a comparison anyway so the miss is not observably faster
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(shop.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !shop.Active {
		return nil, ErrInactiveAccount
	}

	return shop, nil
}

// HashPassword produces the bcrypt hash stored on a shop account
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
