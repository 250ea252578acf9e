package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Profile is the linked-account data the identity provider holds for a
// user beyond the token claims
type Profile struct {
	Email         *string
	WalletAddress *string
}

type providerUser struct {
	ID             string `json:"id"`
	LinkedAccounts []struct {
		Type    string `json:"type"`
		Address string `json:"address"`
	} `json:"linked_accounts"`
}

// FetchProfile loads the user's linked accounts from the provider.
// Failures return nil: profile enrichment is best effort and a provider
// outage must not block authentication.
func (v *Verifier) FetchProfile(ctx context.Context, token string) *Profile {
	url := v.cfg.BaseURL + "/api/v1/users/me"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("privy-app-id", v.cfg.AppID)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).Debug("Provider profile fetch failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.WithField("status", resp.StatusCode).Debug("Provider profile fetch rejected")
		return nil
	}

	var user providerUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		logrus.WithError(err).Debug("Provider profile response unreadable")
		return nil
	}

	profile := &Profile{}
	for _, account := range user.LinkedAccounts {
		switch account.Type {
		case "email":
			if profile.Email == nil && account.Address != "" {
				email := account.Address
				profile.Email = &email
			}
		case "wallet":
			if profile.WalletAddress == nil && account.Address != "" {
				wallet := account.Address
				profile.WalletAddress = &wallet
			}
		}
	}

	return profile
}
