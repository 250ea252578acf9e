package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ByGamer01/DamnBruh/auth"
	"github.com/ByGamer01/DamnBruh/models"
	"github.com/ByGamer01/DamnBruh/service"
)

// ProfileFetcher loads linked-account data from the identity provider
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token string) *auth.Profile
}

// UserHandler serves authentication, profile and balance endpoints
type UserHandler struct {
	verifier TokenVerifier
	profiles ProfileFetcher
	users    service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(verifier TokenVerifier, profiles ProfileFetcher, users service.UserService) *UserHandler {
	return &UserHandler{
		verifier: verifier,
		profiles: profiles,
		users:    users,
	}
}

type userResponse struct {
	ID            string          `json:"id"`
	PrivyUserID   string          `json:"privy_user_id"`
	Email         *string         `json:"email"`
	WalletAddress *string         `json:"wallet_address"`
	Username      *string         `json:"username"`
	DisplayName   *string         `json:"display_name"`
	Balance       decimal.Decimal `json:"balance"`
	TotalGames    int             `json:"total_games"`
	TotalWins     int             `json:"total_wins"`
	TotalWinnings decimal.Decimal `json:"total_winnings"`
	ReferralCode  *string         `json:"referral_code"`
	Appearance    map[string]any  `json:"appearance"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:            user.ID,
		PrivyUserID:   user.PrivyUserID,
		Email:         user.Email,
		WalletAddress: user.WalletAddress,
		Username:      user.Username,
		DisplayName:   user.DisplayName,
		Balance:       user.Balance,
		TotalGames:    user.TotalGames,
		TotalWins:     user.TotalWins,
		TotalWinnings: user.TotalWinnings,
		ReferralCode:  user.ReferralCode,
		Appearance:    user.Appearance,
		CreatedAt:     user.CreatedAt,
	}
}

// VerifyAuth handles POST /api/auth/verify. The token is verified, the
// provider profile is fetched best-effort for linked accounts, and the
// user record is created on first sight.
func (h *UserHandler) VerifyAuth(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	verified, err := h.verifier.Verify(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	identity := service.Identity{PrivyUserID: verified.PrivyUserID}
	if profile := h.profiles.FetchProfile(r.Context(), token); profile != nil {
		identity.Email = profile.Email
		identity.WalletAddress = profile.WalletAddress
	}

	user, err := h.users.GetOrCreateProfile(r.Context(), identity)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// GetProfile handles GET /api/user/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	user, err := h.users.GetOrCreateProfile(r.Context(), service.Identity{
		PrivyUserID:   identity.PrivyUserID,
		Email:         identity.Email,
		WalletAddress: identity.WalletAddress,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

type updateProfileRequest struct {
	Username    *string        `json:"username"`
	DisplayName *string        `json:"display_name"`
	Appearance  map[string]any `json:"appearance"`
}

// UpdateProfile handles PUT /api/user/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if req.Username != nil {
		if err := validateUsername(*req.Username); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.DisplayName != nil {
		if err := validateDisplayName(*req.DisplayName); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	err := h.users.UpdateProfile(r.Context(), identity.PrivyUserID, models.ProfileUpdate{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Appearance:  req.Appearance,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.users.GetOrCreateProfile(r.Context(), service.Identity{PrivyUserID: identity.PrivyUserID})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

type balanceResponse struct {
	Balance            decimal.Decimal `json:"balance"`
	Currency           string          `json:"currency"`
	WalletAddress      *string         `json:"wallet_address"`
	PendingWithdrawals decimal.Decimal `json:"pending_withdrawals"`
}

// GetBalance handles GET /api/user/balance
func (h *UserHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	balance, err := h.users.GetBalance(r.Context(), identity.PrivyUserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		Balance:            balance.Balance,
		Currency:           balance.Currency,
		WalletAddress:      balance.WalletAddress,
		PendingWithdrawals: balance.PendingWithdrawals,
	})
}
