package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	config "crosspost/configs"
	"crosspost/internal/models"
	"crosspost/internal/repository"
	"crosspost/internal/transfer"
)

const twitterAPIURL = "https://api.twitter.com"

// TwitterConnectService runs the OAuth2+PKCE flow that links a Twitter
// account. The callback upserts the account row, so reconnecting refreshes
// credentials instead of duplicating the account.
type TwitterConnectService interface {
	AuthURL(state, verifier string) string
	HandleCallback(ctx context.Context, userID int64, code, verifier string) error
}

type twitterConnectService struct {
	oauth    *oauth2.Config
	accounts repository.SocialAccountRepository
	apiURL   string
	client   *http.Client
}

func NewTwitterConnectService(cfg config.Config, accounts repository.SocialAccountRepository) TwitterConnectService {
	return &twitterConnectService{
		oauth: &oauth2.Config{
			ClientID:     cfg.TwitterClientID,
			ClientSecret: cfg.TwitterClientSecret,
			RedirectURL:  cfg.BaseURL + "/api/connect/twitter/callback",
			Scopes:       []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://twitter.com/i/oauth2/authorize",
				TokenURL:  twitterAPIURL + "/2/oauth2/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		accounts: accounts,
		apiURL:   twitterAPIURL,
		client:   &http.Client{},
	}
}

func (s *twitterConnectService) AuthURL(state, verifier string) string {
	return s.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

func (s *twitterConnectService) HandleCallback(ctx context.Context, userID int64, code, verifier string) error {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return err
	}

	tok, err := s.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("twitter token exchange failed: %w", err)
	}

	twitterUser, err := s.fetchUser(ctx, tok.AccessToken)
	if err != nil {
		return err
	}

	var expiresAt *time.Time
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry
		expiresAt = &expiry
	}

	accountInfo := &models.SocialAccount{
		UserID:          userID,
		Platform:        models.PlatformTwitter,
		AccountID:       twitterUser.Data.ID,
		AccountUsername: twitterUser.Data.Username,
		AccessToken:     tok.AccessToken,
		RefreshToken:    tok.RefreshToken,
		TokenExpiresAt:  expiresAt,
	}

	if _, err := s.accounts.Upsert(ctx, accountInfo); err != nil {
		return err
	}

	return nil
}

func (s *twitterConnectService) fetchUser(ctx context.Context, accessToken string) (*transfer.TwitterUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"/2/users/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("twitter user lookup returned %d: %s", resp.StatusCode, body)
	}

	var twitterUser transfer.TwitterUser
	if err := json.NewDecoder(resp.Body).Decode(&twitterUser); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if twitterUser.Data.ID == "" {
		return nil, errors.New("twitter user lookup returned no id")
	}

	return &twitterUser, nil
}
