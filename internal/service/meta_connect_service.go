package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	config "crosspost/configs"
	"crosspost/internal/models"
	"crosspost/internal/repository"
	"crosspost/internal/transfer"
)

const (
	metaDialogURL   = "https://www.facebook.com/v19.0/dialog/oauth"
	metaGraphURL    = "https://graph.facebook.com/v19.0"
	metaOAuthScopes = "pages_show_list,pages_read_engagement,pages_manage_posts,instagram_basic,instagram_content_publish"
)

// MetaConnectService links Facebook Pages and any Instagram business
// accounts attached to them. One callback can upsert several account rows:
// every managed page plus each linked Instagram identity, all carrying the
// page's non-expiring access token.
type MetaConnectService interface {
	AuthURL(state string) string
	HandleCallback(ctx context.Context, userID int64, code string) error
}

type metaConnectService struct {
	cfg      config.Config
	accounts repository.SocialAccountRepository
	graphURL string
	client   *http.Client
}

func NewMetaConnectService(cfg config.Config, accounts repository.SocialAccountRepository) MetaConnectService {
	return &metaConnectService{
		cfg:      cfg,
		accounts: accounts,
		graphURL: metaGraphURL,
		client:   &http.Client{},
	}
}

func (s *metaConnectService) AuthURL(state string) string {
	params := url.Values{}
	params.Add("client_id", s.cfg.MetaAppID)
	params.Add("redirect_uri", s.cfg.BaseURL+"/api/connect/meta/callback")
	params.Add("scope", metaOAuthScopes)
	params.Add("response_type", "code")
	params.Add("state", state)

	return fmt.Sprintf("%s?%s", metaDialogURL, params.Encode())
}

func (s *metaConnectService) HandleCallback(ctx context.Context, userID int64, code string) error {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return err
	}

	shortLived, err := s.exchangeCode(ctx, code)
	if err != nil {
		return err
	}

	longLived, err := s.exchangeLongLived(ctx, shortLived)
	if err != nil {
		return err
	}

	pages, err := s.fetchPages(ctx, longLived)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return errors.New("no facebook pages found for this user")
	}

	for _, page := range pages {
		// Page Access Tokens derived from a long-lived user token never
		// expire, so no expiry and no refresh token are stored.
		accountInfo := &models.SocialAccount{
			UserID:          userID,
			Platform:        models.PlatformFacebook,
			AccountID:       page.ID,
			AccountUsername: page.Name,
			AccessToken:     page.AccessToken,
		}
		if _, err := s.accounts.Upsert(ctx, accountInfo); err != nil {
			return err
		}

		if page.InstagramBusinessAccount == nil {
			continue
		}

		igUser, err := s.fetchInstagramUser(ctx, page.InstagramBusinessAccount.ID, page.AccessToken)
		if err != nil {
			slog.Info("skipping linked instagram account", "page_id", page.ID, "error", err)
			continue
		}

		igAccount := &models.SocialAccount{
			UserID:          userID,
			Platform:        models.PlatformInstagram,
			AccountID:       igUser.ID,
			AccountUsername: igUser.Username,
			// The Instagram Graph API authenticates with the page token.
			AccessToken: page.AccessToken,
		}
		if _, err := s.accounts.Upsert(ctx, igAccount); err != nil {
			return err
		}
	}

	return nil
}

func (s *metaConnectService) exchangeCode(ctx context.Context, code string) (string, error) {
	data := url.Values{}
	data.Set("client_id", s.cfg.MetaAppID)
	data.Set("client_secret", s.cfg.MetaAppSecret)
	data.Set("redirect_uri", s.cfg.BaseURL+"/api/connect/meta/callback")
	data.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.graphURL+"/oauth/access_token", strings.NewReader(data.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return s.tokenFromResponse(req)
}

func (s *metaConnectService) exchangeLongLived(ctx context.Context, shortLivedToken string) (string, error) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", s.cfg.MetaAppID)
	params.Set("client_secret", s.cfg.MetaAppSecret)
	params.Set("fb_exchange_token", shortLivedToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/oauth/access_token?%s", s.graphURL, params.Encode()), nil)
	if err != nil {
		return "", err
	}

	return s.tokenFromResponse(req)
}

func (s *metaConnectService) tokenFromResponse(req *http.Request) (string, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("meta token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var token transfer.MetaTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	if token.AccessToken == "" {
		return "", errors.New("meta token endpoint returned no access token")
	}

	return token.AccessToken, nil
}

func (s *metaConnectService) fetchPages(ctx context.Context, accessToken string) ([]transfer.MetaPage, error) {
	endpoint := fmt.Sprintf("%s/me/accounts?fields=id,name,access_token,instagram_business_account&access_token=%s",
		s.graphURL, url.QueryEscape(accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("meta pages lookup returned %d: %s", resp.StatusCode, body)
	}

	var pages transfer.MetaPagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&pages); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return pages.Data, nil
}

func (s *metaConnectService) fetchInstagramUser(ctx context.Context, igAccountID, pageToken string) (*transfer.InstagramBusinessUser, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=id,username&access_token=%s",
		s.graphURL, igAccountID, url.QueryEscape(pageToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("instagram account lookup returned %d: %s", resp.StatusCode, body)
	}

	var igUser transfer.InstagramBusinessUser
	if err := json.NewDecoder(resp.Body).Decode(&igUser); err != nil {
		return nil, err
	}
	if igUser.ID == "" {
		return nil, errors.New("instagram account lookup returned no id")
	}

	return &igUser, nil
}
