package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"

	config "crosspost/configs"
	"crosspost/internal/service"
	"crosspost/internal/transfer"
	"crosspost/pkg/utils"
)

const (
	twitterStateCookie = "twitter_oauth_state"
	metaStateCookie    = "meta_oauth_state"
)

type ConnectHandler struct {
	cfg     config.Config
	twitter service.TwitterConnectService
	meta    service.MetaConnectService
}

func NewConnectHandler(cfg config.Config, twitter service.TwitterConnectService, meta service.MetaConnectService) *ConnectHandler {
	return &ConnectHandler{cfg: cfg, twitter: twitter, meta: meta}
}

func (h *ConnectHandler) TwitterConnect(c *fiber.Ctx) error {
	state := randomState()
	verifier := oauth2.GenerateVerifier()

	if err := h.setStateCookie(c, twitterStateCookie, transfer.OAuthState{State: state, Verifier: verifier}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Redirect(h.twitter.AuthURL(state, verifier))
}

func (h *ConnectHandler) TwitterCallback(c *fiber.Ctx) error {
	userID := GetUserID(c)

	if c.Query("error") != "" {
		return h.redirectWithError(c, "twitter_denied")
	}

	saved, err := h.readStateCookie(c, twitterStateCookie)
	code := c.Query("code")
	if err != nil || code == "" {
		return h.redirectWithError(c, "state_missing")
	}
	if c.Query("state") != saved.State {
		return h.redirectWithError(c, "state_mismatch")
	}
	clearCookie(c, twitterStateCookie)

	if err := h.twitter.HandleCallback(c.Context(), userID, code, saved.Verifier); err != nil {
		return h.redirectWithError(c, "token_exchange_failed")
	}

	return c.Redirect(h.cfg.FrontendURL + "/accounts?success=twitter_connected")
}

func (h *ConnectHandler) MetaConnect(c *fiber.Ctx) error {
	state := randomState()

	if err := h.setStateCookie(c, metaStateCookie, transfer.OAuthState{State: state}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Redirect(h.meta.AuthURL(state))
}

func (h *ConnectHandler) MetaCallback(c *fiber.Ctx) error {
	userID := GetUserID(c)

	if c.Query("error") != "" {
		return h.redirectWithError(c, "meta_denied")
	}

	saved, err := h.readStateCookie(c, metaStateCookie)
	code := c.Query("code")
	if err != nil || code == "" {
		return h.redirectWithError(c, "state_missing")
	}
	if c.Query("state") != saved.State {
		return h.redirectWithError(c, "state_mismatch")
	}
	clearCookie(c, metaStateCookie)

	if err := h.meta.HandleCallback(c.Context(), userID, code); err != nil {
		return h.redirectWithError(c, "meta_connect_failed")
	}

	return c.Redirect(h.cfg.FrontendURL + "/accounts?success=meta_connected")
}

// setStateCookie seals the CSRF state (and PKCE verifier) so the callback
// can trust whatever comes back from the browser.
func (h *ConnectHandler) setStateCookie(c *fiber.Ctx, name string, state transfer.OAuthState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}

	sealed, err := utils.Encrypt(payload, []byte(h.cfg.SecretKey))
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    sealed,
		Path:     "/",
		MaxAge:   300,
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return nil
}

func (h *ConnectHandler) readStateCookie(c *fiber.Ctx, name string) (*transfer.OAuthState, error) {
	sealed := c.Cookies(name)
	if sealed == "" {
		return nil, fiber.ErrBadRequest
	}

	payload, err := utils.Decrypt(sealed, []byte(h.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	var state transfer.OAuthState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (h *ConnectHandler) redirectWithError(c *fiber.Ctx, code string) error {
	return c.Redirect(h.cfg.FrontendURL + "/accounts?error=" + code)
}

func clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func randomState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
