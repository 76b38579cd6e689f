package transfer

type TwitterUser struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

type MetaTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type MetaPage struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	AccessToken              string `json:"access_token"`
	InstagramBusinessAccount *struct {
		ID string `json:"id"`
	} `json:"instagram_business_account"`
}

type MetaPagesResponse struct {
	Data []MetaPage `json:"data"`
}

type InstagramBusinessUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// OAuthState is what gets sealed into the connect-flow cookie: the CSRF
// state plus, for Twitter, the PKCE verifier the callback needs.
type OAuthState struct {
	State    string `json:"state"`
	Verifier string `json:"verifier,omitempty"`
}
