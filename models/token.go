package models

// TokenPair is what login hands back: a short-lived access token for
// request auth and a long-lived refresh token for minting new access
// tokens. Both are self-contained JWTs, nothing is stored server side.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
