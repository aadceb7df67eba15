package dto

// AccessTokenRes is the body of a successful access token rotation.
type AccessTokenRes struct {
	AccessToken string `json:"accessToken"`
}

// RefreshTokenRes is the body of a successful refresh token rotation.
type RefreshTokenRes struct {
	RefreshToken string `json:"refreshToken"`
}
