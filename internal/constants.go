package internal

const (
	COOKIE_ACCESS_TOKEN_NAME = "agro_access_token"
	COOKIE_REDIRECT_NAME     = "agro_redirect"
)
