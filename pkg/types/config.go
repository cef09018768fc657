package types

type StorageBackend string

const (
	StorageBackendS3       StorageBackend = "s3"
	StorageBackendSupabase StorageBackend = "supabase"
	StorageBackendMemory   StorageBackend = "memory"
)

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Cognito Auth
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`

	// Proposal PDF storage
	StorageBackend StorageBackend `envconfig:"STORAGE_BACKEND" default:"s3"`
	StorageBucket  string         `envconfig:"STORAGE_BUCKET" default:"proposals"`

	// S3, endpoint and static keys are only needed for S3 compatible stores (minio)
	S3Endpoint      string `envconfig:"S3_ENDPOINT"`
	S3PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL"`
	S3UsePathStyle  bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
	S3AccessKeyID   string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey     string `envconfig:"S3_SECRET_ACCESS_KEY"`

	// Public base URL of this server, memory storage serves files under it
	PublicURL string `envconfig:"PUBLIC_URL" default:"http://localhost:8080"`

	// Supabase Storage
	SupabaseURL    string `envconfig:"SUPABASE_URL"`
	SupabaseAPIKey string `envconfig:"SUPABASE_API_KEY"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}
