package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Blob       BlobConfig
	Identity   IdentityConfig
	LocalStore LocalStoreConfig
	Cart       CartConfig
	Renderer   RendererConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Blob.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BlobConfig locates the remote object store holding the catalog and images.
type BlobConfig struct {
	AccountURL      string        `envconfig:"STOREFRONT_BLOB_ACCOUNT_URL" required:"true"`
	DataContainer   string        `envconfig:"STOREFRONT_BLOB_DATA_CONTAINER" default:"data"`
	ImagesContainer string        `envconfig:"STOREFRONT_BLOB_IMAGES_CONTAINER" default:"images"`
	ReadSASToken    string        `envconfig:"STOREFRONT_BLOB_READ_SAS_TOKEN"`
	RequestTimeout  time.Duration `envconfig:"STOREFRONT_BLOB_REQUEST_TIMEOUT" default:"10s"`
}

func (b BlobConfig) validate() error {
	if !strings.HasPrefix(b.AccountURL, "http://") && !strings.HasPrefix(b.AccountURL, "https://") {
		return fmt.Errorf("blob account URL must be http(s), got %q", b.AccountURL)
	}
	return nil
}

type IdentityConfig struct {
	TokenURL     string `envconfig:"STOREFRONT_IDENTITY_TOKEN_URL"`
	ClientID     string `envconfig:"STOREFRONT_IDENTITY_CLIENT_ID"`
	ClientSecret string `envconfig:"STOREFRONT_IDENTITY_CLIENT_SECRET"`
	DefaultScope string `envconfig:"STOREFRONT_IDENTITY_DEFAULT_SCOPE" default:"storage.readwrite"`
}

// Enabled reports whether identity credentials were provided; the catalog
// read path works without them.
func (i IdentityConfig) Enabled() bool {
	return i.TokenURL != "" && i.ClientID != ""
}

type LocalStoreConfig struct {
	Path string `envconfig:"STOREFRONT_LOCALSTORE_PATH" default:"storefront.db"`
}

type CartConfig struct {
	StorageKey string `envconfig:"STOREFRONT_CART_STORAGE_KEY" default:"storefront_cart"`
}

type RendererConfig struct {
	PageSize          int           `envconfig:"STOREFRONT_RENDERER_PAGE_SIZE" default:"20"`
	LoadMoreThreshold int           `envconfig:"STOREFRONT_RENDERER_LOAD_MORE_THRESHOLD_PX" default:"500"`
	ScrollDebounce    time.Duration `envconfig:"STOREFRONT_RENDERER_SCROLL_DEBOUNCE" default:"100ms"`
	PreloadMargin     int           `envconfig:"STOREFRONT_RENDERER_PRELOAD_MARGIN_PX" default:"50"`
}
