package config

const (
	// EnvPrefix namespaces every storefront environment variable.
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside envconfig tags (tests, docs).
const (
	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvLogLevel       = "STOREFRONT_LOG_LEVEL"
	EnvBlobAccountURL = "STOREFRONT_BLOB_ACCOUNT_URL"
	EnvLocalStorePath = "STOREFRONT_LOCALSTORE_PATH"
	EnvCartStorageKey = "STOREFRONT_CART_STORAGE_KEY"
)

// Well-known catalog resource names inside the data container.
const (
	ProductsResource   = "products.json"
	BrandsResource     = "brands.json"
	CategoriesResource = "categories.json"
)
