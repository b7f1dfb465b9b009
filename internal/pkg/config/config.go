// Package config loads the storefront configuration from the environment.
//
// Every key is read from an environment variable of the same name. Gateway and
// commerce credentials have no defaults: Load fails when any of them is absent
// so a misconfigured process never starts serving checkouts.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	Razorpay RazorpayConfig
	Shopify  ShopifyConfig
	Checkout CheckoutConfig

	RedisAddr       string
	FinalizeLogPath string
	KafkaBrokers    []string
	KafkaTopic      string

	ServiceName  string
	OTLPEndpoint string
	LogLevel     string
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

type ShopifyConfig struct {
	StoreDomain string
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
}

type CheckoutConfig struct {
	Currency     string
	CountryCode  string
	Country      string
	MerchantName string
	Description  string
}

var (
	gatewayKeys  = []string{"RAZORPAY_KEY_ID", "RAZORPAY_KEY_SECRET"}
	commerceKeys = []string{"SHOPIFY_STORE_DOMAIN", "SHOPIFY_ACCESS_TOKEN"}
)

func serviceKeys() []string {
	return append(append([]string{}, gatewayKeys...), commerceKeys...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("MAX_BODY_BYTES", 1<<20)

	v.SetDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com")
	v.SetDefault("RAZORPAY_TIMEOUT", "30s")
	// One version serves both order creation and the product listing.
	v.SetDefault("SHOPIFY_API_VERSION", "2023-10")
	v.SetDefault("SHOPIFY_TIMEOUT", "30s")

	v.SetDefault("CHECKOUT_CURRENCY", "GHS")
	v.SetDefault("CHECKOUT_COUNTRY_CODE", "91")
	v.SetDefault("CHECKOUT_COUNTRY", "India")
	v.SetDefault("CHECKOUT_MERCHANT_NAME", "Grace Season")
	v.SetDefault("CHECKOUT_DESCRIPTION", "Thrift Item Purchase")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("FINALIZE_LOG_PATH", "./data/finalize.db")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "storefront.orders")

	v.SetDefault("OTEL_SERVICE_NAME", "storefront")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	return load(v, serviceKeys())
}

// LoadForReplay is Load for the replay tool, which never talks to the
// payment gateway and so does not need its credentials.
func LoadForReplay() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	return load(v, commerceKeys)
}

func load(v *viper.Viper, required []string) (*Config, error) {
	setDefaults(v)

	var missing []string
	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg := &Config{
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		MaxBodyBytes:    v.GetInt64("MAX_BODY_BYTES"),
		Razorpay: RazorpayConfig{
			KeyID:     v.GetString("RAZORPAY_KEY_ID"),
			KeySecret: v.GetString("RAZORPAY_KEY_SECRET"),
			BaseURL:   strings.TrimSuffix(v.GetString("RAZORPAY_BASE_URL"), "/"),
			Timeout:   v.GetDuration("RAZORPAY_TIMEOUT"),
		},
		Shopify: ShopifyConfig{
			StoreDomain: normalizeDomain(v.GetString("SHOPIFY_STORE_DOMAIN")),
			AccessToken: v.GetString("SHOPIFY_ACCESS_TOKEN"),
			APIVersion:  v.GetString("SHOPIFY_API_VERSION"),
			Timeout:     v.GetDuration("SHOPIFY_TIMEOUT"),
		},
		Checkout: CheckoutConfig{
			Currency:     v.GetString("CHECKOUT_CURRENCY"),
			CountryCode:  v.GetString("CHECKOUT_COUNTRY_CODE"),
			Country:      v.GetString("CHECKOUT_COUNTRY"),
			MerchantName: v.GetString("CHECKOUT_MERCHANT_NAME"),
			Description:  v.GetString("CHECKOUT_DESCRIPTION"),
		},
		RedisAddr:       v.GetString("REDIS_ADDR"),
		FinalizeLogPath: v.GetString("FINALIZE_LOG_PATH"),
		KafkaBrokers:    splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:      v.GetString("KAFKA_TOPIC"),
		ServiceName:     v.GetString("OTEL_SERVICE_NAME"),
		OTLPEndpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:        v.GetString("LOG_LEVEL"),
	}

	if cfg.Razorpay.Timeout <= 0 {
		return nil, fmt.Errorf("config: RAZORPAY_TIMEOUT must be positive")
	}
	if cfg.Shopify.Timeout <= 0 {
		return nil, fmt.Errorf("config: SHOPIFY_TIMEOUT must be positive")
	}

	return cfg, nil
}

// normalizeDomain strips a scheme and trailing slash, so both
// "https://shop.myshopify.com/" and "shop.myshopify.com" are accepted.
func normalizeDomain(d string) string {
	d = strings.TrimSpace(d)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	return strings.TrimSuffix(d, "/")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
