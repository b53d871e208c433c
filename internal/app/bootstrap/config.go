package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/valuesdao/internal/app/system/inputval"
	"github.com/dalemusser/valuesdao/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for ValuesDAO.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, neynar_api_key, etc.
//   - Environment variables: VALUESDAO_MONGO_URI, VALUESDAO_NEYNAR_API_KEY, etc.
//   - Command-line flags: --mongo_uri, --neynar_api_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "valuesdao", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	// Content sources
	{Name: "neynar_api_key", Default: "", Desc: "Neynar API key (casts and verified addresses)"},
	{Name: "neynar_base_url", Default: "https://api.neynar.com", Desc: "Neynar API base URL"},
	{Name: "twitter_client_id", Default: "", Desc: "Twitter OAuth2 client ID"},
	{Name: "twitter_client_secret", Default: "", Desc: "Twitter OAuth2 client secret"},
	{Name: "twitter_base_url", Default: "https://api.twitter.com", Desc: "Twitter API base URL"},
	{Name: "twitter_max_tweets", Default: 3200, Desc: "Most tweets read per generation"},

	// Language model
	{Name: "openai_api_key", Default: "", Desc: "OpenAI API key"},
	{Name: "openai_model", Default: "gpt-4o-mini", Desc: "Model used to name values"},
	{Name: "openai_base_url", Default: "", Desc: "OpenAI-compatible base URL (blank for api.openai.com)"},

	// Pinning and chain
	{Name: "pinata_jwt", Default: "", Desc: "Pinata JWT"},
	{Name: "pinata_base_url", Default: "https://api.pinata.cloud", Desc: "Pinata API base URL"},
	{Name: "chain_rpc_url", Default: "", Desc: "EVM JSON-RPC URL (blank disables minting)"},
	{Name: "chain_private_key", Default: "", Desc: "Hex private key of the minter account"},
	{Name: "chain_contract", Default: "", Desc: "Values NFT contract address"},
	{Name: "chain_id", Default: 84532, Desc: "Chain id (Base Sepolia by default)"},

	// Frame links
	{Name: "public_url", Default: "http://localhost:3000", Desc: "External base URL of this service"},
	{Name: "tx_explorer_url", Default: "https://sepolia.basescan.org/tx/", Desc: "Transaction link prefix"},
	{Name: "app_url", Default: "https://app.valuesdao.io", Desc: "ValuesDAO app URL"},

	// Generation thresholds
	{Name: "min_items", Default: 100, Desc: "Minimum casts or tweets needed to generate values"},
	{Name: "cast_limit", Default: 200, Desc: "Most casts read per generation"},
	{Name: "max_discard", Default: 2, Desc: "Generations with this many values or fewer are not stored"},

	// Limits
	{Name: "external_timeout", Default: "30s", Desc: "Per-request timeout for external APIs"},
	{Name: "mint_lock_ttl", Default: "4m", Desc: "How long a mint attempt holds the per-fid lock"},
	{Name: "generate_rate_per_minute", Default: 10, Desc: "Value generations per API key per minute"},
	{Name: "mint_rate_per_minute", Default: 3, Desc: "Mint submissions per fid per minute"},

	{Name: "bootstrap_api_key", Default: "", Desc: `API key ("<prefix>.<secret>") provisioned at startup`},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// Precedence is flags > env (VALUESDAO_*) > config files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "VALUESDAO", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		NeynarAPIKey:        appValues.String("neynar_api_key"),
		NeynarBaseURL:       appValues.String("neynar_base_url"),
		TwitterClientID:     appValues.String("twitter_client_id"),
		TwitterClientSecret: appValues.String("twitter_client_secret"),
		TwitterBaseURL:      appValues.String("twitter_base_url"),
		TwitterMaxTweets:    appValues.Int("twitter_max_tweets"),

		OpenAIAPIKey:  appValues.String("openai_api_key"),
		OpenAIModel:   appValues.String("openai_model"),
		OpenAIBaseURL: appValues.String("openai_base_url"),

		PinataJWT:       appValues.String("pinata_jwt"),
		PinataBaseURL:   appValues.String("pinata_base_url"),
		ChainRPCURL:     appValues.String("chain_rpc_url"),
		ChainPrivateKey: appValues.String("chain_private_key"),
		ChainContract:   appValues.String("chain_contract"),
		ChainID:         int64(appValues.Int("chain_id")),

		PublicURL:     appValues.String("public_url"),
		TxExplorerURL: appValues.String("tx_explorer_url"),
		AppURL:        appValues.String("app_url"),

		MinItems:   appValues.Int("min_items"),
		CastLimit:  appValues.Int("cast_limit"),
		MaxDiscard: appValues.Int("max_discard"),

		ExternalTimeout:       appValues.Duration("external_timeout", 30*time.Second),
		MintLockTTL:           appValues.Duration("mint_lock_ttl", 4*time.Minute),
		GenerateRatePerMinute: appValues.Int("generate_rate_per_minute"),
		MintRatePerMinute:     appValues.Int("mint_rate_per_minute"),

		BootstrapAPIKey: appValues.String("bootstrap_api_key"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configurations that would only fail later, at
// request time: a malformed Mongo URI, missing model credentials,
// impossible thresholds or a half-configured minter.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	var problems []string
	if appCfg.OpenAIAPIKey == "" {
		problems = append(problems, "openai_api_key is required")
	}
	if appCfg.NeynarAPIKey == "" {
		problems = append(problems, "neynar_api_key is required")
	}
	if appCfg.MinItems < 1 {
		problems = append(problems, "min_items must be at least 1")
	}
	if appCfg.CastLimit < appCfg.MinItems {
		problems = append(problems, "cast_limit must not be below min_items")
	}
	if appCfg.MaxDiscard < 0 {
		problems = append(problems, "max_discard must not be negative")
	}
	if appCfg.GenerateRatePerMinute < 1 || appCfg.MintRatePerMinute < 1 {
		problems = append(problems, "rate limits must be at least 1 per minute")
	}

	for _, u := range []struct{ name, value string }{
		{"public_url", appCfg.PublicURL},
		{"tx_explorer_url", appCfg.TxExplorerURL},
		{"app_url", appCfg.AppURL},
	} {
		if !inputval.IsValidHTTPURL(u.value) {
			problems = append(problems, u.name+" must be an http or https URL")
		}
	}

	if appCfg.ChainRPCURL != "" {
		if _, err := crypto.HexToECDSA(strings.TrimPrefix(appCfg.ChainPrivateKey, "0x")); err != nil {
			problems = append(problems, "chain_private_key is not a valid hex key")
		}
		if !common.IsHexAddress(appCfg.ChainContract) {
			problems = append(problems, "chain_contract is not a valid address")
		}
		if appCfg.PinataJWT == "" {
			problems = append(problems, "pinata_jwt is required when minting is enabled")
		}
		if appCfg.MintLockTTL <= timeouts.Mint() {
			problems = append(problems, fmt.Sprintf("mint_lock_ttl must be longer than the mint timeout (%s)", timeouts.Mint()))
		}
	}

	if appCfg.BootstrapAPIKey != "" {
		if p, s, ok := strings.Cut(appCfg.BootstrapAPIKey, "."); !ok || p == "" || s == "" {
			problems = append(problems, `bootstrap_api_key must look like "<prefix>.<secret>"`)
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
