package bootstrap

import "time"

// AppConfig holds ValuesDAO configuration loaded in LoadConfig.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and CORS. Everything the
// service itself talks to lives here: MongoDB, the content sources, the
// language model, the pinning service and the chain.
type AppConfig struct {
	// MongoDB
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Farcaster content and wallet lookups (Neynar)
	NeynarAPIKey  string
	NeynarBaseURL string

	// Twitter app-only credentials
	TwitterClientID     string
	TwitterClientSecret string
	TwitterBaseURL      string
	TwitterMaxTweets    int

	// Language model (OpenAI-compatible)
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// Metadata pinning (Pinata)
	PinataJWT     string
	PinataBaseURL string

	// Chain. Minting is disabled when ChainRPCURL is empty.
	ChainRPCURL     string
	ChainPrivateKey string
	ChainContract   string
	ChainID         int64

	// Frame links
	PublicURL     string // this service, for frame images and post targets
	TxExplorerURL string // prefix for transaction links
	AppURL        string // "Visit ValuesDAO" target

	// Value generation
	MinItems   int
	CastLimit  int
	MaxDiscard int

	// Request limits and timeouts
	ExternalTimeout       time.Duration
	MintLockTTL           time.Duration
	GenerateRatePerMinute int
	MintRatePerMinute     int

	// BootstrapAPIKey, if set, is provisioned with READ and WRITE at startup.
	BootstrapAPIKey string
}
