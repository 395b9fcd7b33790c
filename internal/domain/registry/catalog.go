package registry

// Category identifiers used by the built-in catalog.
const (
	CategoryContracts = "contracts"
	CategoryPayments  = "payments"
	CategoryAgents    = "agents"
	CategoryApp       = "app"
)

// BuiltinCategories returns the palette categories in display order.
func BuiltinCategories() []Category {
	return []Category{
		{ID: CategoryContracts, Name: "Smart Contracts", Description: "Deployable contract templates", Icon: "file-code", Order: 10},
		{ID: CategoryPayments, Name: "Payments", Description: "Checkout and paywall blocks", Icon: "credit-card", Order: 20},
		{ID: CategoryAgents, Name: "Agents", Description: "Autonomous and assistant agents", Icon: "bot", Order: 30},
		{ID: CategoryApp, Name: "App Infrastructure", Description: "Frontend, auth and storage", Icon: "layers", Order: 40},
		{ID: FallbackCategory, Name: "Other", Description: "Uncategorized blocks", Icon: "box", Order: 100},
	}
}

var ownerField = Field{Key: "owner", Label: "Owner address", Kind: FieldAddress, Description: "Defaults to the connected wallet"}

var networkField = Field{
	Key: "network", Label: "Network", Kind: FieldSelect, Default: "arbitrum-sepolia",
	Options: []string{"arbitrum-sepolia", "arbitrum-one", "robinhood-testnet"},
}

// BuiltinEntries returns the node types shipped with the builder.
func BuiltinEntries() []Entry {
	return []Entry{
		{
			Type:        "erc20-stylus",
			Name:        "ERC-20 Token",
			Description: "Fungible token with mint, burn, pause and ownership controls",
			Category:    CategoryContracts,
			Tags:        []string{"token", "erc20", "stylus"},
			Icon:        "coins",
			Schema: Schema{
				Fields: []Field{
					{Key: "name", Label: "Token name", Kind: FieldString, Required: true, Default: "My Token"},
					{Key: "symbol", Label: "Symbol", Kind: FieldString, Required: true, Default: "MTK"},
					{Key: "decimals", Label: "Decimals", Kind: FieldNumber, Default: 18},
					{Key: "initialSupply", Label: "Initial supply", Kind: FieldNumber, Default: 1000000},
					{Key: "mintable", Label: "Mintable", Kind: FieldBoolean, Default: true},
					{Key: "burnable", Label: "Burnable", Kind: FieldBoolean, Default: true},
					{Key: "pausable", Label: "Pausable", Kind: FieldBoolean, Default: false},
					ownerField,
					networkField,
				},
				Rules: []Rule{
					{Expr: `!has(config.symbol) || (size(config.symbol) >= 1 && size(config.symbol) <= 11)`, Message: "symbol must be 1-11 characters"},
					{Expr: `!has(config.decimals) || (config.decimals >= 0 && config.decimals <= 18)`, Message: "decimals must be between 0 and 18"},
					{Expr: `!has(config.initialSupply) || config.initialSupply >= 0`, Message: "initial supply cannot be negative"},
				},
			},
		},
		{
			Type:        "erc721-stylus",
			Name:        "ERC-721 Collection",
			Description: "NFT collection with base URI, capped supply and batch minting",
			Category:    CategoryContracts,
			Tags:        []string{"nft", "erc721", "stylus"},
			Icon:        "image",
			Schema: Schema{
				Fields: []Field{
					{Key: "name", Label: "Collection name", Kind: FieldString, Required: true, Default: "My Collection"},
					{Key: "symbol", Label: "Symbol", Kind: FieldString, Required: true, Default: "NFT"},
					{Key: "baseUri", Label: "Base URI", Kind: FieldURL, Default: "ipfs://"},
					{Key: "maxSupply", Label: "Max supply", Kind: FieldNumber, Default: 10000},
					{Key: "burnable", Label: "Burnable", Kind: FieldBoolean, Default: true},
					{Key: "pausable", Label: "Pausable", Kind: FieldBoolean, Default: false},
					ownerField,
					networkField,
				},
				Rules: []Rule{
					{Expr: `!has(config.maxSupply) || config.maxSupply > 0`, Message: "max supply must be positive"},
					{Expr: `!has(config.symbol) || size(config.symbol) <= 11`, Message: "symbol must be at most 11 characters"},
				},
			},
		},
		{
			Type:        "auction",
			Name:        "Auction",
			Description: "English auction for a single asset with reserve price",
			Category:    CategoryContracts,
			Tags:        []string{"auction", "marketplace"},
			Icon:        "gavel",
			Schema: Schema{
				Fields: []Field{
					{Key: "reservePrice", Label: "Reserve price (ETH)", Kind: FieldNumber, Default: 0.1},
					{Key: "durationHours", Label: "Duration (hours)", Kind: FieldNumber, Default: 24},
					{Key: "minBidIncrement", Label: "Minimum bid increment (%)", Kind: FieldNumber, Default: 5},
					networkField,
				},
				Rules: []Rule{
					{Expr: `!has(config.durationHours) || config.durationHours > 0`, Message: "duration must be positive"},
					{Expr: `!has(config.reservePrice) || config.reservePrice >= 0`, Message: "reserve price cannot be negative"},
				},
			},
		},
		{
			Type:        "crowdfunding",
			Name:        "Crowdfunding",
			Description: "Goal-based campaign with refunds when the goal is missed",
			Category:    CategoryContracts,
			Tags:        []string{"crowdfunding", "campaign"},
			Icon:        "hand-coins",
			Schema: Schema{
				Fields: []Field{
					{Key: "goal", Label: "Funding goal (ETH)", Kind: FieldNumber, Required: true, Default: 10},
					{Key: "deadlineDays", Label: "Deadline (days)", Kind: FieldNumber, Default: 30},
					{Key: "beneficiary", Label: "Beneficiary", Kind: FieldAddress},
					networkField,
				},
				Rules: []Rule{
					{Expr: `!has(config.goal) || config.goal > 0`, Message: "goal must be positive"},
				},
			},
		},
		{
			Type:        "group-savings",
			Name:        "Group Savings",
			Description: "Rotating savings pool with fixed contributions",
			Category:    CategoryContracts,
			Tags:        []string{"savings", "pool", "rosca"},
			Icon:        "piggy-bank",
			Schema: Schema{
				Fields: []Field{
					{Key: "contribution", Label: "Contribution per round (ETH)", Kind: FieldNumber, Default: 0.05},
					{Key: "members", Label: "Members", Kind: FieldNumber, Default: 5},
					{Key: "roundDays", Label: "Round length (days)", Kind: FieldNumber, Default: 7},
					networkField,
				},
				Rules: []Rule{
					{Expr: `!has(config.members) || config.members >= 2`, Message: "a savings group needs at least 2 members"},
				},
			},
		},
		{
			Type:        "token-swap",
			Name:        "Token Swap",
			Description: "Constant-product swap pool between two tokens",
			Category:    CategoryContracts,
			Tags:        []string{"swap", "amm", "defi"},
			Icon:        "arrow-left-right",
			Schema: Schema{
				Fields: []Field{
					{Key: "tokenA", Label: "Token A", Kind: FieldAddress},
					{Key: "tokenB", Label: "Token B", Kind: FieldAddress},
					{Key: "feeBps", Label: "Fee (bps)", Kind: FieldNumber, Default: 30},
					networkField,
				},
				Rules: []Rule{
					{Expr: `!has(config.feeBps) || (config.feeBps >= 0 && config.feeBps <= 1000)`, Message: "fee must be between 0 and 1000 bps"},
					{Expr: `!(has(config.tokenA) && has(config.tokenB)) || config.tokenA != config.tokenB`, Message: "token A and token B must differ"},
				},
			},
		},
		{
			Type:        "yield-wrapper",
			Name:        "Yield Wrapper",
			Description: "ERC-4626 style vault wrapping an underlying asset",
			Category:    CategoryContracts,
			Tags:        []string{"vault", "yield", "erc4626"},
			Icon:        "trending-up",
			Schema: Schema{
				Fields: []Field{
					{Key: "underlying", Label: "Underlying asset", Kind: FieldAddress},
					{Key: "shareName", Label: "Share token name", Kind: FieldString, Default: "Wrapped Yield"},
					{Key: "shareSymbol", Label: "Share token symbol", Kind: FieldString, Default: "wYLD"},
					networkField,
				},
			},
		},
		{
			Type:        "x402-paywall",
			Name:        "x402 Paywall",
			Description: "HTTP 402 payment-required gate for API routes",
			Category:    CategoryPayments,
			Tags:        []string{"payments", "x402", "paywall"},
			Icon:        "lock",
			Schema: Schema{
				Fields: []Field{
					{Key: "price", Label: "Price per request (USDC)", Kind: FieldNumber, Required: true, Default: 0.01},
					{Key: "payTo", Label: "Recipient", Kind: FieldAddress},
					{Key: "routes", Label: "Protected routes", Kind: FieldText, Default: "/api/premium/*"},
				},
				Rules: []Rule{
					{Expr: `!has(config.price) || config.price > 0`, Message: "price must be positive"},
				},
			},
		},
		{
			Type:        "stripe-checkout",
			Name:        "Stripe Checkout",
			Description: "Hosted card checkout session",
			Category:    CategoryPayments,
			Tags:        []string{"payments", "stripe", "fiat"},
			Icon:        "credit-card",
			Schema: Schema{
				Fields: []Field{
					{Key: "currency", Label: "Currency", Kind: FieldSelect, Default: "usd", Options: []string{"usd", "eur", "gbp"}},
					{Key: "successPath", Label: "Success path", Kind: FieldString, Default: "/success"},
				},
			},
		},
		{
			Type:        "maxxit-agent",
			Name:        "Maxxit Trading Agent",
			Description: "Automated trading agent executing signals through Maxxit",
			Category:    CategoryAgents,
			Tags:        []string{"agent", "trading", "maxxit"},
			Icon:        "bot",
			Schema: Schema{
				Fields: []Field{
					{Key: "venue", Label: "Venue", Kind: FieldSelect, Default: "hyperliquid", Options: []string{"hyperliquid", "gmx", "spot"}},
					{Key: "riskLevel", Label: "Risk level", Kind: FieldSelect, Default: "medium", Options: []string{"low", "medium", "high"}},
					{Key: "maxPositionUsd", Label: "Max position (USD)", Kind: FieldNumber, Default: 100},
				},
				Rules: []Rule{
					{Expr: `!has(config.maxPositionUsd) || config.maxPositionUsd > 0`, Message: "max position must be positive"},
				},
			},
		},
		{
			Type:        "ai-assistant",
			Name:        "AI Assistant",
			Description: "Chat assistant embedded in the generated app",
			Category:    CategoryAgents,
			Tags:        []string{"agent", "chat", "llm"},
			Icon:        "sparkles",
			Schema: Schema{
				Fields: []Field{
					{Key: "model", Label: "Model", Kind: FieldString, Default: "gpt-4o-mini"},
					{Key: "systemPrompt", Label: "System prompt", Kind: FieldText},
				},
			},
		},
		{
			Type:        "wallet-auth",
			Name:        "Wallet Auth",
			Description: "Sign-in with an EVM wallet",
			Category:    CategoryApp,
			Tags:        []string{"auth", "wallet", "siwe"},
			Icon:        "wallet",
			Schema: Schema{
				Fields: []Field{
					{Key: "providers", Label: "Wallet providers", Kind: FieldText, Default: "injected,walletconnect"},
					{Key: "requireSignature", Label: "Require SIWE signature", Kind: FieldBoolean, Default: true},
				},
			},
		},
		{
			Type:        "frontend-scaffold",
			Name:        "Frontend",
			Description: "Next.js app shell wired to the blueprint's contracts",
			Category:    CategoryApp,
			Tags:        []string{"frontend", "nextjs", "ui"},
			Icon:        "layout",
			Schema: Schema{
				Fields: []Field{
					{Key: "framework", Label: "Framework", Kind: FieldSelect, Default: "nextjs", Options: []string{"nextjs", "vite-react"}},
					{Key: "styling", Label: "Styling", Kind: FieldSelect, Default: "tailwind", Options: []string{"tailwind", "css-modules"}},
				},
			},
		},
		{
			Type:        "rpc-provider",
			Name:        "RPC Provider",
			Description: "JSON-RPC endpoint configuration",
			Category:    CategoryApp,
			Tags:        []string{"rpc", "infra"},
			Icon:        "server",
			Schema: Schema{
				Fields: []Field{
					{Key: "url", Label: "RPC URL", Kind: FieldURL, Required: true, Default: "https://sepolia-rollup.arbitrum.io/rpc"},
				},
			},
		},
		{
			Type:        "ipfs-storage",
			Name:        "IPFS Storage",
			Description: "Pinning service for metadata and assets",
			Category:    CategoryApp,
			Tags:        []string{"storage", "ipfs"},
			Icon:        "database",
			Schema: Schema{
				Fields: []Field{
					{Key: "gateway", Label: "Gateway", Kind: FieldURL, Default: "https://ipfs.io/ipfs/"},
					{Key: "pinningService", Label: "Pinning service", Kind: FieldSelect, Default: "pinata", Options: []string{"pinata", "web3storage"}},
				},
			},
		},
	}
}
