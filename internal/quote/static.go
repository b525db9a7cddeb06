package quote

import "github.com/coinswift/ledger-engine/internal/model"

// fallbackCoins is the static snapshot served when the API is unavailable.
// Prices are in INR.
var fallbackCoins = []model.Coin{
	{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", Image: "https://assets.coingecko.com/coins/images/1/large/bitcoin.png", CurrentPrice: 5_600_000, MarketCap: 110_000_000_000_000, MarketCapRank: 1, PriceChangePercentage24h: 2.5, High24h: 5_700_000, Low24h: 5_500_000},
	{ID: "ethereum", Symbol: "eth", Name: "Ethereum", Image: "https://assets.coingecko.com/coins/images/279/large/ethereum.png", CurrentPrice: 320_000, MarketCap: 38_000_000_000_000, MarketCapRank: 2, PriceChangePercentage24h: -1.2, High24h: 325_000, Low24h: 315_000},
	{ID: "tether", Symbol: "usdt", Name: "Tether", Image: "https://assets.coingecko.com/coins/images/325/large/Tether.png", CurrentPrice: 83.5, MarketCap: 9_000_000_000_000, MarketCapRank: 3, PriceChangePercentage24h: 0.1, High24h: 83.6, Low24h: 83.4},
	{ID: "binancecoin", Symbol: "bnb", Name: "BNB", Image: "https://assets.coingecko.com/coins/images/825/large/bnb-icon2_2x.png", CurrentPrice: 48_000, MarketCap: 7_500_000_000_000, MarketCapRank: 4, PriceChangePercentage24h: 1.1, High24h: 48_500, Low24h: 47_800},
	{ID: "solana", Symbol: "sol", Name: "Solana", Image: "https://assets.coingecko.com/coins/images/4128/large/solana.png", CurrentPrice: 12_500, MarketCap: 5_600_000_000_000, MarketCapRank: 5, PriceChangePercentage24h: 8.1, High24h: 12_800, Low24h: 11_500},
	{ID: "ripple", Symbol: "xrp", Name: "XRP", Image: "https://assets.coingecko.com/coins/images/44/large/xrp-symbol-white-128.png", CurrentPrice: 52, MarketCap: 2_800_000_000_000, MarketCapRank: 6, PriceChangePercentage24h: 5.4, High24h: 54, Low24h: 50},
	{ID: "dogecoin", Symbol: "doge", Name: "Dogecoin", Image: "https://assets.coingecko.com/coins/images/5/large/dogecoin.png", CurrentPrice: 14, MarketCap: 2_000_000_000_000, MarketCapRank: 9, PriceChangePercentage24h: -0.5, High24h: 14.5, Low24h: 13.8},
	{ID: "cardano", Symbol: "ada", Name: "Cardano", Image: "https://assets.coingecko.com/coins/images/975/large/cardano.png", CurrentPrice: 45, MarketCap: 1_600_000_000_000, MarketCapRank: 10, PriceChangePercentage24h: -2.3, High24h: 46.5, Low24h: 44.8},
}

// FallbackCoins returns a copy of the static snapshot.
func FallbackCoins() []model.Coin {
	out := make([]model.Coin, len(fallbackCoins))
	copy(out, fallbackCoins)
	return out
}
