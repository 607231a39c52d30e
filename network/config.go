// Package network holds the static chain-network table and the connectivity
// probe. The mainnet/testnet mapping selects API base URLs and explorer link
// templates; it is a fixed table, not independently versioned.
package network

import "fmt"

type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// Config describes one chain network's external endpoints.
type Config struct {
	Name            Network
	CoreAPIURL      string
	BroadcastAPIURL string
	ExplorerURL     string
	ChainID         uint32
}

var configs = map[Network]Config{
	Mainnet: {
		Name:            Mainnet,
		CoreAPIURL:      "https://api.hiro.so",
		BroadcastAPIURL: "https://api.hiro.so",
		ExplorerURL:     "https://explorer.stacks.co",
		ChainID:         1,
	},
	Testnet: {
		Name:            Testnet,
		CoreAPIURL:      "https://api.testnet.hiro.so",
		BroadcastAPIURL: "https://api.testnet.hiro.so",
		ExplorerURL:     "https://explorer.stacks.co",
		ChainID:         0x80000000,
	},
}

// ConfigFor returns the endpoint table for the given network, defaulting to
// mainnet for unrecognized values.
func ConfigFor(n Network) Config {
	cfg, ok := configs[n]
	if !ok {
		return configs[Mainnet]
	}
	return cfg
}

// IsValid reports whether n names a known network.
func IsValid(n Network) bool {
	_, ok := configs[n]
	return ok
}

// ExplorerTxURL builds the block-explorer link for a chain transaction id.
func ExplorerTxURL(n Network, chainTxID string) string {
	cfg := ConfigFor(n)
	return fmt.Sprintf("%s/txid/%s?chain=%s", cfg.ExplorerURL, chainTxID, cfg.Name)
}

// Normalize maps a wallet-reported network value (name string, or a chain
// id) to a Network, defaulting to mainnet. Wallet providers disagree on the
// shape of this value, so matching is permissive.
func Normalize(v any) Network {
	switch val := v.(type) {
	case Network:
		if IsValid(val) {
			return val
		}
	case string:
		switch val {
		case "mainnet", "Mainnet", "MAINNET":
			return Mainnet
		case "testnet", "Testnet", "TESTNET":
			return Testnet
		}
	case uint32:
		return byChainID(val)
	case int:
		if val >= 0 {
			return byChainID(uint32(val))
		}
	case int64:
		if val >= 0 && val <= 0xFFFFFFFF {
			return byChainID(uint32(val))
		}
	}
	return Mainnet
}

func byChainID(id uint32) Network {
	for name, cfg := range configs {
		if cfg.ChainID == id {
			return name
		}
	}
	return Mainnet
}
