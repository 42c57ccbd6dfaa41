package domain

import "strings"

// Cluster is a Solana network the site can be pointed at.
type Cluster string

const (
	ClusterMainnet Cluster = "mainnet-beta"
	ClusterDevnet  Cluster = "devnet"
	ClusterTestnet Cluster = "testnet"
)

// Clusters lists every supported cluster, mainnet first.
var Clusters = []Cluster{ClusterMainnet, ClusterDevnet, ClusterTestnet}

// ParseCluster accepts the names used by wallets and explorers
// ("mainnet" is an alias of "mainnet-beta").
func ParseCluster(s string) (Cluster, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mainnet", "mainnet-beta":
		return ClusterMainnet, true
	case "devnet":
		return ClusterDevnet, true
	case "testnet":
		return ClusterTestnet, true
	default:
		return "", false
	}
}

func (c Cluster) String() string { return string(c) }
