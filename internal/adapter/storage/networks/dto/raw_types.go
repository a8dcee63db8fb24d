package networks_dto

// FileRaw is the layout of the networks YAML file.
type FileRaw struct {
	LocalNetworks []string     `yaml:"local_networks"`
	TestNetworks  []string     `yaml:"test_networks"`
	Networks      []NetworkRaw `yaml:"networks"`
}

// NetworkRaw is one endpoint definition as written in the file.
type NetworkRaw struct {
	Name     string   `yaml:"name"`
	ChainID  uint64   `yaml:"chain_id"`
	RPCURL   string   `yaml:"rpc_url"`
	Accounts []string `yaml:"accounts,omitempty"`
}
