package networks

import dto "isotop-deployer/internal/adapter/storage/networks/dto"

// defaultFile is used when no networks file exists on disk.
var defaultFile = dto.FileRaw{
	LocalNetworks: []string{"development", "ganache-local", "hardhat", "anvil", "mainnet-fork"},
	TestNetworks:  []string{"rinkeby", "goerli", "sepolia", "mumbai", "fuji"},
	Networks: []dto.NetworkRaw{
		{Name: "development", RPCURL: "http://127.0.0.1:8545"},
		{Name: "ganache-local", ChainID: 1337, RPCURL: "http://127.0.0.1:7545"},
		{Name: "hardhat", ChainID: 31337, RPCURL: "http://127.0.0.1:8545"},
		{Name: "anvil", ChainID: 31337, RPCURL: "http://127.0.0.1:8545"},
		{Name: "sepolia", ChainID: 11155111, RPCURL: "https://rpc.sepolia.org"},
	},
}
