package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"isotop-deployer/internal/domain"
)

// SaleSetupMethod is the contract method invoked right after construction.
const SaleSetupMethod = "setupNonAuctionSaleInfo"

// Artifact is a compiled contract ready for deployment.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

// rawArtifact accepts Brownie, Hardhat and Foundry build output.
type rawArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     bytecodeField   `json:"bytecode"`
}

// bytecodeField is either "0x6080..." or {"object": "0x6080..."}.
type bytecodeField string

func (b *bytecodeField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = bytecodeField(s)
		return nil
	}

	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		*b = bytecodeField(obj.Object)
		return nil
	}

	return fmt.Errorf("bytecode must be a string or object with 'object' field")
}

// LoadArtifact reads and validates an artifact file.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrArtifactInvalid, path, err)
	}
	return ParseArtifact(data)
}

// ParseArtifact decodes artifact JSON and checks it exposes what a deployment needs.
func ParseArtifact(data []byte) (*Artifact, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrArtifactInvalid, err)
	}
	if len(raw.ABI) == 0 {
		return nil, fmt.Errorf("%w: missing abi", domain.ErrArtifactInvalid)
	}

	parsedABI, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("%w: parse abi: %v", domain.ErrArtifactInvalid, err)
	}
	if _, ok := parsedABI.Methods[SaleSetupMethod]; !ok {
		return nil, fmt.Errorf("%w: abi has no %s method", domain.ErrArtifactInvalid, SaleSetupMethod)
	}

	code := strings.TrimSpace(string(raw.Bytecode))
	if code == "" || code == "0x" {
		return nil, fmt.Errorf("%w: empty bytecode", domain.ErrArtifactInvalid)
	}
	if !strings.HasPrefix(code, "0x") {
		code = "0x" + code
	}
	bytecode, err := hexutil.Decode(code)
	if err != nil {
		return nil, fmt.Errorf("%w: decode bytecode: %v", domain.ErrArtifactInvalid, err)
	}

	return &Artifact{
		Name:     raw.ContractName,
		ABI:      parsedABI,
		Bytecode: bytecode,
	}, nil
}
