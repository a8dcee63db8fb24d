package entity

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Role names the purpose an account serves in a deployment.
type Role string

// Constants for the deployment roles, in resolution order.
const (
	RoleAdmin    Role = "admin"
	RoleCreator  Role = "creator"
	RoleConsumer Role = "consumer"
	RoleOperator Role = "operator"
)

// Roles lists the roles in the order keys are assigned to them.
var Roles = []Role{RoleAdmin, RoleCreator, RoleConsumer, RoleOperator}

// Account is a role-bound identity able to sign transactions.
type Account struct {
	Role       Role
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

// AccountSet is the set of role accounts used for a single run.
type AccountSet struct {
	Admin    Account
	Creator  Account
	Consumer Account
	Operator Account
}

// All returns the accounts in role order.
func (s AccountSet) All() []Account {
	return []Account{s.Admin, s.Creator, s.Consumer, s.Operator}
}

// Validate checks that all four accounts are present and distinct.
func (s AccountSet) Validate() error {
	seen := make(map[common.Address]Role, 4)
	for _, acc := range s.All() {
		if acc.Address == (common.Address{}) {
			return fmt.Errorf("%s account is missing", acc.Role)
		}
		if prev, dup := seen[acc.Address]; dup {
			return fmt.Errorf("%s and %s share address %s", prev, acc.Role, acc.Address.Hex())
		}
		seen[acc.Address] = acc.Role
	}
	return nil
}
