package networks

import (
	"fmt"
	"strings"

	dto "isotop-deployer/internal/adapter/storage/networks/dto"
	"isotop-deployer/internal/domain/entity"
	"isotop-deployer/internal/pkg/apperrors"
)

// toDomainTables converts the raw membership lists into domain network tables.
func toDomainTables(raw dto.FileRaw, definitions map[entity.NetworkIdentity]entity.NetworkDefinition) entity.NetworkTables {
	defined := make(entity.NetworkSet, len(definitions))
	for id := range definitions {
		defined[id] = struct{}{}
	}
	return entity.NetworkTables{
		Local:   entity.NewNetworkSet(trimNames(raw.LocalNetworks)...),
		Test:    entity.NewNetworkSet(trimNames(raw.TestNetworks)...),
		Defined: defined,
	}
}

// toDomainDefinitions converts raw network entries, rejecting duplicates and bad URLs.
func toDomainDefinitions(rawNetworks []dto.NetworkRaw) (map[entity.NetworkIdentity]entity.NetworkDefinition, error) {
	definitions := make(map[entity.NetworkIdentity]entity.NetworkDefinition, len(rawNetworks))
	for i, raw := range rawNetworks {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: network entry %d has no name", apperrors.ErrInvalidInput, i)
		}
		id := entity.NetworkIdentity(name)
		if _, dup := definitions[id]; dup {
			return nil, fmt.Errorf("%w: network %q defined more than once", apperrors.ErrInvalidInput, name)
		}

		rpcURL, err := entity.NewRPCURL(raw.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("%w: network %q: %v", apperrors.ErrInvalidInput, name, err)
		}

		var keys []string
		if len(raw.Accounts) > 0 {
			keys = make([]string, len(raw.Accounts))
			copy(keys, raw.Accounts)
		}

		definitions[id] = entity.NetworkDefinition{
			Name:        id,
			ChainID:     raw.ChainID,
			RPCURL:      rpcURL,
			AccountKeys: keys,
		}
	}
	return definitions, nil
}

func trimNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
