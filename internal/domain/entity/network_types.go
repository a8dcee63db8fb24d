package entity

import "sort"

// NetworkIdentity is the label of the chain environment a run is connected to.
type NetworkIdentity string

// String returns the network name.
func (n NetworkIdentity) String() string {
	return string(n)
}

// NetworkClass defines the category a network identity is statically assigned to.
type NetworkClass string

// Constants for known network classes.
const (
	NetworkClassLocal      NetworkClass = "local"
	NetworkClassTest       NetworkClass = "test"
	NetworkClassProduction NetworkClass = "production"
	NetworkClassUnknown    NetworkClass = "unknown"
)

// NetworkSet is a static membership table of network identities.
type NetworkSet map[NetworkIdentity]struct{}

// NewNetworkSet builds a set from the given names.
func NewNetworkSet(names ...string) NetworkSet {
	s := make(NetworkSet, len(names))
	for _, name := range names {
		s[NetworkIdentity(name)] = struct{}{}
	}
	return s
}

// Contains reports whether the identity is a member of the set.
func (s NetworkSet) Contains(id NetworkIdentity) bool {
	_, ok := s[id]
	return ok
}

// Names returns the members in sorted order.
func (s NetworkSet) Names() []string {
	names := make([]string, 0, len(s))
	for id := range s {
		names = append(names, string(id))
	}
	sort.Strings(names)
	return names
}

// NetworkTables holds the LOCAL_NETWORKS and TEST_NETWORKS sets plus every network
// that has an endpoint definition. Local and Test are not required to be disjoint.
type NetworkTables struct {
	Local   NetworkSet
	Test    NetworkSet
	Defined NetworkSet
}

// IsLocal reports membership in LOCAL_NETWORKS.
func (t NetworkTables) IsLocal(id NetworkIdentity) bool {
	return t.Local.Contains(id)
}

// IsTest reports membership in TEST_NETWORKS.
func (t NetworkTables) IsTest(id NetworkIdentity) bool {
	return t.Test.Contains(id)
}

// Classify returns every class the identity belongs to. Local comes before Test.
// Identities in neither set are production when defined and unknown otherwise.
func (t NetworkTables) Classify(id NetworkIdentity) []NetworkClass {
	var classes []NetworkClass
	if t.IsLocal(id) {
		classes = append(classes, NetworkClassLocal)
	}
	if t.IsTest(id) {
		classes = append(classes, NetworkClassTest)
	}
	if len(classes) > 0 {
		return classes
	}
	if t.Defined.Contains(id) {
		return []NetworkClass{NetworkClassProduction}
	}
	return []NetworkClass{NetworkClassUnknown}
}

// Overlap returns the identities present in both Local and Test.
func (t NetworkTables) Overlap() []NetworkIdentity {
	var both []NetworkIdentity
	for _, name := range t.Local.Names() {
		id := NetworkIdentity(name)
		if t.Test.Contains(id) {
			both = append(both, id)
		}
	}
	return both
}

// NetworkDefinition holds the endpoint settings for one named network.
type NetworkDefinition struct {
	Name    NetworkIdentity
	ChainID uint64 // zero disables the chain ID check
	RPCURL  RPCURL
	// AccountKeys are hex-encoded private keys, in role order.
	AccountKeys []string
}
