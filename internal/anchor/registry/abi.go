package registry

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed abi/did_registry.json
var didRegistryABIJSON []byte

//go:embed abi/credential_registry.json
var credentialRegistryABIJSON []byte

var (
	parseOnce     sync.Once
	didABI        abi.ABI
	credentialABI abi.ABI
	errParseABI   error
)

// loadABIs parses the embedded contract ABIs exactly once.
func loadABIs() (abi.ABI, abi.ABI, error) {
	parseOnce.Do(func() {
		didABI, errParseABI = abi.JSON(bytes.NewReader(didRegistryABIJSON))
		if errParseABI != nil {
			errParseABI = fmt.Errorf("parse DIDRegistry ABI: %w", errParseABI)
			return
		}
		credentialABI, errParseABI = abi.JSON(bytes.NewReader(credentialRegistryABIJSON))
		if errParseABI != nil {
			errParseABI = fmt.Errorf("parse CredentialRegistry ABI: %w", errParseABI)
		}
	})
	return didABI, credentialABI, errParseABI
}
