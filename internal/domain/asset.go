package domain

// Account identifies a party on the platform (seller, buyer, the
// marketplace itself, or an asset contract).
type Account string

// TokenID identifies a payment rail. NativeToken is the platform's
// built-in value currency; every other value refers to a fungible
// token contract.
type TokenID string

// NativeToken is the sentinel for native value payments. It is always
// a member of the supported payment token set and can never be
// removed from it.
const NativeToken TokenID = "native"

// IsNative reports whether the token is the native sentinel.
func (t TokenID) IsNative() bool {
	return t == NativeToken
}

// AssetKey identifies a unique asset: the contract that minted it plus
// its id within that contract.
type AssetKey struct {
	Contract Account `json:"contract"`
	AssetID  string  `json:"asset_id"`
}

func (k AssetKey) String() string {
	return string(k.Contract) + "/" + k.AssetID
}
