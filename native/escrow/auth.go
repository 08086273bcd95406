package escrow

import (
	"crypto/ecdsa"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// RecoverSigner authenticates an instruction envelope: it recovers the
// secp256k1 public key from the 65-byte signature over the keccak256 digest
// of the payload and returns the signer's 20-byte address. The handlers only
// ever see identities produced here or by the embedding host.
func RecoverSigner(payload, sig []byte) ([20]byte, error) {
	var signer [20]byte
	if len(sig) != 65 {
		return signer, ErrInvalidInstruction
	}
	digest := ethcrypto.Keccak256(payload)
	pub, err := ethcrypto.SigToPub(digest, sig)
	if err != nil {
		return signer, ErrInvalidInstruction
	}
	addr := ethcrypto.PubkeyToAddress(*pub)
	copy(signer[:], addr[:])
	return signer, nil
}

// SignPayload produces the envelope signature RecoverSigner verifies.
func SignPayload(payload []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	digest := ethcrypto.Keccak256(payload)
	return ethcrypto.Sign(digest, key)
}

// SignerAddress returns the 20-byte address for a private key.
func SignerAddress(key *ecdsa.PrivateKey) [20]byte {
	var out [20]byte
	addr := ethcrypto.PubkeyToAddress(key.PublicKey)
	copy(out[:], addr[:])
	return out
}
