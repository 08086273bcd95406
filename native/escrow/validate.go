package escrow

// Admission checks shared by the handlers. Each check fails fast before any
// state mutation; the handlers run them ahead of every side effect.

// RequireSigner confirms the authenticated signer is the claimed party.
func RequireSigner(signer, claimed [20]byte) error {
	if signer != claimed {
		return ErrInvalidMaker
	}
	return nil
}

// RequireAccountOwner confirms a funding account belongs to its expected
// owner. Balances are debited only from accounts the signer controls.
func RequireAccountOwner(account, owner [20]byte) error {
	if account != owner {
		return ErrInvalidTokenOwner
	}
	return nil
}

func (e *Engine) requireMints(offered, requested [20]byte) error {
	if offered == requested {
		return ErrInvalidTokenMint
	}
	if !e.state.TokenExists(offered) || !e.state.TokenExists(requested) {
		return ErrInvalidTokenMint
	}
	return nil
}

// validateMakeTerms checks the type-specific pricing parameters of a Make
// request before anything is persisted.
func validateMakeTerms(ix *MakeInstruction) error {
	if err := requireAmount(ix.AmountOffered); err != nil {
		return err
	}
	switch ix.EscrowType {
	case TypeSimple, TypePartial:
		return requireAmount(ix.AmountRequested)
	case TypeDutchAuction:
		// AmountRequested carries the start price.
		if ix.AmountRequested == nil || ix.EndPrice == nil {
			return ErrInvalidEscrowType
		}
		if ix.EndPrice.Sign() < 0 || ix.AmountRequested.Cmp(ix.EndPrice) <= 0 {
			return ErrInvalidEscrowType
		}
		if ix.AmountRequested.Cmp(maxAmount) > 0 {
			return ErrInvalidAmount
		}
		if ix.StartTime >= ix.EndTime {
			return ErrInvalidEscrowType
		}
		return nil
	default:
		return ErrInvalidEscrowType
	}
}
