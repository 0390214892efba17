package rainbow

// The stake engine turns a token quantity into collateral-move intents.
// It never reads or writes balances; the handlers dispatch the intents
// through the Host in the order produced here (stakes primary-key order).

// stakeOne emits the stake intent for one row, or nothing when the row
// carries no collateral.
func stakeOne(st CurrencyStats, sk StakeStats, quantity int64) ([]TransferIntent, error) {
	if sk.StakePerBucket.Amount <= 0 {
		return nil, nil
	}
	escrow, ok := sk.StakeTo.Escrow()
	if !ok {
		return nil, nil
	}
	collateral, err := ScaleToBucket(quantity, sk.TokenBucket, sk.StakePerBucket)
	if err != nil {
		return nil, validationErr("%v", err)
	}
	if collateral.Amount == 0 {
		return nil, nil
	}
	return []TransferIntent{{
		Permission: PermissionLevel{Actor: st.Issuer, Permission: ActivePermission},
		Contract:   sk.StakeTokenContract,
		From:       st.Issuer,
		To:         escrow,
		Quantity:   collateral,
		Memo:       stakeMemo,
	}}, nil
}

// unstakeOne emits the release intent for one row; collateral flows from
// escrow back to the retiring owner under the escrow's own authority.
func unstakeOne(sk StakeStats, owner Name, quantity int64) ([]TransferIntent, error) {
	if sk.StakePerBucket.Amount <= 0 {
		return nil, nil
	}
	escrow, ok := sk.StakeTo.Escrow()
	if !ok {
		return nil, nil
	}
	collateral, err := ScaleToBucket(quantity, sk.TokenBucket, sk.StakePerBucket)
	if err != nil {
		return nil, validationErr("%v", err)
	}
	if collateral.Amount == 0 {
		return nil, nil
	}
	return []TransferIntent{{
		Permission: PermissionLevel{Actor: escrow, Permission: ActivePermission},
		Contract:   sk.StakeTokenContract,
		From:       escrow,
		To:         owner,
		Quantity:   collateral,
		Memo:       unstakeMemo,
	}}, nil
}

// stakeAll emits stake intents for every non-deferred row, in primary-key
// order.
func stakeAll(st CurrencyStats, rows []StakeStats, quantity int64) ([]TransferIntent, error) {
	var intents []TransferIntent
	for _, sk := range rows {
		if sk.Deferred {
			continue
		}
		more, err := stakeOne(st, sk, quantity)
		if err != nil {
			return nil, err
		}
		intents = append(intents, more...)
	}
	return intents, nil
}

// unstakeAll emits release intents for every row (deferred included: the
// escrow owes collateral however it was funded), in primary-key order.
func unstakeAll(rows []StakeStats, owner Name, quantity int64) ([]TransferIntent, error) {
	var intents []TransferIntent
	for _, sk := range rows {
		more, err := unstakeOne(sk, owner, quantity)
		if err != nil {
			return nil, err
		}
		intents = append(intents, more...)
	}
	return intents, nil
}
