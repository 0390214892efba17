package rainbow

import "github.com/chuck-h/rainbow-go/internal/lib/misc"

// SetDisplay replaces the branding row for a token. Only the issuer may
// write it; field lengths are bounded so the row stays cheap to store.
func (t *Token) SetDisplay(issuer Name, code SymbolCode, d CurrencyDisplay) error {
	return t.exec("setdisplay", func(tx Tx) ([]TransferIntent, error) {
		if !code.IsValid() {
			return nil, validationErr("invalid symbol code")
		}
		if len(d.Name) > MaxDisplayNameLen {
			return nil, validationErr("display name has more than %d bytes", MaxDisplayNameLen)
		}
		for _, f := range []struct {
			what, val string
		}{
			{"logo url", d.Logo},
			{"large logo url", d.LogoLarge},
			{"web link", d.WebLink},
			{"background image url", d.Background},
		} {
			if len(f.val) > MaxDisplayURLLen {
				return nil, validationErr("%s has more than %d bytes", f.what, MaxDisplayURLLen)
			}
		}
		if len(d.JSONMeta) > MaxJSONMetaLen {
			return nil, validationErr("json metadata has more than %d bytes", MaxJSONMetaLen)
		}
		st, ok, err := tx.Stats(code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTokenMissing
		}
		if st.Issuer != issuer {
			return nil, preconditionErr("mismatched issuer account")
		}
		if err := t.requireAuths(SetStakeAuthority(issuer)); err != nil {
			return nil, err
		}
		if err := tx.PutDisplay(code, d); err != nil {
			return nil, err
		}
		misc.Infof(t.logger, "updated display for %s", code)
		return nil, nil
	})
}
