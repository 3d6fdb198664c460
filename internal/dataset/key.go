package dataset

import (
	"fmt"
	"strings"
)

// Country is the country dimension of a snapshot.
type Country string

const (
	CountryGlobal Country = "global"
	CountryUS     Country = "us"
)

// Countries lists the supported country values in display order.
var Countries = []Country{CountryGlobal, CountryUS}

// ParseCountry normalises a user supplied country value.
func ParseCountry(value string) (Country, error) {
	switch Country(strings.ToLower(strings.TrimSpace(value))) {
	case CountryGlobal:
		return CountryGlobal, nil
	case CountryUS:
		return CountryUS, nil
	default:
		return "", fmt.Errorf("unsupported country %q", value)
	}
}

// TxnType selects the transaction family of the error code and failure reason tables.
type TxnType string

const (
	TxnNone    TxnType = ""
	TxnEC      TxnType = "ec"
	TxnInvoice TxnType = "invoice"
)

// ParseTxnType normalises a transaction type. The empty string is valid.
func ParseTxnType(value string) (TxnType, error) {
	switch TxnType(strings.ToLower(strings.TrimSpace(value))) {
	case TxnNone:
		return TxnNone, nil
	case TxnEC:
		return TxnEC, nil
	case TxnInvoice:
		return TxnInvoice, nil
	default:
		return "", fmt.Errorf("unsupported transaction type %q", value)
	}
}

// Label is the short display name used in failure reason headings.
func (t TxnType) Label() string {
	switch t {
	case TxnEC:
		return "EC"
	case TxnInvoice:
		return "Invoice"
	default:
		return ""
	}
}

// Key is the composite dimension used to select a slice of any lookup table.
type Key struct {
	Month   string  `json:"month"`
	Country Country `json:"country"`
	TxnType TxnType `json:"txn_type,omitempty"`
}

// WithTxn returns a copy of k carrying the given transaction type.
func (k Key) WithTxn(t TxnType) Key {
	k.TxnType = t
	return k
}

func (k Key) String() string {
	if k.TxnType == TxnNone {
		return k.Month + "/" + string(k.Country)
	}
	return k.Month + "/" + string(k.Country) + "/" + string(k.TxnType)
}
