package payflow

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// GatewayKind identifies how a payment callback reached us.
type GatewayKind string

const (
	GatewayEsewa  GatewayKind = "esewa"
	GatewayKhalti GatewayKind = "khalti"
	GatewayCOD    GatewayKind = "cod"
)

// Classify maps a callback route and its query parameters onto a gateway.
// It is total: every (path, query) pair lands on exactly one kind.
// Priority: an explicit gateway path segment wins, then a gateway-specific
// query parameter; anything else is cash on delivery, for which no
// third-party redirect ever happened.
func Classify(path string, query url.Values) GatewayKind {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "/khalti"):
		return GatewayKhalti
	case strings.Contains(p, "/esewa"):
		return GatewayEsewa
	case query.Get("pidx") != "":
		return GatewayKhalti
	case query.Get("data") != "":
		return GatewayEsewa
	default:
		return GatewayCOD
	}
}

// Callback is the parsed, validated parameter set of a gateway redirect.
type Callback struct {
	Gateway GatewayKind

	// eSewa: the opaque provider-signed payload, forwarded untouched, plus
	// the transaction uuid extracted from it for correlation.
	Data               string
	EsewaTransactionID string

	// Khalti: all four are required together.
	Pidx            string
	Amount          string
	PurchaseOrderID string
	TransactionID   string
}

// esewaPayload is the decoded shape of the eSewa `data` parameter. Only the
// transaction uuid matters to us; the rest stays inside Data.
type esewaPayload struct {
	TransactionUUID string `json:"transaction_uuid"`
	Status          string `json:"status"`
}

// ParseCallback validates the query parameters for a recognized gateway.
// A missing or undecodable parameter set is a malformed callback: the
// caller must fail the flow without issuing a verification call.
func ParseCallback(gateway GatewayKind, query url.Values) (*Callback, error) {
	switch gateway {
	case GatewayEsewa:
		data := strings.TrimSpace(query.Get("data"))
		if data == "" {
			return nil, fmt.Errorf("esewa callback: missing data parameter")
		}
		rawJSON, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("esewa callback: decode data: %w", err)
		}
		var p esewaPayload
		if err := json.Unmarshal(rawJSON, &p); err != nil {
			return nil, fmt.Errorf("esewa callback: invalid payload: %w", err)
		}
		p.TransactionUUID = strings.TrimSpace(p.TransactionUUID)
		if p.TransactionUUID == "" {
			return nil, fmt.Errorf("esewa callback: payload carries no transaction_uuid")
		}
		return &Callback{
			Gateway:            GatewayEsewa,
			Data:               data,
			EsewaTransactionID: p.TransactionUUID,
		}, nil

	case GatewayKhalti:
		cb := &Callback{
			Gateway:         GatewayKhalti,
			Pidx:            strings.TrimSpace(query.Get("pidx")),
			Amount:          strings.TrimSpace(query.Get("amount")),
			PurchaseOrderID: strings.TrimSpace(query.Get("purchase_order_id")),
			TransactionID:   strings.TrimSpace(query.Get("transaction_id")),
		}
		if cb.Pidx == "" || cb.Amount == "" || cb.PurchaseOrderID == "" || cb.TransactionID == "" {
			return nil, fmt.Errorf("khalti callback: pidx, amount, purchase_order_id and transaction_id are all required")
		}
		return cb, nil

	case GatewayCOD:
		return &Callback{Gateway: GatewayCOD}, nil

	default:
		return nil, fmt.Errorf("unknown gateway %q", gateway)
	}
}

// correlator is the identity a callback is deduplicated and looked up by.
func (cb *Callback) correlator() string {
	switch cb.Gateway {
	case GatewayEsewa:
		return "esewa:" + cb.EsewaTransactionID
	case GatewayKhalti:
		return "khalti:" + cb.Pidx
	default:
		return ""
	}
}
