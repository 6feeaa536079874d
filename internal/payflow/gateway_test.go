package payflow

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func esewaData(t *testing.T, payload string) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		query url.Values
		want  GatewayKind
	}{
		{"khalti path", "/payment/callback/khalti/success", url.Values{}, GatewayKhalti},
		{"esewa path", "/payment/callback/esewa/success", url.Values{}, GatewayEsewa},
		{"khalti failure path", "/payment/callback/khalti/failure", url.Values{}, GatewayKhalti},
		{"generic path with pidx", "/payment/success", url.Values{"pidx": {"abc"}}, GatewayKhalti},
		{"generic path with data", "/payment/success", url.Values{"data": {"xyz"}}, GatewayEsewa},
		{"generic path bare", "/payment/success", url.Values{}, GatewayCOD},
		{"path wins over query", "/payment/callback/esewa/success", url.Values{"pidx": {"abc"}}, GatewayEsewa},
		{"case insensitive path", "/payment/callback/KHALTI/success", url.Values{}, GatewayKhalti},
		{"unrelated params", "/payment/success", url.Values{"foo": {"bar"}}, GatewayCOD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path, tt.query))
		})
	}
}

func TestParseCallbackEsewa(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		data := esewaData(t, `{"transaction_uuid":"txn-123","status":"COMPLETE"}`)
		cb, err := ParseCallback(GatewayEsewa, url.Values{"data": {data}})
		require.NoError(t, err)
		assert.Equal(t, GatewayEsewa, cb.Gateway)
		assert.Equal(t, "txn-123", cb.EsewaTransactionID)
		assert.Equal(t, data, cb.Data)
		assert.Equal(t, "esewa:txn-123", cb.correlator())
	})

	t.Run("missing data", func(t *testing.T) {
		_, err := ParseCallback(GatewayEsewa, url.Values{})
		assert.Error(t, err)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := ParseCallback(GatewayEsewa, url.Values{"data": {"%%%not-base64%%%"}})
		assert.Error(t, err)
	})

	t.Run("base64 but not json", func(t *testing.T) {
		data := esewaData(t, "just some text")
		_, err := ParseCallback(GatewayEsewa, url.Values{"data": {data}})
		assert.Error(t, err)
	})

	t.Run("payload without transaction uuid", func(t *testing.T) {
		data := esewaData(t, `{"status":"COMPLETE"}`)
		_, err := ParseCallback(GatewayEsewa, url.Values{"data": {data}})
		assert.Error(t, err)
	})

	t.Run("whitespace transaction uuid", func(t *testing.T) {
		data := esewaData(t, `{"transaction_uuid":"   "}`)
		_, err := ParseCallback(GatewayEsewa, url.Values{"data": {data}})
		assert.Error(t, err)
	})
}

func TestParseCallbackKhalti(t *testing.T) {
	full := url.Values{
		"pidx":              {"pidx-1"},
		"amount":            {"100000"},
		"purchase_order_id": {"42"},
		"transaction_id":    {"tx-9"},
	}

	t.Run("all params present", func(t *testing.T) {
		cb, err := ParseCallback(GatewayKhalti, full)
		require.NoError(t, err)
		assert.Equal(t, "pidx-1", cb.Pidx)
		assert.Equal(t, "100000", cb.Amount)
		assert.Equal(t, "42", cb.PurchaseOrderID)
		assert.Equal(t, "tx-9", cb.TransactionID)
		assert.Equal(t, "khalti:pidx-1", cb.correlator())
	})

	for _, missing := range []string{"pidx", "amount", "purchase_order_id", "transaction_id"} {
		t.Run("missing "+missing, func(t *testing.T) {
			q := url.Values{}
			for k, v := range full {
				if k != missing {
					q[k] = v
				}
			}
			_, err := ParseCallback(GatewayKhalti, q)
			assert.Error(t, err)
		})
	}
}

func TestParseCallbackCOD(t *testing.T) {
	cb, err := ParseCallback(GatewayCOD, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, GatewayCOD, cb.Gateway)
}
