package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Gateways retry aggressively, so the same paid notification can land many
// times at once. The wallet must be credited exactly once no matter how the
// deliveries interleave. The in-memory repo serializes ApplyNotification
// under a mutex the way postgres serializes it under the row lock, so the
// prior-status check observes each delivery in order.
func TestIntegration_ConcurrentDuplicateWebhooks_CreditOnce(t *testing.T) {
	app := newTestApp(t)
	token := app.authToken(t, 7)
	app.createDeposit(t, token, 10.50)

	webhook := []byte(`{"event":"pix.cash-in.paid","data":{"id":"gw-tx-integration","status":"paid","amount":1050}}`)
	signature := sign(webhook)

	const deliveries = 25
	var (
		wg     sync.WaitGroup
		acked  atomic.Int64
		failed atomic.Int64
	)
	start := make(chan struct{})

	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			req, err := http.NewRequest(http.MethodPost, app.server.URL+"/webhooks/pix", bytes.NewReader(webhook))
			if err != nil {
				failed.Add(1)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Signature", signature)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				failed.Add(1)
				return
			}
			defer resp.Body.Close()

			var ack map[string]interface{}
			json.NewDecoder(resp.Body).Decode(&ack)
			if resp.StatusCode == http.StatusOK && ack["success"] == true {
				acked.Add(1)
			} else {
				failed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	t.Logf("deliveries=%d acked=%d failed=%d", deliveries, acked.Load(), failed.Load())
	assert.Equal(t, int64(deliveries), acked.Load(), "every duplicate delivery is acknowledged")
	assert.Equal(t, int64(0), failed.Load())

	wallet, err := app.wallets.GetByUserID(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, wallet)
	assert.Equal(t, int64(1050), wallet.BalanceCents, "the wallet is credited exactly once")

	tx, err := app.txs.GetByGatewayID(context.Background(), "gw-tx-integration")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, "approved", string(tx.Status))
}
