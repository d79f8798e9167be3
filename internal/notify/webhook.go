package notify

import (
	"fmt"
	"time"

	"github.com/barberdesk/barberdesk/pkg/common"
	"github.com/barberdesk/barberdesk/pkg/metrics"
	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// webhookEnvelope is the outbound POST body. The signature is the sha256 of
// the payload JSON plus the instance salt, so receivers can verify origin.
type webhookEnvelope struct {
	Event     string      `json:"event"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
	Signature string      `json:"signature"`
}

func (n *Notifier) webhookEnabled() bool {
	return n.settings.GetSettingsBoolValue("webhook", "enabled") &&
		n.settings.GetSettingsStringValue("webhook", "url") != ""
}

// pushWebhook posts an event envelope to the configured endpoint. Failures
// are logged and dropped, there is no redelivery queue.
func (n *Notifier) pushWebhook(event string, payload interface{}) {
	if !n.webhookEnabled() {
		return
	}
	url := n.settings.GetSettingsStringValue("webhook", "url")

	body, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("webhook payload marshal failed", zap.String("event", event), zap.Error(err))
		return
	}

	envelope := webhookEnvelope{
		Event:     event,
		Timestamp: time.Now().Unix(),
		Payload:   payload,
		Signature: common.Sha256HashWithSalt(string(body), common.GetSecretSalt()),
	}

	var code int
	err = gout.POST(url).
		SetJSON(envelope).
		SetTimeout(10 * time.Second).
		Code(&code).
		Do()
	if err != nil {
		zap.L().Error("webhook push failed",
			zap.String("namespace", "notify"),
			zap.String("event", event),
			zap.String("url", url),
			zap.Error(err),
		)
		return
	}
	if code >= 300 {
		zap.L().Warn("webhook endpoint returned non-2xx",
			zap.String("namespace", "notify"),
			zap.String("event", event),
			zap.String("status", fmt.Sprintf("%d", code)),
		)
		return
	}

	metrics.IncrCounter(metrics.WebhookSent, 1)
	zap.L().Debug("webhook pushed", zap.String("event", event), zap.String("url", url))
}
