package erpsync

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gaorsystempe-cpu/operacionesFeet/config"
	"github.com/gaorsystempe-cpu/operacionesFeet/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PubSubPushHandler runs a scheduled sync from a Pub/Sub push delivery. The
// message data is an optional SyncRequest; empty data syncs the current
// month. Malformed deliveries are acked so they are not retried forever; a
// failed sync answers 500 so Pub/Sub retries it.
func (h *Handlers) PubSubPushHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.EnvBoolDefault("ENABLE_RECONCILE_PUBSUB_PUSH_ENDPOINT", true) {
			c.Status(http.StatusNoContent)
			return
		}
		logger := h.logger()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "pubsub.go", "PubSubPushHandler", "io.ReadAll", nil, err)
			c.Status(http.StatusNoContent)
			return
		}

		// byte slice unmarshalling handles base64 decoding.
		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			config.LogError(logger, "pubsub.go", "PubSubPushHandler", "Unmarshal envelope", string(body), err)
			c.Status(http.StatusNoContent)
			return
		}

		var req SyncRequest
		if len(envelope.Message.Data) > 0 {
			if err := json.Unmarshal(envelope.Message.Data, &req); err != nil {
				config.LogError(logger, "pubsub.go", "PubSubPushHandler", "Unmarshal payload", string(envelope.Message.Data), err)
				c.Status(http.StatusNoContent)
				return
			}
		}
		if err := utils.ValidateStruct(req); err != nil {
			config.LogError(logger, "pubsub.go", "PubSubPushHandler", "Invalid payload", req, err)
			c.Status(http.StatusNoContent)
			return
		}
		period, err := h.resolvePeriod(req)
		if err != nil {
			config.LogError(logger, "pubsub.go", "PubSubPushHandler", "resolvePeriod", req, err)
			c.Status(http.StatusNoContent)
			return
		}

		// Correlation ID propagation: the Pub/Sub message ID identifies the run.
		ctx := utils.SetTriggerInContext(c.Request.Context(), "pubsub")
		if envelope.Message.ID != "" {
			ctx = utils.SetCorrelationIdInContext(ctx, envelope.Message.ID)
		}
		if err := h.runSync(ctx, period); err != nil {
			logger.WithFields(logrus.Fields{
				"field":        "PubSubPushHandler",
				"message_id":   envelope.Message.ID,
				"subscription": envelope.Subscription,
				"start":        period.Start,
				"end":          period.End,
			}).Error("scheduled reconcile failed: " + err.Error())
			// Non-2xx tells Pub/Sub to retry (and potentially route to DLQ).
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
