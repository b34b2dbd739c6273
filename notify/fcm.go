package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/exceptionzofficial/testing-backend-akshaya/config"
	"github.com/exceptionzofficial/testing-backend-akshaya/metrics"

	"go.uber.org/zap"
)

// FCMClient talks to the Firebase Cloud Messaging HTTP endpoint.
type FCMClient struct {
	endpoint  string
	serverKey string
	client    *http.Client
	log       *zap.Logger
	now       func() time.Time
}

func NewFCMClient(cfg config.PushConfig, log *zap.Logger) *FCMClient {
	return &FCMClient{
		endpoint:  cfg.Endpoint,
		serverKey: cfg.ServerKey,
		client:    &http.Client{Timeout: cfg.Timeout},
		log:       log.Named("fcm"),
		now:       time.Now,
	}
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmRequest struct {
	To           string            `json:"to"`
	Priority     string            `json:"priority"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmResponse struct {
	MulticastID int64 `json:"multicast_id"`
	Success     int   `json:"success"`
	Failure     int   `json:"failure"`
	Results     []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

func (f *FCMClient) Send(ctx context.Context, msg Message) *Receipt {
	if msg.Token == "" {
		metrics.Notifications.WithLabelValues("skipped").Inc()
		return nil
	}

	receipt, err := f.send(ctx, msg)
	if err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		f.log.Warn("push notification failed",
			zap.String("title", msg.Title),
			zap.Error(err),
		)
		return nil
	}
	metrics.Notifications.WithLabelValues("sent").Inc()
	f.log.Debug("push notification sent", zap.String("message_id", receipt.MessageID))
	return receipt
}

func (f *FCMClient) send(ctx context.Context, msg Message) (*Receipt, error) {
	payload, err := json.Marshal(fcmRequest{
		To:           msg.Token,
		Priority:     "high",
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+f.serverKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Success == 0 || len(out.Results) == 0 {
		reason := "rejected"
		if len(out.Results) > 0 && out.Results[0].Error != "" {
			reason = out.Results[0].Error
		}
		return nil, fmt.Errorf("provider rejected message: %s", reason)
	}

	id := out.Results[0].MessageID
	if id == "" {
		id = strconv.FormatInt(out.MulticastID, 10)
	}
	return &Receipt{MessageID: id, SentAt: f.now()}, nil
}

// Noop drops every message. It is used when no push credentials are configured.
type Noop struct {
	log *zap.Logger
}

func NewNoop(log *zap.Logger) *Noop {
	return &Noop{log: log.Named("push-noop")}
}

func (n *Noop) Send(_ context.Context, msg Message) *Receipt {
	metrics.Notifications.WithLabelValues("skipped").Inc()
	n.log.Debug("push disabled, dropping notification", zap.String("title", msg.Title))
	return nil
}
