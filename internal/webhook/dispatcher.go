package webhook

import (
	"context"
	"fmt"
	"log/slog"
)

// Dispatcher fans document events out to every matching enabled
// endpoint and records each attempt in the delivery history.
type Dispatcher struct {
	endpoints []Endpoint
	client    *Client
	history   *History
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. History may be nil to skip
// recording.
func NewDispatcher(endpoints []Endpoint, client *Client, history *History, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		endpoints: endpoints,
		client:    client,
		history:   history,
		logger:    logger,
	}
}

// Dispatch delivers an event for a document to every enabled endpoint
// whose folder filter matches. Individual delivery failures are logged
// and recorded but do not stop the fan-out. Returns the number of
// successful and failed deliveries.
func (d *Dispatcher) Dispatch(ctx context.Context, event string, doc DocumentPayload) (sent, failed int) {
	for _, ep := range d.endpoints {
		if !ep.Enabled || !ep.MatchesFolders(doc.Folders) {
			continue
		}

		payload := NewPayload(event, doc, ep.Folders)

		err := d.client.Deliver(ctx, ep, payload)
		if err != nil {
			failed++

			d.logger.Warn("webhook delivery failed",
				slog.String("endpoint", ep.Name),
				slog.String("event", event),
				slog.String("document_id", doc.ID),
				slog.String("error", err.Error()))
		} else {
			sent++

			d.logger.Info("webhook delivered",
				slog.String("endpoint", ep.Name),
				slog.String("event", event),
				slog.String("document_id", doc.ID))
		}

		d.record(ep, payload, err)
	}

	return sent, failed
}

// Replay re-delivers a recorded payload to its original endpoint and
// records the new attempt.
func (d *Dispatcher) Replay(ctx context.Context, deliveryID string) error {
	if d.history == nil {
		return fmt.Errorf("no delivery history configured")
	}

	delivery, err := d.history.Get(deliveryID)
	if err != nil {
		return err
	}

	if delivery == nil {
		return fmt.Errorf("delivery %s not found", deliveryID)
	}

	ep, ok := d.endpoint(delivery.Endpoint)
	if !ok {
		return fmt.Errorf("endpoint %s no longer configured", delivery.Endpoint)
	}

	err = d.client.Deliver(ctx, ep, delivery.Payload)
	d.record(ep, delivery.Payload, err)

	return err
}

func (d *Dispatcher) endpoint(name string) (Endpoint, bool) {
	for _, ep := range d.endpoints {
		if ep.Name == name {
			return ep, true
		}
	}

	return Endpoint{}, false
}

func (d *Dispatcher) record(ep Endpoint, payload Payload, deliverErr error) {
	if d.history == nil {
		return
	}

	delivery := Delivery{
		Endpoint:   ep.Name,
		Event:      payload.Event,
		DocumentID: payload.Document.ID,
		Title:      payload.Document.Title,
		Timestamp:  payload.Timestamp,
		Success:    deliverErr == nil,
		Payload:    payload,
	}
	if deliverErr != nil {
		delivery.Error = deliverErr.Error()
	}

	if _, err := d.history.Add(delivery); err != nil {
		d.logger.Warn("recording webhook delivery failed",
			slog.String("endpoint", ep.Name),
			slog.String("error", err.Error()))
	}
}
