package api

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/marketplace-core/internal/catalog"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/mqtt"
)

// Feed channels. Clients subscribe to FeedChannelAll or to one category's
// channel, e.g. "products.home-&-garden".
const (
	FeedChannelAll = "products"
)

// mqttEventQoS is the subscription QoS for product events.
const mqttEventQoS byte = 1

// FeedChannel returns the feed channel for a category.
func FeedChannel(category string) string {
	return FeedChannelAll + "." + mqtt.TopicSegment(category)
}

// ProductEvent is published to MQTT and pushed to feed clients whenever a
// vendor changes a product. Product is nil for deletions so a hidden
// listing never reaches the feed.
type ProductEvent struct {
	Action    string           `json:"action"`
	Category  string           `json:"category"`
	ProductID string           `json:"product_id"`
	Product   *catalog.Product `json:"product,omitempty"`
	At        time.Time        `json:"at"`
}

// newProductEvent builds the feed event for action on p. It reports false
// when the change must stay off the feed.
func newProductEvent(action string, p *catalog.Product) (ProductEvent, bool) {
	ev := ProductEvent{
		Action:    action,
		Category:  p.Category,
		ProductID: p.ID,
		At:        time.Now().UTC(),
	}
	switch {
	case action == mqtt.ActionDeleted:
	case p.Deleted:
		return ProductEvent{}, false
	default:
		ev.Product = p
	}
	return ev, true
}

// emitProductEvent counts the change and fans it out. With a live relay the
// event goes through the broker and comes back via subscribeProductEvents;
// otherwise it is broadcast to this server's clients directly.
func (s *Server) emitProductEvent(action string, p *catalog.Product) {
	s.influx.WriteProductEvent(p.Category, action)

	ev, ok := newProductEvent(action, p)
	if !ok {
		return
	}

	if s.relaying.Load() {
		topic := mqtt.Topics{}.ProductEvent(p.Category, action)
		err := s.mqtt.PublishJSON(topic, ev)
		if err == nil {
			return
		}
		s.logger.Warn("product event publish failed, broadcasting locally",
			"topic", topic,
			"error", err,
		)
	}

	s.broadcastProductEvent(ev)
}

// broadcastProductEvent pushes ev to clients subscribed to all products or
// to the event's category.
func (s *Server) broadcastProductEvent(ev ProductEvent) {
	s.hub.Broadcast("product."+ev.Action, ev, FeedChannelAll, FeedChannel(ev.Category))
}

// subscribeProductEvents relays product events from MQTT to the feed.
func (s *Server) subscribeProductEvents() error {
	if s.mqtt == nil {
		return nil
	}

	topic := mqtt.Topics{}.AllProductEvents()
	err := s.mqtt.Subscribe(topic, mqttEventQoS, func(t string, payload []byte) error {
		if _, _, ok := mqtt.ParseProductEvent(t); !ok {
			return nil
		}

		var ev ProductEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			s.logger.Warn("failed to parse product event", "topic", t, "error", err)
			return nil
		}
		switch {
		case ev.ProductID == "" || ev.Action == "":
			return nil
		case ev.Action == mqtt.ActionDeleted:
			ev.Product = nil
		case ev.Product == nil || ev.Product.Deleted:
			return nil
		}

		s.broadcastProductEvent(ev)
		return nil
	})
	if err != nil {
		return err
	}

	s.relaying.Store(true)
	s.logger.Info("relaying product events to feed", "topic", topic)
	return nil
}
