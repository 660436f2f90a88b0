// Package mqtt publishes marketplace product events to an MQTT broker and
// subscribes to them for the live feed.
//
// Every successful product create, update, delete or restore is published
// to marketplace/products/{category}/{action}. Other services (search
// indexers, notification workers) subscribe without touching the database,
// and the API relays the same stream to WebSocket clients.
//
// MQTT is optional: when no broker host is configured the service runs
// without it.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllProductEvents(), 1,
//	    func(topic string, payload []byte) error {
//	        hub.Broadcast(topic, payload)
//	        return nil
//	    })
package mqtt
