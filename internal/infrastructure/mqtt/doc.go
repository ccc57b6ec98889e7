// Package mqtt provides MQTT client connectivity for OrbitAI Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The spacecraft-side supervisor (or a ground simulator) publishes OBSW
// parameter samples on orbitai/parameter/{name}. The ingest feed subscribes
// to the wildcard pattern while a learning session is active and pushes each
// sample into the parameter store.
//
//	OBSW supervisor → MQTT Broker → OrbitAI Core
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllParameters(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
