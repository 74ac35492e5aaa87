// Package mqtt publishes workflow run events to an MQTT broker with the
// Eclipse Paho client. Each event is sent as JSON to
//
//	<prefix>/<workflow>/<event type>
//
// The broker URL comes from MQTT_URL and defaults to tcp://localhost:1883.
package mqtt
