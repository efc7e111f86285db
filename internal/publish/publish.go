// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package publish

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ahmedammar/platform-hardware-imx/internal/gps"
)

const publishTimeout = 5 * time.Second

// MQTTClient is the part of the paho client the publisher uses.
type MQTTClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher sends fixes to <topic>/location and satellite status to
// <topic>/satellites.
type Publisher struct {
	client MQTTClient
	topic  string
	qos    byte
	log    zerolog.Logger
}

// NewClient returns a paho client for broker. The client ID gets a unique
// suffix so several daemons can share a broker.
func NewClient(broker, clientID string) MQTTClient {
	if clientID == "" {
		clientID = "gnss_hal"
	}
	clientID = clientID + "-" + uuid.NewString()
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	return mqtt.NewClient(opts)
}

func New(client MQTTClient, topic string, qos int, logger zerolog.Logger) *Publisher {
	return &Publisher{
		client: client,
		topic:  topic,
		qos:    byte(qos),
		log:    logger,
	}
}

func (p *Publisher) Connect() error {
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish/Publisher.Connect: %w", token.Error())
	}
	p.log.Info().Str("topic", p.topic).Msg("connected to MQTT broker")
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

type satellites struct {
	Satellites []gps.SvInfo `json:"satellites"`
	UsedInFix  []int        `json:"used_in_fix"`
}

// Location publishes a fix. It does not wait for delivery, so it is safe to
// call from session callbacks.
func (p *Publisher) Location(l gps.Location) {
	payload, err := json.Marshal(l)
	if err != nil {
		p.log.Error().Err(err).Msg("could not encode location")
		return
	}
	p.publish(p.topic+"/location", payload)
}

// Satellites publishes a satellite status.
func (p *Publisher) Satellites(s gps.SvStatus) {
	msg := satellites{Satellites: s.Satellites(), UsedInFix: []int{}}
	for _, sv := range msg.Satellites {
		if s.UsedInFix(sv.PRN) {
			msg.UsedInFix = append(msg.UsedInFix, sv.PRN)
		}
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		p.log.Error().Err(err).Msg("could not encode satellites")
		return
	}
	p.publish(p.topic+"/satellites", payload)
}

func (p *Publisher) publish(topic string, payload []byte) {
	token := p.client.Publish(topic, p.qos, false, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			p.log.Warn().Str("topic", topic).Msg("MQTT publish timed out")
			return
		}
		if err := token.Error(); err != nil {
			p.log.Error().Err(err).Str("topic", topic).Msg("MQTT publish failed")
		}
	}()
}
