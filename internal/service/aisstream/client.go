package aisstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"VesselPulse/internal/domain/models"
	drepo "VesselPulse/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a TelemetryStream backed by the aisstream.io WebSocket.
type Client struct {
	apiKey         string
	websocketURL   string
	boundingBox    []float64 // latMin, lonMin, latMax, lonMax; empty means worldwide
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new AIS TelemetryStream.
func New(apiKey, websocketURL string, boundingBox []float64, reconnectDelay, pingInterval time.Duration) drepo.TelemetryStream {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		boundingBox:    boundingBox,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("aisstream connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("aisstream: connected")
	return nil
}

type subscription struct {
	APIKey             string        `json:"APIKey"`
	BoundingBoxes      [][][]float64 `json:"BoundingBoxes"`
	FilterMessageTypes []string      `json:"FilterMessageTypes"`
}

// Subscribe sends the subscription frame carrying the API key and area filter.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("aisstream not connected")
	}
	box := [][]float64{{-90, -180}, {90, 180}}
	if len(c.boundingBox) == 4 {
		box = [][]float64{
			{c.boundingBox[0], c.boundingBox[1]},
			{c.boundingBox[2], c.boundingBox[3]},
		}
	}
	sub := subscription{
		APIKey:             c.apiKey,
		BoundingBoxes:      [][][]float64{box},
		FilterMessageTypes: []string{"PositionReport"},
	}
	if err := c.conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("aisstream subscribe: %w", err)
	}
	log.Printf("aisstream: subscribed box=%v", box)
	return nil
}

type aisPositionReport struct {
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
	Sog       float64 `json:"Sog"`
	Cog       float64 `json:"Cog"`
}

type aisMessage struct {
	MessageType string `json:"MessageType"`
	MetaData    struct {
		MMSI    int64  `json:"MMSI"`
		TimeUTC string `json:"time_utc"`
	} `json:"MetaData"`
	Message struct {
		PositionReport aisPositionReport `json:"PositionReport"`
	} `json:"Message"`
}

// Read streams raw position records and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.RawRecord, <-chan error) {
	records := make(chan *models.RawRecord, 1024)
	errs := make(chan error, 1)
	done := make(chan struct{})
	conn := c.conn

	// ping loop, bound to this connection so a later Read does not leave
	// two writers on one socket
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(records)
		defer close(errs)
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if conn == nil {
					errs <- fmt.Errorf("aisstream conn nil")
					return
				}
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("aisstream read: %w", err)
					return
				}
				var m aisMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-JSON frames
					continue
				}
				if m.MessageType != "PositionReport" {
					continue
				}
				pr := m.Message.PositionReport
				rec := &models.RawRecord{
					VesselID:  strconv.FormatInt(m.MetaData.MMSI, 10),
					Latitude:  &pr.Latitude,
					Longitude: &pr.Longitude,
					Speed:     &pr.Sog,
					Course:    &pr.Cog,
					Timestamp: m.MetaData.TimeUTC,
					Source:    "aisstream",
				}
				select {
				case records <- rec:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return records, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
