package mirror

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Client is one Modbus TCP connection to the device whose holding registers
// are mirrored.
type Client struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
}

func Dial(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("mirror: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

func (c *Client) ReadRegisters(addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	if len(raw) != int(qty)*2 {
		return nil, errors.New("mirror: short read-registers payload")
	}
	return unpackRegisters(raw), nil
}

func (c *Client) WriteRegisters(addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs))
	return err
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
