package engine

import (
	"riskgate/internal/callback"
	"riskgate/internal/message"
	"riskgate/internal/schema"
)

// Inbound is one decoded message together with the transport that should
// receive any response.
type Inbound struct {
	Transport Transport
	Msg       *message.Message
}

// Dispatcher routes messages to the engine by kind tag. Each connection
// (and the replay loader) owns one; closing it detaches the registrations.
type Dispatcher struct {
	m       *callback.Manager[string, Inbound]
	handles []*callback.Handle[Inbound]
}

// NewDispatcher builds a dispatcher wired to the engine for the known
// message kinds.
func (e *Engine) NewDispatcher() *Dispatcher {
	d := &Dispatcher{m: callback.NewManager[string, Inbound]()}
	for _, kind := range []string{schema.KindQuote, schema.KindTrade, schema.KindOrder} {
		h := d.m.Register(kind, func(in Inbound) error {
			e.ProcessMessage(in.Transport, in.Msg)
			return nil
		})
		d.handles = append(d.handles, h)
	}
	return d
}

// Dispatch routes one message. Unregistered kinds are dropped.
func (d *Dispatcher) Dispatch(tr Transport, msg *message.Message) {
	d.m.Fanout(msg.Kind(), Inbound{Transport: tr, Msg: msg}, nil)
}

// Close detaches every registration.
func (d *Dispatcher) Close() {
	for _, h := range d.handles {
		h.Close()
	}
}

// DiscardTransport swallows responses. Used for journal replay, where
// accept/reject outputs have no recipient.
type DiscardTransport struct{}

func (DiscardTransport) SendMessage(message.Attrs) {}
